// Package metrics exposes Prometheus collectors for the ledger and its RPC surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletledger"

// Metrics holds the collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	mutations     *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	loanSettles   prometheus.Counter
	eventFailures prometheus.Counter
}

// New creates the collectors and registers them, with Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_mutations_total",
			Help:      "Ledger mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		loanSettles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_settlements_total",
			Help:      "Loans that transitioned to settled during reconciliation.",
		}),
		eventFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Ledger events that could not be published.",
		}),
	}
	m.registry.MustRegister(
		m.mutations,
		m.rpcDuration,
		m.loanSettles,
		m.eventFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Mutation counts one ledger mutation. err decides the outcome label.
func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

// RPC observes the latency of one handled procedure.
func (m *Metrics) RPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}

// LoanSettled counts a loan reaching settled.
func (m *Metrics) LoanSettled() {
	if m == nil {
		return
	}
	m.loanSettles.Inc()
}

// EventFailed counts a failed event publish.
func (m *Metrics) EventFailed() {
	if m == nil {
		return
	}
	m.eventFailures.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
