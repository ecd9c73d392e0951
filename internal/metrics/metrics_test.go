package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestMutationOutcomes(t *testing.T) {
	m := New()
	m.Mutation("transaction.create", nil)
	m.Mutation("transaction.create", nil)
	m.Mutation("transaction.create", errors.New("boom"))

	out := scrape(t, m)
	for _, want := range []string{
		`walletledger_ledger_mutations_total{op="transaction.create",outcome="ok"} 2`,
		`walletledger_ledger_mutations_total{op="transaction.create",outcome="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Mutation("x", nil)
	m.RPC("/p", "ok", time.Second)
	m.LoanSettled()
	m.EventFailed()
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RPC("/walletledger.v1.WalletService/ListWallets", "ok", 10*time.Millisecond)
	m.LoanSettled()

	out := scrape(t, m)
	for _, want := range []string{
		"walletledger_rpc_duration_seconds_bucket",
		"walletledger_loan_settlements_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
