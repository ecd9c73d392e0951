// Package ledger is the accounting core: it keeps wallet balances, the
// transaction journal and loan positions consistent with each other.
//
// Balances are cached and maintained by delta application. Every write
// reverses the effects of the old record before applying the new one, and
// the whole "write record + move balances + reconcile loans" sequence runs in
// one storage transaction. Full recomputation is only used to audit.
package ledger

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/metrics"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// Ledger implements the wallet, journal, loan, aggregation and seeding
// operations on top of a storage.Store.
type Ledger struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the event publisher. Defaults to events.Nop.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithMetrics enables mutation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides the clock used for default transaction dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: events.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// today is the current civil date in UTC.
func (l *Ledger) today() time.Time {
	return models.CivilDate(l.now().UTC())
}

// touched collects what a mutation changed, for events and metrics.
type touched struct {
	wallets map[string]bool
	loans   map[string]bool
	settled int
}

func newTouched() *touched {
	return &touched{wallets: map[string]bool{}, loans: map[string]bool{}}
}

func (t *touched) event(kind events.Kind, ownerID, entityID string) events.Event {
	e := events.New(kind, ownerID, entityID)
	e.WalletIDs = slices.Sorted(maps.Keys(t.wallets))
	e.LoanIDs = slices.Sorted(maps.Keys(t.loans))
	return e
}

// mutate runs fn in one storage transaction and classifies its error.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(q storage.Queries) error) error {
	err := wrap(op, l.store.InTx(ctx, fn))
	l.metrics.Mutation(op, err)
	if err != nil && KindOf(err) == KindInternal {
		slog.ErrorContext(ctx, "Ledger mutation failed", "op", op, "error", err)
	}
	return err
}

// commit records post-commit side effects of a successful mutation.
func (l *Ledger) commit(ctx context.Context, t *touched, e events.Event) {
	for range t.settled {
		l.metrics.LoanSettled()
	}
	if err := l.publisher.Publish(ctx, e); err != nil {
		l.metrics.EventFailed()
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"kind", e.Kind,
			"owner_id", e.OwnerID,
			"entity_id", e.EntityID,
			"error", err)
	}
}

// applyEffects moves cached balances by the given deltas, in wallet ID order.
func applyEffects(ctx context.Context, q storage.Queries, ownerID string, eff calculator.Effects, t *touched) error {
	for _, id := range slices.Sorted(maps.Keys(eff)) {
		delta := eff[id]
		if delta.IsZero() {
			continue
		}
		if err := q.AddWalletBalance(ctx, id, ownerID, delta, false); err != nil {
			return err
		}
		t.wallets[id] = true
	}
	return nil
}

func requireOwner(op, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalidf(op, "owner id is required")
	}
	return nil
}
