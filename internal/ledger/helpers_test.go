package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage/sqlite"
)

const owner = "owner-1"

// recorder keeps every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newTestLedger(t *testing.T) (*Ledger, *recorder) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "walletledger-ledger-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rec := &recorder{}
	clock := func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return New(store, WithPublisher(rec), WithClock(clock)), rec
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

func mustWallet(t *testing.T, l *Ledger, name, currency, initial string) *models.Wallet {
	t.Helper()
	w, err := l.CreateWallet(context.Background(), owner, CreateWalletInput{
		Name:           name,
		Type:           models.WalletBankCard,
		Currency:       currency,
		InitialBalance: d(initial),
	})
	if err != nil {
		t.Fatalf("CreateWallet(%s) failed: %v", name, err)
	}
	return w
}

func mustTx(t *testing.T, l *Ledger, in TransactionInput) *models.Transaction {
	t.Helper()
	if in.Date.IsZero() {
		in.Date = day("2024-03-10")
	}
	tx, err := l.CreateTransaction(context.Background(), owner, in)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	return tx
}

func assertBalance(t *testing.T, l *Ledger, walletID, want string) {
	t.Helper()
	w, err := l.GetWallet(context.Background(), walletID, owner)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !w.Balance.Equal(d(want)) {
		t.Errorf("wallet %s balance = %s, want %s", w.Name, w.Balance, want)
	}
}

func assertKind(t *testing.T, err error, want *Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v error, got %v", want.Kind, err)
	}
}

// assertInBalance checks that every wallet still equals its opening balance
// plus the journal.
func assertInBalance(t *testing.T, l *Ledger) {
	t.Helper()
	audits, err := l.AuditBalances(context.Background(), owner)
	if err != nil {
		t.Fatalf("AuditBalances failed: %v", err)
	}
	for _, a := range audits {
		if !a.InBalance() {
			t.Errorf("wallet %s drifted by %s (cached %s, journal %s)", a.Wallet.Name, a.Drift, a.Wallet.Balance, a.Expected)
		}
	}
}
