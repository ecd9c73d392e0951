package ledger

import (
	"context"
	"testing"

	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

func TestEditReversesBeforeReapplying(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "MYR", "500.00")

	tx := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("50.00"), WalletID: a.ID})
	assertBalance(t, l, a.ID, "450.00")

	if _, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{Amount: ptr(d("80.00"))}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	assertBalance(t, l, a.ID, "420.00")

	if err := l.DeleteTransaction(ctx, tx.ID, owner); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	assertBalance(t, l, a.ID, "500.00")
	assertInBalance(t, l)
}

func TestTransferSymmetry(t *testing.T) {
	l, _ := newTestLedger(t)
	x := mustWallet(t, l, "X", "USD", "1000")
	y := mustWallet(t, l, "Y", "EUR", "0")

	tests := []struct {
		name   string
		in     TransactionInput
		wantX  string
		wantY  string
		wantTo string
	}{
		{
			name:   "explicit destination amount",
			in:     TransactionInput{Type: models.TypeTransfer, Amount: d("100"), WalletID: x.ID, ToWalletID: y.ID, ToAmount: nd("92.50")},
			wantX:  "900",
			wantY:  "92.50",
			wantTo: "92.50",
		},
		{
			name:   "destination amount from rate",
			in:     TransactionInput{Type: models.TypeTransfer, Amount: d("100"), WalletID: x.ID, ToWalletID: y.ID, ToExchangeRate: nd("0.9")},
			wantX:  "800",
			wantY:  "182.50",
			wantTo: "90",
		},
		{
			name:   "ratio far from any market rate",
			in:     TransactionInput{Type: models.TypeTransfer, Amount: d("10"), WalletID: x.ID, ToWalletID: y.ID, ToAmount: nd("1000")},
			wantX:  "790",
			wantY:  "1182.50",
			wantTo: "1000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := mustTx(t, l, tt.in)
			if !tx.ToAmount.Valid || !tx.ToAmount.Decimal.Equal(d(tt.wantTo)) {
				t.Errorf("ToAmount = %v, want %s", tx.ToAmount, tt.wantTo)
			}
			assertBalance(t, l, x.ID, tt.wantX)
			assertBalance(t, l, y.ID, tt.wantY)
		})
	}
	assertInBalance(t, l)
}

func TestCreateTransactionValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	usd := mustWallet(t, l, "USD", "USD", "100")
	eur := mustWallet(t, l, "EUR", "EUR", "100")

	other, err := l.CreateWallet(ctx, "owner-2", CreateWalletInput{Name: "Theirs", Type: models.WalletCash, Currency: "USD"})
	if err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
	income, err := l.CreateCategory(ctx, owner, CategoryInput{Name: "Salary", Type: models.CategoryIncome})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	tests := []struct {
		name string
		in   TransactionInput
	}{
		{"unknown type", TransactionInput{Type: "gift", Amount: d("1"), WalletID: usd.ID}},
		{"zero amount", TransactionInput{Type: models.TypeExpense, Amount: d("0"), WalletID: usd.ID}},
		{"negative amount", TransactionInput{Type: models.TypeExpense, Amount: d("-5"), WalletID: usd.ID}},
		{"missing wallet", TransactionInput{Type: models.TypeExpense, Amount: d("1")}},
		{"wallet of another owner", TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: other.ID}},
		{"transfer without destination", TransactionInput{Type: models.TypeTransfer, Amount: d("1"), WalletID: usd.ID}},
		{"transfer to itself", TransactionInput{Type: models.TypeTransfer, Amount: d("1"), WalletID: usd.ID, ToWalletID: usd.ID}},
		{"transfer to another owner", TransactionInput{Type: models.TypeTransfer, Amount: d("1"), WalletID: usd.ID, ToWalletID: other.ID}},
		{"cross-currency transfer without amount or rate", TransactionInput{Type: models.TypeTransfer, Amount: d("1"), WalletID: usd.ID, ToWalletID: eur.ID}},
		{"destination on expense", TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: usd.ID, ToWalletID: eur.ID}},
		{"original currency without rate", TransactionInput{Type: models.TypeExpense, OriginalAmount: nd("10"), OriginalCurrency: "JPY", WalletID: usd.ID}},
		{"category type mismatch", TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: usd.ID, CategoryID: income.ID}},
		{"unknown category", TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: usd.ID, CategoryID: "nope"}},
		{"unknown loan", TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: usd.ID, LoanID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateTransaction(ctx, owner, tt.in)
			assertKind(t, err, ErrInvalidArgument)
		})
	}

	assertBalance(t, l, usd.ID, "100")
	assertBalance(t, l, eur.ID, "100")
}

func TestOriginalAmountIsConverted(t *testing.T) {
	l, _ := newTestLedger(t)
	w := mustWallet(t, l, "MYR", "MYR", "1000")

	tx := mustTx(t, l, TransactionInput{
		Type:             models.TypeExpense,
		OriginalAmount:   nd("20"),
		OriginalCurrency: "usd",
		ExchangeRate:     nd("4.5"),
		WalletID:         w.ID,
	})
	if !tx.Amount.Equal(d("90")) || tx.Currency != "MYR" || tx.OriginalCurrency != "USD" {
		t.Errorf("unexpected conversion: amount %s %s, original %s", tx.Amount, tx.Currency, tx.OriginalCurrency)
	}
	assertBalance(t, l, w.ID, "910")

	// changing only the rate re-derives the amount
	if _, err := l.UpdateTransaction(context.Background(), tx.ID, owner, TransactionPatch{ExchangeRate: ptr(d("5"))}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	assertBalance(t, l, w.ID, "900")
}

func TestUpdateMovesBetweenWalletsAndTypes(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	b := mustWallet(t, l, "B", "USD", "100")

	tx := mustTx(t, l, TransactionInput{Type: models.TypeTransfer, Amount: d("30"), WalletID: a.ID, ToWalletID: b.ID})
	assertBalance(t, l, a.ID, "70")
	assertBalance(t, l, b.ID, "130")

	// transfer becomes an income of B; destination fields are dropped
	updated, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{
		Type:     ptr(models.TypeIncome),
		WalletID: ptr(b.ID),
	})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if updated.ToWalletID != "" || updated.ToAmount.Valid {
		t.Errorf("expected destination cleared, got %+v", updated)
	}
	assertBalance(t, l, a.ID, "100")
	assertBalance(t, l, b.ID, "130")

	// and back into an expense of A
	if _, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{Type: ptr(models.TypeExpense), WalletID: ptr(a.ID)}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	assertBalance(t, l, a.ID, "70")
	assertBalance(t, l, b.ID, "100")

	// a destination amount priced by rate follows a new source amount
	m := mustWallet(t, l, "M", "MYR", "0")
	fx := mustTx(t, l, TransactionInput{Type: models.TypeTransfer, Amount: d("10"), WalletID: a.ID, ToWalletID: m.ID, ToExchangeRate: nd("4.5")})
	assertBalance(t, l, m.ID, "45")

	updated, err = l.UpdateTransaction(ctx, fx.ID, owner, TransactionPatch{Amount: ptr(d("20"))})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if !updated.ToAmount.Decimal.Equal(d("90")) || !updated.ToExchangeRate.Decimal.Equal(d("4.5")) {
		t.Errorf("ToAmount = %s at rate %s, want 90 at 4.5", updated.ToAmount.Decimal, updated.ToExchangeRate.Decimal)
	}
	assertBalance(t, l, a.ID, "50")
	assertBalance(t, l, m.ID, "90")

	// a new rate alone re-prices the destination leg
	if _, err := l.UpdateTransaction(ctx, fx.ID, owner, TransactionPatch{ToExchangeRate: ptr(d("4"))}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	assertBalance(t, l, m.ID, "80")

	// an explicit destination amount replaces the rate
	updated, err = l.UpdateTransaction(ctx, fx.ID, owner, TransactionPatch{ToAmount: ptr(d("85"))})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if updated.ToExchangeRate.Valid {
		t.Errorf("expected destination rate cleared, got %s", updated.ToExchangeRate.Decimal)
	}
	assertBalance(t, l, m.ID, "85")

	// and a later source amount change keeps the explicit destination amount
	if _, err := l.UpdateTransaction(ctx, fx.ID, owner, TransactionPatch{Amount: ptr(d("25"))}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	assertBalance(t, l, a.ID, "45")
	assertBalance(t, l, m.ID, "85")
	assertInBalance(t, l)
}

func TestMoveAcrossCurrencies(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	usd := mustWallet(t, l, "USD", "USD", "100")
	myr := mustWallet(t, l, "MYR", "MYR", "0")

	tx := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: usd.ID})

	_, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{WalletID: ptr(myr.ID)})
	assertKind(t, err, ErrInvalidArgument)
	assertBalance(t, l, usd.ID, "90")
	assertBalance(t, l, myr.ID, "0")

	moved, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{WalletID: ptr(myr.ID), Amount: ptr(d("45"))})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if moved.Currency != "MYR" {
		t.Errorf("Currency = %s, want MYR", moved.Currency)
	}
	assertBalance(t, l, usd.ID, "100")
	assertBalance(t, l, myr.ID, "-45")

	// a captured original amount is converted again with the new rate
	orig := mustTx(t, l, TransactionInput{Type: models.TypeExpense, OriginalAmount: nd("10"), OriginalCurrency: "USD", WalletID: usd.ID})
	assertBalance(t, l, usd.ID, "90")
	moved, err = l.UpdateTransaction(ctx, orig.ID, owner, TransactionPatch{WalletID: ptr(myr.ID), ExchangeRate: ptr(d("4.5"))})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if !moved.Amount.Equal(d("45")) || moved.OriginalCurrency != "USD" {
		t.Errorf("unexpected conversion: amount %s, original %s", moved.Amount, moved.OriginalCurrency)
	}
	assertBalance(t, l, usd.ID, "100")
	assertBalance(t, l, myr.ID, "-90")
	assertInBalance(t, l)
}

func TestDetachedTransactionStaysEditable(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	b := mustWallet(t, l, "B", "USD", "100")

	expense := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: b.ID})
	transfer := mustTx(t, l, TransactionInput{Type: models.TypeTransfer, Amount: d("5"), WalletID: a.ID, ToWalletID: b.ID})
	if err := l.DeleteWallet(ctx, b.ID, owner, false); err != nil {
		t.Fatalf("DeleteWallet failed: %v", err)
	}
	assertBalance(t, l, a.ID, "95")

	updated, err := l.UpdateTransaction(ctx, expense.ID, owner, TransactionPatch{Description: ptr("Groceries")})
	if err != nil {
		t.Fatalf("UpdateTransaction on detached expense failed: %v", err)
	}
	if updated.WalletID != "" || updated.Currency != "USD" || updated.Description != "Groceries" {
		t.Errorf("unexpected detached record: %+v", updated)
	}

	if _, err := l.UpdateTransaction(ctx, transfer.ID, owner, TransactionPatch{Amount: ptr(d("8"))}); err != nil {
		t.Fatalf("UpdateTransaction on detached transfer failed: %v", err)
	}
	assertBalance(t, l, a.ID, "92")

	// re-attaching posts the effect on the new wallet
	if _, err := l.UpdateTransaction(ctx, expense.ID, owner, TransactionPatch{WalletID: ptr(a.ID)}); err != nil {
		t.Fatalf("UpdateTransaction re-attach failed: %v", err)
	}
	assertBalance(t, l, a.ID, "82")

	// an explicitly cleared source is still rejected
	_, err = l.UpdateTransaction(ctx, expense.ID, owner, TransactionPatch{WalletID: ptr("")})
	assertKind(t, err, ErrInvalidArgument)
	assertInBalance(t, l)
}

func TestFailedUpdateLeavesBalancesUntouched(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	tx := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: a.ID})

	_, err := l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{Amount: ptr(d("0"))})
	assertKind(t, err, ErrInvalidArgument)
	assertBalance(t, l, a.ID, "90")

	_, err = l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{WalletID: ptr("missing")})
	assertKind(t, err, ErrInvalidArgument)
	assertBalance(t, l, a.ID, "90")
	assertInBalance(t, l)
}

func TestTransactionOwnerScope(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	tx := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: a.ID})

	if _, err := l.GetTransaction(ctx, tx.ID, "intruder"); err == nil {
		t.Fatal("expected error for another owner")
	} else {
		assertKind(t, err, ErrNotFound)
	}
	assertKind(t, l.DeleteTransaction(ctx, tx.ID, "intruder"), ErrNotFound)
	_, err := l.UpdateTransaction(ctx, tx.ID, "intruder", TransactionPatch{Amount: ptr(d("1"))})
	assertKind(t, err, ErrNotFound)
	assertBalance(t, l, a.ID, "90")
}

func TestListTransactionsPaging(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "10000")

	var last *models.Transaction
	for i := 0; i < 60; i++ {
		last = mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("1"), WalletID: a.ID, Date: day("2024-03-01")})
	}
	mustTx(t, l, TransactionInput{Type: models.TypeIncome, Amount: d("5"), WalletID: a.ID, Date: day("2024-02-01")})

	page, err := l.ListTransactions(ctx, owner, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(page.Transactions) != DefaultPageSize || page.Total != 61 {
		t.Errorf("got %d of %d, want %d of 61", len(page.Transactions), page.Total, DefaultPageSize)
	}
	if page.Transactions[0].ID != last.ID {
		t.Errorf("same-day ties should list the latest insertion first")
	}

	page, err = l.ListTransactions(ctx, owner, storage.TransactionFilter{Limit: 10000, Offset: -3})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if page.Limit != MaxPageSize || page.Offset != 0 || len(page.Transactions) != 61 {
		t.Errorf("unexpected page: limit %d offset %d len %d", page.Limit, page.Offset, len(page.Transactions))
	}
	if page.Transactions[60].Type != models.TypeIncome {
		t.Errorf("oldest date should come last")
	}

	_, err = l.ListTransactions(ctx, owner, storage.TransactionFilter{Start: day("2024-03-02"), End: day("2024-03-01")})
	assertKind(t, err, ErrInvalidArgument)
}

func TestDeleteAllForWallet(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	b := mustWallet(t, l, "B", "USD", "100")

	mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: a.ID})
	mustTx(t, l, TransactionInput{Type: models.TypeTransfer, Amount: d("20"), WalletID: b.ID, ToWalletID: a.ID})
	keep := mustTx(t, l, TransactionInput{Type: models.TypeIncome, Amount: d("5"), WalletID: b.ID})

	n, err := l.DeleteAllForWallet(ctx, a.ID, owner)
	if err != nil {
		t.Fatalf("DeleteAllForWallet failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	assertBalance(t, l, a.ID, "100")
	assertBalance(t, l, b.ID, "105")
	if _, err := l.GetTransaction(ctx, keep.ID, owner); err != nil {
		t.Errorf("unrelated transaction should survive: %v", err)
	}
	assertInBalance(t, l)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	l, rec := newTestLedger(t)
	ctx := context.Background()
	a := mustWallet(t, l, "A", "USD", "100")
	tx := mustTx(t, l, TransactionInput{Type: models.TypeExpense, Amount: d("10"), WalletID: a.ID})

	// a rejected mutation publishes nothing
	_, _ = l.UpdateTransaction(ctx, tx.ID, owner, TransactionPatch{Amount: ptr(d("-1"))})
	if err := l.DeleteTransaction(ctx, tx.ID, owner); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}

	want := []events.Kind{events.WalletCreated, events.TransactionCreated, events.TransactionDeleted}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if ids := rec.events[1].WalletIDs; len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("created event wallets = %v", ids)
	}
}
