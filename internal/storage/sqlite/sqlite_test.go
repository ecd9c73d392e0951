package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "walletledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func date(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateWallet generates ID and round-trips decimals", func(t *testing.T) {
		w := &models.Wallet{
			OwnerID:        "owner-1",
			Name:           "Cash",
			Type:           models.WalletCash,
			Currency:       "USD",
			Balance:        decimal.RequireFromString("500.25"),
			OpeningBalance: decimal.RequireFromString("500.25"),
			ExchangeRate:   decimal.NewFromInt(1),
			IsFlexible:     true,
		}
		if err := store.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		if w.ID == "" {
			t.Fatal("Expected wallet ID to be generated")
		}

		got, err := store.GetWallet(ctx, w.ID, "owner-1")
		if err != nil {
			t.Fatalf("GetWallet failed: %v", err)
		}
		if !got.Balance.Equal(w.Balance) {
			t.Errorf("Balance mismatch: got %s, want %s", got.Balance, w.Balance)
		}
		if got.Type != models.WalletCash || !got.IsFlexible || got.IsDefault {
			t.Errorf("Unexpected wallet flags: %+v", got)
		}
	})

	t.Run("GetWallet of another owner is not found", func(t *testing.T) {
		w := &models.Wallet{OwnerID: "owner-1", Name: "Bank", Type: models.WalletBankCard, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
		if err := store.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		_, err := store.GetWallet(ctx, w.ID, "owner-2")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddWalletBalance moves opening balance on request", func(t *testing.T) {
		w := &models.Wallet{OwnerID: "owner-1", Name: "Card", Type: models.WalletCreditCard, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
		if err := store.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		if err := store.AddWalletBalance(ctx, w.ID, "owner-1", decimal.NewFromInt(-30), false); err != nil {
			t.Fatalf("AddWalletBalance failed: %v", err)
		}
		if err := store.AddWalletBalance(ctx, w.ID, "owner-1", decimal.NewFromInt(100), true); err != nil {
			t.Fatalf("AddWalletBalance failed: %v", err)
		}
		got, _ := store.GetWallet(ctx, w.ID, "owner-1")
		if !got.Balance.Equal(decimal.NewFromInt(70)) {
			t.Errorf("Balance: got %s, want 70", got.Balance)
		}
		if !got.OpeningBalance.Equal(decimal.NewFromInt(100)) {
			t.Errorf("OpeningBalance: got %s, want 100", got.OpeningBalance)
		}
	})

	t.Run("AddWalletBalance on missing wallet is not found", func(t *testing.T) {
		err := store.AddWalletBalance(ctx, "missing", "owner-1", decimal.NewFromInt(1), false)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("only one default wallet per owner", func(t *testing.T) {
		a := &models.Wallet{OwnerID: "owner-3", Name: "A", Type: models.WalletCash, Currency: "USD", ExchangeRate: decimal.NewFromInt(1), IsDefault: true}
		b := &models.Wallet{OwnerID: "owner-3", Name: "B", Type: models.WalletCash, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
		for _, w := range []*models.Wallet{a, b} {
			if err := store.CreateWallet(ctx, w); err != nil {
				t.Fatalf("CreateWallet failed: %v", err)
			}
		}
		if err := store.SetDefaultWallet(ctx, b.ID, "owner-3"); !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("Expected ErrDuplicate for second default, got %v", err)
		}
		if err := store.ClearDefaultWallets(ctx, "owner-3"); err != nil {
			t.Fatalf("ClearDefaultWallets failed: %v", err)
		}
		if err := store.SetDefaultWallet(ctx, b.ID, "owner-3"); err != nil {
			t.Fatalf("SetDefaultWallet failed: %v", err)
		}
		wallets, err := store.ListWallets(ctx, "owner-3", false)
		if err != nil {
			t.Fatalf("ListWallets failed: %v", err)
		}
		if len(wallets) != 2 || wallets[0].ID != b.ID {
			t.Errorf("Expected default wallet first, got %+v", wallets)
		}
	})

	t.Run("InTx rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		var id string
		err := store.InTx(ctx, func(q storage.Queries) error {
			w := &models.Wallet{OwnerID: "owner-4", Name: "Temp", Type: models.WalletCash, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
			if err := q.CreateWallet(ctx, w); err != nil {
				return err
			}
			id = w.ID
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}
		if _, err := store.GetWallet(ctx, id, "owner-4"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected rolled back wallet to be missing, got %v", err)
		}
	})
}

func TestTransactionQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := "owner-1"

	wallet := &models.Wallet{OwnerID: owner, Name: "Cash", Type: models.WalletCash, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
	other := &models.Wallet{OwnerID: owner, Name: "Bank", Type: models.WalletBankCard, Currency: "USD", ExchangeRate: decimal.NewFromInt(1)}
	for _, w := range []*models.Wallet{wallet, other} {
		if err := store.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
	}
	food := &models.Category{OwnerID: owner, Name: "Food & Drinks", Type: models.CategoryExpense}
	if err := store.CreateCategory(ctx, food); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	txs := []*models.Transaction{
		{OwnerID: owner, Type: models.TypeExpense, Amount: decimal.NewFromInt(50), Currency: "USD", WalletID: wallet.ID, CategoryID: food.ID, Description: "Lunch", Date: date("2024-03-01")},
		{OwnerID: owner, Type: models.TypeExpense, Amount: decimal.NewFromInt(30), Currency: "USD", WalletID: wallet.ID, Description: "100% cotton_shirt", Date: date("2024-03-05")},
		{OwnerID: owner, Type: models.TypeTransfer, Amount: decimal.NewFromInt(20), Currency: "USD", WalletID: wallet.ID, ToWalletID: other.ID,
			ToAmount: decimal.NewNullDecimal(decimal.NewFromInt(20)), Date: date("2024-03-05")},
		{OwnerID: owner, Type: models.TypeIncome, Amount: decimal.NewFromInt(1000), Currency: "USD", WalletID: other.ID, Description: "Salary", Date: date("2024-04-01")},
	}
	for _, tx := range txs {
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	t.Run("GetTransaction round-trips optional fields", func(t *testing.T) {
		got, err := store.GetTransaction(ctx, txs[2].ID, owner)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.ToWalletID != other.ID || !got.ToAmount.Valid || !got.ToAmount.Decimal.Equal(decimal.NewFromInt(20)) {
			t.Errorf("Unexpected transfer legs: %+v", got)
		}
		if got.OriginalAmount.Valid || got.CategoryID != "" {
			t.Errorf("Expected empty optional fields, got %+v", got)
		}
		if !got.Date.Equal(date("2024-03-05")) {
			t.Errorf("Date: got %v", got.Date)
		}
	})

	tests := []struct {
		name   string
		filter storage.TransactionFilter
		want   []string
	}{
		{"all newest first", storage.TransactionFilter{}, []string{txs[3].ID, txs[2].ID, txs[1].ID, txs[0].ID}},
		{"date range", storage.TransactionFilter{Start: date("2024-03-01"), End: date("2024-03-31")}, []string{txs[2].ID, txs[1].ID, txs[0].ID}},
		{"wallet matches either leg", storage.TransactionFilter{WalletID: other.ID}, []string{txs[3].ID, txs[2].ID}},
		{"by type", storage.TransactionFilter{Type: models.TypeExpense}, []string{txs[1].ID, txs[0].ID}},
		{"search category name", storage.TransactionFilter{Search: "DRINKS"}, []string{txs[0].ID}},
		{"search treats wildcards literally", storage.TransactionFilter{Search: "0% cotton_"}, []string{txs[1].ID}},
		{"underscore is not a wildcard", storage.TransactionFilter{Search: "n_h"}, nil},
		{"limit and offset", storage.TransactionFilter{Limit: 2, Offset: 1}, []string{txs[2].ID, txs[1].ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListTransactions(ctx, owner, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	t.Run("search folds non-ASCII case", func(t *testing.T) {
		const abroad = "owner-2"
		w := &models.Wallet{OwnerID: abroad, Name: "Porte-monnaie", Type: models.WalletCash, Currency: "EUR", ExchangeRate: decimal.NewFromInt(1)}
		if err := store.CreateWallet(ctx, w); err != nil {
			t.Fatalf("CreateWallet failed: %v", err)
		}
		cat := &models.Category{OwnerID: abroad, Name: "ÉPICERIE", Type: models.CategoryExpense}
		if err := store.CreateCategory(ctx, cat); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		cafe := &models.Transaction{OwnerID: abroad, Type: models.TypeExpense, Amount: decimal.NewFromInt(4), Currency: "EUR", WalletID: w.ID, Description: "CAFÉ Central", Date: date("2024-03-02")}
		market := &models.Transaction{OwnerID: abroad, Type: models.TypeExpense, Amount: decimal.NewFromInt(12), Currency: "EUR", WalletID: w.ID, CategoryID: cat.ID, Description: "Marché", Date: date("2024-03-01")}
		for _, tx := range []*models.Transaction{cafe, market} {
			if err := store.CreateTransaction(ctx, tx); err != nil {
				t.Fatalf("CreateTransaction failed: %v", err)
			}
		}

		cases := []struct {
			search string
			want   []string
		}{
			{"café", []string{cafe.ID}},
			{"CAFÉ CENTRAL", []string{cafe.ID}},
			{"épicerie", []string{market.ID}},
			{"MARCHÉ", []string{market.ID}},
			{"cafe", nil},
		}
		for _, c := range cases {
			got, err := store.ListTransactions(ctx, abroad, storage.TransactionFilter{Search: c.search})
			if err != nil {
				t.Fatalf("ListTransactions(%q) failed: %v", c.search, err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("search %q: got %d transactions, want %d", c.search, len(got), len(c.want))
			}
			for i := range got {
				if got[i].ID != c.want[i] {
					t.Errorf("search %q position %d: got %s, want %s", c.search, i, got[i].ID, c.want[i])
				}
			}
			n, err := store.CountTransactions(ctx, abroad, storage.TransactionFilter{Search: c.search})
			if err != nil {
				t.Fatalf("CountTransactions(%q) failed: %v", c.search, err)
			}
			if n != len(c.want) {
				t.Errorf("search %q: count %d, want %d", c.search, n, len(c.want))
			}
		}
	})

	t.Run("CountTransactions ignores paging", func(t *testing.T) {
		n, err := store.CountTransactions(ctx, owner, storage.TransactionFilter{Limit: 1})
		if err != nil {
			t.Fatalf("CountTransactions failed: %v", err)
		}
		if n != 4 {
			t.Errorf("got %d, want 4", n)
		}
	})

	t.Run("DetachWallet clears both legs", func(t *testing.T) {
		if err := store.DetachWallet(ctx, other.ID, owner); err != nil {
			t.Fatalf("DetachWallet failed: %v", err)
		}
		transfer, _ := store.GetTransaction(ctx, txs[2].ID, owner)
		income, _ := store.GetTransaction(ctx, txs[3].ID, owner)
		if transfer.ToWalletID != "" || income.WalletID != "" {
			t.Errorf("Expected references cleared, got %q and %q", transfer.ToWalletID, income.WalletID)
		}
		if transfer.WalletID != wallet.ID {
			t.Errorf("Source leg should be kept, got %q", transfer.WalletID)
		}
	})

	t.Run("deleting a category uncategorizes its transactions", func(t *testing.T) {
		if err := store.DeleteCategory(ctx, food.ID, owner); err != nil {
			t.Fatalf("DeleteCategory failed: %v", err)
		}
		got, _ := store.GetTransaction(ctx, txs[0].ID, owner)
		if got.CategoryID != "" {
			t.Errorf("Expected category cleared, got %q", got.CategoryID)
		}
	})
}

func TestLoanQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	loan := &models.Loan{
		OwnerID:      "owner-1",
		Direction:    models.Lend,
		Counterparty: "Bob",
		TotalAmount:  decimal.NewFromInt(100),
		Currency:     "USD",
		Status:       models.LoanActive,
		StartDate:    date("2024-01-10"),
	}
	if err := store.CreateLoan(ctx, loan); err != nil {
		t.Fatalf("CreateLoan failed: %v", err)
	}

	repayment := &models.Transaction{OwnerID: "owner-1", Type: models.TypeIncome, Amount: decimal.NewFromInt(40), Currency: "USD", LoanID: loan.ID, Date: date("2024-02-01")}
	if err := store.CreateTransaction(ctx, repayment); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := store.SetLoanState(ctx, loan.ID, "owner-1", decimal.NewFromInt(40), models.LoanActive); err != nil {
		t.Fatalf("SetLoanState failed: %v", err)
	}
	got, err := store.GetLoan(ctx, loan.ID, "owner-1")
	if err != nil {
		t.Fatalf("GetLoan failed: %v", err)
	}
	if !got.PaidAmount.Equal(decimal.NewFromInt(40)) || !got.DueDate.IsZero() {
		t.Errorf("Unexpected loan: %+v", got)
	}

	settled, err := store.ListLoans(ctx, "owner-1", models.LoanSettled)
	if err != nil {
		t.Fatalf("ListLoans failed: %v", err)
	}
	if len(settled) != 0 {
		t.Errorf("Expected no settled loans, got %d", len(settled))
	}

	linked, _ := store.ListTransactions(ctx, "owner-1", storage.TransactionFilter{LoanID: loan.ID})
	if len(linked) != 1 {
		t.Fatalf("Expected one linked repayment, got %d", len(linked))
	}

	if err := store.UnlinkLoan(ctx, loan.ID, "owner-1"); err != nil {
		t.Fatalf("UnlinkLoan failed: %v", err)
	}
	if err := store.DeleteLoan(ctx, loan.ID, "owner-1"); err != nil {
		t.Fatalf("DeleteLoan failed: %v", err)
	}
	kept, err := store.GetTransaction(ctx, repayment.ID, "owner-1")
	if err != nil {
		t.Fatalf("repayment should survive loan deletion: %v", err)
	}
	if kept.LoanID != "" {
		t.Errorf("Expected loan link cleared, got %q", kept.LoanID)
	}
}

func TestCatalogQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := "owner-1"

	t.Run("duplicate category name and type", func(t *testing.T) {
		first := &models.Category{OwnerID: owner, Name: "Salary", Type: models.CategoryIncome}
		if err := store.CreateCategory(ctx, first); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		dup := &models.Category{OwnerID: owner, Name: "Salary", Type: models.CategoryIncome}
		if err := store.CreateCategory(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
		found, err := store.FindCategory(ctx, owner, "Salary", models.CategoryIncome)
		if err != nil || found.ID != first.ID {
			t.Errorf("FindCategory: got %+v, %v", found, err)
		}
	})

	t.Run("budget upsert keeps one row per month", func(t *testing.T) {
		c := &models.Category{OwnerID: owner, Name: "Food", Type: models.CategoryExpense}
		if err := store.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		first := &models.Budget{OwnerID: owner, CategoryID: c.ID, Month: 3, Year: 2024, Amount: decimal.NewFromInt(200)}
		if err := store.CreateBudget(ctx, first); err != nil {
			t.Fatalf("CreateBudget failed: %v", err)
		}
		second := &models.Budget{OwnerID: owner, CategoryID: c.ID, Month: 3, Year: 2024, Amount: decimal.NewFromInt(250)}
		if err := store.CreateBudget(ctx, second); err != nil {
			t.Fatalf("CreateBudget failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("Expected upsert to keep ID %s, got %s", first.ID, second.ID)
		}
		budgets, err := store.ListBudgets(ctx, owner, 3, 2024)
		if err != nil {
			t.Fatalf("ListBudgets failed: %v", err)
		}
		if len(budgets) != 1 || !budgets[0].Amount.Equal(decimal.NewFromInt(250)) {
			t.Errorf("Unexpected budgets: %+v", budgets)
		}
	})

	t.Run("goal deadline is optional", func(t *testing.T) {
		g := &models.SavingsGoal{OwnerID: owner, Name: "Trip", TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(250), Currency: "USD"}
		if err := store.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}
		got, err := store.GetGoal(ctx, g.ID, owner)
		if err != nil {
			t.Fatalf("GetGoal failed: %v", err)
		}
		if !got.Deadline.IsZero() || !got.CurrentAmount.Equal(decimal.NewFromInt(250)) {
			t.Errorf("Unexpected goal: %+v", got)
		}
	})

	t.Run("sub-ledger update and delete", func(t *testing.T) {
		s := &models.SubLedger{OwnerID: owner, Name: "Trip to Japan"}
		if err := store.CreateSubLedger(ctx, s); err != nil {
			t.Fatalf("CreateSubLedger failed: %v", err)
		}
		s.ExcludeFromStats = true
		if err := store.UpdateSubLedger(ctx, s); err != nil {
			t.Fatalf("UpdateSubLedger failed: %v", err)
		}
		got, _ := store.GetSubLedger(ctx, s.ID, owner)
		if !got.ExcludeFromStats {
			t.Error("Expected ExcludeFromStats to be persisted")
		}
		if err := store.DeleteSubLedger(ctx, s.ID, owner); err != nil {
			t.Fatalf("DeleteSubLedger failed: %v", err)
		}
		if err := store.DeleteSubLedger(ctx, s.ID, owner); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestMigrationsAreVersioned(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "v.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.Close()

	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("got version %d dirty=%v, want 1 clean", version, dirty)
	}
	// running again is a no-op
	if err := RunMigrations(dbPath); err != nil {
		t.Errorf("RunMigrations on migrated database failed: %v", err)
	}
}
