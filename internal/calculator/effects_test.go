package calculator

import (
	"testing"

	"github.com/mmynk/walletledger/internal/models"
)

func TestTransactionEffects(t *testing.T) {
	tests := []struct {
		name string
		tx   *models.Transaction
		want map[string]string
	}{
		{
			name: "expense debits source",
			tx:   &models.Transaction{Type: models.TypeExpense, Amount: d("50"), WalletID: "a"},
			want: map[string]string{"a": "-50"},
		},
		{
			name: "income credits source",
			tx:   &models.Transaction{Type: models.TypeIncome, Amount: d("20.5"), WalletID: "a"},
			want: map[string]string{"a": "20.5"},
		},
		{
			name: "same currency transfer",
			tx:   &models.Transaction{Type: models.TypeTransfer, Amount: d("30"), WalletID: "a", ToWalletID: "b"},
			want: map[string]string{"a": "-30", "b": "30"},
		},
		{
			name: "cross currency transfer credits destination amount",
			tx: &models.Transaction{
				Type: models.TypeTransfer, Amount: d("100"), WalletID: "myr", ToWalletID: "usd",
				ToAmount: nd("21.37"),
			},
			want: map[string]string{"myr": "-100", "usd": "21.37"},
		},
		{
			name: "detached source leg is ignored",
			tx:   &models.Transaction{Type: models.TypeTransfer, Amount: d("10"), ToWalletID: "b"},
			want: map[string]string{"b": "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransactionEffects(tt.tx)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d effects, want %d: %v", len(got), len(tt.want), got)
			}
			for id, want := range tt.want {
				assertDecimal(t, id, got[id], want)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	old := &models.Transaction{Type: models.TypeExpense, Amount: d("50"), WalletID: "a"}
	edited := &models.Transaction{Type: models.TypeExpense, Amount: d("80"), WalletID: "a"}

	t.Run("edit applies only the difference", func(t *testing.T) {
		got := Rewrite(old, edited)
		assertDecimal(t, "a", got["a"], "-30")
	})

	t.Run("create and delete", func(t *testing.T) {
		assertDecimal(t, "create", Rewrite(nil, old)["a"], "-50")
		assertDecimal(t, "delete", Rewrite(old, nil)["a"], "50")
	})

	t.Run("moving to another wallet", func(t *testing.T) {
		moved := &models.Transaction{Type: models.TypeExpense, Amount: d("50"), WalletID: "b"}
		got := Rewrite(old, moved)
		assertDecimal(t, "a", got["a"], "50")
		assertDecimal(t, "b", got["b"], "-50")
	})

	t.Run("no-op edit has no effects", func(t *testing.T) {
		if got := Rewrite(old, old); len(got) != 0 {
			t.Errorf("expected no effects, got %v", got)
		}
	})
}

// Wallet A at 500 -> expense 50 -> edited to 80 -> deleted.
func TestBalanceScenario(t *testing.T) {
	balance := d("500.00")
	apply := func(e Effects) {
		balance = balance.Add(e["a"])
	}

	tx := &models.Transaction{Type: models.TypeExpense, Amount: d("50.00"), WalletID: "a"}
	apply(Rewrite(nil, tx))
	assertDecimal(t, "after create", balance, "450.00")

	edited := *tx
	edited.Amount = d("80.00")
	apply(Rewrite(tx, &edited))
	assertDecimal(t, "after edit", balance, "420.00")

	apply(Rewrite(&edited, nil))
	assertDecimal(t, "after delete", balance, "500.00")
}

func TestReplayBalance(t *testing.T) {
	txs := []*models.Transaction{
		{Type: models.TypeIncome, Amount: d("1000"), WalletID: "a"},
		{Type: models.TypeExpense, Amount: d("120.40"), WalletID: "a"},
		{Type: models.TypeTransfer, Amount: d("200"), WalletID: "a", ToWalletID: "b", ToAmount: nd("42.5")},
		{Type: models.TypeExpense, Amount: d("5"), WalletID: "b"},
	}
	assertDecimal(t, "a", ReplayBalance("a", d("0"), txs), "679.60")
	assertDecimal(t, "b", ReplayBalance("b", d("10"), txs), "47.5")
}
