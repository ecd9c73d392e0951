package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

func sampleJournal() Journal {
	return Journal{
		WalletRates: map[string]decimal.Decimal{
			"myr": d("1"),
			"usd": d("4.5"),
		},
		CategoryNames: map[string]string{
			"food":   "Food & Drinks",
			"travel": "Transport",
			"salary": "Salary",
		},
		ExcludedSubLedgers: map[string]bool{"trip": true},
		Transactions: []*models.Transaction{
			{Type: models.TypeIncome, Amount: d("3000"), WalletID: "myr", CategoryID: "salary", Date: day("2025-03-01")},
			{Type: models.TypeExpense, Amount: d("40"), WalletID: "myr", CategoryID: "food", Date: day("2025-03-02")},
			{Type: models.TypeExpense, Amount: d("10"), WalletID: "usd", CategoryID: "food", Date: day("2025-03-31")},
			{Type: models.TypeExpense, Amount: d("100"), WalletID: "myr", CategoryID: "travel", Date: day("2025-03-15")},
			// loan-linked: never counted
			{Type: models.TypeExpense, Amount: d("500"), WalletID: "myr", CategoryID: "food", LoanID: "loan", Date: day("2025-03-10")},
			// excluded sub-ledger
			{Type: models.TypeExpense, Amount: d("70"), WalletID: "myr", CategoryID: "travel", SubLedgerID: "trip", Date: day("2025-03-11")},
			// out of range
			{Type: models.TypeExpense, Amount: d("999"), WalletID: "myr", CategoryID: "food", Date: day("2025-04-01")},
			{Type: models.TypeTransfer, Amount: d("200"), WalletID: "myr", ToWalletID: "usd", Date: day("2025-03-05")},
			// detached wallet: rate 1
			{Type: models.TypeExpense, Amount: d("5"), CategoryID: "", Date: day("2025-03-20")},
		},
	}
}

func TestStatsForPeriod(t *testing.T) {
	start, end := MonthBounds(2025, 3)
	stats := StatsForPeriod(sampleJournal(), start, end)

	assertDecimal(t, "Income", stats.Income, "3000")
	// 40 + 10*4.5 + 100 + 5
	assertDecimal(t, "Expense", stats.Expense, "190")
	assertDecimal(t, "Net", stats.Net, "2810")

	if stats.IncomeCount != 1 || stats.ExpenseCount != 4 || stats.TransferCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/4/1", stats.IncomeCount, stats.ExpenseCount, stats.TransferCount)
	}

	want := []struct {
		name  string
		total string
	}{
		{"Transport", "100"},
		{"Food & Drinks", "85"},
		{UncategorizedName, "5"},
	}
	if len(stats.ByCategory) != len(want) {
		t.Fatalf("got %d categories, want %d", len(stats.ByCategory), len(want))
	}
	for i, w := range want {
		got := stats.ByCategory[i]
		if got.Name != w.name {
			t.Errorf("ByCategory[%d].Name = %s, want %s", i, got.Name, w.name)
		}
		assertDecimal(t, w.name, got.Total, w.total)
	}
}

func TestStatsForPeriodSubLedger(t *testing.T) {
	j := sampleJournal()
	j.SubLedgerID = "trip"
	stats := StatsForPeriod(j, day("2025-03-01"), day("2025-03-31"))

	assertDecimal(t, "Expense", stats.Expense, "70")
	assertDecimal(t, "Income", stats.Income, "0")
}

func TestBudgetSpending(t *testing.T) {
	budgets := []*models.Budget{
		{ID: "b1", CategoryID: "food", Month: 3, Year: 2025, Amount: d("50")},
		{ID: "b2", CategoryID: "travel", Month: 3, Year: 2025, Amount: d("300")},
		{ID: "b3", CategoryID: "food", Month: 4, Year: 2025, Amount: d("1000")},
	}

	got := BudgetSpending(sampleJournal(), budgets)
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}

	tests := []struct {
		spent     string
		remaining string
		overspent bool
	}{
		{"85", "-35", true},
		{"100", "200", false},
		{"999", "1", false},
	}
	for i, tt := range tests {
		assertDecimal(t, got[i].Budget.ID+" spent", got[i].Spent, tt.spent)
		assertDecimal(t, got[i].Budget.ID+" remaining", got[i].Remaining, tt.remaining)
		if got[i].Overspent != tt.overspent {
			t.Errorf("%s Overspent = %v, want %v", got[i].Budget.ID, got[i].Overspent, tt.overspent)
		}
	}
	if got[0].CategoryName != "Food & Drinks" {
		t.Errorf("CategoryName = %s", got[0].CategoryName)
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		year, month int
		first, last string
	}{
		{2025, 1, "2025-01-01", "2025-01-31"},
		{2024, 2, "2024-02-01", "2024-02-29"},
		{2025, 12, "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		first, last := MonthBounds(tt.year, tt.month)
		if got := first.Format(models.DateLayout); got != tt.first {
			t.Errorf("first = %s, want %s", got, tt.first)
		}
		if got := last.Format(models.DateLayout); got != tt.last {
			t.Errorf("last = %s, want %s", got, tt.last)
		}
	}
}

func TestGoalProgress(t *testing.T) {
	g := &models.SavingsGoal{TargetAmount: d("2000"), CurrentAmount: d("500")}
	assertDecimal(t, "progress", GoalProgress(g), "0.25")

	g.TargetAmount = d("0")
	assertDecimal(t, "zero target", GoalProgress(g), "0")
}
