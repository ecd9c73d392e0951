package calculator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

// UncategorizedName labels the bucket of transactions without a category.
const UncategorizedName = "Uncategorized"

// Journal is the replay input of the aggregation functions.
type Journal struct {
	Transactions []*models.Transaction

	// WalletRates maps wallet ID to its rate into the default currency.
	// Unknown wallets (for example detached ones) use rate 1.
	WalletRates map[string]decimal.Decimal

	// CategoryNames maps category ID to display name.
	CategoryNames map[string]string

	// ExcludedSubLedgers holds sub-ledgers kept out of top-level aggregates.
	ExcludedSubLedgers map[string]bool

	// SubLedgerID restricts aggregation to one sub-ledger when set.
	SubLedgerID string
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Total      decimal.Decimal
	Count      int
}

// PeriodStats are income/expense totals in the default currency.
type PeriodStats struct {
	Start time.Time
	End   time.Time

	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal

	IncomeCount   int
	ExpenseCount  int
	TransferCount int

	// ByCategory is sorted by total, largest first.
	ByCategory []CategoryTotal
}

// BudgetSpend is one budget row with the amount spent against it.
type BudgetSpend struct {
	Budget       models.Budget
	CategoryName string
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	Overspent    bool
}

// MonthBounds returns the first and last civil day of a month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// inRange reports whether d falls within [start, end], both inclusive.
// Zero bounds are open.
func inRange(d, start, end time.Time) bool {
	d = models.CivilDate(d)
	if !start.IsZero() && d.Before(models.CivilDate(start)) {
		return false
	}
	if !end.IsZero() && d.After(models.CivilDate(end)) {
		return false
	}
	return true
}

// counts reports whether tx takes part in aggregation. Loan cash flow is
// never income or expense.
func (j *Journal) counts(tx *models.Transaction) bool {
	if tx.LoanID != "" {
		return false
	}
	if j.SubLedgerID != "" {
		return tx.SubLedgerID == j.SubLedgerID
	}
	return !j.ExcludedSubLedgers[tx.SubLedgerID]
}

// normalized converts tx.Amount into the default currency with the wallet rate.
func (j *Journal) normalized(tx *models.Transaction) decimal.Decimal {
	if rate, ok := j.WalletRates[tx.WalletID]; ok && rate.IsPositive() {
		return Convert(tx.Amount, rate)
	}
	return tx.Amount
}

func (j *Journal) categoryName(id string) string {
	if id == "" {
		return UncategorizedName
	}
	if name, ok := j.CategoryNames[id]; ok {
		return name
	}
	return UncategorizedName
}

// StatsForPeriod replays the journal over [start, end] and totals income and
// expense in the default currency, with an expense breakdown by category.
func StatsForPeriod(j Journal, start, end time.Time) PeriodStats {
	stats := PeriodStats{
		Start:   start,
		End:     end,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	byCategory := make(map[string]*CategoryTotal)

	for _, tx := range j.Transactions {
		if !inRange(tx.Date, start, end) || !j.counts(tx) {
			continue
		}
		switch tx.Type {
		case models.TypeIncome:
			stats.Income = stats.Income.Add(j.normalized(tx))
			stats.IncomeCount++
		case models.TypeExpense:
			amount := j.normalized(tx)
			stats.Expense = stats.Expense.Add(amount)
			stats.ExpenseCount++

			ct, ok := byCategory[tx.CategoryID]
			if !ok {
				ct = &CategoryTotal{CategoryID: tx.CategoryID, Name: j.categoryName(tx.CategoryID), Total: decimal.Zero}
				byCategory[tx.CategoryID] = ct
			}
			ct.Total = ct.Total.Add(amount)
			ct.Count++
		case models.TypeTransfer:
			stats.TransferCount++
		}
	}
	stats.Net = stats.Income.Sub(stats.Expense)

	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		stats.ByCategory = append(stats.ByCategory, *ct)
	}
	sort.Slice(stats.ByCategory, func(a, b int) bool {
		ca, cb := stats.ByCategory[a], stats.ByCategory[b]
		if !ca.Total.Equal(cb.Total) {
			return ca.Total.GreaterThan(cb.Total)
		}
		return ca.Name < cb.Name
	})
	return stats
}

// BudgetSpending sums, for each budget, the expenses of its category within
// the budget's calendar month (first through last day, inclusive).
func BudgetSpending(j Journal, budgets []*models.Budget) []BudgetSpend {
	out := make([]BudgetSpend, 0, len(budgets))
	for _, b := range budgets {
		first, last := MonthBounds(b.Year, b.Month)
		spent := decimal.Zero
		for _, tx := range j.Transactions {
			if tx.Type != models.TypeExpense || tx.CategoryID != b.CategoryID {
				continue
			}
			if !inRange(tx.Date, first, last) || !j.counts(tx) {
				continue
			}
			spent = spent.Add(j.normalized(tx))
		}
		out = append(out, BudgetSpend{
			Budget:       *b,
			CategoryName: j.categoryName(b.CategoryID),
			Spent:        spent,
			Remaining:    b.Amount.Sub(spent),
			Overspent:    spent.GreaterThan(b.Amount),
		})
	}
	return out
}

// GoalProgress returns current/target of a savings goal (0 for a non-positive target).
func GoalProgress(g *models.SavingsGoal) decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return g.CurrentAmount.DivRound(g.TargetAmount, 4)
}
