package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// StatsQuery selects the period and, optionally, a single sub-ledger.
type StatsQuery struct {
	Start       time.Time
	End         time.Time
	SubLedgerID string
}

// PeriodReport is the period statistics in the owner's default currency.
type PeriodReport struct {
	calculator.PeriodStats
	Currency string
}

// BudgetReport is the spending of every budget of one month.
type BudgetReport struct {
	Month    int
	Year     int
	Currency string
	Budgets  []calculator.BudgetSpend
}

// GoalStatus pairs a savings goal with its progress ratio.
type GoalStatus struct {
	Goal     *models.SavingsGoal
	Progress decimal.Decimal
}

// StatsForPeriod totals income and expense over [Start, End] by replaying
// the journal. Loan-linked transactions never count.
func (l *Ledger) StatsForPeriod(ctx context.Context, ownerID string, query StatsQuery) (*PeriodReport, error) {
	const op = "ledger.StatsForPeriod"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if query.Start.IsZero() || query.End.IsZero() {
		return nil, invalidf(op, "start and end dates are required")
	}
	start, end := models.CivilDate(query.Start), models.CivilDate(query.End)
	if end.Before(start) {
		return nil, invalidf(op, "end date is before start date")
	}

	j, err := l.loadJournal(ctx, ownerID, storage.TransactionFilter{Start: start, End: end, SubLedgerID: query.SubLedgerID})
	if err != nil {
		return nil, wrap(op, err)
	}
	if query.SubLedgerID != "" {
		if _, err := l.store.GetSubLedger(ctx, query.SubLedgerID, ownerID); err != nil {
			return nil, wrap(op, err)
		}
		j.SubLedgerID = query.SubLedgerID
	}

	return &PeriodReport{
		PeriodStats: calculator.StatsForPeriod(*j, start, end),
		Currency:    l.ownerCurrency(ctx, ownerID),
	}, nil
}

// BudgetSpending reports, for each budget of the month, the expenses of its
// category within the month's calendar bounds.
func (l *Ledger) BudgetSpending(ctx context.Context, ownerID string, month, year int) (*BudgetReport, error) {
	const op = "ledger.BudgetSpending"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, invalidf(op, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, invalidf(op, "invalid year %d", year)
	}

	budgets, err := l.store.ListBudgets(ctx, ownerID, month, year)
	if err != nil {
		return nil, wrap(op, err)
	}
	first, last := calculator.MonthBounds(year, month)
	j, err := l.loadJournal(ctx, ownerID, storage.TransactionFilter{Start: first, End: last, Type: models.TypeExpense})
	if err != nil {
		return nil, wrap(op, err)
	}

	return &BudgetReport{
		Month:    month,
		Year:     year,
		Currency: l.ownerCurrency(ctx, ownerID),
		Budgets:  calculator.BudgetSpending(*j, budgets),
	}, nil
}

// GoalProgress lists savings goals with their current/target ratio.
func (l *Ledger) GoalProgress(ctx context.Context, ownerID string) ([]GoalStatus, error) {
	const op = "ledger.GoalProgress"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	goals, err := l.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalStatus{Goal: g, Progress: calculator.GoalProgress(g)})
	}
	return out, nil
}

// loadJournal gathers the transactions matching filter together with the
// wallet rates, category names and excluded sub-ledgers used to aggregate them.
func (l *Ledger) loadJournal(ctx context.Context, ownerID string, filter storage.TransactionFilter) (*calculator.Journal, error) {
	txs, err := l.store.ListTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	wallets, err := l.store.ListWallets(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}
	categories, err := l.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	subs, err := l.store.ListSubLedgers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	j := &calculator.Journal{
		Transactions:       txs,
		WalletRates:        make(map[string]decimal.Decimal, len(wallets)),
		CategoryNames:      make(map[string]string, len(categories)),
		ExcludedSubLedgers: make(map[string]bool),
	}
	for _, w := range wallets {
		j.WalletRates[w.ID] = w.ExchangeRate
	}
	for _, c := range categories {
		j.CategoryNames[c.ID] = c.Name
	}
	for _, s := range subs {
		if s.ExcludeFromStats {
			j.ExcludedSubLedgers[s.ID] = true
		}
	}
	return j, nil
}

// ownerCurrency is the owner's reporting currency, empty when the owner has
// no user record.
func (l *Ledger) ownerCurrency(ctx context.Context, ownerID string) string {
	u, err := l.store.GetUserByID(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Failed to load owner currency", "owner_id", ownerID, "error", err)
		}
		return ""
	}
	return u.DefaultCurrency
}
