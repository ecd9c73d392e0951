package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// CategoryInput describes a category for create and full update.
type CategoryInput struct {
	Name  string
	Type  models.CategoryType
	Icon  string
	Color string
}

// BudgetInput describes a monthly budget.
type BudgetInput struct {
	CategoryID string
	Month      int
	Year       int
	Amount     decimal.Decimal
}

// GoalInput describes a savings goal.
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      string
	Deadline      time.Time
}

// SubLedgerInput describes a sub-ledger.
type SubLedgerInput struct {
	Name             string
	ExcludeFromStats bool
}

func (l *Ledger) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	const op = "ledger.ListCategories"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	categories, err := l.store.ListCategories(ctx, ownerID)
	return categories, wrap(op, err)
}

func (l *Ledger) CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (*models.Category, error) {
	const op = "ledger.CreateCategory"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	c := &models.Category{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(in.Name),
		Type:    in.Type,
		Icon:    in.Icon,
		Color:   in.Color,
	}
	if err := validateCategory(op, c); err != nil {
		return nil, err
	}
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		return q.CreateCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Ledger) UpdateCategory(ctx context.Context, id, ownerID string, in CategoryInput) (*models.Category, error) {
	const op = "ledger.UpdateCategory"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	var c *models.Category
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		c, err = q.GetCategory(ctx, id, ownerID)
		if err != nil {
			return err
		}
		c.Name = strings.TrimSpace(in.Name)
		c.Icon = in.Icon
		c.Color = in.Color
		if in.Type != "" {
			c.Type = in.Type
		}
		if err := validateCategory(op, c); err != nil {
			return err
		}
		return q.UpdateCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category and its budgets; transactions in it
// become uncategorized.
func (l *Ledger) DeleteCategory(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteCategory"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}
	return l.mutate(ctx, op, func(q storage.Queries) error {
		return q.DeleteCategory(ctx, id, ownerID)
	})
}

func (l *Ledger) ListBudgets(ctx context.Context, ownerID string, month, year int) ([]*models.Budget, error) {
	const op = "ledger.ListBudgets"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	budgets, err := l.store.ListBudgets(ctx, ownerID, month, year)
	return budgets, wrap(op, err)
}

// SetBudget creates the budget of a category for a month, or replaces the
// amount when one exists.
func (l *Ledger) SetBudget(ctx context.Context, ownerID string, in BudgetInput) (*models.Budget, error) {
	const op = "ledger.SetBudget"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	b := &models.Budget{
		OwnerID:    ownerID,
		CategoryID: in.CategoryID,
		Month:      in.Month,
		Year:       in.Year,
		Amount:     in.Amount,
	}
	if err := validateBudget(op, b); err != nil {
		return nil, err
	}
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		if err := budgetCategory(ctx, q, op, b); err != nil {
			return err
		}
		return q.CreateBudget(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Ledger) UpdateBudget(ctx context.Context, id, ownerID string, in BudgetInput) (*models.Budget, error) {
	const op = "ledger.UpdateBudget"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	var b *models.Budget
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		b, err = q.GetBudget(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if in.CategoryID != "" {
			b.CategoryID = in.CategoryID
		}
		if in.Month != 0 {
			b.Month = in.Month
		}
		if in.Year != 0 {
			b.Year = in.Year
		}
		b.Amount = in.Amount
		if err := validateBudget(op, b); err != nil {
			return err
		}
		if err := budgetCategory(ctx, q, op, b); err != nil {
			return err
		}
		return q.UpdateBudget(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Ledger) DeleteBudget(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteBudget"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}
	return l.mutate(ctx, op, func(q storage.Queries) error {
		return q.DeleteBudget(ctx, id, ownerID)
	})
}

func (l *Ledger) ListGoals(ctx context.Context, ownerID string) ([]*models.SavingsGoal, error) {
	const op = "ledger.ListGoals"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	goals, err := l.store.ListGoals(ctx, ownerID)
	return goals, wrap(op, err)
}

func (l *Ledger) CreateGoal(ctx context.Context, ownerID string, in GoalInput) (*models.SavingsGoal, error) {
	const op = "ledger.CreateGoal"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	g := &models.SavingsGoal{OwnerID: ownerID}
	fillGoal(g, in)
	if err := validateGoal(op, g); err != nil {
		return nil, err
	}
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		return q.CreateGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (l *Ledger) UpdateGoal(ctx context.Context, id, ownerID string, in GoalInput) (*models.SavingsGoal, error) {
	const op = "ledger.UpdateGoal"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	var g *models.SavingsGoal
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		g, err = q.GetGoal(ctx, id, ownerID)
		if err != nil {
			return err
		}
		fillGoal(g, in)
		if err := validateGoal(op, g); err != nil {
			return err
		}
		return q.UpdateGoal(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (l *Ledger) DeleteGoal(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteGoal"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}
	return l.mutate(ctx, op, func(q storage.Queries) error {
		return q.DeleteGoal(ctx, id, ownerID)
	})
}

func (l *Ledger) ListSubLedgers(ctx context.Context, ownerID string) ([]*models.SubLedger, error) {
	const op = "ledger.ListSubLedgers"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	subs, err := l.store.ListSubLedgers(ctx, ownerID)
	return subs, wrap(op, err)
}

func (l *Ledger) CreateSubLedger(ctx context.Context, ownerID string, in SubLedgerInput) (*models.SubLedger, error) {
	const op = "ledger.CreateSubLedger"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	s := &models.SubLedger{
		OwnerID:          ownerID,
		Name:             strings.TrimSpace(in.Name),
		ExcludeFromStats: in.ExcludeFromStats,
	}
	if s.Name == "" {
		return nil, invalidf(op, "sub-ledger name is required")
	}
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		return q.CreateSubLedger(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (l *Ledger) UpdateSubLedger(ctx context.Context, id, ownerID string, in SubLedgerInput) (*models.SubLedger, error) {
	const op = "ledger.UpdateSubLedger"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf(op, "sub-ledger name is required")
	}
	var s *models.SubLedger
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		s, err = q.GetSubLedger(ctx, id, ownerID)
		if err != nil {
			return err
		}
		s.Name = name
		s.ExcludeFromStats = in.ExcludeFromStats
		return q.UpdateSubLedger(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSubLedger removes a sub-ledger; its transactions return to the main book.
func (l *Ledger) DeleteSubLedger(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteSubLedger"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}
	return l.mutate(ctx, op, func(q storage.Queries) error {
		return q.DeleteSubLedger(ctx, id, ownerID)
	})
}

func validateCategory(op string, c *models.Category) error {
	if c.Name == "" {
		return invalidf(op, "category name is required")
	}
	if !c.Type.Valid() {
		return invalidf(op, "invalid category type %q", c.Type)
	}
	return nil
}

func validateBudget(op string, b *models.Budget) error {
	if b.CategoryID == "" {
		return invalidf(op, "category is required")
	}
	if b.Month < 1 || b.Month > 12 {
		return invalidf(op, "month must be between 1 and 12")
	}
	if b.Year < 1 {
		return invalidf(op, "invalid year %d", b.Year)
	}
	if !b.Amount.IsPositive() {
		return invalidf(op, "budget amount must be positive")
	}
	return nil
}

// budgetCategory checks that the budget points at an expense category of the owner.
func budgetCategory(ctx context.Context, q storage.Queries, op string, b *models.Budget) error {
	c, err := q.GetCategory(ctx, b.CategoryID, b.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return invalidf(op, "category %s not found", b.CategoryID)
	}
	if err != nil {
		return err
	}
	if c.Type != models.CategoryExpense {
		return invalidf(op, "budgets apply to expense categories only")
	}
	return nil
}

func fillGoal(g *models.SavingsGoal, in GoalInput) {
	g.Name = strings.TrimSpace(in.Name)
	g.TargetAmount = in.TargetAmount
	g.CurrentAmount = in.CurrentAmount
	g.Currency = models.NormalizeCurrency(in.Currency)
	g.Deadline = time.Time{}
	if !in.Deadline.IsZero() {
		g.Deadline = models.CivilDate(in.Deadline)
	}
}

func validateGoal(op string, g *models.SavingsGoal) error {
	if g.Name == "" {
		return invalidf(op, "goal name is required")
	}
	if !g.TargetAmount.IsPositive() {
		return invalidf(op, "target amount must be positive")
	}
	if g.CurrentAmount.IsNegative() {
		return invalidf(op, "current amount cannot be negative")
	}
	if !models.IsValidCurrency(g.Currency) {
		return invalidf(op, "invalid currency %q", g.Currency)
	}
	return nil
}
