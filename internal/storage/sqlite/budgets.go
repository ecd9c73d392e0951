package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mmynk/walletledger/internal/models"
)

const budgetColumns = `id, owner_id, category_id, month, year, amount, created_at`

// CreateBudget upserts on (owner, category, month, year). On conflict the
// stored row keeps its ID and the budget is updated to reflect it.
func (q *queries) CreateBudget(ctx context.Context, b *models.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = now()
	}
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, category_id, month, year) DO UPDATE SET amount = excluded.amount
		RETURNING id, created_at`,
		b.ID, b.OwnerID, b.CategoryID, b.Month, b.Year, b.Amount.String(), b.CreatedAt,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return wrapErr("failed to upsert budget", err)
	}
	return nil
}

func (q *queries) GetBudget(ctx context.Context, id, ownerID string) (*models.Budget, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	b, err := scanBudget(row)
	if err != nil {
		return nil, wrapErr("failed to get budget", err)
	}
	return b, nil
}

// ListBudgets returns budgets for one month; month or year of 0 lists all.
func (q *queries) ListBudgets(ctx context.Context, ownerID string, month, year int) ([]*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_id = ?`
	args := []any{ownerID}
	if month > 0 && year > 0 {
		query += ` AND month = ? AND year = ?`
		args = append(args, month, year)
	}
	query += ` ORDER BY year DESC, month DESC, created_at, rowid`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to list budgets", err)
	}
	defer rows.Close()

	var budgets []*models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, wrapErr("failed to scan budget", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate budgets", err)
	}
	return budgets, nil
}

func (q *queries) UpdateBudget(ctx context.Context, b *models.Budget) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, month = ?, year = ?, amount = ? WHERE id = ? AND owner_id = ?`,
		b.CategoryID, b.Month, b.Year, b.Amount.String(), b.ID, b.OwnerID)
	if err != nil {
		return wrapErr("failed to update budget", err)
	}
	return expectOne(res, "failed to update budget")
}

func (q *queries) DeleteBudget(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete budget", err)
	}
	return expectOne(res, "failed to delete budget")
}

func scanBudget(row scanner) (*models.Budget, error) {
	b := &models.Budget{}
	if err := row.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Month, &b.Year, &b.Amount, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

const goalColumns = `id, owner_id, name, target_amount, current_amount, currency, deadline, created_at`

func (q *queries) CreateGoal(ctx context.Context, g *models.SavingsGoal) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.Currency,
		dateValue(g.Deadline), g.CreatedAt)
	if err != nil {
		return wrapErr("failed to insert savings goal", err)
	}
	return nil
}

func (q *queries) GetGoal(ctx context.Context, id, ownerID string) (*models.SavingsGoal, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	g, err := scanGoal(row)
	if err != nil {
		return nil, wrapErr("failed to get savings goal", err)
	}
	return g, nil
}

func (q *queries) ListGoals(ctx context.Context, ownerID string) ([]*models.SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, wrapErr("failed to list savings goals", err)
	}
	defer rows.Close()

	var goals []*models.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, wrapErr("failed to scan savings goal", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate savings goals", err)
	}
	return goals, nil
}

func (q *queries) UpdateGoal(ctx context.Context, g *models.SavingsGoal) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE savings_goals SET name = ?, target_amount = ?, current_amount = ?, currency = ?, deadline = ?
		WHERE id = ? AND owner_id = ?`,
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.Currency, dateValue(g.Deadline),
		g.ID, g.OwnerID)
	if err != nil {
		return wrapErr("failed to update savings goal", err)
	}
	return expectOne(res, "failed to update savings goal")
}

func (q *queries) DeleteGoal(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete savings goal", err)
	}
	return expectOne(res, "failed to delete savings goal")
}

func scanGoal(row scanner) (*models.SavingsGoal, error) {
	g := &models.SavingsGoal{}
	var deadline sql.NullString
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Currency, &deadline, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if g.Deadline, err = parseDate(deadline); err != nil {
		return nil, err
	}
	return g, nil
}
