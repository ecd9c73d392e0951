package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

const loanColumns = `id, owner_id, direction, counterparty, total_amount, currency, paid_amount, status,
	start_date, due_date, description, created_at, updated_at`

// CreateLoan inserts a loan.
func (q *queries) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}
	if loan.CreatedAt == 0 {
		loan.CreatedAt = now()
	}
	loan.UpdatedAt = loan.CreatedAt

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.OwnerID, string(loan.Direction), loan.Counterparty,
		loan.TotalAmount.String(), loan.Currency, loan.PaidAmount.String(), string(loan.Status),
		dateValue(loan.StartDate), dateValue(loan.DueDate), loan.Description,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert loan", err)
	}
	return nil
}

// GetLoan retrieves a loan by ID for its owner.
func (q *queries) GetLoan(ctx context.Context, id, ownerID string) (*models.Loan, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	loan, err := scanLoan(row)
	if err != nil {
		return nil, wrapErr("failed to get loan", err)
	}
	return loan, nil
}

// ListLoans returns the owner's loans, optionally filtered by status, newest first.
func (q *queries) ListLoans(ctx context.Context, ownerID string, status models.LoanStatus) ([]*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY start_date DESC, created_at DESC, rowid DESC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to list loans", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, wrapErr("failed to scan loan", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate loans", err)
	}
	return loans, nil
}

// UpdateLoan persists the editable loan terms. Paid amount and status are
// written by SetLoanState.
func (q *queries) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	loan.UpdatedAt = now()
	res, err := q.db.ExecContext(ctx, `
		UPDATE loans
		SET direction = ?, counterparty = ?, total_amount = ?, currency = ?,
			start_date = ?, due_date = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		string(loan.Direction), loan.Counterparty, loan.TotalAmount.String(), loan.Currency,
		dateValue(loan.StartDate), dateValue(loan.DueDate), loan.Description, loan.UpdatedAt,
		loan.ID, loan.OwnerID,
	)
	if err != nil {
		return wrapErr("failed to update loan", err)
	}
	return expectOne(res, "failed to update loan")
}

// SetLoanState stores the derived paid amount and status.
func (q *queries) SetLoanState(ctx context.Context, id, ownerID string, paid decimal.Decimal, status models.LoanStatus) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE loans SET paid_amount = ?, status = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		paid.String(), string(status), now(), id, ownerID,
	)
	if err != nil {
		return wrapErr("failed to set loan state", err)
	}
	return expectOne(res, "failed to set loan state")
}

// DeleteLoan removes a loan row.
func (q *queries) DeleteLoan(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete loan", err)
	}
	return expectOne(res, "failed to delete loan")
}

func scanLoan(row scanner) (*models.Loan, error) {
	loan := &models.Loan{}
	var direction, status string
	var startDate, dueDate sql.NullString
	err := row.Scan(
		&loan.ID, &loan.OwnerID, &direction, &loan.Counterparty,
		&loan.TotalAmount, &loan.Currency, &loan.PaidAmount, &status,
		&startDate, &dueDate, &loan.Description, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	loan.Direction = models.LoanDirection(direction)
	loan.Status = models.LoanStatus(status)
	if loan.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if loan.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	return loan, nil
}
