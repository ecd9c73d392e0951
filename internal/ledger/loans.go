package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// CreateLoanInput describes a new loan.
type CreateLoanInput struct {
	Direction    models.LoanDirection
	Counterparty string
	TotalAmount  decimal.Decimal
	Currency     string
	StartDate    time.Time
	DueDate      time.Time
	Description  string
}

// UpdateLoanInput is a partial loan update. Status may be set to active or
// bad_debt; settled is only ever derived.
type UpdateLoanInput struct {
	Counterparty *string
	TotalAmount  *decimal.Decimal
	Currency     *string
	StartDate    *time.Time
	DueDate      *time.Time
	ClearDueDate bool
	Description  *string
	Status       *models.LoanStatus
}

// ListLoans returns the owner's loans, optionally filtered by status.
func (l *Ledger) ListLoans(ctx context.Context, ownerID string, status models.LoanStatus) ([]*models.Loan, error) {
	const op = "ledger.ListLoans"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalidf(op, "invalid loan status %q", status)
	}
	loans, err := l.store.ListLoans(ctx, ownerID, status)
	return loans, wrap(op, err)
}

// GetLoan returns one loan of the owner.
func (l *Ledger) GetLoan(ctx context.Context, id, ownerID string) (*models.Loan, error) {
	const op = "ledger.GetLoan"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	loan, err := l.store.GetLoan(ctx, id, ownerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return loan, nil
}

// CreateLoan stores a new active loan with nothing paid.
func (l *Ledger) CreateLoan(ctx context.Context, ownerID string, in CreateLoanInput) (*models.Loan, error) {
	const op = "ledger.CreateLoan"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		OwnerID:      ownerID,
		Direction:    in.Direction,
		Counterparty: strings.TrimSpace(in.Counterparty),
		TotalAmount:  in.TotalAmount,
		Currency:     models.NormalizeCurrency(in.Currency),
		PaidAmount:   decimal.Zero,
		Status:       models.LoanActive,
		StartDate:    in.StartDate,
		DueDate:      in.DueDate,
		Description:  strings.TrimSpace(in.Description),
	}
	if loan.StartDate.IsZero() {
		loan.StartDate = l.today()
	}
	loan.StartDate = models.CivilDate(loan.StartDate)
	if !loan.DueDate.IsZero() {
		loan.DueDate = models.CivilDate(loan.DueDate)
	}
	if !loan.Direction.Valid() {
		return nil, invalidf(op, "invalid loan direction %q", loan.Direction)
	}
	if err := validateLoan(op, loan); err != nil {
		return nil, err
	}

	err := l.mutate(ctx, op, func(q storage.Queries) error {
		return q.CreateLoan(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// UpdateLoan changes the loan terms and re-derives paid amount and status.
func (l *Ledger) UpdateLoan(ctx context.Context, id, ownerID string, in UpdateLoanInput) (*models.Loan, error) {
	const op = "ledger.UpdateLoan"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if in.Status != nil {
		switch *in.Status {
		case models.LoanActive, models.LoanBadDebt:
		case models.LoanSettled:
			return nil, invalidf(op, "settled status is derived from repayments and cannot be set")
		default:
			return nil, invalidf(op, "invalid loan status %q", *in.Status)
		}
	}

	t := newTouched()
	var loan *models.Loan
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		loan, err = q.GetLoan(ctx, id, ownerID)
		if err != nil {
			return err
		}

		if in.Counterparty != nil {
			loan.Counterparty = strings.TrimSpace(*in.Counterparty)
		}
		if in.TotalAmount != nil {
			loan.TotalAmount = *in.TotalAmount
		}
		if in.Currency != nil {
			loan.Currency = models.NormalizeCurrency(*in.Currency)
		}
		if in.StartDate != nil {
			loan.StartDate = models.CivilDate(*in.StartDate)
		}
		if in.DueDate != nil {
			loan.DueDate = models.CivilDate(*in.DueDate)
		}
		if in.ClearDueDate {
			loan.DueDate = time.Time{}
		}
		if in.Description != nil {
			loan.Description = strings.TrimSpace(*in.Description)
		}
		if err := validateLoan(op, loan); err != nil {
			return err
		}
		if err := q.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		if in.Status != nil && *in.Status != loan.Status {
			if err := q.SetLoanState(ctx, loan.ID, ownerID, loan.PaidAmount, *in.Status); err != nil {
				return err
			}
		}

		updated, err := l.reconcile(ctx, q, loan.ID, ownerID, t)
		if err != nil {
			return err
		}
		loan = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.loans[id] = true
	l.commit(ctx, t, t.event(events.LoanReconciled, ownerID, id))
	return loan, nil
}

// DeleteLoan removes a loan. Its repayments are kept and only unlinked.
func (l *Ledger) DeleteLoan(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteLoan"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}

	err := l.mutate(ctx, op, func(q storage.Queries) error {
		if _, err := q.GetLoan(ctx, id, ownerID); err != nil {
			return err
		}
		if err := q.UnlinkLoan(ctx, id, ownerID); err != nil {
			return err
		}
		return q.DeleteLoan(ctx, id, ownerID)
	})
	if err != nil {
		return err
	}

	t := newTouched()
	l.commit(ctx, t, t.event(events.LoanDeleted, ownerID, id))
	return nil
}

// RecalculateLoan re-derives paid amount and status from the linked
// transactions. A missing loan is a no-op and yields nil.
func (l *Ledger) RecalculateLoan(ctx context.Context, id, ownerID string) (*models.Loan, error) {
	const op = "ledger.RecalculateLoan"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	t := newTouched()
	var loan *models.Loan
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		loan, err = l.reconcile(ctx, q, id, ownerID, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(t.loans) > 0 {
		l.commit(ctx, t, t.event(events.LoanReconciled, ownerID, id))
	}
	return loan, nil
}

// RecalculateAllLoans reconciles every loan of the owner and returns how
// many changed.
func (l *Ledger) RecalculateAllLoans(ctx context.Context, ownerID string) (int, error) {
	const op = "ledger.RecalculateAllLoans"
	if err := requireOwner(op, ownerID); err != nil {
		return 0, err
	}

	t := newTouched()
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		loans, err := q.ListLoans(ctx, ownerID, "")
		if err != nil {
			return err
		}
		for _, loan := range loans {
			if _, err := l.reconcile(ctx, q, loan.ID, ownerID, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(t.loans) > 0 {
		l.commit(ctx, t, t.event(events.LoanReconciled, ownerID, ""))
	}
	return len(t.loans), nil
}

// ListLoanTransactions returns every transaction linked to the loan.
func (l *Ledger) ListLoanTransactions(ctx context.Context, id, ownerID string) ([]*models.Transaction, error) {
	const op = "ledger.ListLoanTransactions"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if _, err := l.store.GetLoan(ctx, id, ownerID); err != nil {
		return nil, wrap(op, err)
	}
	txs, err := l.store.ListTransactions(ctx, ownerID, storage.TransactionFilter{LoanID: id})
	return txs, wrap(op, err)
}

// reconcileLoans reconciles each distinct non-empty loan ID.
func (l *Ledger) reconcileLoans(ctx context.Context, q storage.Queries, ownerID string, t *touched, loanIDs ...string) error {
	seen := make(map[string]bool, len(loanIDs))
	for _, id := range loanIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := l.reconcile(ctx, q, id, ownerID, t); err != nil {
			return err
		}
	}
	return nil
}

// reconcile recomputes one loan from its journal and persists the result
// when it changed. A loan that no longer exists is skipped.
func (l *Ledger) reconcile(ctx context.Context, q storage.Queries, id, ownerID string, t *touched) (*models.Loan, error) {
	loan, err := q.GetLoan(ctx, id, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	txs, err := q.ListTransactions(ctx, ownerID, storage.TransactionFilter{LoanID: id})
	if err != nil {
		return nil, err
	}
	state := calculator.ReconcileLoan(loan, txs)
	if state.Unconverted > 0 {
		slog.WarnContext(ctx, "Loan repayments without usable exchange rate counted at face value",
			"loan_id", id,
			"owner_id", ownerID,
			"count", state.Unconverted)
	}

	if state.Paid.Equal(loan.PaidAmount) && state.Status == loan.Status {
		return loan, nil
	}
	if err := q.SetLoanState(ctx, id, ownerID, state.Paid, state.Status); err != nil {
		return nil, err
	}
	if state.Status == models.LoanSettled && loan.Status != models.LoanSettled {
		t.settled++
	}
	t.loans[id] = true
	slog.DebugContext(ctx, "Reconciled loan",
		"loan_id", id,
		"paid", state.Paid.String(),
		"status", state.Status)

	loan.PaidAmount = state.Paid
	loan.Status = state.Status
	return loan, nil
}

func validateLoan(op string, loan *models.Loan) error {
	if loan.Counterparty == "" {
		return invalidf(op, "counterparty is required")
	}
	if !loan.TotalAmount.IsPositive() {
		return invalidf(op, "total amount must be positive")
	}
	if !models.IsValidCurrency(loan.Currency) {
		return invalidf(op, "invalid currency %q", loan.Currency)
	}
	if !loan.DueDate.IsZero() && loan.DueDate.Before(loan.StartDate) {
		return invalidf(op, "due date is before start date")
	}
	return nil
}
