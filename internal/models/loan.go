package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanDirection tells whether the owner lent or borrowed the money.
type LoanDirection string

const (
	// Lend is money the owner gave out; repayments arrive as income.
	Lend LoanDirection = "lend"
	// Borrow is money the owner received; repayments leave as expense.
	Borrow LoanDirection = "borrow"
)

// Valid reports whether d is a known direction.
func (d LoanDirection) Valid() bool {
	return d == Lend || d == Borrow
}

// RepaymentType is the transaction type that counts toward repaying a loan
// of this direction.
func (d LoanDirection) RepaymentType() TransactionType {
	if d == Lend {
		return TypeIncome
	}
	return TypeExpense
}

// LoanStatus is the settlement state of a loan.
type LoanStatus string

const (
	LoanActive  LoanStatus = "active"
	LoanSettled LoanStatus = "settled"
	// LoanBadDebt is only entered and left through explicit user action,
	// or left automatically when payments cover the full amount.
	LoanBadDebt LoanStatus = "bad_debt"
)

// Valid reports whether s is a known status.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanSettled, LoanBadDebt:
		return true
	}
	return false
}

// Loan is a tracked receivable or payable against a named counterparty.
type Loan struct {
	// ID is the unique identifier for the loan (UUID format).
	ID string

	OwnerID string

	Direction LoanDirection

	// Counterparty is the name of the person on the other side.
	Counterparty string

	// TotalAmount is the principal in Currency.
	TotalAmount decimal.Decimal

	Currency string

	// PaidAmount is derived from linked transactions by the reconciliation engine.
	PaidAmount decimal.Decimal

	// Status is derived, except for the user-forced bad_debt state.
	Status LoanStatus

	StartDate time.Time

	// DueDate is optional; zero when unset.
	DueDate time.Time

	Description string

	CreatedAt int64
	UpdatedAt int64
}

// Remaining is the unpaid part of the loan, never negative.
func (l *Loan) Remaining() decimal.Decimal {
	r := l.TotalAmount.Sub(l.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
