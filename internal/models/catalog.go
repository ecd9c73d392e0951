package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryType tells which transaction type a category applies to.
type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

// Category groups transactions for reporting. Unique per owner by (Name, Type).
type Category struct {
	ID      string
	OwnerID string
	Name    string
	Type    CategoryType
	Icon    string
	Color   string

	CreatedAt int64
}

// Budget is a spending limit for one category in one calendar month,
// expressed in the owner's default currency.
type Budget struct {
	ID         string
	OwnerID    string
	CategoryID string
	Month      int // 1-12
	Year       int
	Amount     decimal.Decimal

	CreatedAt int64
}

// SavingsGoal tracks progress toward a target amount.
type SavingsGoal struct {
	ID            string
	OwnerID       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      string

	// Deadline is optional; zero when unset.
	Deadline time.Time

	CreatedAt int64
}

// SubLedger is a named grouping of transactions with isolated reporting.
type SubLedger struct {
	ID      string
	OwnerID string
	Name    string

	// ExcludeFromStats keeps the sub-ledger's transactions out of top-level aggregates.
	ExcludeFromStats bool

	CreatedAt int64
}
