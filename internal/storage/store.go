// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to another owner.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
	// ErrConflict is returned when a row changed underneath a compare-and-swap update.
	ErrConflict = errors.New("concurrent modification")
	// ErrUnavailable is returned when the database is busy, locked or gone.
	// Callers may retry.
	ErrUnavailable = errors.New("storage unavailable")
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	// Start and End bound the occurrence date, both inclusive.
	Start time.Time
	End   time.Time

	CategoryID  string
	SubLedgerID string
	LoanID      string

	// WalletID matches either leg of a transaction.
	WalletID string

	Type models.TransactionType

	// Search is a case-insensitive substring over description and category name.
	Search string

	// Limit <= 0 returns every match.
	Limit  int
	Offset int
}

// Queries defines every data-access operation of the ledger.
// Every read and write is scoped by owner ID.
type Queries interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallet(ctx context.Context, id, ownerID string) (*models.Wallet, error)
	FindWallet(ctx context.Context, ownerID, name string, walletType models.WalletType) (*models.Wallet, error)
	ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]*models.Wallet, error)
	CountWallets(ctx context.Context, ownerID string) (int, error)
	// UpdateWallet persists the descriptive fields and flags of a wallet.
	// Balance and OpeningBalance are only changed through AddWalletBalance.
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error
	// AddWalletBalance adds delta to the cached balance, and to the opening
	// balance as well when moveOpening is set.
	AddWalletBalance(ctx context.Context, id, ownerID string, delta decimal.Decimal, moveOpening bool) error
	ClearDefaultWallets(ctx context.Context, ownerID string) error
	SetDefaultWallet(ctx context.Context, id, ownerID string) error
	DeleteWallet(ctx context.Context, id, ownerID string) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id, ownerID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id, ownerID string) error
	ListTransactions(ctx context.Context, ownerID string, filter TransactionFilter) ([]*models.Transaction, error)
	CountTransactions(ctx context.Context, ownerID string, filter TransactionFilter) (int, error)
	// DetachWallet clears every reference to the wallet from the owner's transactions.
	DetachWallet(ctx context.Context, walletID, ownerID string) error
	// UnlinkLoan clears the loan reference from the owner's transactions.
	UnlinkLoan(ctx context.Context, loanID, ownerID string) error

	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, id, ownerID string) (*models.Loan, error)
	ListLoans(ctx context.Context, ownerID string, status models.LoanStatus) ([]*models.Loan, error)
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	SetLoanState(ctx context.Context, id, ownerID string, paid decimal.Decimal, status models.LoanStatus) error
	DeleteLoan(ctx context.Context, id, ownerID string) error

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id, ownerID string) (*models.Category, error)
	FindCategory(ctx context.Context, ownerID, name string, categoryType models.CategoryType) (*models.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id, ownerID string) error

	// CreateBudget inserts a budget, or replaces the amount of the existing
	// budget for the same category and month.
	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, id, ownerID string) (*models.Budget, error)
	ListBudgets(ctx context.Context, ownerID string, month, year int) ([]*models.Budget, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, id, ownerID string) error

	CreateGoal(ctx context.Context, goal *models.SavingsGoal) error
	GetGoal(ctx context.Context, id, ownerID string) (*models.SavingsGoal, error)
	ListGoals(ctx context.Context, ownerID string) ([]*models.SavingsGoal, error)
	UpdateGoal(ctx context.Context, goal *models.SavingsGoal) error
	DeleteGoal(ctx context.Context, id, ownerID string) error

	CreateSubLedger(ctx context.Context, sub *models.SubLedger) error
	GetSubLedger(ctx context.Context, id, ownerID string) (*models.SubLedger, error)
	ListSubLedgers(ctx context.Context, ownerID string) ([]*models.SubLedger, error)
	UpdateSubLedger(ctx context.Context, sub *models.SubLedger) error
	DeleteSubLedger(ctx context.Context, id, ownerID string) error
}

// Store defines the interface for ledger storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	Queries

	// InTx runs fn inside one storage transaction. If fn returns an error,
	// nothing it wrote is kept. fn must use the Queries it is given, not the Store.
	InTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
