package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger event.
type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

// DateLayout is the storage and wire layout of civil dates.
const DateLayout = "2006-01-02"

// Transaction is one entry of the journal.
//
// Amount is always expressed in the source wallet's currency. Transfer-only
// fields (ToWalletID, ToAmount, ToExchangeRate) are set iff Type is transfer.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	OwnerID string

	Type TransactionType

	// Amount is the positive amount in the source wallet's currency.
	Amount decimal.Decimal

	// Currency is the source wallet's currency at the time of posting.
	Currency string

	// OriginalAmount and OriginalCurrency hold what the user typed when it
	// differed from the wallet currency.
	OriginalAmount   decimal.NullDecimal
	OriginalCurrency string

	// ExchangeRate is the rate used to convert the original input into the
	// wallet currency (1 original = ExchangeRate wallet currency). For
	// loan-linked transactions it is the rate from the loan currency.
	ExchangeRate decimal.NullDecimal

	// WalletID is the source wallet. Empty when the wallet was deleted with detach.
	WalletID string

	// ToWalletID is the destination wallet of a transfer.
	ToWalletID string

	// ToAmount is the amount credited to the destination wallet when the two
	// legs are in different currencies. When invalid, Amount is credited.
	ToAmount decimal.NullDecimal

	// ToExchangeRate is the rate between the two transfer legs (1 source = rate destination).
	ToExchangeRate decimal.NullDecimal

	CategoryID  string
	SubLedgerID string
	LoanID      string

	Description string

	// Date is the civil date the event occurred on (UTC midnight).
	Date time.Time

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}

// IsTransfer reports whether the transaction moves money between two wallets.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TypeTransfer
}

// CreditedAmount is the amount added to the destination wallet of a transfer.
func (t *Transaction) CreditedAmount() decimal.Decimal {
	if t.ToAmount.Valid {
		return t.ToAmount.Decimal
	}
	return t.Amount
}

// Touches reports whether the transaction references walletID on either leg.
func (t *Transaction) Touches(walletID string) bool {
	return walletID != "" && (t.WalletID == walletID || t.ToWalletID == walletID)
}

// CivilDate truncates t to midnight UTC of its calendar day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
