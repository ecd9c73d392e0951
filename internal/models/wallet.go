package models

import "github.com/shopspring/decimal"

// WalletType classifies a wallet.
type WalletType string

const (
	WalletCash          WalletType = "cash"
	WalletBankCard      WalletType = "bank_card"
	WalletDigitalWallet WalletType = "digital_wallet"
	WalletCreditCard    WalletType = "credit_card"
	WalletInvestment    WalletType = "investment"
)

// Valid reports whether t is one of the known wallet types.
func (t WalletType) Valid() bool {
	switch t {
	case WalletCash, WalletBankCard, WalletDigitalWallet, WalletCreditCard, WalletInvestment:
		return true
	}
	return false
}

// Wallet is a named money container with its own currency.
//
// Invariant: Balance == OpeningBalance + the signed sum of every transaction
// touching the wallet. The ledger is the only writer of Balance.
type Wallet struct {
	// ID is the unique identifier for the wallet (UUID format).
	ID string

	// OwnerID is the user owning the wallet.
	OwnerID string

	// Name is the display name (e.g., "Cash", "Maybank Savings").
	Name string

	Type WalletType

	// Currency is the ISO 4217 code every amount of this wallet is expressed in.
	Currency string

	// Balance is the cached balance, derived from OpeningBalance and the journal.
	Balance decimal.Decimal

	// OpeningBalance is the seed of the balance invariant. Manual adjustments
	// and archive-destroy move it together with Balance.
	OpeningBalance decimal.Decimal

	// ExchangeRate converts this wallet's currency to the owner's default currency
	// (1 wallet currency = ExchangeRate default currency).
	ExchangeRate decimal.Decimal

	// IsDefault marks the owner's default wallet. Exactly one per owner.
	IsDefault bool

	// IsFlexible marks money that is freely spendable (as opposed to locked savings).
	IsFlexible bool

	// Archived hides the wallet after an archive operation.
	Archived bool

	Icon  string
	Color string

	CreatedAt int64
	UpdatedAt int64
}
