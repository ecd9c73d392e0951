package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/models"
)

// Money fields travel as decimal strings ("12.50") and dates as YYYY-MM-DD.

type Empty struct{}

type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	DefaultCurrency string `json:"default_currency"`
	CreatedAt       int64  `json:"created_at"`
}

func userFromModel(u *models.User) *User {
	return &User{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		DefaultCurrency: u.DefaultCurrency,
		CreatedAt:       u.CreatedAt,
	}
}

type Wallet struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	IsDefault      bool            `json:"is_default"`
	IsFlexible     bool            `json:"is_flexible"`
	Archived       bool            `json:"archived"`
	Icon           string          `json:"icon,omitempty"`
	Color          string          `json:"color,omitempty"`
	CreatedAt      int64           `json:"created_at"`
	UpdatedAt      int64           `json:"updated_at"`
}

func walletFromModel(w *models.Wallet) *Wallet {
	return &Wallet{
		ID:             w.ID,
		Name:           w.Name,
		Type:           string(w.Type),
		Currency:       w.Currency,
		Balance:        w.Balance,
		OpeningBalance: w.OpeningBalance,
		ExchangeRate:   w.ExchangeRate,
		IsDefault:      w.IsDefault,
		IsFlexible:     w.IsFlexible,
		Archived:       w.Archived,
		Icon:           w.Icon,
		Color:          w.Color,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

type Transaction struct {
	ID               string              `json:"id"`
	Type             string              `json:"type"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	OriginalAmount   decimal.NullDecimal `json:"original_amount"`
	OriginalCurrency string              `json:"original_currency,omitempty"`
	ExchangeRate     decimal.NullDecimal `json:"exchange_rate"`
	WalletID         string              `json:"wallet_id,omitempty"`
	ToWalletID       string              `json:"to_wallet_id,omitempty"`
	ToAmount         decimal.NullDecimal `json:"to_amount"`
	ToExchangeRate   decimal.NullDecimal `json:"to_exchange_rate"`
	CategoryID       string              `json:"category_id,omitempty"`
	SubLedgerID      string              `json:"sub_ledger_id,omitempty"`
	LoanID           string              `json:"loan_id,omitempty"`
	Description      string              `json:"description,omitempty"`
	Date             string              `json:"date"`
	CreatedAt        int64               `json:"created_at"`
}

func transactionFromModel(tx *models.Transaction) *Transaction {
	return &Transaction{
		ID:               tx.ID,
		Type:             string(tx.Type),
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		OriginalAmount:   tx.OriginalAmount,
		OriginalCurrency: tx.OriginalCurrency,
		ExchangeRate:     tx.ExchangeRate,
		WalletID:         tx.WalletID,
		ToWalletID:       tx.ToWalletID,
		ToAmount:         tx.ToAmount,
		ToExchangeRate:   tx.ToExchangeRate,
		CategoryID:       tx.CategoryID,
		SubLedgerID:      tx.SubLedgerID,
		LoanID:           tx.LoanID,
		Description:      tx.Description,
		Date:             formatDate(tx.Date),
		CreatedAt:        tx.CreatedAt,
	}
}

func transactionsFromModels(txs []*models.Transaction) []*Transaction {
	out := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionFromModel(tx))
	}
	return out
}

type Loan struct {
	ID           string          `json:"id"`
	Direction    string          `json:"direction"`
	Counterparty string          `json:"counterparty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Currency     string          `json:"currency"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Status       string          `json:"status"`
	StartDate    string          `json:"start_date"`
	DueDate      string          `json:"due_date,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
}

func loanFromModel(l *models.Loan) *Loan {
	return &Loan{
		ID:           l.ID,
		Direction:    string(l.Direction),
		Counterparty: l.Counterparty,
		TotalAmount:  l.TotalAmount,
		Currency:     l.Currency,
		PaidAmount:   l.PaidAmount,
		Remaining:    l.Remaining(),
		Status:       string(l.Status),
		StartDate:    formatDate(l.StartDate),
		DueDate:      formatDate(l.DueDate),
		Description:  l.Description,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func categoryFromModel(c *models.Category) *Category {
	return &Category{ID: c.ID, Name: c.Name, Type: string(c.Type), Icon: c.Icon, Color: c.Color}
}

type Budget struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Amount     decimal.Decimal `json:"amount"`
}

func budgetFromModel(b *models.Budget) *Budget {
	return &Budget{ID: b.ID, CategoryID: b.CategoryID, Month: b.Month, Year: b.Year, Amount: b.Amount}
}

type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency"`
	Deadline      string          `json:"deadline,omitempty"`
}

func goalFromModel(g *models.SavingsGoal) *Goal {
	return &Goal{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Currency:      g.Currency,
		Deadline:      formatDate(g.Deadline),
	}
}

type SubLedger struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ExcludeFromStats bool   `json:"exclude_from_stats"`
}

func subLedgerFromModel(s *models.SubLedger) *SubLedger {
	return &SubLedger{ID: s.ID, Name: s.Name, ExcludeFromStats: s.ExcludeFromStats}
}

type CategoryTotal struct {
	CategoryID string          `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

type BudgetSpend struct {
	Budget       *Budget         `json:"budget"`
	CategoryName string          `json:"category_name"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Overspent    bool            `json:"overspent"`
}

func budgetSpendFromCalc(b calculator.BudgetSpend) *BudgetSpend {
	return &BudgetSpend{
		Budget:       budgetFromModel(&b.Budget),
		CategoryName: b.CategoryName,
		Spent:        b.Spent,
		Remaining:    b.Remaining,
		Overspent:    b.Overspent,
	}
}

type GoalStatus struct {
	Goal     *Goal           `json:"goal"`
	Progress decimal.Decimal `json:"progress"`
}

type BalanceAudit struct {
	WalletID string          `json:"wallet_id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Expected decimal.Decimal `json:"expected"`
	Drift    decimal.Decimal `json:"drift"`
}

func auditFromLedger(a ledger.BalanceAudit) *BalanceAudit {
	return &BalanceAudit{
		WalletID: a.Wallet.ID,
		Name:     a.Wallet.Name,
		Balance:  a.Wallet.Balance,
		Expected: a.Expected,
		Drift:    a.Drift,
	}
}
