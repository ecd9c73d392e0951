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

const (
	// DefaultPageSize applies when a list request has no limit.
	DefaultPageSize = 50
	// MaxPageSize caps the limit of a list request.
	MaxPageSize = 500
)

// TransactionInput describes a new transaction.
//
// Amount is in the source wallet's currency. It may be left zero when
// OriginalAmount and ExchangeRate are given ("1 original = rate wallet
// currency"); the journal then derives it.
type TransactionInput struct {
	Type   models.TransactionType
	Amount decimal.Decimal

	OriginalAmount   decimal.NullDecimal
	OriginalCurrency string
	ExchangeRate     decimal.NullDecimal

	WalletID       string
	ToWalletID     string
	ToAmount       decimal.NullDecimal
	ToExchangeRate decimal.NullDecimal

	CategoryID  string
	SubLedgerID string
	LoanID      string

	Description string
	Date        time.Time
}

// TransactionPatch is a partial update. Nil fields are unchanged; the Clear
// flags remove optional references.
type TransactionPatch struct {
	Type   *models.TransactionType
	Amount *decimal.Decimal

	OriginalAmount   *decimal.Decimal
	OriginalCurrency *string
	ExchangeRate     *decimal.Decimal
	ClearOriginal    bool

	WalletID       *string
	ToWalletID     *string
	ToAmount       *decimal.Decimal
	ToExchangeRate *decimal.Decimal
	ClearToWallet  bool

	CategoryID     *string
	ClearCategory  bool
	SubLedgerID    *string
	ClearSubLedger bool
	LoanID         *string
	ClearLoan      bool

	Description *string
	Date        *time.Time
}

// TransactionPage is one page of a filtered listing.
type TransactionPage struct {
	Transactions []*models.Transaction
	Total        int
	Limit        int
	Offset       int
}

// GetTransaction returns one transaction of the owner.
func (l *Ledger) GetTransaction(ctx context.Context, id, ownerID string) (*models.Transaction, error) {
	const op = "ledger.GetTransaction"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	tx, err := l.store.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return tx, nil
}

// ListTransactions returns a page of matching transactions, most recent
// date first, later insertions first within a day.
func (l *Ledger) ListTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) (*TransactionPage, error) {
	const op = "ledger.ListTransactions"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, invalidf(op, "end date is before start date")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalidf(op, "invalid transaction type %q", filter.Type)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	filter.Offset = max(filter.Offset, 0)

	txs, err := l.store.ListTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, wrap(op, err)
	}
	total, err := l.store.CountTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, wrap(op, err)
	}
	return &TransactionPage{Transactions: txs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// CreateTransaction validates, stores and posts a transaction: wallet
// balances move and the linked loan is reconciled in the same storage
// transaction.
func (l *Ledger) CreateTransaction(ctx context.Context, ownerID string, in TransactionInput) (*models.Transaction, error) {
	const op = "ledger.CreateTransaction"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		OwnerID:          ownerID,
		Type:             in.Type,
		Amount:           in.Amount,
		OriginalAmount:   in.OriginalAmount,
		OriginalCurrency: models.NormalizeCurrency(in.OriginalCurrency),
		ExchangeRate:     in.ExchangeRate,
		WalletID:         in.WalletID,
		ToWalletID:       in.ToWalletID,
		ToAmount:         in.ToAmount,
		ToExchangeRate:   in.ToExchangeRate,
		CategoryID:       in.CategoryID,
		SubLedgerID:      in.SubLedgerID,
		LoanID:           in.LoanID,
		Description:      strings.TrimSpace(in.Description),
		Date:             in.Date,
	}
	if tx.Date.IsZero() {
		tx.Date = l.today()
	}
	tx.Date = models.CivilDate(tx.Date)

	t := newTouched()
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		if err := l.resolve(ctx, q, op, tx, resolveMode{creating: true, derive: tx.Amount.IsZero()}); err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		if err := applyEffects(ctx, q, ownerID, calculator.Rewrite(nil, tx), t); err != nil {
			return err
		}
		return l.reconcileLoans(ctx, q, ownerID, t, tx.LoanID)
	})
	if err != nil {
		return nil, err
	}

	l.commit(ctx, t, t.event(events.TransactionCreated, ownerID, tx.ID))
	slog.DebugContext(ctx, "Created transaction",
		"owner_id", ownerID,
		"transaction_id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String())
	return tx, nil
}

// UpdateTransaction applies a patch. The old record's balance effects are
// reversed and the new ones applied, and both the old and the new loan are
// reconciled.
func (l *Ledger) UpdateTransaction(ctx context.Context, id, ownerID string, patch TransactionPatch) (*models.Transaction, error) {
	const op = "ledger.UpdateTransaction"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	t := newTouched()
	var after *models.Transaction
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		before, err := q.GetTransaction(ctx, id, ownerID)
		if err != nil {
			return err
		}

		after = applyPatch(before, patch)
		mode := resolveMode{
			derive:         patch.Amount == nil && (patch.OriginalAmount != nil || patch.ExchangeRate != nil),
			detachedSource: before.WalletID == "" && patch.WalletID == nil,
			detachedDest:   before.IsTransfer() && before.ToWalletID == "" && patch.ToWalletID == nil && !patch.ClearToWallet,
		}
		if err := l.resolve(ctx, q, op, after, mode); err != nil {
			return err
		}
		// Amount is in the source wallet's currency and cannot follow a
		// move to another currency on its own.
		rederived := patch.Amount != nil || (mode.derive && after.OriginalAmount.Valid)
		if after.Currency != before.Currency && !rederived {
			return invalidf(op, "moving from a %s to a %s wallet needs a new amount or exchange rate", before.Currency, after.Currency)
		}
		if err := q.UpdateTransaction(ctx, after); err != nil {
			return err
		}
		if err := applyEffects(ctx, q, ownerID, calculator.Rewrite(before, after), t); err != nil {
			return err
		}
		return l.reconcileLoans(ctx, q, ownerID, t, before.LoanID, after.LoanID)
	})
	if err != nil {
		return nil, err
	}

	l.commit(ctx, t, t.event(events.TransactionUpdated, ownerID, id))
	return after, nil
}

// DeleteTransaction removes a transaction, reverses its balance effects and
// reconciles the loan it was linked to.
func (l *Ledger) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	const op = "ledger.DeleteTransaction"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}

	t := newTouched()
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		before, err := q.GetTransaction(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, id, ownerID); err != nil {
			return err
		}
		if err := applyEffects(ctx, q, ownerID, calculator.Rewrite(before, nil), t); err != nil {
			return err
		}
		return l.reconcileLoans(ctx, q, ownerID, t, before.LoanID)
	})
	if err != nil {
		return err
	}

	l.commit(ctx, t, t.event(events.TransactionDeleted, ownerID, id))
	return nil
}

// DeleteAllForWallet deletes every transaction touching the wallet, on
// either leg, and returns how many were removed.
func (l *Ledger) DeleteAllForWallet(ctx context.Context, walletID, ownerID string) (int, error) {
	const op = "ledger.DeleteAllForWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return 0, err
	}

	t := newTouched()
	removed := 0
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		if _, err := q.GetWallet(ctx, walletID, ownerID); err != nil {
			return err
		}
		var err error
		removed, err = l.deleteAllForWallet(ctx, q, walletID, ownerID, t)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.commit(ctx, t, t.event(events.TransactionDeleted, ownerID, walletID))
	return removed, nil
}

func (l *Ledger) deleteAllForWallet(ctx context.Context, q storage.Queries, walletID, ownerID string, t *touched) (int, error) {
	txs, err := q.ListTransactions(ctx, ownerID, storage.TransactionFilter{WalletID: walletID})
	if err != nil {
		return 0, err
	}

	reversed := calculator.Effects{}
	var loanIDs []string
	for _, tx := range txs {
		if err := q.DeleteTransaction(ctx, tx.ID, ownerID); err != nil {
			return 0, err
		}
		reversed = reversed.Merge(calculator.Rewrite(tx, nil))
		if tx.LoanID != "" {
			loanIDs = append(loanIDs, tx.LoanID)
		}
	}
	if err := applyEffects(ctx, q, ownerID, reversed, t); err != nil {
		return 0, err
	}
	if err := l.reconcileLoans(ctx, q, ownerID, t, loanIDs...); err != nil {
		return 0, err
	}
	return len(txs), nil
}

// applyPatch returns a copy of tx with the patch applied.
func applyPatch(tx *models.Transaction, p TransactionPatch) *models.Transaction {
	out := *tx

	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
		if p.OriginalAmount == nil {
			// a typed wallet-currency amount replaces the captured original
			out.OriginalAmount = decimal.NullDecimal{}
			out.OriginalCurrency = ""
		}
	}
	if p.ClearOriginal {
		out.OriginalAmount = decimal.NullDecimal{}
		out.OriginalCurrency = ""
		out.ExchangeRate = decimal.NullDecimal{}
	}
	if p.OriginalAmount != nil {
		out.OriginalAmount = decimal.NewNullDecimal(*p.OriginalAmount)
	}
	if p.OriginalCurrency != nil {
		out.OriginalCurrency = models.NormalizeCurrency(*p.OriginalCurrency)
	}
	if p.ExchangeRate != nil {
		out.ExchangeRate = decimal.NewNullDecimal(*p.ExchangeRate)
	}

	if p.WalletID != nil {
		out.WalletID = *p.WalletID
	}
	if p.ToWalletID != nil {
		out.ToWalletID = *p.ToWalletID
	}
	if p.ToAmount != nil {
		out.ToAmount = decimal.NewNullDecimal(*p.ToAmount)
	}
	if p.ToExchangeRate != nil {
		out.ToExchangeRate = decimal.NewNullDecimal(*p.ToExchangeRate)
	}
	if p.ToAmount == nil {
		amountMoved := p.Amount != nil || p.OriginalAmount != nil || p.ExchangeRate != nil
		switch {
		case p.ToWalletID != nil && *p.ToWalletID != tx.ToWalletID:
			// the old credited amount and rate belong to the old destination
			out.ToAmount = decimal.NullDecimal{}
			if p.ToExchangeRate == nil {
				out.ToExchangeRate = decimal.NullDecimal{}
			}
		case out.ToExchangeRate.Valid && (amountMoved || p.ToExchangeRate != nil):
			// re-derived from the rate in resolveTransfer
			out.ToAmount = decimal.NullDecimal{}
		}
	} else if p.ToExchangeRate == nil {
		out.ToExchangeRate = decimal.NullDecimal{}
	}
	if p.ClearToWallet || (out.Type != models.TypeTransfer && tx.Type == models.TypeTransfer) {
		out.ToWalletID = ""
		out.ToAmount = decimal.NullDecimal{}
		out.ToExchangeRate = decimal.NullDecimal{}
	}

	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.ClearCategory {
		out.CategoryID = ""
	}
	if p.SubLedgerID != nil {
		out.SubLedgerID = *p.SubLedgerID
	}
	if p.ClearSubLedger {
		out.SubLedgerID = ""
	}
	if p.LoanID != nil {
		out.LoanID = *p.LoanID
	}
	if p.ClearLoan {
		out.LoanID = ""
	}

	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		out.Date = models.CivilDate(*p.Date)
	}
	return &out
}

// resolveMode tunes resolve for creation or update.
type resolveMode struct {
	creating bool // reject archived wallets
	derive   bool // recompute Amount from the original amount

	// A leg whose wallet was deleted with detach may stay empty as long as
	// the patch does not touch it.
	detachedSource bool
	detachedDest   bool
}

// resolve validates tx against the owner's wallets, catalog and loans, and
// fills in the derived fields: currency, converted amounts.
func (l *Ledger) resolve(ctx context.Context, q storage.Queries, op string, tx *models.Transaction, mode resolveMode) error {
	if !tx.Type.Valid() {
		return invalidf(op, "invalid transaction type %q", tx.Type)
	}
	if tx.Date.IsZero() {
		return invalidf(op, "date is required")
	}

	switch {
	case tx.WalletID != "":
		wallet, err := ownedWallet(ctx, q, op, tx.WalletID, tx.OwnerID, mode.creating)
		if err != nil {
			return err
		}
		tx.Currency = wallet.Currency
	case !mode.detachedSource:
		return invalidf(op, "wallet is required")
	}
	// a detached source keeps the currency it was posted in

	// captured input in another currency
	if tx.OriginalAmount.Valid {
		if !tx.OriginalAmount.Decimal.IsPositive() {
			return invalidf(op, "original amount must be positive")
		}
		if tx.OriginalCurrency == "" {
			tx.OriginalCurrency = tx.Currency
		}
		if !models.IsValidCurrency(tx.OriginalCurrency) {
			return invalidf(op, "invalid original currency %q", tx.OriginalCurrency)
		}
		if !tx.ExchangeRate.Valid {
			if tx.OriginalCurrency != tx.Currency {
				return invalidf(op, "exchange rate from %s to %s is required", tx.OriginalCurrency, tx.Currency)
			}
			tx.ExchangeRate = decimal.NewNullDecimal(decimal.NewFromInt(1))
		}
		if !tx.ExchangeRate.Decimal.IsPositive() {
			return invalidf(op, "exchange rate must be positive")
		}
		if mode.derive {
			tx.Amount = calculator.Convert(tx.OriginalAmount.Decimal, tx.ExchangeRate.Decimal)
		}
	} else {
		tx.OriginalCurrency = ""
	}
	if tx.ExchangeRate.Valid && !tx.ExchangeRate.Decimal.IsPositive() {
		return invalidf(op, "exchange rate must be positive")
	}
	if !tx.Amount.IsPositive() {
		return invalidf(op, "amount must be positive")
	}

	if tx.IsTransfer() {
		if err := resolveTransfer(ctx, q, op, tx, mode); err != nil {
			return err
		}
	} else if tx.ToWalletID != "" || tx.ToAmount.Valid || tx.ToExchangeRate.Valid {
		return invalidf(op, "destination fields are only allowed on transfers")
	}

	if tx.CategoryID != "" {
		c, err := q.GetCategory(ctx, tx.CategoryID, tx.OwnerID)
		if errors.Is(err, storage.ErrNotFound) {
			return invalidf(op, "category %s not found", tx.CategoryID)
		}
		if err != nil {
			return err
		}
		if !tx.IsTransfer() && string(c.Type) != string(tx.Type) {
			return invalidf(op, "%s category cannot be used on an %s transaction", c.Type, tx.Type)
		}
	}
	if tx.SubLedgerID != "" {
		_, err := q.GetSubLedger(ctx, tx.SubLedgerID, tx.OwnerID)
		if errors.Is(err, storage.ErrNotFound) {
			return invalidf(op, "sub-ledger %s not found", tx.SubLedgerID)
		}
		if err != nil {
			return err
		}
	}
	if tx.LoanID != "" {
		if err := resolveLoanLink(ctx, q, op, tx); err != nil {
			return err
		}
	}
	return nil
}

// resolveTransfer checks the destination leg. A destination amount left
// unset is derived from the destination rate when the currencies differ.
func resolveTransfer(ctx context.Context, q storage.Queries, op string, tx *models.Transaction, mode resolveMode) error {
	if tx.ToExchangeRate.Valid && !tx.ToExchangeRate.Decimal.IsPositive() {
		return invalidf(op, "destination exchange rate must be positive")
	}
	if tx.ToAmount.Valid && !tx.ToAmount.Decimal.IsPositive() {
		return invalidf(op, "destination amount must be positive")
	}

	if tx.ToWalletID == "" {
		if !mode.detachedDest {
			return invalidf(op, "transfer requires a destination wallet")
		}
		if !tx.ToAmount.Valid && tx.ToExchangeRate.Valid {
			tx.ToAmount = decimal.NewNullDecimal(calculator.Convert(tx.Amount, tx.ToExchangeRate.Decimal))
		}
		return nil
	}
	if tx.ToWalletID == tx.WalletID {
		return invalidf(op, "transfer destination must differ from the source wallet")
	}
	to, err := ownedWallet(ctx, q, op, tx.ToWalletID, tx.OwnerID, mode.creating)
	if err != nil {
		return err
	}

	if to.Currency != tx.Currency && !tx.ToAmount.Valid {
		if !tx.ToExchangeRate.Valid {
			return invalidf(op, "transfer from %s to %s needs a destination amount or rate", tx.Currency, to.Currency)
		}
		tx.ToAmount = decimal.NewNullDecimal(calculator.Convert(tx.Amount, tx.ToExchangeRate.Decimal))
	}
	return nil
}

// resolveLoanLink checks a repayment against its loan. Repayments in a
// wallet of another currency carry the rate "1 loan currency = rate wallet
// currency" so reconciliation can divide it back out.
func resolveLoanLink(ctx context.Context, q storage.Queries, op string, tx *models.Transaction) error {
	loan, err := q.GetLoan(ctx, tx.LoanID, tx.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return invalidf(op, "loan %s not found", tx.LoanID)
	}
	if err != nil {
		return err
	}
	if want := loan.Direction.RepaymentType(); tx.Type != want {
		return invalidf(op, "transactions on a %s loan must be %s, got %s", loan.Direction, want, tx.Type)
	}
	if tx.Currency == loan.Currency {
		return nil
	}
	if !tx.ExchangeRate.Valid {
		return invalidf(op, "exchange rate from loan currency %s to %s is required", loan.Currency, tx.Currency)
	}
	if tx.OriginalCurrency != "" && tx.OriginalCurrency != loan.Currency {
		return invalidf(op, "original currency %s must match loan currency %s", tx.OriginalCurrency, loan.Currency)
	}
	return nil
}

// ownedWallet loads a wallet referenced by a transaction. A wallet of
// another owner is reported as an invalid argument.
func ownedWallet(ctx context.Context, q storage.Queries, op, walletID, ownerID string, rejectArchived bool) (*models.Wallet, error) {
	w, err := q.GetWallet(ctx, walletID, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalidf(op, "wallet %s not found", walletID)
	}
	if err != nil {
		return nil, err
	}
	if rejectArchived && w.Archived {
		return nil, invalidf(op, "wallet %s is archived", walletID)
	}
	return w, nil
}
