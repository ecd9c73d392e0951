package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// CreateWalletInput describes a new wallet.
type CreateWalletInput struct {
	Name     string
	Type     models.WalletType
	Currency string

	// InitialBalance seeds both the balance and the opening balance.
	InitialBalance decimal.Decimal

	// ExchangeRate converts into the owner's default currency. Zero means 1.
	ExchangeRate decimal.Decimal

	// IsFlexible defaults to true.
	IsFlexible *bool
	IsDefault  bool

	Icon  string
	Color string
}

// UpdateWalletInput is a partial wallet update; nil fields are unchanged.
type UpdateWalletInput struct {
	Name         *string
	Type         *models.WalletType
	Currency     *string
	ExchangeRate *decimal.Decimal
	IsFlexible   *bool
	IsDefault    *bool
	Icon         *string
	Color        *string
}

// ArchiveAction selects what happens to the remaining balance.
type ArchiveAction string

const (
	// ArchiveTransfer moves the balance into another wallet with a
	// synthetic transfer record.
	ArchiveTransfer ArchiveAction = "transfer"
	// ArchiveDestroy writes the balance off without a transaction record.
	ArchiveDestroy ArchiveAction = "destroy"
)

// ArchiveInput parameterizes ArchiveWallet.
type ArchiveInput struct {
	Action ArchiveAction

	// TargetWalletID receives the balance for ArchiveTransfer.
	TargetWalletID string

	// ExchangeRate is "1 source currency = rate target currency". Required
	// when the currencies differ.
	ExchangeRate decimal.NullDecimal

	// Date of the transfer record. Defaults to today.
	Date time.Time
}

// ArchiveResult is the archived wallet and, for a transfer of a positive
// balance, the synthetic transaction.
type ArchiveResult struct {
	Wallet   *models.Wallet
	Transfer *models.Transaction
}

// ListWallets returns the owner's wallets.
func (l *Ledger) ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]*models.Wallet, error) {
	const op = "ledger.ListWallets"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	wallets, err := l.store.ListWallets(ctx, ownerID, includeArchived)
	return wallets, wrap(op, err)
}

// GetWallet returns one wallet of the owner.
func (l *Ledger) GetWallet(ctx context.Context, walletID, ownerID string) (*models.Wallet, error) {
	const op = "ledger.GetWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	w, err := l.store.GetWallet(ctx, walletID, ownerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return w, nil
}

// CreateWallet validates and stores a new wallet. The first wallet of an
// owner becomes the default.
func (l *Ledger) CreateWallet(ctx context.Context, ownerID string, in CreateWalletInput) (*models.Wallet, error) {
	const op = "ledger.CreateWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	w := &models.Wallet{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Currency:       models.NormalizeCurrency(in.Currency),
		Balance:        in.InitialBalance,
		OpeningBalance: in.InitialBalance,
		ExchangeRate:   in.ExchangeRate,
		IsDefault:      in.IsDefault,
		IsFlexible:     true,
		Icon:           in.Icon,
		Color:          in.Color,
	}
	if in.IsFlexible != nil {
		w.IsFlexible = *in.IsFlexible
	}
	if w.ExchangeRate.IsZero() {
		w.ExchangeRate = decimal.NewFromInt(1)
	}
	if err := validateWallet(op, w); err != nil {
		return nil, err
	}

	t := newTouched()
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		n, err := q.CountWallets(ctx, ownerID)
		if err != nil {
			return err
		}
		if n == 0 {
			w.IsDefault = true
		} else if w.IsDefault {
			if err := q.ClearDefaultWallets(ctx, ownerID); err != nil {
				return err
			}
		}
		return q.CreateWallet(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	t.wallets[w.ID] = true
	l.commit(ctx, t, t.event(events.WalletCreated, ownerID, w.ID))
	slog.InfoContext(ctx, "Created wallet", "owner_id", ownerID, "wallet_id", w.ID, "currency", w.Currency)
	return w, nil
}

// UpdateWallet applies a partial update. Balances are not editable here;
// use AdjustBalance.
func (l *Ledger) UpdateWallet(ctx context.Context, walletID, ownerID string, in UpdateWalletInput) (*models.Wallet, error) {
	const op = "ledger.UpdateWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	var w *models.Wallet
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		w, err = q.GetWallet(ctx, walletID, ownerID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			w.Name = strings.TrimSpace(*in.Name)
		}
		if in.Type != nil {
			w.Type = *in.Type
		}
		if in.ExchangeRate != nil {
			w.ExchangeRate = *in.ExchangeRate
		}
		if in.IsFlexible != nil {
			w.IsFlexible = *in.IsFlexible
		}
		if in.Icon != nil {
			w.Icon = *in.Icon
		}
		if in.Color != nil {
			w.Color = *in.Color
		}
		if in.Currency != nil {
			currency := models.NormalizeCurrency(*in.Currency)
			if currency != w.Currency {
				n, err := q.CountTransactions(ctx, ownerID, storage.TransactionFilter{WalletID: walletID})
				if err != nil {
					return err
				}
				if n > 0 {
					return conflictf(op, "cannot change currency of wallet with %d transactions", n)
				}
				w.Currency = currency
			}
		}
		if err := validateWallet(op, w); err != nil {
			return err
		}

		if err := q.UpdateWallet(ctx, w); err != nil {
			return err
		}

		if in.IsDefault != nil {
			switch {
			case *in.IsDefault && !w.IsDefault:
				if err := setDefault(ctx, q, op, w); err != nil {
					return err
				}
			case !*in.IsDefault && w.IsDefault:
				return conflictf(op, "cannot unset the default wallet, designate another default instead")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t := newTouched()
	t.wallets[w.ID] = true
	l.commit(ctx, t, t.event(events.WalletUpdated, ownerID, w.ID))
	return w, nil
}

// DeleteWallet removes a wallet. With cascade, every transaction touching it
// is deleted and its effects on other wallets and loans are reversed;
// otherwise the transactions are kept and detached from the wallet.
func (l *Ledger) DeleteWallet(ctx context.Context, walletID, ownerID string, cascade bool) error {
	const op = "ledger.DeleteWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}

	t := newTouched()
	removed := 0
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		w, err := q.GetWallet(ctx, walletID, ownerID)
		if err != nil {
			return err
		}
		n, err := q.CountWallets(ctx, ownerID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return conflictf(op, "cannot delete the only wallet")
		}
		if w.IsDefault {
			return conflictf(op, "cannot delete the default wallet, designate another default first")
		}

		if cascade {
			if removed, err = l.deleteAllForWallet(ctx, q, w.ID, ownerID, t); err != nil {
				return err
			}
		} else if err := q.DetachWallet(ctx, w.ID, ownerID); err != nil {
			return err
		}
		return q.DeleteWallet(ctx, w.ID, ownerID)
	})
	if err != nil {
		return err
	}

	delete(t.wallets, walletID)
	l.commit(ctx, t, t.event(events.WalletDeleted, ownerID, walletID))
	slog.InfoContext(ctx, "Deleted wallet",
		"owner_id", ownerID,
		"wallet_id", walletID,
		"cascade", cascade,
		"transactions_deleted", removed)
	return nil
}

// AdjustBalance adds delta to the wallet balance as a manual correction.
// The opening balance moves with it, so the journal still explains the
// balance afterwards.
func (l *Ledger) AdjustBalance(ctx context.Context, walletID, ownerID string, delta decimal.Decimal) (*models.Wallet, error) {
	const op = "ledger.AdjustBalance"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	var w *models.Wallet
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		if !delta.IsZero() {
			if err := q.AddWalletBalance(ctx, walletID, ownerID, delta, true); err != nil {
				return err
			}
		}
		var err error
		w, err = q.GetWallet(ctx, walletID, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	t := newTouched()
	t.wallets[walletID] = true
	l.commit(ctx, t, t.event(events.WalletAdjusted, ownerID, walletID))
	return w, nil
}

// SetDefault makes walletID the owner's only default wallet.
func (l *Ledger) SetDefault(ctx context.Context, walletID, ownerID string) (*models.Wallet, error) {
	const op = "ledger.SetDefault"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	var w *models.Wallet
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		var err error
		w, err = q.GetWallet(ctx, walletID, ownerID)
		if err != nil {
			return err
		}
		return setDefault(ctx, q, op, w)
	})
	if err != nil {
		return nil, err
	}

	t := newTouched()
	t.wallets[walletID] = true
	l.commit(ctx, t, t.event(events.WalletUpdated, ownerID, walletID))
	return w, nil
}

// setDefault clears every default flag of the owner, sets it on w and
// checks that exactly one default remains.
func setDefault(ctx context.Context, q storage.Queries, op string, w *models.Wallet) error {
	if w.Archived {
		return conflictf(op, "archived wallet cannot be the default")
	}
	if err := q.ClearDefaultWallets(ctx, w.OwnerID); err != nil {
		return err
	}
	if err := q.SetDefaultWallet(ctx, w.ID, w.OwnerID); err != nil {
		return err
	}

	wallets, err := q.ListWallets(ctx, w.OwnerID, true)
	if err != nil {
		return err
	}
	defaults := 0
	for _, other := range wallets {
		if other.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return conflictf(op, "owner would end with %d default wallets", defaults)
	}
	w.IsDefault = true
	return nil
}

// ArchiveWallet hides a wallet after dealing with its balance.
func (l *Ledger) ArchiveWallet(ctx context.Context, walletID, ownerID string, in ArchiveInput) (*ArchiveResult, error) {
	const op = "ledger.ArchiveWallet"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	if in.Action != ArchiveTransfer && in.Action != ArchiveDestroy {
		return nil, invalidf(op, "unknown archive action %q", in.Action)
	}

	t := newTouched()
	res := &ArchiveResult{}
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		w, err := q.GetWallet(ctx, walletID, ownerID)
		if err != nil {
			return err
		}
		if w.Archived {
			return conflictf(op, "wallet is already archived")
		}
		if w.IsDefault {
			return conflictf(op, "cannot archive the default wallet, designate another default first")
		}

		switch in.Action {
		case ArchiveTransfer:
			res.Transfer, err = l.archiveTransfer(ctx, q, op, w, in, t)
			if err != nil {
				return err
			}
		case ArchiveDestroy:
			if !w.Balance.IsZero() {
				if err := q.AddWalletBalance(ctx, w.ID, ownerID, w.Balance.Neg(), true); err != nil {
					return err
				}
			}
		}

		w.Archived = true
		w.IsFlexible = false
		if err := q.UpdateWallet(ctx, w); err != nil {
			return err
		}
		res.Wallet, err = q.GetWallet(ctx, w.ID, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.wallets[walletID] = true
	l.commit(ctx, t, t.event(events.WalletArchived, ownerID, walletID))
	slog.InfoContext(ctx, "Archived wallet", "owner_id", ownerID, "wallet_id", walletID, "action", in.Action)
	return res, nil
}

// archiveTransfer moves the full balance of w into the target wallet.
// A zero balance produces no record.
func (l *Ledger) archiveTransfer(ctx context.Context, q storage.Queries, op string, w *models.Wallet, in ArchiveInput, t *touched) (*models.Transaction, error) {
	if in.TargetWalletID == "" {
		return nil, invalidf(op, "target wallet is required for a transfer")
	}
	if in.TargetWalletID == w.ID {
		return nil, invalidf(op, "target wallet must differ from the archived wallet")
	}
	target, err := q.GetWallet(ctx, in.TargetWalletID, w.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalidf(op, "target wallet %s not found", in.TargetWalletID)
	}
	if err != nil {
		return nil, err
	}
	if target.Archived {
		return nil, invalidf(op, "target wallet is archived")
	}

	rate := decimal.NewFromInt(1)
	if target.Currency != w.Currency {
		if !in.ExchangeRate.Valid {
			return nil, invalidf(op, "exchange rate from %s to %s is required", w.Currency, target.Currency)
		}
		rate = in.ExchangeRate.Decimal
	}
	if !rate.IsPositive() {
		return nil, invalidf(op, "exchange rate must be positive")
	}

	switch {
	case w.Balance.IsZero():
		return nil, nil
	case w.Balance.IsNegative():
		return nil, invalidf(op, "cannot transfer a negative balance of %s", w.Balance)
	}

	tx := &models.Transaction{
		OwnerID:     w.OwnerID,
		Type:        models.TypeTransfer,
		Amount:      w.Balance,
		Currency:    w.Currency,
		WalletID:    w.ID,
		ToWalletID:  target.ID,
		Description: fmt.Sprintf("Archive transfer from %s", w.Name),
		Date:        in.Date,
	}
	if tx.Date.IsZero() {
		tx.Date = l.today()
	}
	if target.Currency != w.Currency {
		tx.ToAmount = decimal.NewNullDecimal(calculator.Convert(w.Balance, rate))
		tx.ToExchangeRate = decimal.NewNullDecimal(rate)
	}

	if err := q.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if err := applyEffects(ctx, q, w.OwnerID, calculator.Rewrite(nil, tx), t); err != nil {
		return nil, err
	}
	return tx, nil
}

func validateWallet(op string, w *models.Wallet) error {
	if w.Name == "" {
		return invalidf(op, "wallet name is required")
	}
	if !w.Type.Valid() {
		return invalidf(op, "invalid wallet type %q", w.Type)
	}
	if !models.IsValidCurrency(w.Currency) {
		return invalidf(op, "invalid currency %q", w.Currency)
	}
	if !w.ExchangeRate.IsPositive() {
		return invalidf(op, "exchange rate must be positive")
	}
	return nil
}
