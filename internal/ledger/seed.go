package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/events"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// DefaultWalletName is the wallet every new owner starts with.
const DefaultWalletName = "Cash"

var (
	defaultExpenseCategories = []string{
		"Food & Drinks", "Transport", "Shopping", "Housing", "Bills & Utilities",
		"Health", "Entertainment", "Education", "Others",
	}
	defaultIncomeCategories = []string{
		"Salary", "Bonus", "Investment Returns", "Gifts", "Other Income",
	}
)

// SeedResult reports what InitializeDefaults inserted.
type SeedResult struct {
	WalletCreated     bool
	CategoriesCreated int
}

// InitializeDefaults seeds the default wallet and categories of an owner.
// Rows are matched by name and type and only missing ones are inserted, so
// repeated or concurrent calls never duplicate.
func (l *Ledger) InitializeDefaults(ctx context.Context, ownerID, defaultCurrency string) (*SeedResult, error) {
	const op = "ledger.InitializeDefaults"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}
	currency := models.NormalizeCurrency(defaultCurrency)
	if !models.IsValidCurrency(currency) {
		return nil, invalidf(op, "invalid default currency %q", defaultCurrency)
	}

	res := &SeedResult{}
	var walletID string
	err := l.mutate(ctx, op, func(q storage.Queries) error {
		*res = SeedResult{}

		_, err := q.FindWallet(ctx, ownerID, DefaultWalletName, models.WalletCash)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			wallets, err := q.ListWallets(ctx, ownerID, true)
			if err != nil {
				return err
			}
			hasDefault := false
			for _, w := range wallets {
				hasDefault = hasDefault || w.IsDefault
			}
			w := &models.Wallet{
				OwnerID:        ownerID,
				Name:           DefaultWalletName,
				Type:           models.WalletCash,
				Currency:       currency,
				Balance:        decimal.Zero,
				OpeningBalance: decimal.Zero,
				ExchangeRate:   decimal.NewFromInt(1),
				IsDefault:      !hasDefault,
				IsFlexible:     true,
			}
			if err := q.CreateWallet(ctx, w); err != nil {
				return err
			}
			walletID = w.ID
			res.WalletCreated = true
		case err != nil:
			return err
		}

		seed := func(names []string, categoryType models.CategoryType) error {
			for _, name := range names {
				_, err := q.FindCategory(ctx, ownerID, name, categoryType)
				if err == nil {
					continue
				}
				if !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				if err := q.CreateCategory(ctx, &models.Category{OwnerID: ownerID, Name: name, Type: categoryType}); err != nil {
					return err
				}
				res.CategoriesCreated++
			}
			return nil
		}
		if err := seed(defaultExpenseCategories, models.CategoryExpense); err != nil {
			return err
		}
		return seed(defaultIncomeCategories, models.CategoryIncome)
	})
	if err != nil {
		return nil, err
	}

	if res.WalletCreated || res.CategoriesCreated > 0 {
		t := newTouched()
		if walletID != "" {
			t.wallets[walletID] = true
		}
		l.commit(ctx, t, t.event(events.DefaultsSeeded, ownerID, ""))
		slog.InfoContext(ctx, "Seeded default data",
			"owner_id", ownerID,
			"wallet_created", res.WalletCreated,
			"categories_created", res.CategoriesCreated)
	}
	return res, nil
}
