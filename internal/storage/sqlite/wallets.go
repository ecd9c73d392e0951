package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

const walletColumns = `id, owner_id, name, type, currency, balance, opening_balance, exchange_rate,
	is_default, is_flexible, archived, icon, color, created_at, updated_at`

// CreateWallet persists a new wallet. ID and timestamps are generated when unset.
func (q *queries) CreateWallet(ctx context.Context, w *models.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt == 0 {
		w.CreatedAt = now()
	}
	w.UpdatedAt = w.CreatedAt

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO wallets (`+walletColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.OwnerID, w.Name, string(w.Type), w.Currency,
		w.Balance.String(), w.OpeningBalance.String(), w.ExchangeRate.String(),
		w.IsDefault, w.IsFlexible, w.Archived, w.Icon, w.Color, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert wallet", err)
	}
	return nil
}

// GetWallet retrieves a wallet by ID for its owner.
func (q *queries) GetWallet(ctx context.Context, id, ownerID string) (*models.Wallet, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	w, err := scanWallet(row)
	if err != nil {
		return nil, wrapErr("failed to get wallet", err)
	}
	return w, nil
}

// FindWallet looks a wallet up by name and type.
func (q *queries) FindWallet(ctx context.Context, ownerID, name string, walletType models.WalletType) (*models.Wallet, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_id = ? AND name = ? AND type = ? LIMIT 1`,
		ownerID, name, string(walletType),
	)
	w, err := scanWallet(row)
	if err != nil {
		return nil, wrapErr("failed to find wallet", err)
	}
	return w, nil
}

// ListWallets returns the owner's wallets, default first, then by creation.
func (q *queries) ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY is_default DESC, created_at ASC, rowid ASC`

	rows, err := q.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, wrapErr("failed to list wallets", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, wrapErr("failed to scan wallet", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate wallets", err)
	}
	return wallets, nil
}

// CountWallets counts every wallet of the owner, archived ones included.
func (q *queries) CountWallets(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, wrapErr("failed to count wallets", err)
	}
	return n, nil
}

// UpdateWallet persists descriptive fields and flags. The default flag is
// managed by ClearDefaultWallets/SetDefaultWallet.
func (q *queries) UpdateWallet(ctx context.Context, w *models.Wallet) error {
	w.UpdatedAt = now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE wallets
		 SET name = ?, type = ?, currency = ?, exchange_rate = ?, is_flexible = ?, archived = ?,
		     icon = ?, color = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		w.Name, string(w.Type), w.Currency, w.ExchangeRate.String(), w.IsFlexible, w.Archived,
		w.Icon, w.Color, w.UpdatedAt,
		w.ID, w.OwnerID,
	)
	if err != nil {
		return wrapErr("failed to update wallet", err)
	}
	return expectOne(res, "failed to update wallet")
}

// AddWalletBalance adds delta to the balance with a compare-and-swap on the
// previous value, so a concurrent writer outside a transaction cannot be lost.
func (q *queries) AddWalletBalance(ctx context.Context, id, ownerID string, delta decimal.Decimal, moveOpening bool) error {
	var balance, opening decimal.Decimal
	err := q.db.QueryRowContext(ctx,
		`SELECT balance, opening_balance FROM wallets WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&balance, &opening)
	if err != nil {
		return wrapErr("failed to read wallet balance", err)
	}

	newOpening := opening
	if moveOpening {
		newOpening = opening.Add(delta)
	}

	res, err := q.db.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, opening_balance = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND balance = ? AND opening_balance = ?`,
		balance.Add(delta).String(), newOpening.String(), now(),
		id, ownerID, balance.String(), opening.String(),
	)
	if err != nil {
		return wrapErr("failed to update wallet balance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("failed to update wallet balance", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update wallet balance %s: %w", id, storage.ErrConflict)
	}
	return nil
}

// ClearDefaultWallets unsets the default flag on every wallet of the owner.
func (q *queries) ClearDefaultWallets(ctx context.Context, ownerID string) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE wallets SET is_default = 0 WHERE owner_id = ? AND is_default = 1`, ownerID); err != nil {
		return wrapErr("failed to clear default wallets", err)
	}
	return nil
}

// SetDefaultWallet flags one wallet as default. The partial unique index
// rejects a second default.
func (q *queries) SetDefaultWallet(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE wallets SET is_default = 1, updated_at = ? WHERE id = ? AND owner_id = ?`,
		now(), id, ownerID,
	)
	if err != nil {
		return wrapErr("failed to set default wallet", err)
	}
	return expectOne(res, "failed to set default wallet")
}

// DeleteWallet removes a wallet row. Remaining transaction references are
// cleared by the foreign keys.
func (q *queries) DeleteWallet(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete wallet", err)
	}
	return expectOne(res, "failed to delete wallet")
}

func scanWallet(row scanner) (*models.Wallet, error) {
	w := &models.Wallet{}
	var walletType string
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Name, &walletType, &w.Currency,
		&w.Balance, &w.OpeningBalance, &w.ExchangeRate,
		&w.IsDefault, &w.IsFlexible, &w.Archived, &w.Icon, &w.Color, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Type = models.WalletType(walletType)
	return w, nil
}
