package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/walletledger/internal/models"
)

const subLedgerColumns = `id, owner_id, name, exclude_from_stats, created_at`

func (q *queries) CreateSubLedger(ctx context.Context, s *models.SubLedger) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sub_ledgers (`+subLedgerColumns+`) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, s.Name, s.ExcludeFromStats, s.CreatedAt)
	if err != nil {
		return wrapErr("failed to insert sub-ledger", err)
	}
	return nil
}

func (q *queries) GetSubLedger(ctx context.Context, id, ownerID string) (*models.SubLedger, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+subLedgerColumns+` FROM sub_ledgers WHERE id = ? AND owner_id = ?`, id, ownerID)
	s, err := scanSubLedger(row)
	if err != nil {
		return nil, wrapErr("failed to get sub-ledger", err)
	}
	return s, nil
}

func (q *queries) ListSubLedgers(ctx context.Context, ownerID string) ([]*models.SubLedger, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+subLedgerColumns+` FROM sub_ledgers WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, wrapErr("failed to list sub-ledgers", err)
	}
	defer rows.Close()

	var subs []*models.SubLedger
	for rows.Next() {
		s, err := scanSubLedger(rows)
		if err != nil {
			return nil, wrapErr("failed to scan sub-ledger", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate sub-ledgers", err)
	}
	return subs, nil
}

func (q *queries) UpdateSubLedger(ctx context.Context, s *models.SubLedger) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE sub_ledgers SET name = ?, exclude_from_stats = ? WHERE id = ? AND owner_id = ?`,
		s.Name, s.ExcludeFromStats, s.ID, s.OwnerID)
	if err != nil {
		return wrapErr("failed to update sub-ledger", err)
	}
	return expectOne(res, "failed to update sub-ledger")
}

// DeleteSubLedger removes a sub-ledger; its transactions stay in the main book.
func (q *queries) DeleteSubLedger(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sub_ledgers WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete sub-ledger", err)
	}
	return expectOne(res, "failed to delete sub-ledger")
}

func scanSubLedger(row scanner) (*models.SubLedger, error) {
	s := &models.SubLedger{}
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.ExcludeFromStats, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}
