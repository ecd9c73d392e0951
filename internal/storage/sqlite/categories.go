package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/walletledger/internal/models"
)

const categoryColumns = `id, owner_id, name, type, icon, color, created_at`

// CreateCategory inserts a category. Name and type are unique per owner.
func (q *queries) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = now()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, string(c.Type), c.Icon, c.Color, c.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert category", err)
	}
	return nil
}

func (q *queries) GetCategory(ctx context.Context, id, ownerID string) (*models.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanCategory(row)
	if err != nil {
		return nil, wrapErr("failed to get category", err)
	}
	return c, nil
}

func (q *queries) FindCategory(ctx context.Context, ownerID, name string, categoryType models.CategoryType) (*models.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND name = ? AND type = ?`,
		ownerID, name, string(categoryType))
	c, err := scanCategory(row)
	if err != nil {
		return nil, wrapErr("failed to find category", err)
	}
	return c, nil
}

func (q *queries) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY type, created_at, rowid`, ownerID)
	if err != nil {
		return nil, wrapErr("failed to list categories", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrapErr("failed to scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate categories", err)
	}
	return categories, nil
}

func (q *queries) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, icon = ?, color = ? WHERE id = ? AND owner_id = ?`,
		c.Name, string(c.Type), c.Icon, c.Color, c.ID, c.OwnerID)
	if err != nil {
		return wrapErr("failed to update category", err)
	}
	return expectOne(res, "failed to update category")
}

// DeleteCategory removes a category. Its budgets go with it and its
// transactions become uncategorized.
func (q *queries) DeleteCategory(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete category", err)
	}
	return expectOne(res, "failed to delete category")
}

func scanCategory(row scanner) (*models.Category, error) {
	c := &models.Category{}
	var categoryType string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &categoryType, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = models.CategoryType(categoryType)
	return c, nil
}
