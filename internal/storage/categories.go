package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finledger/internal/core"
)

const categoryColumns = `id, user_id, name, type, icon, parent_id, is_default, is_active`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var parent sql.NullInt64
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &parent, &c.IsDefault, &c.IsActive)
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return c, err
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, type, icon, parent_id, is_default, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Type, c.Icon, nullableID(c.ParentID), c.IsDefault, c.IsActive)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY type, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, icon = ?, parent_id = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Type, c.Icon, nullableID(c.ParentID), c.IsActive, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, "category", c.ID)
}

func (q *Queries) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res, "category", id)
}

// DescendantIDs resolves the id of every node in the subtree rooted at
// rootID, the root included, via a recursive CTE over parent_id edges.
func (q *Queries) DescendantIDs(ctx context.Context, userID, rootID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM categories WHERE id = ? AND user_id = ?
			UNION ALL
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`, rootID, userID)
	if err != nil {
		return nil, fmt.Errorf("descendant ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan descendant id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("category %d: %w", rootID, core.ErrNotFound)
	}
	return ids, nil
}

// FindCategoryByNameContains returns the user's first category whose name
// contains the given fragment, case-insensitively. Multiple matches resolve
// to the oldest one.
func (q *Queries) FindCategoryByNameContains(ctx context.Context, userID int64, fragment string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = ? AND instr(lower(name), lower(?)) > 0
		ORDER BY id LIMIT 1`, userID, fragment)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category name ~ %q: %w", fragment, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

func (q *Queries) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by category: %w", err)
	}
	return n, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
