package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/models"
)

const categoryColumns = `id, name, slug, description, item_count, created_at, updated_at`

// Category list orderings.
const (
	CategoryOrderName      = "name"
	CategoryOrderItemCount = "item_count"
	CategoryOrderCreated   = "created_at"
)

// ListCategories returns up to limit categories in the requested order.
func (db *DB) ListCategories(ctx context.Context, orderBy string, limit int) ([]models.Category, error) {
	if limit <= 0 {
		limit = 10
	}

	var order string
	switch orderBy {
	case CategoryOrderName:
		order = "name COLLATE NOCASE ASC"
	case CategoryOrderCreated:
		order = "created_at DESC"
	default:
		order = "item_count DESC"
	}

	stmt := fmt.Sprintf(`SELECT %s FROM categories ORDER BY %s LIMIT ?`, categoryColumns, order)
	rows, err := db.conn.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ItemCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindCategory looks a category up by name, case-insensitively. With fuzzy
// set, a substring match is accepted. Returns apperr.ErrNotFound when
// nothing matches.
func (db *DB) FindCategory(ctx context.Context, name string, fuzzy bool) (*models.Category, error) {
	var (
		stmt string
		arg  string
	)
	if fuzzy {
		stmt = fmt.Sprintf(
			`SELECT %s FROM categories WHERE lower(name) LIKE ? ESCAPE '\' ORDER BY name LIMIT 1`,
			categoryColumns)
		arg = likePattern(name)
	} else {
		stmt = fmt.Sprintf(`SELECT %s FROM categories WHERE lower(name) = lower(?) LIMIT 1`, categoryColumns)
		arg = name
	}

	var c models.Category
	err := db.conn.QueryRowContext(ctx, stmt, arg).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ItemCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: find category %q: %w", name, err)
	}
	return &c, nil
}

// SuggestCategories returns up to limit category names containing the
// first token of the given name, for not-found suggestions.
func (db *DB) SuggestCategories(ctx context.Context, name string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	token := name
	if fields := strings.Fields(name); len(fields) > 0 {
		token = fields[0]
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM categories WHERE lower(name) LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`,
		likePattern(token), limit)
	if err != nil {
		return nil, fmt.Errorf("store: suggest categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpsertCategory inserts or updates a category by name.
func (db *DB) UpsertCategory(ctx context.Context, c models.Category) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO categories (name, slug, description, item_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			slug        = excluded.slug,
			description = excluded.description,
			item_count  = excluded.item_count,
			updated_at  = excluded.updated_at
	`, c.Name, c.Slug, c.Description, c.ItemCount, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert category %q: %w", c.Name, err)
	}
	return nil
}
