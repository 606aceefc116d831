package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/models"
)

const itemColumns = `item_id, slug, link, title, subtitle, content, status, author,
	latitude, longitude, address, categories, tags,
	phone_number, telephone_number, email, web, show_email, show_web,
	featured_image, gallery_images, features,
	opening_hours, social_icons, custom_fields,
	created_at, updated_at, published_at`

// Hit is one search result row: the item plus its distance in meters from
// the query center, when one was given and the item has coordinates.
type Hit struct {
	Item     models.Item
	Distance *float64
}

// SearchItems executes a filtered, sorted, paginated retrieval and returns
// the page of hits together with the total match count ignoring
// pagination.
func (db *DB) SearchItems(ctx context.Context, q ItemQuery) ([]Hit, int, error) {
	where, whereArgs := q.whereClause()
	order, orderArgs := q.orderClause()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	cols := itemColumns
	var args []any
	if q.Center != nil {
		cols += ",\n\t" + distanceExpr + " AS distance"
		args = append(args, q.Center.Latitude, q.Center.Longitude)
	}
	args = append(args, whereArgs...)
	args = append(args, orderArgs...)
	args = append(args, limit, offset)

	stmt := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		cols, where, order)

	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: search items: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		hit, err := db.scanItem(rows, q.Center != nil)
		if err != nil {
			return nil, 0, fmt.Errorf("store: scan item: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: search items: %w", err)
	}

	var total int
	countStmt := fmt.Sprintf(`SELECT COUNT(*) FROM items WHERE %s`, where)
	if err := db.conn.QueryRowContext(ctx, countStmt, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count items: %w", err)
	}

	return hits, total, nil
}

// GetItem returns a single item by identifier, or apperr.ErrNotFound.
func (db *DB) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM items WHERE item_id = ?`, itemColumns)
	row := db.conn.QueryRowContext(ctx, stmt, itemID)
	hit, err := db.scanItem(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get item %d: %w", itemID, err)
	}
	return &hit.Item, nil
}

// UpsertItem inserts or replaces an item row. Only the seed loader and
// tests write items; production content arrives through the external CMS.
func (db *DB) UpsertItem(ctx context.Context, it models.Item) error {
	cats, _ := json.Marshal(orEmpty(it.Categories))
	tags, _ := json.Marshal(orEmpty(it.Tags))
	gallery, _ := json.Marshal(orEmpty(it.GalleryImages))
	features, _ := json.Marshal(orEmpty(it.Features))

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO items (
			item_id, slug, link, title, subtitle, content, status, author,
			latitude, longitude, address, categories, tags,
			phone_number, telephone_number, email, web, show_email, show_web,
			featured_image, gallery_images, features,
			opening_hours, social_icons, custom_fields,
			created_at, updated_at, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			slug             = excluded.slug,
			link             = excluded.link,
			title            = excluded.title,
			subtitle         = excluded.subtitle,
			content          = excluded.content,
			status           = excluded.status,
			author           = excluded.author,
			latitude         = excluded.latitude,
			longitude        = excluded.longitude,
			address          = excluded.address,
			categories       = excluded.categories,
			tags             = excluded.tags,
			phone_number     = excluded.phone_number,
			telephone_number = excluded.telephone_number,
			email            = excluded.email,
			web              = excluded.web,
			show_email       = excluded.show_email,
			show_web         = excluded.show_web,
			featured_image   = excluded.featured_image,
			gallery_images   = excluded.gallery_images,
			features         = excluded.features,
			opening_hours    = excluded.opening_hours,
			social_icons     = excluded.social_icons,
			custom_fields    = excluded.custom_fields,
			created_at       = excluded.created_at,
			updated_at       = excluded.updated_at,
			published_at     = excluded.published_at
	`,
		it.ItemID, it.Slug, it.Link, it.Title, it.Subtitle, it.Content, it.Status, it.Author,
		it.Latitude, it.Longitude, it.Address, string(cats), string(tags),
		it.PhoneNumber, it.TelephoneNumber, it.Email, it.Web, it.ShowEmail, it.ShowWeb,
		it.FeaturedImage, string(gallery), string(features),
		nullableRaw(it.OpeningHours), nullableRaw(it.SocialIcons), nullableRaw(it.CustomFields),
		it.CreatedAt, it.UpdatedAt, it.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("store: upsert item %d: %w", it.ItemID, err)
	}
	return nil
}

// CountItems reports the number of rows in the items table.
func (db *DB) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count items: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanItem(r rowScanner, withDistance bool) (Hit, error) {
	var (
		it                      models.Item
		lat, lng                sql.NullFloat64
		cats, tags              string
		gallery, features       string
		hours, social, custom   sql.NullString
		published               sql.NullTime
		dist                    sql.NullFloat64
	)

	dest := []any{
		&it.ItemID, &it.Slug, &it.Link, &it.Title, &it.Subtitle, &it.Content, &it.Status, &it.Author,
		&lat, &lng, &it.Address, &cats, &tags,
		&it.PhoneNumber, &it.TelephoneNumber, &it.Email, &it.Web, &it.ShowEmail, &it.ShowWeb,
		&it.FeaturedImage, &gallery, &features,
		&hours, &social, &custom,
		&it.CreatedAt, &it.UpdatedAt, &published,
	}
	if withDistance {
		dest = append(dest, &dist)
	}
	if err := r.Scan(dest...); err != nil {
		return Hit{}, err
	}

	if lat.Valid && lng.Valid {
		it.Latitude = &lat.Float64
		it.Longitude = &lng.Float64
	}
	it.Categories = db.decodeList(it.ItemID, "categories", cats)
	it.Tags = db.decodeList(it.ItemID, "tags", tags)
	it.GalleryImages = db.decodeList(it.ItemID, "gallery_images", gallery)
	it.Features = db.decodeList(it.ItemID, "features", features)
	if hours.Valid {
		it.OpeningHours = json.RawMessage(hours.String)
	}
	if social.Valid {
		it.SocialIcons = json.RawMessage(social.String)
	}
	if custom.Valid {
		it.CustomFields = json.RawMessage(custom.String)
	}
	if published.Valid {
		it.PublishedAt = &published.Time
	}

	hit := Hit{Item: it}
	if dist.Valid {
		hit.Distance = &dist.Float64
	}
	return hit, nil
}

// decodeList parses a stored JSON string array. Malformed data is a local,
// recoverable inconsistency: it is logged and treated as empty.
func (db *DB) decodeList(itemID int64, column, raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		db.logger.Warn("malformed stored list",
			slog.Int64("item_id", itemID),
			slog.String("column", column),
			slog.String("error", err.Error()))
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
