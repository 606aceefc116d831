// Package seed loads the bundled sample venues into an empty store, for
// local development and tests.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/islandworks/miyako-poi/internal/models"
	"github.com/islandworks/miyako-poi/internal/store"
)

//go:embed data.json
var sampleData []byte

type itemRecord struct {
	ItemID       int64           `json:"itemId"`
	Slug         string          `json:"slug"`
	Link         string          `json:"link"`
	Title        string          `json:"title"`
	Subtitle     string          `json:"subtitle"`
	Content      string          `json:"content"`
	Status       string          `json:"status"`
	Author       int64           `json:"author"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	Address      string          `json:"address"`
	Categories   []string        `json:"categories"`
	Tags         []string        `json:"tags"`
	PhoneNumber  string          `json:"phoneNumber"`
	Email        string          `json:"email"`
	Web          string          `json:"web"`
	OpeningHours json.RawMessage `json:"openingHours"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	PublishedAt  *time.Time      `json:"publishedAt"`
}

type categoryRecord struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ItemCount   int64  `json:"itemCount"`
}

type fixture struct {
	Items      []itemRecord     `json:"items"`
	Categories []categoryRecord `json:"categories"`
}

// Load inserts the bundled sample data and returns the number of items
// written.
func Load(ctx context.Context, db *store.DB) (int, error) {
	var f fixture
	if err := json.Unmarshal(sampleData, &f); err != nil {
		return 0, fmt.Errorf("seed: parse bundled data: %w", err)
	}

	for _, rec := range f.Items {
		it := models.Item{
			ItemID:       rec.ItemID,
			Slug:         rec.Slug,
			Link:         rec.Link,
			Title:        rec.Title,
			Subtitle:     rec.Subtitle,
			Content:      rec.Content,
			Status:       rec.Status,
			Author:       rec.Author,
			Latitude:     rec.Latitude,
			Longitude:    rec.Longitude,
			Address:      rec.Address,
			Categories:   rec.Categories,
			Tags:         rec.Tags,
			PhoneNumber:  rec.PhoneNumber,
			Email:        rec.Email,
			Web:          rec.Web,
			ShowEmail:    true,
			ShowWeb:      true,
			OpeningHours: rec.OpeningHours,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
			PublishedAt:  rec.PublishedAt,
		}
		if err := db.UpsertItem(ctx, it); err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}
	}

	now := time.Now().UTC()
	for _, rec := range f.Categories {
		c := models.Category{
			Name:        rec.Name,
			Slug:        rec.Slug,
			Description: rec.Description,
			ItemCount:   rec.ItemCount,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := db.UpsertCategory(ctx, c); err != nil {
			return 0, fmt.Errorf("seed: %w", err)
		}
	}

	return len(f.Items), nil
}

// LoadIfEmpty seeds only when the items table has no rows.
func LoadIfEmpty(ctx context.Context, db *store.DB, logger *slog.Logger) error {
	n, err := db.CountItems(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	loaded, err := Load(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("seeded sample data", slog.Int("items", loaded))
	return nil
}
