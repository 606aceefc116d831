// Package format normalizes raw store records into the stable response
// shape shared by every search operation: nested location, contact,
// business-info, and timestamps groups, with the open-now status computed
// per request.
package format

import (
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/islandworks/miyako-poi/internal/models"
)

// Location groups the geographic fields.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

// Contact groups the contact fields. Email and Web honor the per-field
// visibility flags: a hidden value is null, never the stored value.
type Contact struct {
	PhoneNumber     string  `json:"phoneNumber,omitempty"`
	TelephoneNumber string  `json:"telephoneNumber,omitempty"`
	Email           *string `json:"email"`
	Web             *string `json:"web"`
}

// BusinessInfo groups opening hours with the computed open status.
type BusinessInfo struct {
	OpeningHours models.OpeningHours `json:"openingHours,omitempty"`
	IsOpen       *bool               `json:"isOpen"`
	Features     []string            `json:"features,omitempty"`
}

// Media groups image fields.
type Media struct {
	FeaturedImage string   `json:"featuredImage,omitempty"`
	GalleryImages []string `json:"galleryImages,omitempty"`
}

// Timestamps groups the lifecycle dates.
type Timestamps struct {
	Created   time.Time  `json:"created"`
	Updated   time.Time  `json:"updated"`
	Published *time.Time `json:"published,omitempty"`
}

// ItemSummary is the per-hit response shape of the search operations.
// Distance, MatchedTags, and Snippet are per-search annotations filled in
// by the caller.
type ItemSummary struct {
	ItemID       int64        `json:"itemId"`
	Slug         string       `json:"slug,omitempty"`
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle,omitempty"`
	Status       string       `json:"status"`
	Location     Location     `json:"location"`
	Categories   []string     `json:"categories"`
	Tags         []string     `json:"tags"`
	Contact      Contact      `json:"contact"`
	BusinessInfo BusinessInfo `json:"businessInfo"`
	Timestamps   Timestamps   `json:"timestamps"`

	DistanceMeters *int64   `json:"distance,omitempty"`
	MatchedTags    []string `json:"matchedTags,omitempty"`
	Snippet        string   `json:"snippet,omitempty"`
}

// ItemDetail is the full shape returned by the get-by-identifier
// operation.
type ItemDetail struct {
	ItemSummary
	Link         string          `json:"link,omitempty"`
	Content      string          `json:"content,omitempty"`
	Author       int64           `json:"author,omitempty"`
	Media        Media           `json:"media"`
	SocialMedia  json.RawMessage `json:"socialMedia,omitempty"`
	CustomFields json.RawMessage `json:"customFields,omitempty"`
}

// Formatter builds response shapes from store records.
type Formatter struct {
	logger *slog.Logger
}

// New creates a Formatter.
func New(logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{logger: logger}
}

// Summary projects an item into the search-hit shape, evaluating the open
// status at the given instant. The evaluation is never cached across
// requests.
func (f *Formatter) Summary(it models.Item, now time.Time) ItemSummary {
	hours := f.parseHours(it)

	return ItemSummary{
		ItemID:     it.ItemID,
		Slug:       it.Slug,
		Title:      it.Title,
		Subtitle:   it.Subtitle,
		Status:     it.Status,
		Location:   Location{Latitude: it.Latitude, Longitude: it.Longitude, Address: it.Address},
		Categories: it.Categories,
		Tags:       it.Tags,
		Contact: Contact{
			PhoneNumber:     it.PhoneNumber,
			TelephoneNumber: it.TelephoneNumber,
			Email:           visible(it.Email, it.ShowEmail),
			Web:             visible(it.Web, it.ShowWeb),
		},
		BusinessInfo: BusinessInfo{
			OpeningHours: hours,
			IsOpen:       OpenNow(hours, now),
			Features:     it.Features,
		},
		Timestamps: Timestamps{
			Created:   it.CreatedAt,
			Updated:   it.UpdatedAt,
			Published: it.PublishedAt,
		},
	}
}

// Detail projects an item into the full shape.
func (f *Formatter) Detail(it models.Item, now time.Time) ItemDetail {
	return ItemDetail{
		ItemSummary: f.Summary(it, now),
		Link:        it.Link,
		Content:     it.Content,
		Author:      it.Author,
		Media: Media{
			FeaturedImage: it.FeaturedImage,
			GalleryImages: it.GalleryImages,
		},
		SocialMedia:  f.validBlob(it, "social_icons", it.SocialIcons),
		CustomFields: f.validBlob(it, "custom_fields", it.CustomFields),
	}
}

// RoundDistance converts raw meters to the response representation,
// rounded to the nearest meter.
func RoundDistance(meters *float64) *int64 {
	if meters == nil {
		return nil
	}
	v := int64(math.Round(*meters))
	return &v
}

// parseHours decodes the stored opening-hours blob, absorbing parse
// failures: they are logged and the field is treated as absent.
func (f *Formatter) parseHours(it models.Item) models.OpeningHours {
	hours, err := models.ParseOpeningHours(it.OpeningHours)
	if err != nil {
		f.logger.Warn("malformed opening hours",
			slog.Int64("item_id", it.ItemID),
			slog.String("error", err.Error()))
		return nil
	}
	return hours
}

// validBlob passes a semi-structured JSON column through when it parses,
// and nulls it out (with a log line) when it does not.
func (f *Formatter) validBlob(it models.Item, column string, raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		f.logger.Warn("malformed stored blob",
			slog.Int64("item_id", it.ItemID),
			slog.String("column", column))
		return nil
	}
	return raw
}

func visible(value string, show bool) *string {
	if !show || value == "" {
		return nil
	}
	return &value
}
