// Package models defines the domain types for the Miyakojima POI database.
package models

import (
	"encoding/json"
	"time"
)

// Item statuses as stored in the items table. StatusAll is only meaningful
// as a filter value and never appears on a stored row.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusAll     = "all"
)

// Item represents a venue record. Rows are created and updated by an
// external content-management process; this server only reads them.
//
// Latitude and Longitude are either both set or both nil.
type Item struct {
	ItemID          int64
	Slug            string
	Link            string
	Title           string
	Subtitle        string
	Content         string
	Status          string
	Author          int64
	Latitude        *float64
	Longitude       *float64
	Address         string
	Categories      []string
	Tags            []string
	PhoneNumber     string
	TelephoneNumber string
	Email           string
	Web             string
	ShowEmail       bool
	ShowWeb         bool
	FeaturedImage   string
	GalleryImages   []string
	Features        []string
	OpeningHours    json.RawMessage
	SocialIcons     json.RawMessage
	CustomFields    json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PublishedAt     *time.Time
}

// HasCoordinates reports whether the item carries a geographic position.
func (it *Item) HasCoordinates() bool {
	return it.Latitude != nil && it.Longitude != nil
}

// Category is a row in the categories table.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	ItemCount   int64     `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
