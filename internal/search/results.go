package search

import (
	"github.com/islandworks/miyako-poi/internal/format"
	"github.com/islandworks/miyako-poi/internal/geo"
	"github.com/islandworks/miyako-poi/internal/geocode"
)

// Result is the shared portion of every search response: the page of
// items, the total ignoring pagination, and the more-available flag.
type Result struct {
	Items   []format.ItemSummary `json:"items"`
	Total   int                  `json:"total"`
	HasMore bool                 `json:"hasMore"`
}

// CategoryResult is the category-search response.
type CategoryResult struct {
	Result
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"subCategory,omitempty"`
}

// LocationResult is the radius-search response. Resolved is set when the
// center came from free-text geocoding rather than explicit coordinates.
type LocationResult struct {
	Result
	SearchRadiusKm  float64         `json:"searchRadius"`
	CenterLocation  geo.Point       `json:"centerLocation"`
	Resolved        *geocode.Result `json:"resolvedLocation,omitempty"`
	NearestLandmark string          `json:"nearestLandmark,omitempty"`
}

// TagsResult is the tag-search response.
type TagsResult struct {
	Result
	SearchTags []string `json:"searchTags"`
	MatchMode  string   `json:"matchMode"`
}

// TextResult is the free-text-search response.
type TextResult struct {
	Result
	SearchQuery  string   `json:"searchQuery"`
	SearchFields []string `json:"searchFields"`
}

// CategoryInfo is one entry of the category listing. ItemCount is omitted
// when the caller asked to skip counts.
type CategoryInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	ItemCount   *int64 `json:"itemCount,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// CategoriesResult is the category-listing response.
type CategoriesResult struct {
	Count      int            `json:"count"`
	Categories []CategoryInfo `json:"categories"`
}

// CategoryCheckResult is the category existence-check response. When the
// category does not exist, Suggestions carries up to five similar names.
type CategoryCheckResult struct {
	Exists      bool          `json:"exists"`
	Category    *CategoryInfo `json:"category,omitempty"`
	Message     string        `json:"message,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}
