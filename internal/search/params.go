package search

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/islandworks/miyako-poi/internal/models"
	"github.com/islandworks/miyako-poi/internal/store"
)

// Pagination and radius bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
	MinRadiusKm  = 0.1
	MaxRadiusKm  = 50.0
)

// Sort directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

var (
	limitRules  = []validation.Rule{validation.Min(1), validation.Max(MaxLimit)}
	offsetRules = []validation.Rule{validation.Min(0)}
	latRules    = []validation.Rule{validation.Min(-90.0), validation.Max(90.0)}
	lngRules    = []validation.Rule{validation.Min(-180.0), validation.Max(180.0)}
)

// IsValidationError reports whether err came from parameter validation, as
// opposed to a retrieval failure.
func IsValidationError(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}

// CategoryParams are the inputs of the category search.
type CategoryParams struct {
	Category    string   `json:"category,omitempty"`
	SubCategory string   `json:"subCategory,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
	UserLat     *float64 `json:"userLat,omitempty"`
	UserLng     *float64 `json:"userLng,omitempty"`
	SortBy      string   `json:"sortBy,omitempty"`
	Order       string   `json:"order,omitempty"`
	Status      string   `json:"status,omitempty"`
}

func (p *CategoryParams) defaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.SortBy == "" {
		p.SortBy = string(store.SortUpdated)
	}
	if p.Order == "" {
		p.Order = OrderDesc
	}
	if p.Status == "" {
		p.Status = models.StatusPublish
	}
}

// Validate checks the parameters after defaults are applied.
func (p CategoryParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Limit, limitRules...),
		validation.Field(&p.Offset, offsetRules...),
		validation.Field(&p.UserLat, latRules...),
		validation.Field(&p.UserLng, lngRules...),
		validation.Field(&p.SortBy, validation.In(
			string(store.SortCreated), string(store.SortUpdated),
			string(store.SortTitle), string(store.SortDistance))),
		validation.Field(&p.Order, validation.In(OrderAsc, OrderDesc)),
		validation.Field(&p.Status, validation.In(
			models.StatusPublish, models.StatusDraft, models.StatusAll)),
	); err != nil {
		return err
	}
	if err := coordinatePair(p.UserLat, p.UserLng); err != nil {
		return err
	}
	if p.SortBy == string(store.SortDistance) && (p.UserLat == nil || p.UserLng == nil) {
		return validation.Errors{"sortBy": errors.New("distance sort requires userLat and userLng")}
	}
	return nil
}

// LocationParams are the inputs of the radius search. Either explicit
// coordinates or a free-text Location (resolved through the geocoder) must
// be supplied.
type LocationParams struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Location  string   `json:"location,omitempty"`
	RadiusKm  float64  `json:"radiusKm,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	// OnlyOpen keeps only items that carry opening-hours data at all; it
	// does not check the clock. The computed isOpen field on each hit
	// reflects the actual current status.
	OnlyOpen bool `json:"onlyOpen,omitempty"`
	Limit    int  `json:"limit,omitempty"`
	Offset   int  `json:"offset,omitempty"`
}

func (p *LocationParams) defaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.RadiusKm == 0 {
		p.RadiusKm = 1
	}
}

// Validate checks the parameters after defaults are applied.
func (p LocationParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Latitude, latRules...),
		validation.Field(&p.Longitude, lngRules...),
		validation.Field(&p.RadiusKm, validation.Min(MinRadiusKm), validation.Max(MaxRadiusKm)),
		validation.Field(&p.Limit, limitRules...),
		validation.Field(&p.Offset, offsetRules...),
	); err != nil {
		return err
	}
	if err := coordinatePair(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if p.Latitude == nil && p.Location == "" {
		return validation.Errors{"location": errors.New("either latitude/longitude or location is required")}
	}
	return nil
}

// TagsParams are the inputs of the tag search.
type TagsParams struct {
	Tags     []string `json:"tags"`
	MatchAll bool     `json:"matchAll,omitempty"`
	Category string   `json:"category,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
	UserLat  *float64 `json:"userLat,omitempty"`
	UserLng  *float64 `json:"userLng,omitempty"`
}

func (p *TagsParams) defaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
}

// Validate checks the parameters after defaults are applied.
func (p TagsParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Tags, validation.Required,
			validation.Each(validation.Required, validation.Length(1, 0))),
		validation.Field(&p.Limit, limitRules...),
		validation.Field(&p.Offset, offsetRules...),
		validation.Field(&p.UserLat, latRules...),
		validation.Field(&p.UserLng, lngRules...),
	); err != nil {
		return err
	}
	return coordinatePair(p.UserLat, p.UserLng)
}

// TextParams are the inputs of the free-text search.
type TextParams struct {
	Query    string   `json:"query"`
	SearchIn []string `json:"searchIn,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
	UserLat  *float64 `json:"userLat,omitempty"`
	UserLng  *float64 `json:"userLng,omitempty"`
}

func (p *TextParams) defaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if len(p.SearchIn) == 0 {
		p.SearchIn = []string{"title", "subtitle", "content"}
	}
}

// Validate checks the parameters after defaults are applied.
func (p TextParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Query, validation.Required),
		validation.Field(&p.SearchIn,
			validation.Each(validation.In("title", "subtitle", "content", "address"))),
		validation.Field(&p.Limit, limitRules...),
		validation.Field(&p.Offset, offsetRules...),
		validation.Field(&p.UserLat, latRules...),
		validation.Field(&p.UserLng, lngRules...),
	); err != nil {
		return err
	}
	return coordinatePair(p.UserLat, p.UserLng)
}

// GetItemParams are the inputs of the get-by-identifier operation.
type GetItemParams struct {
	ItemID int64 `json:"itemId"`
}

// Validate checks the parameters.
func (p GetItemParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ItemID, validation.Required, validation.Min(1)),
	)
}

// ListCategoriesParams are the inputs of the category listing.
type ListCategoriesParams struct {
	IncludeCount *bool  `json:"includeCount,omitempty"`
	OrderBy      string `json:"orderBy,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

func (p *ListCategoriesParams) defaults() {
	if p.IncludeCount == nil {
		v := true
		p.IncludeCount = &v
	}
	if p.OrderBy == "" {
		p.OrderBy = store.CategoryOrderItemCount
	}
	if p.Limit == 0 {
		p.Limit = 10
	}
}

// Validate checks the parameters after defaults are applied.
func (p ListCategoriesParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OrderBy, validation.In(
			store.CategoryOrderName, store.CategoryOrderItemCount, store.CategoryOrderCreated)),
		validation.Field(&p.Limit, limitRules...),
	)
}

// CheckCategoryParams are the inputs of the category existence check.
type CheckCategoryParams struct {
	Name  string `json:"name"`
	Fuzzy bool   `json:"fuzzy,omitempty"`
}

// Validate checks the parameters.
func (p CheckCategoryParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}

// coordinatePair enforces the both-or-neither invariant on an optional
// caller coordinate.
func coordinatePair(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return validation.Errors{"userLat": errors.New("latitude and longitude must be supplied together")}
	}
	return nil
}
