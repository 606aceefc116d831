// Package search implements the query builders: it translates validated
// search requests into typed store queries and folds distance, tag-match,
// and snippet annotations into the formatted results.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/format"
	"github.com/islandworks/miyako-poi/internal/gazetteer"
	"github.com/islandworks/miyako-poi/internal/geo"
	"github.com/islandworks/miyako-poi/internal/geocode"
	"github.com/islandworks/miyako-poi/internal/models"
	"github.com/islandworks/miyako-poi/internal/store"
)

// Service coordinates the store, the geocoder, and the result formatter.
// It is stateless across requests and safe for concurrent use.
type Service struct {
	db       *store.DB
	geocoder *geocode.Geocoder
	fmtr     *format.Formatter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the current-time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a search service.
func New(db *store.DB, geocoder *geocode.Geocoder, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		db:       db,
		geocoder: geocoder,
		fmtr:     format.New(logger),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchByCategory filters by category conjunction and sorts by the
// requested key. Distance sorting is produced by the store in a single
// distance-ordered pass.
func (s *Service) SearchByCategory(ctx context.Context, p CategoryParams) (*CategoryResult, error) {
	p.defaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := store.ItemQuery{
		Status: p.Status,
		Sort:   store.SortKey(p.SortBy),
		Desc:   p.Order == OrderDesc,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if p.Category != "" {
		q.CategoriesAll = append(q.CategoriesAll, p.Category)
	}
	if p.SubCategory != "" {
		q.CategoriesAll = append(q.CategoriesAll, p.SubCategory)
	}
	if p.UserLat != nil && p.UserLng != nil {
		q.Center = &geo.Point{Latitude: *p.UserLat, Longitude: *p.UserLng}
	}

	hits, total, err := s.db.SearchItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search by category: %w", err)
	}

	return &CategoryResult{
		Result:      s.page(hits, total, p.Offset, nil),
		Category:    p.Category,
		SubCategory: p.SubCategory,
	}, nil
}

// SearchByLocation returns published items within a geodesic radius of a
// center, nearest first. The center is either explicit coordinates or a
// free-text location resolved through the geocoder.
func (s *Service) SearchByLocation(ctx context.Context, p LocationParams) (*LocationResult, error) {
	p.defaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	center := geo.Point{}
	var resolved *geocode.Result
	if p.Latitude != nil && p.Longitude != nil {
		center = geo.Point{Latitude: *p.Latitude, Longitude: *p.Longitude}
	} else {
		res, err := s.geocoder.Geocode(ctx, p.Location)
		if err != nil {
			return nil, fmt.Errorf("resolve location %q: %w", p.Location, err)
		}
		resolved = res
		center = geo.Point{Latitude: res.Latitude, Longitude: res.Longitude}
	}

	q := store.ItemQuery{
		Status:       models.StatusPublish,
		Category:     p.Category,
		TagsAny:      p.Tags,
		RequireHours: p.OnlyOpen,
		Center:       &center,
		RadiusMeters: p.RadiusKm * 1000,
		Sort:         store.SortDistance,
		Limit:        p.Limit,
		Offset:       p.Offset,
	}

	hits, total, err := s.db.SearchItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search by location: %w", err)
	}

	return &LocationResult{
		Result:          s.page(hits, total, p.Offset, nil),
		SearchRadiusKm:  p.RadiusKm,
		CenterLocation:  center,
		Resolved:        resolved,
		NearestLandmark: gazetteer.Nearest(center.Latitude, center.Longitude).Name,
	}, nil
}

// SearchByTags returns published items matching the tag set, as a
// superset (matchAll) or a nonempty intersection. Each hit echoes which
// queried tags it actually matched.
func (s *Service) SearchByTags(ctx context.Context, p TagsParams) (*TagsResult, error) {
	p.defaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := store.ItemQuery{
		Status:   models.StatusPublish,
		Category: p.Category,
		Sort:     store.SortUpdated,
		Desc:     true,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if p.MatchAll {
		q.TagsAll = p.Tags
	} else {
		q.TagsAny = p.Tags
	}
	if p.UserLat != nil && p.UserLng != nil {
		q.Center = &geo.Point{Latitude: *p.UserLat, Longitude: *p.UserLng}
		q.Sort = store.SortDistance
		q.Desc = false
	}

	hits, total, err := s.db.SearchItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search by tags: %w", err)
	}

	mode := "any"
	if p.MatchAll {
		mode = "all"
	}
	return &TagsResult{
		Result: s.page(hits, total, p.Offset, func(hit store.Hit, sum *format.ItemSummary) {
			sum.MatchedTags = intersect(p.Tags, hit.Item.Tags)
		}),
		SearchTags: p.Tags,
		MatchMode:  mode,
	}, nil
}

// SearchByText performs a case-insensitive substring search over the
// selected fields, ranked by field relevance with a distance or recency
// tie-break, and attaches a context snippet to every hit.
func (s *Service) SearchByText(ctx context.Context, p TextParams) (*TextResult, error) {
	p.defaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	q := store.ItemQuery{
		Status:   models.StatusPublish,
		Category: p.Category,
		TagsAny:  p.Tags,
		Match:    &store.TextMatch{Query: p.Query, Fields: p.SearchIn},
		Sort:     store.SortRelevance,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if p.UserLat != nil && p.UserLng != nil {
		q.Center = &geo.Point{Latitude: *p.UserLat, Longitude: *p.UserLng}
	}

	hits, total, err := s.db.SearchItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search by text: %w", err)
	}

	return &TextResult{
		Result: s.page(hits, total, p.Offset, func(hit store.Hit, sum *format.ItemSummary) {
			sum.Snippet = format.Snippet(hit.Item, p.Query, p.SearchIn)
		}),
		SearchQuery:  p.Query,
		SearchFields: p.SearchIn,
	}, nil
}

// GetItem returns the full detail shape for one item.
func (s *Service) GetItem(ctx context.Context, p GetItemParams) (*format.ItemDetail, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	it, err := s.db.GetItem(ctx, p.ItemID)
	if err != nil {
		return nil, err
	}
	d := s.fmtr.Detail(*it, s.now())
	return &d, nil
}

// ListCategories lists known categories.
func (s *Service) ListCategories(ctx context.Context, p ListCategoriesParams) (*CategoriesResult, error) {
	p.defaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cats, err := s.db.ListCategories(ctx, p.OrderBy, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]CategoryInfo, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryInfo(c, *p.IncludeCount))
	}
	return &CategoriesResult{Count: len(out), Categories: out}, nil
}

// CheckCategory verifies a category name exists, optionally with fuzzy
// matching, and suggests similar names when it does not.
func (s *Service) CheckCategory(ctx context.Context, p CheckCategoryParams) (*CategoryCheckResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c, err := s.db.FindCategory(ctx, p.Name, p.Fuzzy)
	if err == nil {
		info := categoryInfo(*c, true)
		return &CategoryCheckResult{Exists: true, Category: &info}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("check category: %w", err)
	}

	suggestions, serr := s.db.SuggestCategories(ctx, p.Name, 5)
	if serr != nil {
		return nil, fmt.Errorf("check category: %w", serr)
	}
	return &CategoryCheckResult{
		Exists:      false,
		Message:     fmt.Sprintf("Category %q not found", p.Name),
		Suggestions: suggestions,
	}, nil
}

// page maps store hits into the shared result shape, applying the
// per-search annotation hook to each summary.
func (s *Service) page(hits []store.Hit, total, offset int, annotate func(store.Hit, *format.ItemSummary)) Result {
	now := s.now()
	items := make([]format.ItemSummary, 0, len(hits))
	for _, hit := range hits {
		sum := s.fmtr.Summary(hit.Item, now)
		sum.DistanceMeters = format.RoundDistance(hit.Distance)
		if annotate != nil {
			annotate(hit, &sum)
		}
		items = append(items, sum)
	}
	return Result{
		Items:   items,
		Total:   total,
		HasMore: offset+len(items) < total,
	}
}

func categoryInfo(c models.Category, includeCount bool) CategoryInfo {
	info := CategoryInfo{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
	if includeCount {
		count := c.ItemCount
		info.ItemCount = &count
	}
	return info
}

// intersect returns the queried tags the item actually carries, in query
// order.
func intersect(query, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	out := []string{}
	for _, t := range query {
		if _, ok := set[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
