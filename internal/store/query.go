package store

import (
	"fmt"
	"strings"

	"github.com/islandworks/miyako-poi/internal/geo"
	"github.com/islandworks/miyako-poi/internal/models"
)

// SortKey selects the ordering of a search.
type SortKey string

// Sort keys accepted by SearchItems.
const (
	SortCreated   SortKey = "created"
	SortUpdated   SortKey = "updated"
	SortTitle     SortKey = "title"
	SortDistance  SortKey = "distance"
	SortRelevance SortKey = "relevance"
)

// Searchable text fields, in relevance-priority order.
var TextFields = []string{"title", "subtitle", "content", "address"}

// TextMatch describes a case-insensitive substring match over a subset of
// the searchable text columns, OR-combined.
type TextMatch struct {
	Query  string
	Fields []string
}

// ItemQuery is the typed filter/sort/page specification SearchItems
// executes. All values are bound as SQL parameters; nothing caller-provided
// is ever spliced into the statement text.
type ItemQuery struct {
	// Status filters by publication status. Empty or models.StatusAll
	// disables the filter.
	Status string

	// CategoriesAll requires the item's category set to contain every
	// listed category (conjunction).
	CategoriesAll []string
	// Category requires simple membership of one category.
	Category string

	// TagsAll requires the item's tag set to be a superset of the list;
	// TagsAny requires a nonempty intersection.
	TagsAll []string
	TagsAny []string

	// RequireHours keeps only items that carry opening-hours data at all.
	RequireHours bool

	// Center enables per-item distance computation. RadiusMeters > 0
	// additionally filters to items within that geodesic radius of Center
	// (items without coordinates are excluded by the radius filter).
	Center       *geo.Point
	RadiusMeters float64

	// Match enables the text condition and the relevance sort key.
	Match *TextMatch

	Sort SortKey
	Desc bool

	Limit  int
	Offset int
}

// jsonContains is the membership test against a JSON array column.
const jsonContains = `EXISTS (SELECT 1 FROM json_each(items.%s) WHERE json_each.value = ?)`

// distanceExpr computes meters from the query center, NULL for items
// without coordinates.
const distanceExpr = `CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL
	THEN haversine(?, ?, latitude, longitude) END`

// distanceOrderExpr sorts missing coordinates after everything else.
const distanceOrderExpr = `CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL
	THEN haversine(?, ?, latitude, longitude) ELSE 1e18 END`

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePattern(query string) string {
	return "%" + escapeLike(strings.ToLower(query)) + "%"
}

// whereClause renders the filter part of the query. Returns the SQL
// fragment (without the WHERE keyword) and its bind arguments.
func (q *ItemQuery) whereClause() (string, []any) {
	var conds []string
	var args []any

	if q.Status != "" && q.Status != models.StatusAll {
		conds = append(conds, `status = ?`)
		args = append(args, q.Status)
	}

	for _, c := range q.CategoriesAll {
		conds = append(conds, fmt.Sprintf(jsonContains, "categories"))
		args = append(args, c)
	}
	if q.Category != "" {
		conds = append(conds, fmt.Sprintf(jsonContains, "categories"))
		args = append(args, q.Category)
	}

	for _, t := range q.TagsAll {
		conds = append(conds, fmt.Sprintf(jsonContains, "tags"))
		args = append(args, t)
	}
	if len(q.TagsAny) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(q.TagsAny)), ",")
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM json_each(items.tags) WHERE json_each.value IN (%s))`, ph))
		for _, t := range q.TagsAny {
			args = append(args, t)
		}
	}

	if q.RequireHours {
		conds = append(conds, `opening_hours IS NOT NULL`)
	}

	if q.Center != nil && q.RadiusMeters > 0 {
		conds = append(conds,
			`latitude IS NOT NULL AND longitude IS NOT NULL AND haversine(?, ?, latitude, longitude) <= ?`)
		args = append(args, q.Center.Latitude, q.Center.Longitude, q.RadiusMeters)
	}

	if q.Match != nil && q.Match.Query != "" {
		fields := q.Match.Fields
		if len(fields) == 0 {
			fields = TextFields
		}
		pattern := likePattern(q.Match.Query)
		var ors []string
		for _, f := range fields {
			ors = append(ors, fmt.Sprintf(`lower(%s) LIKE ? ESCAPE '\'`, f))
			args = append(args, pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

// orderClause renders the ORDER BY expression and its bind arguments.
func (q *ItemQuery) orderClause() (string, []any) {
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	switch q.Sort {
	case SortCreated:
		return "created_at " + dir, nil
	case SortTitle:
		return "title COLLATE NOCASE " + dir, nil
	case SortDistance:
		if q.Center == nil {
			return "updated_at DESC", nil
		}
		return distanceOrderExpr + " " + dir,
			[]any{q.Center.Latitude, q.Center.Longitude}
	case SortRelevance:
		return q.relevanceOrder()
	case SortUpdated:
		return "updated_at " + dir, nil
	default:
		return "updated_at DESC", nil
	}
}

// relevanceOrder ranks title above subtitle above content above address
// and breaks ties by distance when a center is set, otherwise by recency.
func (q *ItemQuery) relevanceOrder() (string, []any) {
	fields := TextFields
	pattern := "%"
	if q.Match != nil {
		if len(q.Match.Fields) > 0 {
			fields = q.Match.Fields
		}
		pattern = likePattern(q.Match.Query)
	}

	rank := map[string]int{"title": 1, "subtitle": 2, "content": 3, "address": 4}
	var cases []string
	var args []any
	for _, f := range TextFields {
		if !containsString(fields, f) {
			continue
		}
		cases = append(cases, fmt.Sprintf(`WHEN lower(%s) LIKE ? ESCAPE '\' THEN %d`, f, rank[f]))
		args = append(args, pattern)
	}
	expr := "CASE " + strings.Join(cases, " ") + " ELSE 5 END ASC"

	if q.Center != nil {
		expr += ", " + distanceOrderExpr + " ASC"
		args = append(args, q.Center.Latitude, q.Center.Longitude)
	} else {
		expr += ", updated_at DESC"
	}
	return expr, args
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
