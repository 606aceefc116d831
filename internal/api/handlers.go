package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/islandworks/miyako-poi/internal/apperr"
	"github.com/islandworks/miyako-poi/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *search.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *search.Service) *Handler {
	return &Handler{svc: svc}
}

// SearchByCategory handles GET /api/search/category.
//
//	@Summary		Search items by category
//	@Tags			search
//	@Produce		json
//	@Param			category	query		string	false	"Main category"
//	@Param			subCategory	query		string	false	"Category the item must also carry"
//	@Param			limit		query		int		false	"Page size (1-100)"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			userLat		query		number	false	"Caller latitude"
//	@Param			userLng		query		number	false	"Caller longitude"
//	@Param			sortBy		query		string	false	"Sort field"	Enums(created, updated, title, distance)
//	@Param			order		query		string	false	"Sort direction"	Enums(asc, desc)
//	@Success		200			{object}	search.CategoryResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/category [get]
func (h *Handler) SearchByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.CategoryParams{
		Category:    q.Get("category"),
		SubCategory: q.Get("subCategory"),
		SortBy:      q.Get("sortBy"),
		Order:       q.Get("order"),
		Status:      q.Get("status"),
	}
	var err error
	if p.Limit, p.Offset, err = pageParams(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if p.UserLat, p.UserLng, err = coordParams(q, "userLat", "userLng"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.SearchByCategory(r.Context(), p)
	if err != nil {
		writeError(w, "search by category", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchByLocation handles GET /api/search/location.
//
//	@Summary		Search items within a radius of a point
//	@Tags			search
//	@Produce		json
//	@Param			latitude	query		number	false	"Center latitude"
//	@Param			longitude	query		number	false	"Center longitude"
//	@Param			location	query		string	false	"Free-text location, used when coordinates are absent"
//	@Param			radiusKm	query		number	false	"Radius in km (0.1-50, default 1)"
//	@Param			category	query		string	false	"Restrict to one category"
//	@Param			tags		query		string	false	"Comma-separated tags, any may match"
//	@Param			onlyOpen	query		bool	false	"Keep only items with opening hours"
//	@Success		200			{object}	search.LocationResult
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/location [get]
func (h *Handler) SearchByLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.LocationParams{
		Location: q.Get("location"),
		Category: q.Get("category"),
		Tags:     csvParam(q.Get("tags")),
		OnlyOpen: q.Get("onlyOpen") == "true",
	}
	var err error
	if p.Limit, p.Offset, err = pageParams(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if p.Latitude, p.Longitude, err = coordParams(q, "latitude", "longitude"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if v := q.Get("radiusKm"); v != "" {
		if p.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("radiusKm must be a number"))
			return
		}
	}

	res, err := h.svc.SearchByLocation(r.Context(), p)
	if err != nil {
		writeError(w, "search by location", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchByTags handles GET /api/search/tags.
//
//	@Summary		Search items by tags
//	@Tags			search
//	@Produce		json
//	@Param			tags		query		string	true	"Comma-separated tags"
//	@Param			matchAll	query		bool	false	"Require every tag instead of any"
//	@Param			category	query		string	false	"Restrict to one category"
//	@Success		200			{object}	search.TagsResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/tags [get]
func (h *Handler) SearchByTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.TagsParams{
		Tags:     csvParam(q.Get("tags")),
		MatchAll: q.Get("matchAll") == "true",
		Category: q.Get("category"),
	}
	var err error
	if p.Limit, p.Offset, err = pageParams(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if p.UserLat, p.UserLng, err = coordParams(q, "userLat", "userLng"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.SearchByTags(r.Context(), p)
	if err != nil {
		writeError(w, "search by tags", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchByText handles GET /api/search/text.
//
//	@Summary		Free-text search over item fields
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search text"
//	@Param			searchIn	query		string	false	"Comma-separated fields"	Enums(title, subtitle, content, address)
//	@Param			category	query		string	false	"Restrict to one category"
//	@Param			tags		query		string	false	"Comma-separated tags, any may match"
//	@Success		200			{object}	search.TextResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search/text [get]
func (h *Handler) SearchByText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.TextParams{
		Query:    q.Get("q"),
		SearchIn: csvParam(q.Get("searchIn")),
		Category: q.Get("category"),
		Tags:     csvParam(q.Get("tags")),
	}
	var err error
	if p.Limit, p.Offset, err = pageParams(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if p.UserLat, p.UserLng, err = coordParams(q, "userLat", "userLng"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.SearchByText(r.Context(), p)
	if err != nil {
		writeError(w, "search by text", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get one item by its numeric identifier
//	@Tags			items
//	@Produce		json
//	@Param			id	path		int	true	"Item identifier"
//	@Success		200	{object}	format.ItemDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be an integer"))
		return
	}
	res, err := h.svc.GetItem(r.Context(), search.GetItemParams{ItemID: id})
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListCategories handles GET /api/categories.
//
//	@Summary		List known categories
//	@Tags			categories
//	@Produce		json
//	@Param			includeCount	query		bool	false	"Include item counts (default true)"
//	@Param			orderBy			query		string	false	"Sort field"	Enums(name, item_count, created_at)
//	@Param			limit			query		int		false	"Maximum categories (default 10)"
//	@Success		200				{object}	search.CategoriesResult
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := search.ListCategoriesParams{OrderBy: q.Get("orderBy")}
	if v := q.Get("includeCount"); v != "" {
		b := v == "true"
		p.IncludeCount = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		p.Limit = n
	}

	res, err := h.svc.ListCategories(r.Context(), p)
	if err != nil {
		writeError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckCategory handles GET /api/categories/check.
//
//	@Summary		Check whether a category exists
//	@Tags			categories
//	@Produce		json
//	@Param			name	query		string	true	"Category name"
//	@Param			fuzzy	query		bool	false	"Accept partial matches"
//	@Success		200		{object}	search.CategoryCheckResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/categories/check [get]
func (h *Handler) CheckCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.CheckCategory(r.Context(), search.CheckCategoryParams{
		Name:  q.Get("name"),
		Fuzzy: q.Get("fuzzy") == "true",
	})
	if err != nil {
		writeError(w, "check category", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps service failures to HTTP statuses: validation errors
// become 400, missing targets 404, everything else 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case search.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// pageParams parses the shared limit/offset query parameters.
func pageParams(q url.Values) (limit, offset int, err error) {
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("offset must be an integer")
		}
	}
	return limit, offset, nil
}

// coordParams parses an optional coordinate pair from the query string.
func coordParams(q url.Values, latKey, lngKey string) (*float64, *float64, error) {
	var lat, lng *float64
	if v := q.Get(latKey); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, errors.New(latKey + " must be a number")
		}
		lat = &f
	}
	if v := q.Get(lngKey); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, errors.New(lngKey + " must be a number")
		}
		lng = &f
	}
	return lat, lng, nil
}

// csvParam splits a comma-separated query value, dropping empty entries.
func csvParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
