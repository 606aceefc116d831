package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/islandworks/miyako-poi/internal/search"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *search.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Search.
	r.Get("/search/category", h.SearchByCategory)
	r.Get("/search/location", h.SearchByLocation)
	r.Get("/search/tags", h.SearchByTags)
	r.Get("/search/text", h.SearchByText)

	// Items.
	r.Get("/items/{id}", h.GetItem)

	// Categories.
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/check", h.CheckCategory)

	return r
}
