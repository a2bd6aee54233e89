package api

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/gallery"
)

// NewRouter creates the read-only API router. When origins is non-empty,
// browsers on those origins may read the API cross-site.
func NewRouter(c *catalog.Store, g *gallery.Resolver, origins []string) http.Handler {
	mux := http.NewServeMux()

	h := &PropertiesHandler{Catalog: c, Gallery: g}

	mux.HandleFunc("GET /api/properties", h.List)
	mux.HandleFunc("GET /api/properties/{id}", h.Get)
	mux.HandleFunc("GET /api/properties/{id}/images", h.Images)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	if len(origins) == 0 {
		return mux
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{"X-Listings-Origin"},
		MaxAge:         300,
	})(mux)
}
