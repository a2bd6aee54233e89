package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/gallery"
	"github.com/erazemk/listings/internal/model"
)

// PropertiesHandler serves the published collection.
type PropertiesHandler struct {
	Catalog *catalog.Store
	Gallery *gallery.Resolver
}

type imageResponse struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

type imagesResponse struct {
	ID     int             `json:"id"`
	Folder string          `json:"folder"`
	Images []imageResponse `json:"images"`
}

// List handles GET /api/properties.
func (h *PropertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	props, origin := h.Catalog.Load(r.Context())

	q := r.URL.Query()
	props = catalog.Filter(catalog.Sort(props, q.Get("sort")), q.Get("q"))

	w.Header().Set("X-Listings-Origin", string(origin))
	jsonResponse(w, http.StatusOK, props)
}

// Get handles GET /api/properties/{id}.
func (h *PropertiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Images handles GET /api/properties/{id}/images.
func (h *PropertiesHandler) Images(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	images, err := h.Gallery.Resolve(r.Context(), p.Images)
	if err != nil {
		slog.Warn("resolving gallery", "id", p.ID, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "failed to resolve images")
		return
	}

	resp := imagesResponse{ID: p.ID, Folder: p.Images, Images: make([]imageResponse, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, imageResponse{Index: img.Index, URL: img.URL()})
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (h *PropertiesHandler) lookup(w http.ResponseWriter, r *http.Request) (model.Property, bool) {
	p, err := h.Catalog.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "property not found")
		return model.Property{}, false
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load property")
		return model.Property{}, false
	}
	return p, true
}
