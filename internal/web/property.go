package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/listings/internal/gallery"
	"github.com/erazemk/listings/internal/model"
)

// display fills the blank fields a detail page shows with their fallbacks.
func display(p model.Property) model.Property {
	if p.Address == "" {
		p.Address = p.Location
	}
	if p.Contract == "" {
		p.Contract = model.DefaultContract
	}
	if p.Availability == "" {
		p.Availability = model.DefaultAvailability
	}
	if p.Description == "" {
		p.Description = model.DefaultDescription
	}
	return p
}

// PropertyPage handles GET /property?id=N.
func (s *Server) PropertyPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.Catalog.GetByID(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			slog.Error("failed to look up property", "error", err)
		}
		s.Templates.RenderStatus(w, http.StatusNotFound, "property.html", &struct {
			PageData
			NotFound bool
		}{
			PageData: PageData{Title: "Property not found | Getting Started in Property"},
			NotFound: true,
		})
		return
	}

	images, err := s.Gallery.Resolve(r.Context(), p.Images)
	if err != nil {
		slog.Warn("failed to resolve gallery", "id", p.ID, "error", err)
		images = nil
	}

	s.Templates.Render(w, "property.html", &struct {
		PageData
		NotFound bool
		Property model.Property
		Images   []gallery.Image
	}{
		PageData: PageData{Title: p.Location + " | Getting Started in Property"},
		Property: display(p),
		Images:   images,
	})
}
