package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/gallery"
	"github.com/erazemk/listings/internal/imaging"
	"github.com/erazemk/listings/internal/model"
	"github.com/erazemk/listings/internal/repository"
)

const (
	maxImportSize = 10 << 20
	maxUploadSize = 10 << 20
)

type adminData struct {
	PageData
	Properties []model.Property
	Total      int
	Query      string
	Error      string
	CanPublish bool
}

// AdminPage handles GET /admin.
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	data := &adminData{
		PageData:   PageData{Title: "Admin Panel", Flash: s.takeFlash(w, r), Admin: true},
		Query:      query,
		CanPublish: s.Publisher != nil,
	}

	props, err := s.Repo.GetAll(r.Context())
	if err != nil {
		slog.Error("failed to read properties", "error", err)
		data.Error = "Stored property data could not be read. Import a valid file or clear all data."
	}
	data.Total = len(props)
	data.Properties = catalog.Filter(props, query)

	s.Templates.Render(w, "admin.html", data)
}

type formData struct {
	PageData
	Property model.Property
	New      bool
	Error    string
	Images   []gallery.Image
	Uploads  bool
}

// PropertyNewPage handles GET /admin/properties/new.
func (s *Server) PropertyNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "property_form.html", &formData{
		PageData: PageData{Title: "Add Property", Admin: true},
		New:      true,
	})
}

// PropertyCreateSubmit handles POST /admin/properties.
func (s *Server) PropertyCreateSubmit(w http.ResponseWriter, r *http.Request) {
	patch, err := parsePatch(r)
	if err == nil {
		p := patch.Apply(model.Property{})
		if err = p.Validate(); err == nil {
			p, err = s.Repo.Add(r.Context(), p)
			if err == nil {
				slog.Info("property added", "id", p.ID, "location", p.Location)
				s.success(w, "Property added successfully!")
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}
		}
	}

	status := http.StatusBadRequest
	if !errors.Is(err, model.ErrInvalid) {
		slog.Error("failed to add property", "error", err)
		status = http.StatusInternalServerError
	}
	s.Templates.RenderStatus(w, status, "property_form.html", &formData{
		PageData: PageData{Title: "Add Property", Admin: true},
		Property: formValues(r),
		New:      true,
		Error:    errorMessage(err),
	})
}

// PropertyEditPage handles GET /admin/properties/{id}/edit.
func (s *Server) PropertyEditPage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.renderEdit(w, r, http.StatusOK, p, s.takeFlash(w, r), "")
}

func (s *Server) renderEdit(w http.ResponseWriter, r *http.Request, status int, p model.Property, flash *Flash, errMsg string) {
	images, err := s.Gallery.Resolve(r.Context(), p.Images)
	if err != nil {
		slog.Warn("failed to resolve gallery", "id", p.ID, "error", err)
	}
	s.Templates.RenderStatus(w, status, "property_form.html", &formData{
		PageData: PageData{Title: "Edit " + p.Location, Flash: flash, Admin: true},
		Property: p,
		Error:    errMsg,
		Images:   images,
		Uploads:  s.LocalAssets,
	})
}

// PropertyUpdateSubmit handles POST /admin/properties/{id}. Only the fields
// present in the form are changed.
func (s *Server) PropertyUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	current, ok := s.lookup(w, r)
	if !ok {
		return
	}

	patch, err := parsePatch(r)
	if err == nil {
		merged := patch.Apply(current)
		err = merged.Validate()
	}
	if err != nil {
		s.renderEdit(w, r, http.StatusBadRequest, patch.Apply(current), nil, errorMessage(err))
		return
	}

	p, err := s.Repo.Update(r.Context(), current.ID, patch)
	if errors.Is(err, model.ErrNotFound) {
		s.failure(w, "Property not found")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Error("failed to update property", "id", current.ID, "error", err)
		s.failure(w, "Failed to save changes")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	slog.Info("property updated", "id", p.ID)
	s.success(w, "Property updated successfully!")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// PropertyDeleteSubmit handles POST /admin/properties/{id}/delete.
func (s *Server) PropertyDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err != nil {
		s.failure(w, "Property not found")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	removed, err := s.Repo.Delete(r.Context(), id)
	switch {
	case err != nil:
		slog.Error("failed to delete property", "id", id, "error", err)
		s.failure(w, "Failed to delete property")
	case !removed:
		s.failure(w, "Property not found")
	default:
		slog.Info("property deleted", "id", id)
		s.success(w, "Property deleted successfully!")
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// PropertyImageSubmit handles POST /admin/properties/{id}/images. The upload
// is re-encoded and stored in the next free gallery slot of the property's
// image folder.
func (s *Server) PropertyImageSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	back := fmt.Sprintf("/admin/properties/%d/edit", p.ID)

	if !s.LocalAssets {
		s.failure(w, "Image uploads are disabled when images are served from another host")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if !gallery.ValidFolder(p.Images) {
		s.failure(w, "Set an image folder for this property first")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.failure(w, "Image is too large")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		s.failure(w, "Choose an image to upload")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		slog.Warn("rejected image upload", "id", p.ID, "error", err)
		s.failure(w, "Unsupported image. Upload a JPEG, PNG or WebP file.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	slot, err := s.Gallery.NextSlot(r.Context(), p.Images)
	if errors.Is(err, gallery.ErrFull) {
		s.failure(w, fmt.Sprintf("This gallery already has %d images", gallery.MaxSlots))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Error("failed to find a free gallery slot", "id", p.ID, "error", err)
		s.failure(w, "Failed to save image")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	path, err := gallery.Save(s.PublicDir, p.Images, slot, result.Data)
	s.Gallery.Invalidate(p.Images)
	if err != nil {
		slog.Error("failed to save image", "id", p.ID, "error", err)
		s.failure(w, "Failed to save image")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	slog.Info("property image uploaded", "id", p.ID, "path", path, "width", result.Width, "height", result.Height)
	s.success(w, fmt.Sprintf("Image saved as pic%d.jpg", slot))
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Export handles GET /admin/export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	data, err := s.Repo.Export(r.Context())
	if err != nil {
		slog.Error("failed to export properties", "error", err)
		s.failure(w, "Stored property data could not be read")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+repository.ExportFilename+`"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

// ImportSubmit handles POST /admin/import.
func (s *Server) ImportSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		s.failure(w, "Error reading file")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.failure(w, "Choose a file to import")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.failure(w, "Error reading file")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	n, err := s.Repo.Import(r.Context(), data)
	switch {
	case errors.Is(err, model.ErrMalformed):
		s.failure(w, "Error reading file")
	case errors.Is(err, model.ErrInvalid):
		s.failure(w, "Invalid file format")
		slog.Warn("rejected import", "error", err)
	case err != nil:
		slog.Error("failed to import properties", "error", err)
		s.failure(w, "Failed to import data")
	default:
		slog.Info("properties imported", "count", n)
		s.success(w, "Data imported successfully!")
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// ClearSubmit handles POST /admin/clear. The working copy is then rebuilt
// from the published collection, the same way a fresh login does.
func (s *Server) ClearSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Repo.Clear(r.Context()); err != nil {
		slog.Error("failed to clear properties", "error", err)
		s.failure(w, "Failed to clear data")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	_, origin := s.Catalog.Load(r.Context())
	slog.Info("property data cleared", "reloaded_from", string(origin))

	s.success(w, "All data has been cleared")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// PublishSubmit handles POST /admin/publish: the working copy replaces the
// published collection file.
func (s *Server) PublishSubmit(w http.ResponseWriter, r *http.Request) {
	if s.Publisher == nil {
		s.failure(w, "Publishing needs a local collection file. Export the data and redeploy instead.")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	data, err := s.Repo.Export(r.Context())
	if err == nil {
		err = s.Publisher.Publish(data)
	}
	if err != nil {
		slog.Error("failed to publish properties", "error", err)
		s.failure(w, "Failed to publish data")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	if err := s.Repo.MarkPublished(r.Context()); err != nil {
		slog.Error("failed to reset unpublished flag", "error", err)
	}
	slog.Info("properties published")
	s.success(w, "Published! The public site now shows these properties.")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// lookup resolves the {id} path value against the working copy. On failure
// it redirects to the listing with a message.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.Property, bool) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err == nil {
		var p model.Property
		p, err = s.Repo.Get(r.Context(), id)
		if err == nil {
			return p, true
		}
	}

	if errors.Is(err, model.ErrNotFound) {
		s.failure(w, "Property not found")
	} else {
		slog.Error("failed to read property", "error", err)
		s.failure(w, "Stored property data could not be read")
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
	return model.Property{}, false
}

var (
	textFields = []string{"location", "address", "contract", "availability", "description", "images"}
	intFields  = []string{"beds", "baths", "rent", "deposit"}
)

// parsePatch builds a patch from the submitted form fields. Number fields
// must be whole numbers.
func parsePatch(r *http.Request) (model.Patch, error) {
	if err := r.ParseForm(); err != nil {
		return model.Patch{}, fmt.Errorf("%w: %v", model.ErrInvalid, err)
	}

	var patch model.Patch
	strs := map[string]**string{
		"location": &patch.Location, "address": &patch.Address, "contract": &patch.Contract,
		"availability": &patch.Availability, "description": &patch.Description, "images": &patch.Images,
	}
	for _, name := range textFields {
		if _, ok := r.PostForm[name]; ok {
			v := strings.TrimSpace(r.PostForm.Get(name))
			*strs[name] = &v
		}
	}

	ints := map[string]**int{"beds": &patch.Beds, "baths": &patch.Baths, "rent": &patch.Rent, "deposit": &patch.Deposit}
	for _, name := range intFields {
		if _, ok := r.PostForm[name]; !ok {
			continue
		}
		raw := strings.TrimSpace(r.PostForm.Get(name))
		if raw == "" {
			raw = "0"
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return patch, fmt.Errorf("%w: %s must be a whole number", model.ErrInvalid, name)
		}
		*ints[name] = &n
	}
	return patch, nil
}

// formValues echoes the submitted text back into the form after an error.
func formValues(r *http.Request) model.Property {
	atoi := func(name string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue(name)))
		return n
	}
	return model.Property{
		Location:     r.PostFormValue("location"),
		Address:      r.PostFormValue("address"),
		Beds:         atoi("beds"),
		Baths:        atoi("baths"),
		Rent:         atoi("rent"),
		Deposit:      atoi("deposit"),
		Contract:     r.PostFormValue("contract"),
		Availability: r.PostFormValue("availability"),
		Description:  r.PostFormValue("description"),
		Images:       r.PostFormValue("images"),
	}
}

func errorMessage(err error) string {
	if errors.Is(err, model.ErrInvalid) {
		_, detail, ok := strings.Cut(err.Error(), ": ")
		if ok && detail != "" {
			return strings.ToUpper(detail[:1]) + detail[1:]
		}
	}
	return "Failed to save property"
}
