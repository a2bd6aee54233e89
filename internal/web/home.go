package web

import (
	"net/http"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/model"
)

type sortOption struct {
	Value  string
	Label  string
	Active bool
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("sort")
	props, _ := s.Catalog.Load(r.Context())
	props = catalog.Sort(props, order)

	options := []sortOption{
		{Value: catalog.SortDefault, Label: "Latest"},
		{Value: catalog.SortLowToHigh, Label: "Price: Low to High"},
		{Value: catalog.SortHighToLow, Label: "Price: High to Low"},
	}
	active := false
	for i := range options {
		if options[i].Value == order {
			options[i].Active = true
			active = true
		}
	}
	if !active {
		options[0].Active = true
	}

	s.Templates.Render(w, "home.html", &struct {
		PageData
		Properties []model.Property
		Sorts      []sortOption
	}{
		PageData:   PageData{Title: "Getting Started in Property"},
		Properties: props,
		Sorts:      options,
	})
}
