// Package source fetches the published property collection: the static
// JSON document that is the source of truth for public pages.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/listings/internal/model"
	"github.com/erazemk/listings/internal/schema"
)

// MaxDocumentSize bounds how much of the remote document is read.
const MaxDocumentSize = 10 << 20

// Source returns the full published collection.
type Source interface {
	Fetch(ctx context.Context) ([]model.Property, error)
}

// FetchError reports that the published collection could not be retrieved.
// Status is the HTTP status for a non-success response, zero otherwise.
type FetchError struct {
	Location string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.Location, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// New picks an HTTP source for http(s) URLs and a file source otherwise.
func New(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTP(location, nil)
	}
	return &File{Path: location}
}

// decode validates and decodes a collection document.
func decode(data []byte) ([]model.Property, error) {
	if err := schema.ValidateCollection(data); err != nil {
		return nil, err
	}
	var props []model.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}
	return props, nil
}
