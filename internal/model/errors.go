package model

import "errors"

// Error classes shared by the store, repository and web layers.
var (
	// ErrNotFound is returned when no record matches an id.
	ErrNotFound = errors.New("property not found")

	// ErrMalformed is returned for JSON that cannot be parsed.
	ErrMalformed = errors.New("malformed property data")

	// ErrInvalid is returned for well-formed data with the wrong shape.
	ErrInvalid = errors.New("invalid property data")
)
