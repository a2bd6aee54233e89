// Package schema validates property collections against the embedded JSON
// Schema before they are decoded.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/erazemk/listings/internal/model"
)

//go:embed properties.schema.json
var collectionSchema string

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("properties.schema.json", collectionSchema)
})

// ValidateCollection checks that data is a JSON array of property objects.
// Syntax errors wrap model.ErrMalformed, shape errors wrap model.ErrInvalid.
func ValidateCollection(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", model.ErrMalformed)
	}

	if _, ok := v.([]any); !ok {
		return fmt.Errorf("%w: expected a JSON array", model.ErrInvalid)
	}

	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compiling collection schema: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalid, err)
	}
	return nil
}
