package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/erazemk/listings/internal/model"
)

// File reads the collection from a local JSON file, typically the one the
// server also publishes at /data/properties.json.
type File struct {
	Path string
}

// Fetch reads and decodes the file. Errors are returned as *FetchError.
func (f *File) Fetch(ctx context.Context) ([]model.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Location: f.Path, Err: err}
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &FetchError{Location: f.Path, Err: err}
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, MaxDocumentSize))
	if err != nil {
		return nil, &FetchError{Location: f.Path, Err: err}
	}

	props, err := decode(data)
	if err != nil {
		return nil, &FetchError{Location: f.Path, Err: err}
	}
	return props, nil
}

// Publish replaces the file with data. The write goes to a temporary file in
// the same directory first so readers never see a partial document.
func (f *File) Publish(data []byte) error {
	if _, err := decode(data); err != nil {
		return fmt.Errorf("refusing to publish: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, ".properties-"+uuid.NewString()+".json")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", f.Path, err)
	}
	return nil
}
