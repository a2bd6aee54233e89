// Package repository is the admin write side: CRUD over the locally cached
// collection plus whole-collection import and export. Edits never reach the
// published document on their own; it has to be published or exported and
// redeployed. Until then the cache is flagged with store.KeyUnpublished so
// public reloads leave it alone.
package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/erazemk/listings/internal/model"
	"github.com/erazemk/listings/internal/schema"
	"github.com/erazemk/listings/internal/store"
)

// ExportFilename is the download name, matching the published document so
// it can replace it directly.
const ExportFilename = "properties.json"

// Repository mutates the collection stored under store.KeyProperties.
// Every mutation writes the whole collection back before returning.
type Repository struct {
	cache store.Backend
	mu    sync.Mutex
}

// New creates a Repository over cache.
func New(cache store.Backend) *Repository {
	return &Repository{cache: cache}
}

// GetAll returns the cached collection, or an empty one if nothing is cached.
func (r *Repository) GetAll(ctx context.Context) ([]model.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(ctx)
}

// Get returns the record with the given id.
func (r *Repository) Get(ctx context.Context, id int) (model.Property, error) {
	props, err := r.GetAll(ctx)
	if err != nil {
		return model.Property{}, err
	}
	for _, p := range props {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Property{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
}

// Add appends p with the next id (max existing id + 1, or 1 when empty).
func (r *Repository) Add(ctx context.Context, p model.Property) (model.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	props, err := r.read(ctx)
	if err != nil {
		return model.Property{}, err
	}

	id, err := nextID(props)
	if err != nil {
		return model.Property{}, err
	}
	p.ID = id
	p.Normalize()
	props = append(props, p)

	if err := r.write(ctx, props); err != nil {
		return model.Property{}, err
	}
	return p, nil
}

// Update merges patch into the record with the given id. If no record
// matches, the collection is left as it was and model.ErrNotFound is
// returned.
func (r *Repository) Update(ctx context.Context, id int, patch model.Patch) (model.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	props, err := r.read(ctx)
	if err != nil {
		return model.Property{}, err
	}

	i := slices.IndexFunc(props, func(p model.Property) bool { return p.ID == id })
	if i < 0 {
		return model.Property{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}
	props[i] = patch.Apply(props[i])

	if err := r.write(ctx, props); err != nil {
		return model.Property{}, err
	}
	return props[i], nil
}

// Delete removes the record with the given id and reports whether one was
// removed. Deleting a missing id changes nothing.
func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	props, err := r.read(ctx)
	if err != nil {
		return false, err
	}

	kept := slices.DeleteFunc(slices.Clone(props), func(p model.Property) bool { return p.ID == id })
	if len(kept) == len(props) {
		return false, nil
	}

	if err := r.write(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Export serializes the collection as indented JSON, ready to be deployed as
// the published document.
func (r *Repository) Export(ctx context.Context) ([]byte, error) {
	props, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return append(data, '\n'), nil
}

// Import replaces the whole collection with data, which must be a JSON array
// of properties with unique ids. On any error the cache is untouched.
// It returns the number of imported records.
func (r *Repository) Import(ctx context.Context, data []byte) (int, error) {
	if err := schema.ValidateCollection(data); err != nil {
		return 0, err
	}

	var props []model.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}

	seen := make(map[int]bool, len(props))
	for _, p := range props {
		if seen[p.ID] {
			return 0, fmt.Errorf("%w: duplicate id %d", model.ErrInvalid, p.ID)
		}
		seen[p.ID] = true
	}

	if err := r.Replace(ctx, props); err != nil {
		return 0, err
	}
	return len(props), nil
}

// Replace overwrites the collection.
func (r *Repository) Replace(ctx context.Context, props []model.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if props == nil {
		props = []model.Property{}
	}
	return r.write(ctx, props)
}

// Clear removes the cached collection entirely, along with its unpublished
// flag.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cache.Remove(ctx, store.KeyProperties); err != nil {
		return fmt.Errorf("clearing properties: %w", err)
	}
	return r.markPublished(ctx)
}

// Unpublished reports whether the cache holds edits not yet published.
func (r *Repository) Unpublished(ctx context.Context) (bool, error) {
	_, ok, err := r.cache.Get(ctx, store.KeyUnpublished)
	if err != nil {
		return false, fmt.Errorf("reading unpublished flag: %w", err)
	}
	return ok, nil
}

// MarkPublished drops the unpublished flag, letting the next catalog load
// mirror the published collection over the cache again.
func (r *Repository) MarkPublished(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markPublished(ctx)
}

func (r *Repository) markPublished(ctx context.Context) error {
	if err := r.cache.Remove(ctx, store.KeyUnpublished); err != nil {
		return fmt.Errorf("clearing unpublished flag: %w", err)
	}
	return nil
}

func (r *Repository) read(ctx context.Context) ([]model.Property, error) {
	raw, ok, err := r.cache.Get(ctx, store.KeyProperties)
	if err != nil {
		return nil, fmt.Errorf("reading properties: %w", err)
	}
	if !ok {
		return []model.Property{}, nil
	}

	var props []model.Property
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("%w: cached collection: %v", model.ErrMalformed, err)
	}
	if props == nil {
		props = []model.Property{}
	}
	return props, nil
}

func (r *Repository) write(ctx context.Context, props []model.Property) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}
	if err := r.cache.Set(ctx, store.KeyUnpublished, "1"); err != nil {
		return fmt.Errorf("flagging unpublished changes: %w", err)
	}
	if err := r.cache.Set(ctx, store.KeyProperties, string(data)); err != nil {
		return fmt.Errorf("saving properties: %w", err)
	}
	return nil
}

// nextID is one past the highest id. There is no next id once a record
// holds math.MaxInt.
func nextID(props []model.Property) (int, error) {
	if len(props) == 0 {
		return 1, nil
	}
	highest := slices.MaxFunc(props, func(a, b model.Property) int { return cmp.Compare(a.ID, b.ID) }).ID
	if highest == math.MaxInt {
		return 0, fmt.Errorf("%w: no id left above %d", model.ErrInvalid, highest)
	}
	return highest + 1, nil
}
