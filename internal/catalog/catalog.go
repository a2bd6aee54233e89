// Package catalog is the read side used by the public pages: it loads the
// published collection with local fallbacks and sorts, filters and looks up
// records.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/erazemk/listings/internal/model"
	"github.com/erazemk/listings/internal/source"
	"github.com/erazemk/listings/internal/store"
)

// Origin tells where a loaded collection came from.
type Origin string

const (
	OriginRemote   Origin = "remote"
	OriginCache    Origin = "cache"
	OriginDefaults Origin = "defaults"
)

// Store loads the collection from a Source, mirroring it into the local
// cache, and falls back to that cache and then to the bundled defaults.
type Store struct {
	src   source.Source
	cache store.Backend

	mu     sync.RWMutex
	loaded []model.Property
	origin Origin
}

// New creates a Store reading from src and mirroring into cache.
func New(src source.Source, cache store.Backend) *Store {
	return &Store{src: src, cache: cache}
}

// Load returns the current collection. It never fails: a fetch failure falls
// back to the cache, and an empty or unreadable cache falls back to the
// bundled defaults, which then become the cache. A remote collection is not
// mirrored while the cache carries unpublished admin edits.
func (s *Store) Load(ctx context.Context) ([]model.Property, Origin) {
	props, origin := s.load(ctx)

	s.mu.Lock()
	s.loaded = props
	s.origin = origin
	s.mu.Unlock()

	return clone(props), origin
}

func (s *Store) load(ctx context.Context) ([]model.Property, Origin) {
	props, err := s.src.Fetch(ctx)
	if err == nil {
		_, dirty, err := s.cache.Get(ctx, store.KeyUnpublished)
		if err != nil {
			slog.Warn("failed to read unpublished flag, not mirroring", "error", err)
		}
		if err != nil || dirty {
			return props, OriginRemote
		}
		if err := s.persist(ctx, props); err != nil {
			slog.Warn("failed to mirror properties into cache", "error", err)
		}
		return props, OriginRemote
	}
	slog.Warn("failed to fetch properties, using local copy", "error", err)

	cached, ok, err := s.readCache(ctx)
	if err != nil {
		slog.Error("ignoring unreadable property cache", "error", err)
	}
	if ok {
		return cached, OriginCache
	}

	slog.Warn("using default properties")
	defaults := model.Defaults()
	if err := s.persist(ctx, defaults); err != nil {
		slog.Warn("failed to store default properties", "error", err)
	}
	return defaults, OriginDefaults
}

func (s *Store) readCache(ctx context.Context) ([]model.Property, bool, error) {
	raw, ok, err := s.cache.Get(ctx, store.KeyProperties)
	if err != nil || !ok {
		return nil, false, err
	}
	var props []model.Property
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, false, fmt.Errorf("%w: %v", model.ErrMalformed, err)
	}
	return props, true, nil
}

func (s *Store) persist(ctx context.Context, props []model.Property) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}
	return s.cache.Set(ctx, store.KeyProperties, string(data))
}

// Loaded returns the collection from the most recent Load and its origin.
func (s *Store) Loaded() ([]model.Property, Origin) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.loaded), s.origin
}

// Sort orders the most recently loaded collection without changing it.
func (s *Store) Sort(order string) []model.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Sort(s.loaded, order)
}

// GetByID loads the collection and returns the record whose id matches raw,
// the unparsed query-string value.
func (s *Store) GetByID(ctx context.Context, raw string) (model.Property, error) {
	id, err := ParseID(raw)
	if err != nil {
		return model.Property{}, err
	}
	props, _ := s.Load(ctx)
	p, ok := Find(props, id)
	if !ok {
		return model.Property{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}
	return p, nil
}

func clone(props []model.Property) []model.Property {
	if props == nil {
		return nil
	}
	out := make([]model.Property, len(props))
	copy(out, props)
	return out
}
