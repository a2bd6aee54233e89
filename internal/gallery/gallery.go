// Package gallery discovers the numbered images stored for a property and
// saves new ones.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/errgroup"
)

// MaxSlots is the highest image index looked up per folder.
const MaxSlots = 12

// Extensions are tried for every slot. When several exist for one slot the
// earliest in this list wins.
var Extensions = []string{"jpg", "webp", "jpeg", "png"}

// ErrFull is returned by NextSlot when every slot is taken.
var ErrFull = errors.New("gallery is full")

// Image is one resolved gallery entry.
type Image struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// URL is the site-relative address of the image.
func (i Image) URL() string {
	return "/" + i.Path
}

// SlotPath returns the path for a slot and extension inside folder.
func SlotPath(folder string, slot int, ext string) string {
	return "assets/" + folder + "/pic" + strconv.Itoa(slot) + "." + ext
}

// ValidFolder reports whether folder can be used as a single path element.
// The folder comes from record data, so anything that could climb out of
// the assets tree is rejected.
func ValidFolder(folder string) bool {
	if folder == "" || folder == "." || folder == ".." {
		return false
	}
	return !strings.ContainsAny(folder, `/\`) && !strings.ContainsRune(folder, 0)
}

// Resolver probes candidate paths and caches the result per folder.
type Resolver struct {
	prober Prober
	ttl    time.Duration
	limit  int
	cache  *ccache.Cache[[]Image]
}

// NewResolver creates a Resolver. A ttl of zero disables caching.
func NewResolver(prober Prober, ttl time.Duration) *Resolver {
	return &Resolver{
		prober: prober,
		ttl:    ttl,
		limit:  8,
		cache:  ccache.New(ccache.Configure[[]Image]().MaxSize(500)),
	}
}

// Resolve returns the images available for folder ordered by index. Every
// candidate is probed concurrently; a missing folder yields no images.
func (r *Resolver) Resolve(ctx context.Context, folder string) ([]Image, error) {
	if !ValidFolder(folder) {
		return []Image{}, nil
	}
	if r.ttl > 0 {
		if item := r.cache.Get(folder); item != nil && !item.Expired() {
			return slices.Clone(item.Value()), nil
		}
	}

	// found[slot-1][ext] is written by exactly one goroutine each.
	found := make([][]bool, MaxSlots)
	for i := range found {
		found[i] = make([]bool, len(Extensions))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for slot := 1; slot <= MaxSlots; slot++ {
		for e, ext := range Extensions {
			path := SlotPath(folder, slot, ext)
			g.Go(func() error {
				found[slot-1][e] = r.prober.Probe(gctx, path)
				return nil
			})
		}
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving gallery %q: %w", folder, err)
	}

	images := []Image{}
	for i, exts := range found {
		if e := slices.Index(exts, true); e >= 0 {
			images = append(images, Image{Index: i + 1, Path: SlotPath(folder, i+1, Extensions[e])})
		}
	}

	if r.ttl > 0 {
		r.cache.Set(folder, slices.Clone(images), r.ttl)
	}
	return images, nil
}

// Invalidate drops the cached result for folder.
func (r *Resolver) Invalidate(folder string) {
	r.cache.Delete(folder)
}

// NextSlot returns the lowest slot with no image in folder.
func (r *Resolver) NextSlot(ctx context.Context, folder string) (int, error) {
	r.Invalidate(folder)
	images, err := r.Resolve(ctx, folder)
	if err != nil {
		return 0, err
	}
	taken := make(map[int]bool, len(images))
	for _, img := range images {
		taken[img.Index] = true
	}
	for slot := 1; slot <= MaxSlots; slot++ {
		if !taken[slot] {
			return slot, nil
		}
	}
	return 0, ErrFull
}
