package gallery

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// Prober reports whether an image exists and loads at path, a slash
// separated path such as "assets/BS7/pic1.jpg".
type Prober interface {
	Probe(ctx context.Context, path string) bool
}

// FSProber checks images in a local file tree. A file only counts when its
// header decodes as a supported image, so a truncated upload or a stray text
// file is treated like a missing image.
type FSProber struct {
	FS fs.FS
}

func (p FSProber) Probe(ctx context.Context, path string) bool {
	if ctx.Err() != nil || !fs.ValidPath(path) {
		return false
	}
	f, err := p.FS.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}

// HTTPProber checks images served under a base URL.
type HTTPProber struct {
	Base   string
	Client *http.Client
}

// NewHTTPProber returns a prober for base. A nil client gets a 5 second
// timeout.
func NewHTTPProber(base string, client *http.Client) *HTTPProber {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPProber{Base: strings.TrimRight(base, "/"), Client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Base+"/"+path, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}
