package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/erazemk/listings/internal/model"
)

// HTTP fetches the collection from a URL.
type HTTP struct {
	URL    string
	Client *http.Client
}

// NewHTTP returns an HTTP source. A nil client gets a 10 second timeout.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{URL: url, Client: client}
}

// Fetch GETs the document. Any transport error, non-2xx status or invalid
// body is returned as a *FetchError.
func (h *HTTP) Fetch(ctx context.Context) ([]model.Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, &FetchError{Location: h.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: h.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Location: h.URL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize))
	if err != nil {
		return nil, &FetchError{Location: h.URL, Err: err}
	}

	props, err := decode(data)
	if err != nil {
		return nil, &FetchError{Location: h.URL, Err: err}
	}
	return props, nil
}
