package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/erazemk/listings/internal/model"
)

const twoProperties = `[
  {"id":1,"location":"Bristol BS7","address":"14 Amis Walk, Bristol BS7","beds":4,"baths":2,"rent":2500,"deposit":2884,"images":"BS7"},
  {"id":2,"location":"London E7","address":"London E7","beds":7,"baths":3,"rent":6249,"deposit":7500,"images":"E7(1)"}
]`

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoProperties))
	}))
	defer srv.Close()

	props, err := NewHTTP(srv.URL, srv.Client()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	if props[1].Images != "E7(1)" || props[1].Rent != 6249 {
		t.Errorf("unexpected second property: %+v", props[1])
	}
}

func TestHTTPFetchFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    error
	}{
		{"not found", http.StatusNotFound, "missing", http.StatusNotFound, nil},
		{"server error", http.StatusInternalServerError, "", http.StatusInternalServerError, nil},
		{"not json", http.StatusOK, "<html></html>", 0, model.ErrMalformed},
		{"object", http.StatusOK, `{"id":1}`, 0, model.ErrInvalid},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		}))

		_, err := NewHTTP(srv.URL, srv.Client()).Fetch(context.Background())
		srv.Close()

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Errorf("%s: expected *FetchError, got %v", tt.name, err)
			continue
		}
		if fe.Status != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.wantStatus, fe.Status)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v inside, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestHTTPFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(url, nil).Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != 0 {
		t.Errorf("expected transport FetchError, got %v", err)
	}
}

func TestFileFetchAndPublish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "properties.json")
	f := &File{Path: path}

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}

	if err := f.Publish([]byte(twoProperties)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	props, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(props) != 2 || props[0].Location != "Bristol BS7" {
		t.Errorf("unexpected properties: %+v", props)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the published file, found %d entries", len(entries))
	}
}

func TestPublishRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.json")
	os.WriteFile(path, []byte(twoProperties), 0o644)

	f := &File{Path: path}
	if err := f.Publish([]byte(`{"not":"an array"}`)); !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	props, err := f.Fetch(context.Background())
	if err != nil || len(props) != 2 {
		t.Errorf("existing file should be untouched: %v %d", err, len(props))
	}
}

func TestNewPicksImplementation(t *testing.T) {
	if _, ok := New("https://example.com/data/properties.json").(*HTTP); !ok {
		t.Error("expected HTTP source for https URL")
	}
	if _, ok := New("public/data/properties.json").(*File); !ok {
		t.Error("expected File source for a path")
	}
}
