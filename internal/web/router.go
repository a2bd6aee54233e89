package web

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/erazemk/listings/internal/catalog"
	"github.com/erazemk/listings/internal/gallery"
	"github.com/erazemk/listings/internal/gate"
	"github.com/erazemk/listings/internal/repository"
	webembed "github.com/erazemk/listings/web"
)

// Publisher replaces the published collection document.
type Publisher interface {
	Publish(data []byte) error
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	Secret    string

	Catalog *catalog.Store
	Repo    *repository.Repository
	Gallery *gallery.Resolver
	Gate    *gate.Gate

	// PublicDir holds data/ and assets/. Uploads are written below it.
	PublicDir string
	// LocalAssets is false when gallery images live on another host, which
	// disables uploads.
	LocalAssets bool
	// Publisher is nil unless the collection source is a local file.
	Publisher Publisher

	SecureCookies bool
}

// NewRouter loads the templates into s and registers all page routes.
func NewRouter(s *Server) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	s.Templates = templates

	mux := http.NewServeMux()
	session := s.RequireSession

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public files.
	public := noListing(http.FileServer(http.Dir(s.PublicDir)))
	mux.Handle("GET /assets/", public)
	mux.Handle("GET /data/properties.json", public)

	// Public pages.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /property", s.PropertyPage)
	mux.HandleFunc("GET /property.html", s.PropertyPage)

	// Admin login.
	mux.HandleFunc("GET /admin/login", s.LoginPage)
	mux.HandleFunc("POST /admin/login", s.LoginSubmit)
	mux.HandleFunc("POST /admin/logout", s.Logout)

	// Admin panel.
	mux.Handle("GET /admin", session(http.HandlerFunc(s.AdminPage)))
	mux.Handle("POST /admin/ping", session(http.HandlerFunc(s.Ping)))

	mux.Handle("GET /admin/properties/new", session(http.HandlerFunc(s.PropertyNewPage)))
	mux.Handle("POST /admin/properties", session(http.HandlerFunc(s.PropertyCreateSubmit)))
	mux.Handle("GET /admin/properties/{id}/edit", session(http.HandlerFunc(s.PropertyEditPage)))
	mux.Handle("POST /admin/properties/{id}", session(http.HandlerFunc(s.PropertyUpdateSubmit)))
	mux.Handle("POST /admin/properties/{id}/delete", session(http.HandlerFunc(s.PropertyDeleteSubmit)))
	mux.Handle("POST /admin/properties/{id}/images", session(http.HandlerFunc(s.PropertyImageSubmit)))

	mux.Handle("GET /admin/export", session(http.HandlerFunc(s.Export)))
	mux.Handle("POST /admin/import", session(http.HandlerFunc(s.ImportSubmit)))
	mux.Handle("POST /admin/clear", session(http.HandlerFunc(s.ClearSubmit)))
	mux.Handle("POST /admin/publish", session(http.HandlerFunc(s.PublishSubmit)))

	return mux, nil
}

// noListing hides directory indexes of the public tree.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
