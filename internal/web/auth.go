package web

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/erazemk/listings/internal/auth"
	"github.com/erazemk/listings/internal/gate"
	"github.com/erazemk/listings/internal/store"
)

type loginData struct {
	PageData
	Error  string
	Locked bool
}

// LoginPage handles GET /admin/login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := &loginData{PageData: PageData{Title: "Admin Login", Flash: s.takeFlash(w, r)}}

	if s.validSession(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	status, err := s.Gate.Lockout(r.Context(), clientAddr(r))
	if err != nil {
		slog.Error("failed to read lockout state", "error", err)
	}
	if status.Locked {
		data.Locked = true
		data.Error = lockoutMessage(status.TimeLeft)
	}
	s.Templates.Render(w, "admin_login.html", data)
}

// LoginSubmit handles POST /admin/login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	data := &loginData{PageData: PageData{Title: "Admin Login"}}

	state, sess, err := s.Gate.Submit(r.Context(), clientAddr(r), r.FormValue("password"), fingerprint(r))
	if err != nil {
		slog.Error("login failed", "error", err)
		data.Error = "Login failed. Please try again."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "admin_login.html", data)
		return
	}

	switch state.Kind {
	case gate.Locked:
		data.Locked = true
		data.Error = lockoutMessage(state.Until.Sub(s.Gate.Now()))
		s.Templates.RenderStatus(w, http.StatusTooManyRequests, "admin_login.html", data)
		return
	case gate.LoggedOut:
		slog.Warn("admin login rejected", "remaining", state.Remaining)
		data.Error = fmt.Sprintf("Incorrect password. %d attempt%s remaining.", state.Remaining, suffix(state.Remaining))
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "admin_login.html", data)
		return
	}

	if err := s.setSessionCookie(w, sess); err != nil {
		slog.Error("failed to issue session", "error", err)
		data.Error = "Login failed. Please try again."
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "admin_login.html", data)
		return
	}

	// Refresh the working copy from the published collection.
	if err := s.Repo.MarkPublished(r.Context()); err != nil {
		slog.Error("failed to reset unpublished flag", "error", err)
	}
	props, origin := s.Catalog.Load(r.Context())
	slog.Info("admin logged in", "properties", len(props), "origin", string(origin))

	s.success(w, "Welcome to Admin Panel!")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout handles POST /admin/logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		if sess, err := auth.ParseSession(s.Secret, cookie.Value, s.Gate.Now()); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, sess.Token, s.Gate.Deadline(sess)); err != nil {
				slog.Error("failed to revoke session on logout", "error", err)
			}
		}
	}

	clearSessionCookie(w, s.SecureCookies)
	s.success(w, "Logged out successfully")
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// Ping handles POST /admin/ping, sent by the admin page on user activity.
// The session middleware has already recorded the activity.
func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// validSession reports whether r carries a live session, without touching it.
func (s *Server) validSession(r *http.Request) bool {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	sess, err := auth.ParseSession(s.Secret, cookie.Value, s.Gate.Now())
	if err != nil {
		return false
	}
	if revoked, err := store.IsTokenRevoked(r.Context(), s.DB, sess.Token); err != nil || revoked {
		return false
	}
	return s.Gate.Check(sess, fingerprint(r)).Kind == gate.LoggedIn
}

func lockoutMessage(left time.Duration) string {
	minutes := int(math.Ceil(left.Minutes()))
	return fmt.Sprintf("Too many failed attempts. Try again in %d minute%s.", minutes, suffix(minutes))
}

func suffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
