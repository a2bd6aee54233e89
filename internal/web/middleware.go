package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/listings/internal/auth"
	"github.com/erazemk/listings/internal/gate"
	"github.com/erazemk/listings/internal/store"
)

type webContextKey string

const webSessionKey webContextKey = "websession"

// RequireSession validates the session cookie, checks revocation and the
// gate's expiry rules, records the request as activity and reissues the
// cookie. Anything else ends at the login page.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		sess, err := auth.ParseSession(s.Secret, cookie.Value, s.Gate.Now())
		if err != nil {
			s.endSession(w, r, nil, "Session expired. Please log in again.")
			return
		}

		revoked, err := store.IsTokenRevoked(r.Context(), s.DB, sess.Token)
		if err != nil {
			slog.Error("failed to check session revocation", "error", err)
			s.endSession(w, r, nil, "Please log in again.")
			return
		}
		if revoked {
			s.endSession(w, r, nil, "")
			return
		}

		state := s.Gate.Check(sess, fingerprint(r))
		if state.Kind != gate.LoggedIn {
			slog.Info("admin session ended", "reason", string(state.Reason))
			s.endSession(w, r, sess, logoutMessage(state.Reason))
			return
		}

		s.Gate.Touch(sess)
		if err := s.setSessionCookie(w, sess); err != nil {
			slog.Error("failed to refresh session cookie", "error", err)
		}

		ctx := context.WithValue(r.Context(), webSessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func logoutMessage(reason gate.Reason) string {
	switch reason {
	case gate.ReasonIdle:
		return "Session expired due to inactivity"
	case gate.ReasonFingerprint:
		return "Session ended because the browser changed. Please log in again."
	default:
		return "Session expired. Please log in again."
	}
}

// endSession revokes sess when given, clears the cookie and redirects to the
// login page with message.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sess *gate.Session, message string) {
	if sess != nil {
		if err := store.RevokeToken(r.Context(), s.DB, sess.Token, s.Gate.Deadline(sess)); err != nil {
			slog.Error("failed to revoke session", "error", err)
		}
	}
	clearSessionCookie(w, s.SecureCookies)
	if message != "" {
		s.failure(w, message)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// setSessionCookie writes sess as a browser-session cookie: it has no
// Max-Age, so closing the browser drops it.
func (s *Server) setSessionCookie(w http.ResponseWriter, sess *gate.Session) error {
	token, err := auth.IssueSession(s.Secret, sess, s.Gate.Deadline(sess))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// SessionFrom retrieves the admin session from the request context.
func SessionFrom(ctx context.Context) *gate.Session {
	sess, _ := ctx.Value(webSessionKey).(*gate.Session)
	return sess
}
