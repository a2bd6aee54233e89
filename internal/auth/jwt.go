package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/listings/internal/gate"
)

// CookieName is the admin session cookie.
const CookieName = "admin_session"

// Claims carries a gate.Session. The session token is the JWT ID and the
// login time is the issue time.
type Claims struct {
	Fingerprint string           `json:"fingerprint"`
	LastActive  *jwt.NumericDate `json:"last_active"`
	jwt.RegisteredClaims
}

// IssueSession signs s into a cookie value valid until deadline.
func IssueSession(secret string, s *gate.Session, deadline time.Time) (string, error) {
	if s.Token == "" {
		return "", errors.New("session has no token")
	}

	claims := Claims{
		Fingerprint: s.Fingerprint,
		LastActive:  jwt.NewNumericDate(s.LastActive),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.Token,
			IssuedAt:  jwt.NewNumericDate(s.Timestamp),
			ExpiresAt: jwt.NewNumericDate(deadline),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a cookie value and returns the session inside it.
// Expiry is checked against now so callers with a fake clock agree with
// the gate.
func ParseSession(secret, tokenStr string, now time.Time) (*gate.Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if !token.Valid || claims.ID == "" || claims.IssuedAt == nil {
		return nil, errors.New("invalid session")
	}

	s := &gate.Session{
		Token:       claims.ID,
		Timestamp:   claims.IssuedAt.Time,
		Fingerprint: claims.Fingerprint,
		LastActive:  claims.IssuedAt.Time,
	}
	if claims.LastActive != nil {
		s.LastActive = claims.LastActive.Time
	}
	return s, nil
}
