// Package gate implements the admin login state machine: a salted password
// check, a persisted failed-attempt lockout and time-limited sessions bound
// to a browser fingerprint.
//
// This is UI gating for a single shared admin password. It is not a user
// account system. Failed attempts are counted per client address, so one
// client guessing cannot lock every other client out.
package gate

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/listings/internal/store"
)

// DefaultSalt is appended to the password before hashing.
const DefaultSalt = "gettingstarted_salt_2024"

// DefaultPasswordHash is the salted SHA-256 of "admin123".
const DefaultPasswordHash = "55a3345b959f5e176c74102b0163a25264db702c50e1fea5100f137edbca92b2"

// Config holds the gate parameters.
type Config struct {
	// PasswordHash is either a lowercase hex SHA-256 of password+Salt or a
	// bcrypt hash (anything starting with "$2").
	PasswordHash string
	Salt         string

	MaxAttempts     int
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
	SessionDuration time.Duration
	IdleTimeout     time.Duration

	// Every submit waits SubmitDelay plus a random share of SubmitJitter.
	SubmitDelay  time.Duration
	SubmitJitter time.Duration
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		PasswordHash:    DefaultPasswordHash,
		Salt:            DefaultSalt,
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
		AttemptWindow:   time.Hour,
		SessionDuration: 2 * time.Hour,
		IdleTimeout:     30 * time.Minute,
		SubmitDelay:     500 * time.Millisecond,
		SubmitJitter:    500 * time.Millisecond,
	}
}

// Kind is a gate state.
type Kind int

const (
	LoggedOut Kind = iota
	Locked
	LoggedIn
)

func (k Kind) String() string {
	switch k {
	case Locked:
		return "locked"
	case LoggedIn:
		return "logged in"
	default:
		return "logged out"
	}
}

// Reason explains why a session check ended in LoggedOut.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNoSession   Reason = "no session"
	ReasonExpired     Reason = "session expired"
	ReasonIdle        Reason = "inactive"
	ReasonFingerprint Reason = "browser changed"
	ReasonBadPassword Reason = "incorrect password"
)

// State is the outcome of Submit or Check.
type State struct {
	Kind   Kind
	Reason Reason

	// Until is set for Locked.
	Until time.Time
	// ExpiresAt is set for LoggedIn: the earlier of the absolute and idle
	// deadlines.
	ExpiresAt time.Time
	// Remaining is the number of attempts left after a rejected password.
	Remaining int
}

// Session is the session-scoped login record.
type Session struct {
	Token       string
	Timestamp   time.Time
	Fingerprint string
	LastActive  time.Time
}

// Lockout is the persisted failed-attempt counter, stored as JSON
// {"attempts": n, "timestamp": unix-millis}.
type Lockout struct {
	Attempts  int   `json:"attempts"`
	Timestamp int64 `json:"timestamp"`
}

// LockoutStatus is the evaluated lockout state at a point in time.
type LockoutStatus struct {
	Locked   bool
	Attempts int
	TimeLeft time.Duration
}

// Gate evaluates logins and sessions. It is safe for concurrent use.
type Gate struct {
	cfg     Config
	backend store.Backend

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// New creates a Gate storing its lockout counter in backend.
func New(cfg Config, backend store.Backend) *Gate {
	return &Gate{
		cfg:     cfg,
		backend: backend,
		Now:     time.Now,
		Sleep:   sleep,
	}
}

// Config returns the parameters the gate was created with.
func (g *Gate) Config() Config {
	return g.cfg
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lockout reads and evaluates the persisted counter. Stale state is removed:
// an expired lockout, or a counter untouched for longer than the attempt
// window. Missing or corrupt state counts as no failed attempts.
func (g *Gate) Lockout(ctx context.Context, client string) (LockoutStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lockout(ctx, store.LockoutKey(client))
}

func (g *Gate) lockout(ctx context.Context, key string) (LockoutStatus, error) {
	raw, ok, err := g.backend.Get(ctx, key)
	if err != nil {
		return LockoutStatus{}, fmt.Errorf("reading lockout state: %w", err)
	}
	if !ok {
		return LockoutStatus{}, nil
	}

	var l Lockout
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		slog.Warn("ignoring corrupt lockout state", "error", err)
		return LockoutStatus{}, nil
	}

	elapsed := g.Now().Sub(time.UnixMilli(l.Timestamp))
	if l.Attempts >= g.cfg.MaxAttempts {
		if left := g.cfg.LockoutDuration - elapsed; left > 0 {
			return LockoutStatus{Locked: true, Attempts: l.Attempts, TimeLeft: left}, nil
		}
		return LockoutStatus{}, g.clear(ctx, key)
	}
	if elapsed > g.cfg.AttemptWindow {
		return LockoutStatus{}, g.clear(ctx, key)
	}
	return LockoutStatus{Attempts: l.Attempts}, nil
}

func (g *Gate) clear(ctx context.Context, key string) error {
	if err := g.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("clearing lockout state: %w", err)
	}
	return nil
}

// Submit checks a password from client. On success it returns a new session
// bound to fingerprint and clears the client's failed-attempt counter. On a
// mismatch it records the failure, and the failure that reaches MaxAttempts
// locks the gate for that client. Every call waits for the submit delay
// first.
func (g *Gate) Submit(ctx context.Context, client, password, fingerprint string) (State, *Session, error) {
	if err := g.Sleep(ctx, g.delay()); err != nil {
		return State{}, nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := store.LockoutKey(client)
	status, err := g.lockout(ctx, key)
	if err != nil {
		return State{}, nil, err
	}
	now := g.Now()
	if status.Locked {
		return State{Kind: Locked, Until: now.Add(status.TimeLeft)}, nil, nil
	}

	if g.matches(password) {
		if err := g.clear(ctx, key); err != nil {
			return State{}, nil, err
		}
		token, err := newToken()
		if err != nil {
			return State{}, nil, err
		}
		s := &Session{Token: token, Timestamp: now, Fingerprint: fingerprint, LastActive: now}
		return State{Kind: LoggedIn, ExpiresAt: g.expiresAt(s)}, s, nil
	}

	attempts := status.Attempts + 1
	data, err := json.Marshal(Lockout{Attempts: attempts, Timestamp: now.UnixMilli()})
	if err != nil {
		return State{}, nil, fmt.Errorf("encoding lockout state: %w", err)
	}
	if err := g.backend.Set(ctx, key, string(data)); err != nil {
		return State{}, nil, fmt.Errorf("recording failed attempt: %w", err)
	}

	if attempts >= g.cfg.MaxAttempts {
		slog.Warn("admin login locked", "client", client, "attempts", attempts)
		return State{Kind: Locked, Until: now.Add(g.cfg.LockoutDuration)}, nil, nil
	}
	return State{Kind: LoggedOut, Reason: ReasonBadPassword, Remaining: g.cfg.MaxAttempts - attempts}, nil, nil
}

func (g *Gate) delay() time.Duration {
	d := g.cfg.SubmitDelay
	if g.cfg.SubmitJitter > 0 {
		d += mrand.N(g.cfg.SubmitJitter)
	}
	return d
}

func (g *Gate) matches(password string) bool {
	if strings.HasPrefix(g.cfg.PasswordHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(g.cfg.PasswordHash), []byte(password)) == nil
	}
	got := HashPassword(password, g.cfg.Salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(g.cfg.PasswordHash))) == 1
}

// Check evaluates a session against the current time and the fingerprint
// of the requesting browser.
func (g *Gate) Check(s *Session, fingerprint string) State {
	if s == nil || s.Token == "" {
		return State{Kind: LoggedOut, Reason: ReasonNoSession}
	}
	now := g.Now()
	if now.Sub(s.Timestamp) >= g.cfg.SessionDuration {
		return State{Kind: LoggedOut, Reason: ReasonExpired}
	}
	if now.Sub(s.LastActive) >= g.cfg.IdleTimeout {
		return State{Kind: LoggedOut, Reason: ReasonIdle}
	}
	if subtle.ConstantTimeCompare([]byte(s.Fingerprint), []byte(fingerprint)) != 1 {
		return State{Kind: LoggedOut, Reason: ReasonFingerprint}
	}
	return State{Kind: LoggedIn, ExpiresAt: g.expiresAt(s)}
}

// Touch records user activity on the session.
func (g *Gate) Touch(s *Session) {
	s.LastActive = g.Now()
}

// Deadline is when the session expires regardless of activity.
func (g *Gate) Deadline(s *Session) time.Time {
	return s.Timestamp.Add(g.cfg.SessionDuration)
}

func (g *Gate) expiresAt(s *Session) time.Time {
	idle := s.LastActive.Add(g.cfg.IdleTimeout)
	if d := g.Deadline(s); d.Before(idle) {
		return d
	}
	return idle
}

// HashPassword returns the lowercase hex SHA-256 of password+salt.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// newToken returns 32 random bytes as hex.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
