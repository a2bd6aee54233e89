package gate

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/listings/internal/store"
)

const testClient = "192.0.2.10"

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGate(t *testing.T, cfg Config) (*Gate, *clock, store.Backend, *[]time.Duration) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	backend := store.NewMemory()
	g := New(cfg, backend)
	g.Now = c.now

	var slept []time.Duration
	g.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, c, backend, &slept
}

func TestDefaultHashMatchesDefaultPassword(t *testing.T) {
	if got := HashPassword("admin123", DefaultSalt); got != DefaultPasswordHash {
		t.Errorf("HashPassword = %s", got)
	}
}

func TestSubmitSuccess(t *testing.T) {
	g, c, _, slept := newTestGate(t, DefaultConfig())

	state, s, err := g.Submit(context.Background(), testClient, "admin123", "fp")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if state.Kind != LoggedIn || s == nil {
		t.Fatalf("expected LoggedIn with a session, got %+v", state)
	}
	if len(s.Token) != 64 {
		t.Errorf("expected 64 hex chars, got %q", s.Token)
	}
	if !s.Timestamp.Equal(c.t) || !s.LastActive.Equal(c.t) || s.Fingerprint != "fp" {
		t.Errorf("unexpected session %+v", s)
	}
	if !state.ExpiresAt.Equal(c.t.Add(30 * time.Minute)) {
		t.Errorf("expected idle deadline first, got %v", state.ExpiresAt)
	}
	if len(*slept) != 1 || (*slept)[0] < 500*time.Millisecond || (*slept)[0] >= time.Second {
		t.Errorf("unexpected submit delay %v", *slept)
	}
}

func TestFiveFailuresLock(t *testing.T) {
	g, c, _, slept := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		state, s, err := g.Submit(ctx, testClient, "wrong", "fp")
		if err != nil {
			t.Fatal(err)
		}
		if state.Kind != LoggedOut || s != nil {
			t.Fatalf("attempt %d: expected LoggedOut, got %v", i, state.Kind)
		}
		if state.Remaining != 5-i {
			t.Errorf("attempt %d: expected %d remaining, got %d", i, 5-i, state.Remaining)
		}
	}

	state, _, _ := g.Submit(ctx, testClient, "wrong", "fp")
	if state.Kind != Locked {
		t.Fatalf("fifth failure: expected Locked, got %v", state.Kind)
	}
	if !state.Until.Equal(c.t.Add(15 * time.Minute)) {
		t.Errorf("unexpected lock deadline %v", state.Until)
	}

	// Even the right password is refused while locked, and still delayed.
	c.advance(5 * time.Minute)
	state, s, _ := g.Submit(ctx, testClient, "admin123", "fp")
	if state.Kind != Locked || s != nil {
		t.Errorf("expected Locked during lockout, got %v", state.Kind)
	}
	if !state.Until.Equal(c.t.Add(10 * time.Minute)) {
		t.Errorf("expected 10 minutes left, got %v", state.Until.Sub(c.t))
	}
	if len(*slept) != 6 {
		t.Errorf("expected a delay on every submit, got %d", len(*slept))
	}

	status, _ := g.Lockout(ctx, testClient)
	if !status.Locked || status.TimeLeft != 10*time.Minute {
		t.Errorf("unexpected lockout status %+v", status)
	}
}

func TestLockoutExpires(t *testing.T) {
	g, c, backend, _ := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for range 5 {
		g.Submit(ctx, testClient, "wrong", "fp")
	}
	c.advance(15 * time.Minute)

	status, err := g.Lockout(ctx, testClient)
	if err != nil {
		t.Fatal(err)
	}
	if status.Locked || status.Attempts != 0 {
		t.Errorf("expected lockout to have expired, got %+v", status)
	}
	if _, ok, _ := backend.Get(ctx, store.LockoutKey(testClient)); ok {
		t.Error("expired lockout state should be removed")
	}

	state, _, _ := g.Submit(ctx, testClient, "admin123", "fp")
	if state.Kind != LoggedIn {
		t.Errorf("expected LoggedIn after lockout, got %v", state.Kind)
	}
}

func TestSuccessBeforeFifthClearsCounter(t *testing.T) {
	g, _, backend, _ := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for range 4 {
		g.Submit(ctx, testClient, "wrong", "fp")
	}
	state, _, _ := g.Submit(ctx, testClient, "admin123", "fp")
	if state.Kind != LoggedIn {
		t.Fatalf("expected LoggedIn, got %v", state.Kind)
	}
	if _, ok, _ := backend.Get(ctx, store.LockoutKey(testClient)); ok {
		t.Error("counter should be cleared on success")
	}

	// A fresh run of failures starts from zero.
	state, _, _ = g.Submit(ctx, testClient, "wrong", "fp")
	if state.Kind != LoggedOut || state.Remaining != 4 {
		t.Errorf("expected 4 remaining, got %+v", state)
	}
}

func TestAttemptWindowResetsCounter(t *testing.T) {
	g, c, _, _ := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for range 3 {
		g.Submit(ctx, testClient, "wrong", "fp")
	}
	c.advance(time.Hour + time.Second)

	status, _ := g.Lockout(ctx, testClient)
	if status.Attempts != 0 {
		t.Errorf("expected counter reset after an idle hour, got %d", status.Attempts)
	}
	state, _, _ := g.Submit(ctx, testClient, "wrong", "fp")
	if state.Remaining != 4 {
		t.Errorf("expected 4 remaining, got %d", state.Remaining)
	}
}

func TestCorruptLockoutIgnored(t *testing.T) {
	g, _, backend, _ := newTestGate(t, DefaultConfig())
	ctx := context.Background()
	backend.Set(ctx, store.LockoutKey(testClient), "{nope")

	status, err := g.Lockout(ctx, testClient)
	if err != nil || status.Locked || status.Attempts != 0 {
		t.Errorf("expected clean status, got %+v, %v", status, err)
	}
}

func TestLockoutIsPerClient(t *testing.T) {
	g, _, _, _ := newTestGate(t, DefaultConfig())
	ctx := context.Background()

	for range 5 {
		g.Submit(ctx, testClient, "wrong", "fp")
	}
	if status, _ := g.Lockout(ctx, testClient); !status.Locked {
		t.Fatalf("expected %s locked, got %+v", testClient, status)
	}

	other := "198.51.100.7"
	if status, _ := g.Lockout(ctx, other); status.Locked || status.Attempts != 0 {
		t.Errorf("expected %s unaffected, got %+v", other, status)
	}
	state, _, _ := g.Submit(ctx, other, "admin123", "fp")
	if state.Kind != LoggedIn {
		t.Errorf("expected %s to log in, got %v", other, state.Kind)
	}
	if status, _ := g.Lockout(ctx, testClient); !status.Locked {
		t.Error("another client's login cleared the lockout")
	}
}

func TestCheckIdleTimeout(t *testing.T) {
	g, c, _, _ := newTestGate(t, DefaultConfig())
	_, s, _ := g.Submit(context.Background(), testClient, "admin123", "fp")

	c.advance(29 * time.Minute)
	if state := g.Check(s, "fp"); state.Kind != LoggedIn {
		t.Fatalf("expected LoggedIn at 29m, got %v", state.Kind)
	}

	c.advance(time.Minute)
	state := g.Check(s, "fp")
	if state.Kind != LoggedOut || state.Reason != ReasonIdle {
		t.Errorf("expected idle logout, got %+v", state)
	}
}

func TestCheckActivityExtendsUntilDeadline(t *testing.T) {
	g, c, _, _ := newTestGate(t, DefaultConfig())
	_, s, _ := g.Submit(context.Background(), testClient, "admin123", "fp")

	for range 5 {
		c.advance(20 * time.Minute)
		if state := g.Check(s, "fp"); state.Kind != LoggedIn {
			t.Fatalf("expected LoggedIn while active, got %v", state.Reason)
		}
		g.Touch(s)
	}

	// 100 minutes in; the next idle deadline would pass the 2 hour limit.
	if state := g.Check(s, "fp"); !state.ExpiresAt.Equal(s.Timestamp.Add(2 * time.Hour)) {
		t.Errorf("expected absolute deadline, got %v", state.ExpiresAt)
	}

	c.advance(20 * time.Minute)
	state := g.Check(s, "fp")
	if state.Kind != LoggedOut || state.Reason != ReasonExpired {
		t.Errorf("expected absolute expiry at 2h, got %+v", state)
	}
}

func TestCheckFingerprintMismatch(t *testing.T) {
	g, _, _, _ := newTestGate(t, DefaultConfig())
	_, s, _ := g.Submit(context.Background(), testClient, "admin123", "fp")

	state := g.Check(s, "other")
	if state.Kind != LoggedOut || state.Reason != ReasonFingerprint {
		t.Errorf("expected fingerprint logout, got %+v", state)
	}
}

func TestCheckNoSession(t *testing.T) {
	g, _, _, _ := newTestGate(t, DefaultConfig())
	if state := g.Check(nil, "fp"); state.Reason != ReasonNoSession {
		t.Errorf("expected no session, got %+v", state)
	}
	if state := g.Check(&Session{}, ""); state.Reason != ReasonNoSession {
		t.Errorf("empty token should not count as a session, got %+v", state)
	}
}

func TestBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.PasswordHash = string(hash)
	g, _, _, _ := newTestGate(t, cfg)

	if state, _, _ := g.Submit(context.Background(), testClient, "admin123", "fp"); state.Kind != LoggedOut {
		t.Errorf("default password should not match a custom bcrypt hash")
	}
	if state, _, _ := g.Submit(context.Background(), testClient, "s3cret", "fp"); state.Kind != LoggedIn {
		t.Errorf("expected bcrypt password to match, got %v", state.Kind)
	}
}

func TestSubmitCanceledDuringDelay(t *testing.T) {
	g := New(DefaultConfig(), store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := g.Submit(ctx, testClient, "admin123", "fp"); err == nil {
		t.Error("expected error for a canceled submit")
	}
}

func TestFingerprint(t *testing.T) {
	env := Env{UserAgent: "Mozilla/5.0", Language: "en-GB", ScreenWidth: 1920, ScreenHeight: 1080, TimezoneOffset: -60, Canvas: "data:image/png;base64,AAAA"}

	a := Fingerprint(env)
	if len(a) != 32 {
		t.Errorf("expected 32 chars, got %d", len(a))
	}
	if Fingerprint(env) != a {
		t.Error("fingerprint is not deterministic")
	}

	env.Canvas = "data:image/png;base64,BBBB"
	if Fingerprint(env) == a {
		t.Error("canvas signature should affect the fingerprint")
	}
}
