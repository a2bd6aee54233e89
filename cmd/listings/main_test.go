package main

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/listings/internal/gate"
)

func TestRunHashDefaultSalt(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := runHash([]string{"admin123"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "password_hash: "+gate.DefaultPasswordHash) {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunHashBcrypt(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := runHash([]string{"-bcrypt", "s3cret"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	line := strings.TrimSpace(strings.TrimPrefix(out.String(), "password_hash: "))
	hash := strings.Trim(line, `"`)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("output is not a bcrypt hash of the password: %q", out.String())
	}
}

func TestRunHashUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := runHash(nil, &out, &errOut); code != 1 {
		t.Errorf("expected exit 1 without a password, got %d", code)
	}
	if !strings.Contains(errOut.String(), "usage:") {
		t.Errorf("expected usage on stderr, got %q", errOut.String())
	}
}
