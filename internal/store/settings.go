package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

const sessionSecretKey = "session_secret"

// SessionSecret returns the HMAC key for admin session cookies. The first
// call on a fresh database creates it. When two processes start at once
// both try the insert, the first one wins and both read its row back.
func SessionSecret(ctx context.Context, db *sql.DB) (string, error) {
	secret, err := readSetting(ctx, db, sessionSecretKey)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("creating session key: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		sessionSecretKey, hex.EncodeToString(key),
	); err != nil {
		return "", fmt.Errorf("saving session key: %w", err)
	}
	return readSetting(ctx, db, sessionSecretKey)
}

func readSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, err
}
