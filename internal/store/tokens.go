package store

import (
	"context"
	"database/sql"
)

// tokenKey is the single settings key holding the session credential.
// A new login overwrites it; logout removes it.
const tokenKey = "session_token"

// SaveToken persists the session token, replacing any previous one.
func SaveToken(ctx context.Context, db *sql.DB, token string) error {
	return SetSetting(ctx, db, tokenKey, token)
}

// LoadToken returns the persisted session token, or "" if none is stored.
func LoadToken(ctx context.Context, db *sql.DB) (string, error) {
	return GetSetting(ctx, db, tokenKey)
}

// DeleteToken removes the persisted session token. Idempotent.
func DeleteToken(ctx context.Context, db *sql.DB) error {
	return DeleteSetting(ctx, db, tokenKey)
}
