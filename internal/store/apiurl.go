package store

import (
	"context"
	"database/sql"
)

// apiURLKey remembers the API base URL across runs so the flag only has to
// be passed once.
const apiURLKey = "api_url"

// SaveAPIURL persists the API base URL, replacing any previous one.
func SaveAPIURL(ctx context.Context, db *sql.DB, url string) error {
	return SetSetting(ctx, db, apiURLKey, url)
}

// LoadAPIURL returns the remembered API base URL, or "" if none is stored.
func LoadAPIURL(ctx context.Context, db *sql.DB) (string, error) {
	return GetSetting(ctx, db, apiURLKey)
}
