package db

import (
	"database/sql"
	"fmt"
)

// schema is the full client state schema. The settings table holds one row
// per key; the session token lives under a single well-known key so a new
// login overwrites the previous credential.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrate creates the schema and applies any pending migrations.
// Each migration must be idempotent. Append new migrations at the end.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

var migrations = []string{
	// Migration 1: earlier versions stored the token in its own table;
	// fold it into settings and drop the old table.
	`DROP TABLE IF EXISTS credentials`,
}
