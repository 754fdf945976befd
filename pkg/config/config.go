// Package config loads client configuration from a .env file and the
// environment. Command-line flags take precedence over everything here.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the storefront client configuration.
type Config struct {
	// APIURL is the base URL of the storefront REST API.
	APIURL string
	// StatePath is the SQLite file holding persisted client state
	// (session credential, remembered settings).
	StatePath string
	// LogPath optionally tees logs to a file.
	LogPath string
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional; only complain about real errors.
		if _, ok := err.(*os.PathError); !ok {
			slog.Warn("loading .env file", "error", err)
		}
	}

	return &Config{
		APIURL:    getEnv("VITRINE_API_URL", "http://localhost:8080"),
		StatePath: getEnv("VITRINE_STATE_PATH", defaultStatePath()),
		LogPath:   getEnv("VITRINE_LOG_PATH", ""),
	}
}

// defaultStatePath places the state database under the user config dir,
// falling back to the working directory when that cannot be resolved.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vitrine.sqlite3"
	}
	return filepath.Join(dir, "vitrine", "state.sqlite3")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
