// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start
type Config struct {
	// ListenAddr is the HTTP bind address, e.g. ":8080"
	ListenAddr string

	// PDSHost is the AT Protocol service endpoint
	PDSHost string

	// StoreDriver selects the collection store: "postgres" or "sqlite"
	StoreDriver string

	// DatabaseURL is the PostgreSQL connection string (postgres driver)
	DatabaseURL string

	// SQLitePath is the on-device database file (sqlite driver)
	SQLitePath string

	// SessionFile is where the Bluesky session tokens are persisted
	SessionFile string

	// CookieSecret signs the local UI cookie session
	CookieSecret string
}

// minCookieSecretLength guards against trivially forgeable cookies
const minCookieSecretLength = 32

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is fine; env vars may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:   getenv("SKYFRAME_ADDR", ":8080"),
		PDSHost:      getenv("SKYFRAME_PDS_HOST", "https://bsky.social"),
		StoreDriver:  getenv("SKYFRAME_STORE", "sqlite"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getenv("SKYFRAME_SQLITE_PATH", "data/skyframe.db"),
		SessionFile:  getenv("SKYFRAME_SESSION_FILE", "data/session.json"),
		CookieSecret: os.Getenv("SKYFRAME_COOKIE_SECRET"),
	}

	switch cfg.StoreDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when SKYFRAME_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown SKYFRAME_STORE %q (want sqlite or postgres)", cfg.StoreDriver)
	}

	if len(cfg.CookieSecret) < minCookieSecretLength {
		return nil, fmt.Errorf("SKYFRAME_COOKIE_SECRET must be at least %d bytes", minCookieSecretLength)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
