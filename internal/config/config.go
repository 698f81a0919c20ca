package config

import (
	"os"
	"strconv"
)

// Config captures the tunable parameters for the server process. Values
// come from environment variables with defaults that let the binary run
// locally against SQLite without any setup.
type Config struct {
	HTTPAddr string

	DBDriver string // "sqlite3" or "postgres"
	DBDSN    string

	CookieSecret string

	// Login attempts allowed per client per minute.
	LoginRatePerMin int
	LoginBurst      int
}

func Load() Config {
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		DBDriver:        getenv("DB_DRIVER", "sqlite3"),
		DBDSN:           getenv("DB_DSN", "ridepool.db"),
		CookieSecret:    getenv("COOKIE_SECRET", "dev-secret-change-me"),
		LoginRatePerMin: getenvInt("LOGIN_RATE_PER_MIN", 10),
		LoginBurst:      getenvInt("LOGIN_BURST", 5),
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
