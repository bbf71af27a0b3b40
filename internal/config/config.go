// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/traktlist.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Cache backends
// --------------------------------------------------------------------------

const (
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
)

// DefaultListCacheTTL is how long a retrieved list is served from cache.
const DefaultListCacheTTL = 2 * time.Hour

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Trakt
	TraktAPIURL            string
	TraktSiteURL           string
	TraktClientID          string
	TraktRequestsPerMinute int
	TraktRetryAttempts     int
	TraktTimeout           time.Duration

	// List cache
	CacheBackend    string // memory, sqlite, postgres
	CachePath       string // SQLite file
	ListCacheTTL    time.Duration
	CleanupInterval time.Duration

	// Database (postgres cache backend)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		TraktAPIURL:            strings.TrimRight(envOr("TRAKT_API_URL", "https://api.trakt.tv"), "/"),
		TraktSiteURL:           strings.TrimRight(envOr("TRAKT_SITE_URL", "http://trakt.tv"), "/"),
		TraktClientID:          envOr("TRAKT_CLIENT_ID", ""),
		TraktRequestsPerMinute: envInt("TRAKT_REQUESTS_PER_MINUTE", 60),
		TraktRetryAttempts:     envInt("TRAKT_RETRY_ATTEMPTS", 3),
		TraktTimeout:           envDuration("TRAKT_TIMEOUT", 30*time.Second),

		CacheBackend:    strings.ToLower(envOr("CACHE_BACKEND", CacheSQLite)),
		CachePath:       envOr("CACHE_PATH", "traktlist-cache.db"),
		ListCacheTTL:    envDuration("LIST_CACHE_TTL", DefaultListCacheTTL),
		CleanupInterval: envDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFile:  envOr("LOG_FILE", ""),
	}

	switch cfg.CacheBackend {
	case CacheMemory, CacheSQLite:
	case CachePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when CACHE_BACKEND=%s", CachePostgres)
		}
	default:
		return nil, fmt.Errorf("CACHE_BACKEND must be one of %s, %s, %s; got %q",
			CacheMemory, CacheSQLite, CachePostgres, cfg.CacheBackend)
	}
	if cfg.TraktRetryAttempts < 1 {
		cfg.TraktRetryAttempts = 1
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
