package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("LIST_CACHE_TTL", "")
	t.Setenv("TRAKT_API_URL", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://api.trakt.tv", cfg.TraktAPIURL)
	assert.Equal(t, "http://trakt.tv", cfg.TraktSiteURL)
	assert.Equal(t, CacheSQLite, cfg.CacheBackend)
	assert.Equal(t, DefaultListCacheTTL, cfg.ListCacheTTL)
	assert.Equal(t, 3, cfg.TraktRetryAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRAKT_API_URL", "http://localhost:9999/")
	t.Setenv("TRAKT_CLIENT_ID", "abc")
	t.Setenv("CACHE_BACKEND", "Memory")
	t.Setenv("LIST_CACHE_TTL", "15m")
	t.Setenv("TRAKT_RETRY_ATTEMPTS", "0")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.TraktAPIURL)
	assert.Equal(t, "abc", cfg.TraktClientID)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 15*time.Minute, cfg.ListCacheTTL)
	assert.Equal(t, 1, cfg.TraktRetryAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_BACKEND")

	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("LIST_CACHE_TTL", "two hours")
	t.Setenv("API_PORT", "eighty")
	t.Setenv("PORT", "")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultListCacheTTL, cfg.ListCacheTTL)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.True(t, cfg.RateLimitEnabled)
}
