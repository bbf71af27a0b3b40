// Package handler provides HTTP handlers for all API endpoints.
// List handlers delegate retrieval and normalization to the lists service
// and cache the encoded response with an ETag.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/traktlist/internal/api/respond"
	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/lists"
)

// Lister fetches and normalizes one list. *lists.Service satisfies it.
type Lister interface {
	Fetch(ctx context.Context, cfg config.ListConfig, opts lists.FetchOptions) (lists.Result, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	lists Lister
	store cache.Store
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies. store is the list cache
// backend, reported on /health/store; c caches encoded responses.
func New(l Lister, store cache.Store, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		lists: l,
		store: store,
		cache: c,
		cfg:   cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and available optimizations.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Trakt List API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"optimizations": []string{
			"list_cache_" + h.cfg.CacheBackend,
			"request_collapsing",
			"gzip_compression",
			"etag_support",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckStore verifies the list cache backend is reachable.
// @Summary List cache backend health check
// @Description Pings the sqlite or postgres list cache. The memory backend is always healthy.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/store [get]
func (h *Handler) HealthCheckStore(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(cache.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":    "unhealthy",
				"backend":   h.cfg.CacheBackend,
				"error":     "List cache backend check failed",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"backend":   h.cfg.CacheBackend,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns response cache statistics.
// @Summary Cache health check
// @Description Returns in-memory response cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
