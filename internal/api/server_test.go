package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/lists"
	"github.com/albapepper/traktlist/internal/normalize"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticLister struct{}

func (staticLister) Fetch(context.Context, config.ListConfig, lists.FetchOptions) (lists.Result, error) {
	return lists.Result{Items: []normalize.Item{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		CacheBackend:      config.CacheMemory,
		ListCacheTTL:      time.Hour,
		CORSAllowOrigins:  []string{"http://localhost:3000"},
		RateLimitEnabled:  true,
		RateLimitRequests: 4,
		RateLimitWindow:   time.Minute,
	}
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(staticLister{}, nil, cache.New(true), testConfig(), quiet)

	for i, path := range []string{"/", "/health", "/health/cache", "/health/store", "/api/v1/lists/alice/movies/watchlist"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = fmt.Sprintf("10.0.1.%d:1234", i+1)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Process-Time"), path)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.3:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimingMiddlewareSetsHeaderBeforeBody(t *testing.T) {
	h := TimingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Regexp(t, `^\d+\.\d{2}ms$`, rec.Header().Get("X-Process-Time"))
	assert.Equal(t, "ok", rec.Body.String())
}
