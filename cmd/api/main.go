// Command api is the Trakt List API server.
//
// Usage:
//
//	traktlist-api
//	API_PORT=8080 CACHE_BACKEND=postgres traktlist-api

// @title Trakt List API
// @version 1.0.0
// @description Normalizes Trakt collections, watchlists, watched lists and custom lists into flat entries with a title, a canonical url and per-kind id fields.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name traktlist
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/traktlist/internal/api"
	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/listener"
	"github.com/albapepper/traktlist/internal/lists"
	"github.com/albapepper/traktlist/internal/logging"
	"github.com/albapepper/traktlist/internal/maintenance"
	"github.com/albapepper/traktlist/internal/trakt"

	_ "github.com/albapepper/traktlist/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger, closeLog := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closeLog()
	slog.SetDefault(logger)
	if cfg.TraktClientID == "" {
		logger.Warn("TRAKT_CLIENT_ID is not set; Trakt will reject requests")
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open the list cache backend
	store, closeStore, err := lists.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open list cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	client := trakt.NewClient(trakt.Options{
		BaseURL:           cfg.TraktAPIURL,
		ClientID:          cfg.TraktClientID,
		RequestsPerMinute: cfg.TraktRequestsPerMinute,
		RetryAttempts:     uint(cfg.TraktRetryAttempts),
		Timeout:           cfg.TraktTimeout,
	}, logger)
	svc := lists.New(client, store, lists.Options{
		CacheTTL:     cfg.ListCacheTTL,
		SiteURL:      cfg.TraktSiteURL,
		FetchTimeout: cfg.TraktTimeout * time.Duration(cfg.TraktRetryAttempts+1),
	}, logger)

	// Response cache (encoded JSON + ETag)
	appCache := cache.New(true)
	logger.Info("Response cache initialized", "ttl", cfg.ListCacheTTL)

	// Sweep expired entries from the response cache and the list cache
	evictors := []cache.Evictor{appCache}
	if ev, ok := store.(cache.Evictor); ok {
		evictors = append(evictors, ev)
	}
	go maintenance.Start(ctx, maintenance.Config{CleanupInterval: cfg.CleanupInterval}, logger, evictors...)

	// Replicas sharing the postgres cache drop their response caches when it is purged
	if cfg.CacheBackend == config.CachePostgres {
		go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)
	}

	router := api.NewRouter(svc, store, appCache, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.TraktTimeout*time.Duration(cfg.TraktRetryAttempts) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Trakt List API",
			"addr", addr,
			"environment", cfg.Environment,
			"cache_backend", cfg.CacheBackend,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
