package lists

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/cache/pgcache"
	"github.com/albapepper/traktlist/internal/cache/sqlitecache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/db"
)

// OpenStore opens the list cache backend selected by cfg.CacheBackend.
// The returned close function releases it and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		logger.Info("Using in-memory list cache")
		return cache.New(true), func() {}, nil

	case config.CacheSQLite:
		store, err := sqlitecache.Open(ctx, cfg.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		logger.Info("Using sqlite list cache", "path", cfg.CachePath)
		return store, func() { store.Close() }, nil

	case config.CachePostgres:
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres cache: %w", err)
		}
		logger.Info("Using postgres list cache")
		return pgcache.New(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}
