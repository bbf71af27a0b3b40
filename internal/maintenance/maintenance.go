// Package maintenance runs periodic background tasks as Go tickers.
// Cache backends keep expired entries until they are swept here.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/traktlist/internal/cache"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Expired list cache rows
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 30 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Each tick sweeps every
// evictor in turn. Blocks until ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, cfg Config, logger *slog.Logger, evictors ...cache.Evictor) {
	logger.Info("Maintenance tickers started", "cleanup", cfg.CleanupInterval, "caches", len(evictors))

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CleanupInterval > 0 && len(evictors) > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			for _, ev := range evictors {
				Sweep(ctx, ev, logger)
			}
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// Sweep removes expired list cache rows once and reports how many went.
func Sweep(ctx context.Context, evictor cache.Evictor, logger *slog.Logger) (int64, error) {
	start := time.Now()
	n, err := evictor.EvictExpired(ctx)
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Cleanup: failed to evict expired cache rows", "duration", dur, "error", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("Cleanup: evicted expired cache rows", "count", n, "duration", dur)
	}
	return n, nil
}
