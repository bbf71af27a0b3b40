// Package lists ties the Trakt retriever, the list cache and the normalizer
// together: it validates a list configuration, serves raw records from cache
// when possible, and returns normalized items.
package lists

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/normalize"
	"github.com/albapepper/traktlist/internal/trakt"
)

// CacheNamespace prefixes every list cache key.
const CacheNamespace = "trakt_list"

// DefaultFetchTimeout bounds one shared retrieval, retries included.
const DefaultFetchTimeout = 2 * time.Minute

// Retriever fetches the raw records of one list.
type Retriever interface {
	FetchList(ctx context.Context, req trakt.ListRequest) ([]normalize.Record, error)
}

// Options configures a Service.
type Options struct {
	CacheTTL     time.Duration
	SiteURL      string
	FetchTimeout time.Duration
}

// Service retrieves and normalizes lists. It is safe for concurrent use;
// concurrent requests for the same list share one retrieval.
type Service struct {
	retriever Retriever
	store     cache.Store
	ttl       time.Duration
	timeout   time.Duration
	siteURL   string
	logger    *slog.Logger
	group     singleflight.Group
}

// New creates a Service. store may be nil to disable caching.
func New(retriever Retriever, store cache.Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = config.DefaultListCacheTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Service{
		retriever: retriever,
		store:     store,
		ttl:       opts.CacheTTL,
		timeout:   opts.FetchTimeout,
		siteURL:   opts.SiteURL,
		logger:    logger,
	}
}

// FetchOptions tweaks a single Fetch call.
type FetchOptions struct {
	// NoCache bypasses cache reads; the fresh result is still stored.
	NoCache bool
}

// Result is the outcome of one list fetch.
type Result struct {
	Items  []normalize.Item
	Stats  normalize.Stats
	Cached bool
}

// Fetch retrieves the list described by cfg and normalizes it.
// Only configuration and retrieval failures are returned as errors.
func (s *Service) Fetch(ctx context.Context, cfg config.ListConfig, opts FetchOptions) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	key := CacheKey(cfg)
	records, cached, err := s.records(ctx, key, cfg, opts)
	if err != nil {
		return Result{}, err
	}

	logger := s.logger.With("username", cfg.Username, "list", cfg.List)
	items, stats := normalize.Normalize(records, normalize.Options{
		ListType:   cfg.Kind(),
		StripDates: cfg.StripDates,
		SiteURL:    s.siteURL,
	}, logger)
	logger.Debug("List normalized", "cached", cached, "summary", stats.Summary())

	return Result{Items: items, Stats: stats, Cached: cached}, nil
}

type fetched struct {
	records []normalize.Record
	cached  bool
}

// records returns the raw records for key, sharing one retrieval between
// concurrent callers. The shared retrieval runs detached from any single
// caller's context; each caller stops waiting when its own ctx ends.
func (s *Service) records(ctx context.Context, key string, cfg config.ListConfig, opts FetchOptions) ([]normalize.Record, bool, error) {
	flightKey := key
	if opts.NoCache {
		flightKey += ":fresh"
	}
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		if !opts.NoCache {
			if records, ok := s.load(ctx, key); ok {
				return fetched{records: records, cached: true}, nil
			}
		}

		records, err := s.retriever.FetchList(ctx, trakt.ListRequest{
			Username: cfg.Username,
			Password: cfg.Password,
			ListType: cfg.ListType,
			List:     cfg.List,
		})
		if err != nil {
			return nil, err
		}
		s.save(ctx, key, records)
		return fetched{records: records}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		f := res.Val.(fetched)
		return f.records, f.cached, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// load reads raw records from the cache. Cache faults are logged and treated
// as misses.
func (s *Service) load(ctx context.Context, key string) ([]normalize.Record, bool) {
	if s.store == nil {
		return nil, false
	}
	data, ok, err := s.store.Load(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var records []normalize.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return records, true
}

func (s *Service) save(ctx context.Context, key string, records []normalize.Record) {
	if s.store == nil {
		return
	}
	if records == nil {
		records = []normalize.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("Could not encode records for cache", "key", key, "error", err)
		return
	}
	if err := s.store.Save(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// CacheKey derives the cache key from the full list configuration, so any
// change to it (including credentials) selects a different entry.
func CacheKey(cfg config.ListConfig) string {
	id := fmt.Sprintf("%q|%q|%q|%q|%t", cfg.Username, cfg.Password, cfg.ListType, cfg.List, cfg.StripDates)
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%s:%s", CacheNamespace, hex.EncodeToString(sum[:16]))
}
