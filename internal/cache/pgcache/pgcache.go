// Package pgcache is a Postgres-backed cache.Store, shared by every API
// replica pointed at the same database.
package pgcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/traktlist/internal/db"
)

// Store is a cache.Store over the list_cache table.
type Store struct {
	pool *db.Pool
}

// New wraps a connection pool created by db.New, which owns the schema and
// the prepared statements used here.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// Ping runs the prepared health check query.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.HealthCheck(ctx)
}

// Load returns the cached value for key if it has not expired.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "cache_load", key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cache key %q: %w", key, err)
	}
	return data, true, nil
}

// Save stores data under key for ttl.
func (s *Store) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if _, err := s.pool.Exec(ctx, "cache_save", key, data, ttl.Milliseconds()); err != nil {
		return fmt.Errorf("save cache key %q: %w", key, err)
	}
	return nil
}

// EvictExpired deletes expired rows and returns how many were removed.
func (s *Store) EvictExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "cache_evict_expired")
	if err != nil {
		return 0, fmt.Errorf("evict expired cache rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Purge deletes every row and notifies listeners on db.PurgeChannel once the
// delete commits.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "cache_purge")
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	payload, err := json.Marshal(db.PurgeEvent{Count: tag.RowsAffected(), Timestamp: time.Now().Unix()})
	if err != nil {
		return 0, fmt.Errorf("encode purge event: %w", err)
	}
	if _, err := tx.Exec(ctx, "cache_notify_purge", string(payload)); err != nil {
		return 0, fmt.Errorf("notify purge: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
