// Package db provides a pgxpool-based connection pool with schema setup,
// prepared statement registration and health checking. It backs the postgres
// list cache.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/traktlist/internal/config"
)

// CacheTable holds cached list responses.
const CacheTable = "list_cache"

// PurgeChannel is the LISTEN/NOTIFY channel announcing a full cache purge.
const PurgeChannel = "list_cache_purged"

// PurgeEvent is the JSON payload sent on PurgeChannel.
type PurgeEvent struct {
	Count     int64 `json:"count"`
	Timestamp int64 `json:"ts"`
}

const schema = `
CREATE TABLE IF NOT EXISTS ` + CacheTable + ` (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ` + CacheTable + `_expires_at ON ` + CacheTable + ` (expires_at);`

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Ensure the schema exists, then register prepared statements on every
	// new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, schema); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the cache layer uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// List cache
		"cache_load": "SELECT data FROM " + CacheTable + " WHERE key = $1 AND expires_at > NOW()",
		"cache_save": "INSERT INTO " + CacheTable + " (key, data, expires_at) VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond') " +
			"ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = NOW()",
		"cache_evict_expired": "DELETE FROM " + CacheTable + " WHERE expires_at <= NOW()",
		"cache_purge":         "DELETE FROM " + CacheTable,
		"cache_notify_purge":  "SELECT pg_notify('" + PurgeChannel + "', $1)",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
