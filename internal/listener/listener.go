// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps each
// API replica's in-memory response cache in step with the shared postgres
// list cache. It holds a dedicated pgx connection (not from the pool)
// listening on db.PurgeChannel.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/db"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Start opens a dedicated connection and listens for purge events, dropping
// every entry of local on each one. It reconnects automatically on
// connection loss. Blocks until ctx is cancelled. Intended to be called
// with `go`.
func Start(ctx context.Context, dbURL string, local cache.Purger, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, local, logger)
		if ctx.Err() != nil {
			logger.Info("Purge listener stopped (context cancelled)")
			return
		}

		logger.Error("Purge listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, local cache.Purger, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+db.PurgeChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", db.PurgeChannel, err)
	}
	logger.Info("Purge listener connected", "channel", db.PurgeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		handlePurge(ctx, notification.Payload, local, logger)
	}
}

// handlePurge clears the local cache. A malformed payload still purges;
// the event itself is the signal.
func handlePurge(ctx context.Context, payload string, local cache.Purger, logger *slog.Logger) {
	var event db.PurgeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse purge event", "payload", payload, "error", err)
	}

	n, err := local.Purge(ctx)
	if err != nil {
		logger.Warn("Failed to purge response cache", "error", err)
		return
	}
	logger.Info("Response cache purged after shared cache purge",
		"shared_rows", event.Count,
		"local_entries", n,
		"purged_at", time.Unix(event.Timestamp, 0).UTC().Format(time.RFC3339))
}
