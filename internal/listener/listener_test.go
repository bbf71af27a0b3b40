package listener

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/traktlist/internal/cache"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestHandlePurge(t *testing.T) {
	ctx := context.Background()
	local := cache.New(true)
	local.Set("trakt_list:abc:response", []byte(`{}`), time.Hour)

	handlePurge(ctx, `{"count": 3, "ts": 1700000000}`, local, quiet)

	_, ok, _ := local.Load(ctx, "trakt_list:abc:response")
	assert.False(t, ok)
}

func TestHandlePurgeMalformedPayload(t *testing.T) {
	ctx := context.Background()
	local := cache.New(true)
	local.Set("k", []byte(`{}`), time.Hour)

	handlePurge(ctx, `not json`, local, quiet)

	_, ok, _ := local.Load(ctx, "k")
	assert.False(t, ok)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Start(ctx, "postgres://invalid:1/none", cache.New(false), quiet)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
