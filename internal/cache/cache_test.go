package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := New(true)

	etag := c.Set("k", []byte(`{"a":1}`), time.Minute)
	data, got, ok := c.Get("k")

	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, etag, got)
	assert.Equal(t, ComputeETag([]byte(`{"a":1}`)), etag)
}

var _ Evictor = (*Cache)(nil)

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(true)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("short", []byte("v"), time.Minute)
	c.Set("long", []byte("v"), time.Hour)

	clock = clock.Add(time.Minute)
	_, _, ok := c.Get("short")
	assert.False(t, ok, "entries expire at their deadline")
	_, _, ok = c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, Stats{Enabled: true, TotalKeys: 2, ActiveKeys: 1, ExpiredKeys: 1}, c.Stats())

	n, err := c.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, Stats{Enabled: true, TotalKeys: 1, ActiveKeys: 1}, c.Stats())

	n, err = c.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheDisabled(t *testing.T) {
	c := New(false)

	etag := c.Set("k", []byte("v"), time.Minute)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, ComputeETag([]byte("v")), etag)
	assert.Zero(t, c.Stats().TotalKeys)
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	var s Store = New(true)

	_, ok, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "k", []byte("v"), time.Minute))
	data, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(data))

	n, err := s.(*Cache).Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok, _ = s.Load(ctx, "k")
	assert.False(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"   ", false},
		{"*", true},
		{`W/"x"`, true},
		{`"x"`, true},
		{`W/"y"`, false},
		{`W/"y", W/"x"`, true},
		{`"a","b"`, false},
		{`W/"xx"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckETagMatch(tt.header, `W/"x"`))
		})
	}
}
