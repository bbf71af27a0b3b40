// Package cache provides the list cache collaborator: a Store interface with
// an in-memory TTL implementation (with ETag support for HTTP responses).
// Persistent backends live in the sqlitecache and pgcache subpackages.
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store persists opaque values under string keys with a time-to-live.
// A miss is reported as ok=false with a nil error.
type Store interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Evictor is implemented by stores that keep expired rows until swept.
type Evictor interface {
	EvictExpired(ctx context.Context) (int64, error)
}

// Pinger is implemented by stores backed by an external database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger drops every cached entry.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. It serves as the memory list
// cache backend and as the API's encoded-response cache, where every entry
// carries an ETag. Expired entries stay invisible to reads until
// EvictExpired removes them.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	now     func() time.Time
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
func New(enabled bool) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
	}
}

// Get returns a live entry and its ETag.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || !c.now().Before(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores data for ttl and returns its ETag. A disabled cache still
// computes the ETag so conditional requests keep working.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		data:      data,
		etag:      etag,
		expiresAt: c.now().Add(ttl),
	}
	return etag
}

// Load implements Store.
func (c *Cache) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, _, ok := c.Get(key)
	return data, ok, nil
}

// Save implements Store.
func (c *Cache) Save(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.Set(key, data, ttl)
	return nil
}

// EvictExpired implements Evictor.
func (c *Cache) EvictExpired(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	var n int64
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

// Purge implements Purger.
func (c *Cache) Purge(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.entries))
	c.entries = make(map[string]entry)
	return n, nil
}

// Stats describes the cache contents.
type Stats struct {
	Enabled     bool `json:"enabled"`
	TotalKeys   int  `json:"total_keys"`
	ActiveKeys  int  `json:"active_keys"`
	ExpiredKeys int  `json:"expired_keys"`
}

// Stats counts live and expired-but-unswept entries.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{Enabled: c.enabled, TotalKeys: len(c.entries)}
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			st.ActiveKeys++
		}
	}
	st.ExpiredKeys = st.TotalKeys - st.ActiveKeys
	return st
}

// --------------------------------------------------------------------------
// ETags
// --------------------------------------------------------------------------

// ComputeETag returns a weak ETag over data.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch reports whether an If-None-Match header selects etag.
// The header may list several tags; comparison is weak, so W/"x" and "x"
// match each other.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := opaqueTag(etag)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if opaqueTag(strings.TrimSpace(candidate)) == want {
			return true
		}
	}
	return false
}

func opaqueTag(tag string) string {
	return strings.TrimPrefix(tag, "W/")
}
