package lists

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/normalize"
	"github.com/albapepper/traktlist/internal/trakt"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const watchlistFeed = `[
	{"type": "movie", "movie": {"title": "Alien", "year": 1979, "ids": {"trakt": 1, "slug": "alien-1979", "imdb": "tt0078748"}}},
	{"type": "show", "show": {"title": "Dark", "year": 2017, "ids": {"slug": "dark"}}}
]`

type fakeRetriever struct {
	mu    sync.Mutex
	calls atomic.Int32
	feeds map[string]string
	err   error
	gate  chan struct{}
	last  trakt.ListRequest
}

func (f *fakeRetriever) FetchList(ctx context.Context, req trakt.ListRequest) ([]normalize.Record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", trakt.ErrRetrieve, ctx.Err())
		}
	}
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", trakt.ErrRetrieve, f.err)
	}
	feed, ok := f.feeds[req.List]
	if !ok {
		feed = watchlistFeed
	}
	var records []normalize.Record
	if err := json.Unmarshal([]byte(feed), &records); err != nil {
		return nil, err
	}
	return records, nil
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (brokenStore) Save(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk on fire")
}

func movieWatchlist() config.ListConfig {
	return config.ListConfig{Username: "alice", ListType: "movies", List: "watchlist"}
}

func TestFetchNormalizesAndFilters(t *testing.T) {
	svc := New(&fakeRetriever{}, nil, Options{}, quiet)

	res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Alien (1979)", res.Items[0].Title())
	assert.Equal(t, "http://trakt.tv/movies/alien-1979", res.Items[0].URL())
	assert.Equal(t, 2, res.Stats.Received)
	assert.Equal(t, 1, res.Stats.Mismatched)
	assert.False(t, res.Cached)
}

func TestFetchStripDatesAndSiteURL(t *testing.T) {
	svc := New(&fakeRetriever{}, nil, Options{SiteURL: "https://trakt.example"}, quiet)
	cfg := movieWatchlist()
	cfg.StripDates = true

	res, err := svc.Fetch(context.Background(), cfg, FetchOptions{})

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Alien", res.Items[0].Title())
	assert.Equal(t, "https://trakt.example/movies/alien-1979", res.Items[0].URL())
}

func TestFetchPassesRequestThrough(t *testing.T) {
	r := &fakeRetriever{}
	svc := New(r, nil, Options{}, quiet)

	_, err := svc.Fetch(context.Background(), config.ListConfig{
		Username: "bob", Password: "tok", ListType: "shows", List: "Favourites",
	}, FetchOptions{})

	require.NoError(t, err)
	assert.Equal(t, trakt.ListRequest{Username: "bob", Password: "tok", ListType: "shows", List: "Favourites"}, r.last)
}

func TestFetchRejectsInvalidConfig(t *testing.T) {
	r := &fakeRetriever{}
	svc := New(r, nil, Options{}, quiet)

	_, err := svc.Fetch(context.Background(), config.ListConfig{Username: "a", ListType: "episodes", List: "collection"}, FetchOptions{})

	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestFetchRetrievalError(t *testing.T) {
	svc := New(&fakeRetriever{err: errors.New("boom")}, cache.New(true), Options{}, quiet)

	_, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	assert.ErrorIs(t, err, trakt.ErrRetrieve)
}

func TestFetchServesFromCache(t *testing.T) {
	r := &fakeRetriever{}
	svc := New(r, cache.New(true), Options{}, quiet)
	ctx := context.Background()

	first, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{})
	require.NoError(t, err)
	second, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), r.calls.Load())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Items, second.Items)
}

func TestFetchNoCacheRefreshes(t *testing.T) {
	r := &fakeRetriever{}
	svc := New(r, cache.New(true), Options{}, quiet)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{})
	require.NoError(t, err)
	res, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{NoCache: true})
	require.NoError(t, err)

	assert.Equal(t, int32(2), r.calls.Load())
	assert.False(t, res.Cached)
}

func TestFetchCachesEmptyList(t *testing.T) {
	r := &fakeRetriever{feeds: map[string]string{"watchlist": `[]`}}
	svc := New(r, cache.New(true), Options{}, quiet)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{})
	require.NoError(t, err)
	res, err := svc.Fetch(ctx, movieWatchlist(), FetchOptions{})
	require.NoError(t, err)

	assert.True(t, res.Cached)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestFetchBypassesBrokenCache(t *testing.T) {
	svc := New(&fakeRetriever{}, brokenStore{}, Options{}, quiet)

	res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.False(t, res.Cached)
}

func TestFetchDiscardsCorruptCacheEntry(t *testing.T) {
	store := cache.New(true)
	require.NoError(t, store.Save(context.Background(), CacheKey(movieWatchlist()), []byte("not json"), time.Hour))
	r := &fakeRetriever{}
	svc := New(r, store, Options{}, quiet)

	res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestFetchCollapsesConcurrentRequests(t *testing.T) {
	r := &fakeRetriever{gate: make(chan struct{})}
	svc := New(r, cache.New(true), Options{}, quiet)

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	assert.Equal(t, int32(1), r.calls.Load())
	for _, res := range results {
		assert.Len(t, res.Items, 1)
	}
}

func TestFetchSurvivesAnotherCallerCancelling(t *testing.T) {
	r := &fakeRetriever{gate: make(chan struct{})}
	svc := New(r, cache.New(true), Options{}, quiet)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Fetch(ctxA, movieWatchlist(), FetchOptions{})
		errA <- err
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	type outcome struct {
		res Result
		err error
	}
	doneB := make(chan outcome, 1)
	go func() {
		res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})
		doneB <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(r.gate)
	select {
	case b := <-doneB:
		require.NoError(t, b.err)
		assert.Len(t, b.res.Items, 1)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestFetchTimeoutBoundsSharedRetrieval(t *testing.T) {
	r := &fakeRetriever{gate: make(chan struct{})}
	svc := New(r, nil, Options{FetchTimeout: 10 * time.Millisecond}, quiet)

	_, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	assert.ErrorIs(t, err, trakt.ErrRetrieve)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchEmptyListWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := New(&fakeRetriever{feeds: map[string]string{"watchlist": `[]`}}, nil, Options{}, logger)

	res, err := svc.Fetch(context.Background(), movieWatchlist(), FetchOptions{})

	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"))
	assert.Contains(t, buf.String(), "list_type=movie")
	assert.Contains(t, buf.String(), "list=watchlist")
	assert.Contains(t, buf.String(), "username=alice")
}

func TestCacheKey(t *testing.T) {
	a := movieWatchlist()
	b := movieWatchlist()
	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.Regexp(t, `^trakt_list:[0-9a-f]{32}$`, CacheKey(a))

	b.StripDates = true
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
	b = movieWatchlist()
	b.Password = "secret"
	assert.NotEqual(t, CacheKey(a), CacheKey(b))

	// Field boundaries are unambiguous.
	c := config.ListConfig{Username: "a|b", ListType: "movies", List: "c"}
	d := config.ListConfig{Username: "a", ListType: "movies", List: "b|c"}
	assert.NotEqual(t, CacheKey(c), CacheKey(d))
}

func TestFetchMany(t *testing.T) {
	r := &fakeRetriever{feeds: map[string]string{
		"collection": `[{"type": "show", "show": {"title": "Dark", "ids": {"slug": "dark"}}}]`,
	}}
	svc := New(r, nil, Options{}, quiet)

	out := svc.FetchMany(context.Background(), []config.ListConfig{
		movieWatchlist(),
		{Username: "alice", ListType: "shows", List: "collection"},
		{Username: "alice", ListType: "bogus", List: "watchlist"},
	}, 2)

	require.Len(t, out.Lists, 3)
	assert.NoError(t, out.Lists[0].Err)
	assert.Len(t, out.Lists[0].Result.Items, 1)
	assert.NoError(t, out.Lists[1].Err)
	assert.Equal(t, "Dark", out.Lists[1].Result.Items[0].Title())
	assert.Error(t, out.Lists[2].Err)
	assert.Equal(t, "bogus", out.Lists[2].Config.ListType)
	assert.Equal(t, 1, out.Failed())
	assert.Equal(t, "lists=3 failed=1 cached=0 items=2", out.Summary())
}
