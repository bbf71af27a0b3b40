package lists

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/albapepper/traktlist/internal/config"
)

// DefaultWorkers bounds concurrent list fetches in FetchMany.
const DefaultWorkers = 4

// ListOutcome is the result for one entry of a batch.
type ListOutcome struct {
	Config config.ListConfig
	Result Result
	Err    error
}

// BatchResult holds per-list outcomes in input order.
type BatchResult struct {
	Lists []ListOutcome
}

// Failed counts lists that returned an error.
func (b BatchResult) Failed() int {
	n := 0
	for _, l := range b.Lists {
		if l.Err != nil {
			n++
		}
	}
	return n
}

// Summary returns a one-line description of the batch.
func (b BatchResult) Summary() string {
	items := 0
	cached := 0
	for _, l := range b.Lists {
		items += len(l.Result.Items)
		if l.Result.Cached {
			cached++
		}
	}
	return fmt.Sprintf("lists=%d failed=%d cached=%d items=%d", len(b.Lists), b.Failed(), cached, items)
}

// FetchMany fetches every list with at most workers in flight. A failing list
// does not stop the others.
func (s *Service) FetchMany(ctx context.Context, cfgs []config.ListConfig, workers int) BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := BatchResult{Lists: make([]ListOutcome, len(cfgs))}
	p := pool.New().WithMaxGoroutines(workers)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		p.Go(func() {
			res, err := s.Fetch(ctx, cfg, FetchOptions{})
			if err != nil {
				s.logger.Error("List fetch failed", "username", cfg.Username, "list", cfg.List, "error", err)
			}
			out.Lists[i] = ListOutcome{Config: cfg, Result: res, Err: err}
		})
	}
	p.Wait()

	s.logger.Info("Batch complete", "summary", out.Summary())
	return out
}
