// Command traktlist retrieves Trakt lists and prints normalized entries.
//
// Usage:
//
//	traktlist fetch --username alice --type movies --list watchlist
//	traktlist fetch --username bob --type shows --list "Sci-Fi & Horror" --password $TOKEN --strip-dates
//	traktlist batch lists.yaml --workers 4
//	traktlist cache evict
//	traktlist cache purge
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/lists"
	"github.com/albapepper/traktlist/internal/logging"
	"github.com/albapepper/traktlist/internal/maintenance"
	"github.com/albapepper/traktlist/internal/normalize"
	"github.com/albapepper/traktlist/internal/trakt"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "traktlist",
		Short:        "Retrieve and normalize Trakt lists",
		SilenceUsage: true,
	}

	root.AddCommand(fetchCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(cacheCmd())
	return root
}

// --------------------------------------------------------------------------
// fetch command
// --------------------------------------------------------------------------

func fetchCmd() *cobra.Command {
	var (
		lc      config.ListConfig
		noCache bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one list and print its entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, env *deps) error {
				start := time.Now()
				res, err := env.svc.Fetch(ctx, lc, lists.FetchOptions{NoCache: noCache})
				if err != nil {
					return err
				}
				env.logger.Info("Fetch finished",
					"list", lc.List,
					"cached", res.Cached,
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", res.Stats.Summary())
				return writeOutput(cmd.OutOrStdout(), format, res.Items)
			})
		},
	}
	cmd.Flags().StringVar(&lc.Username, "username", "", "Trakt username")
	cmd.Flags().StringVar(&lc.Password, "password", "", "Trakt OAuth token for private lists")
	cmd.Flags().StringVar(&lc.ListType, "type", "", "Item type (movies, shows, episodes)")
	cmd.Flags().StringVar(&lc.List, "list", "", "collection, watchlist, watched, or a custom list name")
	cmd.Flags().BoolVar(&lc.StripDates, "strip-dates", false, "Drop the trailing (YYYY) from titles")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached data and refetch")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("list")
	return cmd
}

// --------------------------------------------------------------------------
// batch command
// --------------------------------------------------------------------------

type batchEntry struct {
	Username string           `json:"username" yaml:"username"`
	ListType string           `json:"listType" yaml:"listType"`
	List     string           `json:"list" yaml:"list"`
	Count    int              `json:"count" yaml:"count"`
	Items    []normalize.Item `json:"items" yaml:"items"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func batchCmd() *cobra.Command {
	var (
		workers int
		format  string
	)
	cmd := &cobra.Command{
		Use:   "batch <lists.yaml>",
		Short: "Fetch every list in a YAML list file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgs, err := config.LoadListFile(args[0])
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, env *deps) error {
				start := time.Now()
				result := env.svc.FetchMany(ctx, cfgs, workers)
				env.logger.Info("Batch finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())

				out := make([]batchEntry, 0, len(result.Lists))
				for _, l := range result.Lists {
					e := batchEntry{
						Username: l.Config.Username,
						ListType: l.Config.ListType,
						List:     l.Config.List,
						Count:    len(l.Result.Items),
						Items:    l.Result.Items,
					}
					if l.Err != nil {
						e.Error = l.Err.Error()
					}
					out = append(out, e)
				}
				if err := writeOutput(cmd.OutOrStdout(), format, out); err != nil {
					return err
				}
				if n := result.Failed(); n > 0 {
					return fmt.Errorf("%d of %d lists failed", n, len(result.Lists))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", lists.DefaultWorkers, "Concurrent list fetches")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")
	return cmd
}

// --------------------------------------------------------------------------
// cache command
// --------------------------------------------------------------------------

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the list cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "evict",
		Short: "Remove expired entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, env *deps) error {
				ev, ok := env.store.(cache.Evictor)
				if !ok {
					return fmt.Errorf("cache backend %q does not support eviction", env.cfg.CacheBackend)
				}
				n, err := maintenance.Sweep(ctx, ev, env.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "evicted %d expired entries\n", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove every cached list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, env *deps) error {
				p, ok := env.store.(cache.Purger)
				if !ok {
					return fmt.Errorf("cache backend %q does not support purge", env.cfg.CacheBackend)
				}
				n, err := p.Purge(ctx)
				if err != nil {
					return fmt.Errorf("purge cache: %w", err)
				}
				env.logger.Info("Cache purged", "backend", env.cfg.CacheBackend, "count", n)
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

type deps struct {
	cfg    *config.Config
	logger *slog.Logger
	store  cache.Store
	svc    *lists.Service
}

// run handles config loading, logging, cache backend and context cancellation.
func run(fn func(ctx context.Context, env *deps) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr, File: cfg.LogFile})
	defer closeLog()

	store, closeStore, err := lists.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client := trakt.NewClient(trakt.Options{
		BaseURL:           cfg.TraktAPIURL,
		ClientID:          cfg.TraktClientID,
		RequestsPerMinute: cfg.TraktRequestsPerMinute,
		RetryAttempts:     uint(cfg.TraktRetryAttempts),
		Timeout:           cfg.TraktTimeout,
	}, logger)
	svc := lists.New(client, store, lists.Options{
		CacheTTL:     cfg.ListCacheTTL,
		SiteURL:      cfg.TraktSiteURL,
		FetchTimeout: cfg.TraktTimeout * time.Duration(cfg.TraktRetryAttempts+1),
	}, logger)

	return fn(ctx, &deps{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    svc,
	})
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (want json or yaml)", format)
}
