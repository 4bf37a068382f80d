package main

import (
	"context"
	"fmt"

	"github.com/jonathan/watchlist-monitor/internal/config"
	"github.com/jonathan/watchlist-monitor/internal/fetch"
	"github.com/jonathan/watchlist-monitor/internal/notify"
	"github.com/jonathan/watchlist-monitor/internal/pipeline"
	"github.com/jonathan/watchlist-monitor/internal/policy"
	"github.com/jonathan/watchlist-monitor/internal/scheduler"
	"github.com/jonathan/watchlist-monitor/internal/store"
)

// backend bundles the storage collaborators a command needs. The watchlist
// store and the scheduled job store are usually the same object.
type backend struct {
	store store.Store
	jobs  scheduler.JobStore
	close func()
}

// openBackend selects the storage mode: a --watchlists file loads into an
// in-memory store, otherwise a PostgreSQL connection is opened from the
// configured database URL.
func openBackend(ctx context.Context, cfg *config.Config, watchlistsPath string) (*backend, error) {
	if watchlistsPath != "" {
		watchlists, err := loadWatchlistFile(watchlistsPath)
		if err != nil {
			return nil, err
		}
		ms := store.NewMemoryStore()
		for _, wl := range watchlists {
			ms.PutWatchlist(wl)
		}
		return &backend{store: ms, jobs: ms, close: func() {}}, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("either --watchlists or a database URL (--db-url flag or DATABASE_URL env var) is required")
	}

	ps, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &backend{store: ps, jobs: ps, close: ps.Close}, nil
}

// buildRunner wires the pipeline runner from configuration: fetcher, change
// policy, and notification dispatcher.
func buildRunner(cfg *config.Config, st store.Store) (*pipeline.Runner, error) {
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.FetchTimeout()
	fetchOpts.UseBrowser = cfg.UseBrowser
	fetchOpts.Verbose = cfg.Verbose
	fetcher := fetch.NewHTTPFetcher(fetchOpts)

	pol := policy.New(policy.Config{MajorDropPercent: cfg.MajorDropPercent})

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to set up telegram delivery: %w", err)
		}
		notifier = tg
	}
	dispatcher := notify.NewDispatcher(notifier)

	runner := pipeline.NewRunner(st, fetcher, pol, dispatcher, pipeline.Options{
		FetchTimeout: cfg.FetchTimeout(),
		Concurrency:  cfg.Concurrency,
		Verbose:      cfg.Verbose,
	})
	return runner, nil
}
