// Package store provides persistence for watchlists, tracked items, and run
// results. The pipeline depends only on the Store interface; the backing
// technology is a collaborator detail.
package store

import (
	"context"
	"fmt"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// Store is the storage collaborator consumed by the pipeline runner and the
// monitoring job.
type Store interface {
	// ListActiveWatchlists returns all watchlists eligible for monitoring.
	ListActiveWatchlists(ctx context.Context) ([]types.Watchlist, error)
	// GetWatchlist returns a watchlist with its items, or nil if not found.
	GetWatchlist(ctx context.Context, id string) (*types.Watchlist, error)
	// GetItem returns a tracked item, or nil if not found.
	GetItem(ctx context.Context, id string) (*types.TrackedItem, error)
	// SaveItem persists an item, replacing any existing record with the same id.
	SaveItem(ctx context.Context, item types.TrackedItem) error
	// RecordRun persists the outcome of a completed pipeline run.
	RecordRun(ctx context.Context, run types.PipelineRun) error
}

// NotFoundError indicates a referenced record has vanished. A missing
// watchlist mid-run is a run-level precondition failure.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
