// Package pipeline orchestrates the re-evaluation of a watchlist: fetching
// current snapshots, diffing them against prior observations, and deciding
// which notifications to send.
package pipeline

import "fmt"

// PreconditionError indicates a run-level precondition failed, such as the
// watchlist vanishing mid-run. The whole run fails; sibling watchlists are
// unaffected.
type PreconditionError struct {
	WatchlistID string
	Message     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("run precondition failed for watchlist %s: %s", e.WatchlistID, e.Message)
}
