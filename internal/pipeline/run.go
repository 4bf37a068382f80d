package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/watchlist-monitor/internal/detect"
	"github.com/jonathan/watchlist-monitor/internal/fetch"
	"github.com/jonathan/watchlist-monitor/internal/notify"
	"github.com/jonathan/watchlist-monitor/internal/policy"
	"github.com/jonathan/watchlist-monitor/internal/store"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

// DefaultFetchTimeout bounds a single snapshot fetch; fetches are the only
// operations expected to block.
const DefaultFetchTimeout = 10 * time.Second

// DefaultConcurrency is the number of items evaluated concurrently within one
// watchlist run.
const DefaultConcurrency = 4

// Options configures a Runner.
type Options struct {
	FetchTimeout time.Duration
	Concurrency  int
	Verbose      bool
}

// Runner executes the evaluation pipeline for watchlists. All collaborators
// are injected; the Runner owns no ambient state beyond the per-item
// in-flight guard shared across overlapping runs.
type Runner struct {
	store      store.Store
	fetcher    fetch.Fetcher
	policy     *policy.Policy
	dispatcher *notify.Dispatcher
	opts       Options

	mu       sync.Mutex
	inFlight map[string]bool // item id -> evaluation in progress
}

// NewRunner creates a Runner with the given collaborators.
func NewRunner(st store.Store, fetcher fetch.Fetcher, pol *policy.Policy, dispatcher *notify.Dispatcher, opts Options) *Runner {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Runner{
		store:      st,
		fetcher:    fetcher,
		policy:     pol,
		dispatcher: dispatcher,
		opts:       opts,
		inFlight:   make(map[string]bool),
	}
}

// runState wraps the run context with a mutex so concurrent item evaluations
// can record steps and errors without interleaving.
type runState struct {
	mu  sync.Mutex
	run *types.PipelineRun
}

func (s *runState) completeStep(stage, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.RecordStep(fmt.Sprintf("%s:%s", stage, itemID))
}

func (s *runState) recordError(itemID, stage, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.RecordError(itemID, stage, reason)
}

func (s *runState) addNotifications(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.NotificationsSent += n
}

// EvaluateWatchlist runs the fetch -> analyze -> diff -> decide pipeline over
// every active item in the watchlist. Items are evaluated concurrently and
// isolated from each other: one item's failure is recorded and the batch
// continues. The returned run is completed unless a run-level precondition
// failed, in which case it is failed and the error is returned as well.
func (r *Runner) EvaluateWatchlist(ctx context.Context, watchlistID string) (*types.PipelineRun, error) {
	run := &types.PipelineRun{
		RunID:       uuid.New(),
		WatchlistID: watchlistID,
		Status:      types.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	state := &runState{run: run}

	wl, err := r.store.GetWatchlist(ctx, watchlistID)
	if err != nil || wl == nil {
		precondition := &PreconditionError{WatchlistID: watchlistID, Message: "watchlist not found"}
		if err != nil {
			precondition.Message = fmt.Sprintf("failed to load watchlist: %v", err)
		}
		run.RecordError("", "", precondition.Error())
		r.finishRun(ctx, run, types.RunStatusFailed)
		return run, precondition
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, item := range wl.Items {
		if item.Status != types.ItemStatusActive {
			continue
		}
		run.ItemsChecked++

		item := item
		g.Go(func() error {
			r.evaluateItem(gCtx, state, wl.UserID, item)
			return nil
		})
	}

	// Item goroutines never return errors; failures are recorded in the run.
	_ = g.Wait()

	r.finishRun(ctx, run, types.RunStatusCompleted)
	return run, nil
}

// EvaluateAll runs the pipeline for every active watchlist. One watchlist's
// failure never propagates to or blocks another's run.
func (r *Runner) EvaluateAll(ctx context.Context) ([]*types.PipelineRun, error) {
	watchlists, err := r.store.ListActiveWatchlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active watchlists: %w", err)
	}

	runs := make([]*types.PipelineRun, 0, len(watchlists))
	for _, wl := range watchlists {
		run, err := r.EvaluateWatchlist(ctx, wl.ID)
		if err != nil {
			log.Printf("[pipeline] Run %s for watchlist %s failed: %v", run.RunID, wl.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// evaluateItem runs the fixed stage sequence for one item. Cancellation is
// cooperative: the context is checked at each stage boundary, and an in-flight
// fetch is allowed to finish or time out.
func (r *Runner) evaluateItem(ctx context.Context, state *runState, userID string, item types.TrackedItem) {
	if !r.acquire(item.ID) {
		state.recordError(item.ID, "", "evaluation already in flight; skipped")
		return
	}
	defer r.release(item.ID)

	// Stage: fetch
	if ctx.Err() != nil {
		state.recordError(item.ID, StageFetch, ctx.Err().Error())
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	snapshot, err := r.fetcher.Fetch(fetchCtx, item.URL)
	cancel()
	if err != nil {
		// Recovered locally: the item is skipped this cycle and retried on
		// the next scheduled fire.
		state.recordError(item.ID, StageFetch, err.Error())
		return
	}
	state.completeStep(StageFetch, item.ID)

	// Stage: analyze
	if ctx.Err() != nil {
		state.recordError(item.ID, StageAnalyze, ctx.Err().Error())
		return
	}
	if err := analyzeSnapshot(snapshot); err != nil {
		state.recordError(item.ID, StageAnalyze, err.Error())
		return
	}
	state.completeStep(StageAnalyze, item.ID)

	// Stage: diff
	if ctx.Err() != nil {
		state.recordError(item.ID, StageDiff, ctx.Err().Error())
		return
	}
	changes := detect.Detect(item.LastKnownSnapshot, *snapshot)

	// The previous snapshot was only needed for the diff; the current one
	// becomes the new baseline. The in-flight guard makes this read-diff-write
	// sequence atomic per item.
	item.LastKnownSnapshot = snapshot
	if err := r.store.SaveItem(ctx, item); err != nil {
		state.recordError(item.ID, StageDiff, fmt.Sprintf("failed to save snapshot: %v", err))
		return
	}
	state.completeStep(StageDiff, item.ID)

	// Stage: decide
	if ctx.Err() != nil {
		state.recordError(item.ID, StageDecide, ctx.Err().Error())
		return
	}
	decision := r.policy.Decide(item, changes)
	if decision.ShouldNotify {
		sent := r.dispatcher.Dispatch(ctx, userID, decision)
		state.addNotifications(sent)
	}
	state.completeStep(StageDecide, item.ID)

	if r.opts.Verbose {
		log.Printf("[pipeline] Item %s evaluated: changes=%v notify=%v", item.ID, changes.HasChanges(), decision.ShouldNotify)
	}
}

// analyzeSnapshot checks that a fetched snapshot carries enough signal to
// diff. A listing with neither a title nor a known price is treated as an
// extraction failure rather than a legitimate observation.
func analyzeSnapshot(s *types.Snapshot) error {
	if s.Title == "" && s.Price == nil {
		return fmt.Errorf("snapshot has no title and no price")
	}
	return nil
}

// acquire marks an item evaluation as in flight. Returns false if another
// evaluation of the same item is already running, in which case the new
// attempt is dropped rather than queued.
func (r *Runner) acquire(itemID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[itemID] {
		return false
	}
	r.inFlight[itemID] = true
	return true
}

func (r *Runner) release(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, itemID)
}

func (r *Runner) finishRun(ctx context.Context, run *types.PipelineRun, status types.RunStatus) {
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now

	if err := r.store.RecordRun(ctx, *run); err != nil {
		log.Printf("[pipeline] Failed to record run %s: %v", run.RunID, err)
	}
}
