package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/watchlist-monitor/internal/fetch"
	"github.com/jonathan/watchlist-monitor/internal/notify"
	"github.com/jonathan/watchlist-monitor/internal/policy"
	"github.com/jonathan/watchlist-monitor/internal/store"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

// stubFetcher returns canned snapshots per URL and can fail or block on demand.
type stubFetcher struct {
	mu        sync.Mutex
	snapshots map[string]types.Snapshot
	failURLs  map[string]bool
	blockCh   chan struct{} // when set, Fetch waits for the channel to close
	calls     atomic.Int64
}

func (f *stubFetcher) Fetch(ctx context.Context, urlStr string) (*types.Snapshot, error) {
	f.calls.Add(1)
	if f.blockCh != nil {
		select {
		case <-f.blockCh:
		case <-ctx.Done():
			return nil, &fetch.Error{URL: urlStr, Message: "cancelled", Cause: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failURLs[urlStr] {
		return nil, &fetch.Error{URL: urlStr, Message: "HTTP status 500"}
	}
	s, ok := f.snapshots[urlStr]
	if !ok {
		return nil, &fetch.Error{URL: urlStr, Message: "not found"}
	}
	s.CapturedAt = time.Now().UTC()
	return &s, nil
}

func price(v float64) *float64 {
	return &v
}

func newTestRunner(st store.Store, f fetch.Fetcher, sent *atomic.Int64) *Runner {
	notifier := notify.FuncNotifier(func(context.Context, string, types.NotificationMessage) error {
		if sent != nil {
			sent.Add(1)
		}
		return nil
	})
	return NewRunner(st, f, policy.New(policy.DefaultConfig()), notify.NewDispatcher(notifier), Options{})
}

func seedWatchlist(s *store.MemoryStore, items ...types.TrackedItem) {
	s.PutWatchlist(types.Watchlist{
		ID:     "wl-1",
		UserID: "user-1",
		Name:   "deals",
		Active: true,
		Items:  items,
	})
}

func activeItem(id, url string, last *types.Snapshot, target *float64) types.TrackedItem {
	return types.TrackedItem{
		ID:                id,
		WatchlistID:       "wl-1",
		Name:              id,
		URL:               url,
		TargetPrice:       target,
		LastKnownSnapshot: last,
		Status:            types.ItemStatusActive,
	}
}

func TestEvaluateWatchlist_PerItemIsolation(t *testing.T) {
	st := store.NewMemoryStore()
	fetcher := &stubFetcher{
		snapshots: map[string]types.Snapshot{
			"u1": {URL: "u1", Title: "one", Price: price(100), Available: true},
			"u3": {URL: "u3", Title: "three", Price: price(300), Available: true},
		},
		failURLs: map[string]bool{"u2": true},
	}
	seedWatchlist(st,
		activeItem("item-1", "u1", nil, nil),
		activeItem("item-2", "u2", nil, nil),
		activeItem("item-3", "u3", nil, nil),
	)

	runner := newTestRunner(st, fetcher, nil)
	run, err := runner.EvaluateWatchlist(context.Background(), "wl-1")
	require.NoError(t, err)

	assert.Equal(t, types.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.ItemsChecked)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, "item-2", run.Errors[0].ItemID)
	assert.Equal(t, StageFetch, run.Errors[0].Stage)

	// Items 1 and 3 reached the decide stage; item 2 reached none.
	var decided []string
	for _, step := range run.Steps {
		if strings.HasPrefix(step, StageDecide+":") {
			decided = append(decided, strings.TrimPrefix(step, StageDecide+":"))
		}
	}
	assert.ElementsMatch(t, []string{"item-1", "item-3"}, decided)
	assert.NotNil(t, run.CompletedAt)
}

func TestEvaluateWatchlist_NotFound(t *testing.T) {
	st := store.NewMemoryStore()
	runner := newTestRunner(st, &stubFetcher{}, nil)

	run, err := runner.EvaluateWatchlist(context.Background(), "missing")

	require.Error(t, err)
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "missing", precondition.WatchlistID)
	assert.Equal(t, types.RunStatusFailed, run.Status)

	// The failed run is still recorded.
	require.Len(t, st.Runs(), 1)
	assert.Equal(t, types.RunStatusFailed, st.Runs()[0].Status)
}

func TestEvaluateWatchlist_FirstObservationNoNotification(t *testing.T) {
	st := store.NewMemoryStore()
	fetcher := &stubFetcher{snapshots: map[string]types.Snapshot{
		"u1": {URL: "u1", Title: "camera", Price: price(90), Available: true},
	}}
	seedWatchlist(st, activeItem("item-1", "u1", nil, price(100)))

	var sent atomic.Int64
	runner := newTestRunner(st, fetcher, &sent)
	run, err := runner.EvaluateWatchlist(context.Background(), "wl-1")
	require.NoError(t, err)

	assert.Equal(t, 0, run.NotificationsSent)
	assert.Equal(t, int64(0), sent.Load())

	// The observation becomes the new baseline.
	item, err := st.GetItem(context.Background(), "item-1")
	require.NoError(t, err)
	require.NotNil(t, item.LastKnownSnapshot)
	assert.Equal(t, 90.0, *item.LastKnownSnapshot.Price)
}

func TestEvaluateWatchlist_TargetReachedNotifies(t *testing.T) {
	st := store.NewMemoryStore()
	last := &types.Snapshot{URL: "u1", Title: "camera", Price: price(150), Available: true}
	fetcher := &stubFetcher{snapshots: map[string]types.Snapshot{
		"u1": {URL: "u1", Title: "camera", Price: price(90), Available: true},
	}}
	seedWatchlist(st, activeItem("item-1", "u1", last, price(100)))

	var sent atomic.Int64
	runner := newTestRunner(st, fetcher, &sent)
	run, err := runner.EvaluateWatchlist(context.Background(), "wl-1")
	require.NoError(t, err)

	// 150 -> 90 crosses the target and is a 40% drop: two messages.
	assert.Equal(t, 2, run.NotificationsSent)
	assert.Equal(t, int64(2), sent.Load())
}

func TestEvaluateWatchlist_SkipsInactiveItems(t *testing.T) {
	st := store.NewMemoryStore()
	fetcher := &stubFetcher{snapshots: map[string]types.Snapshot{
		"u1": {URL: "u1", Title: "one", Price: price(10), Available: true},
	}}
	paused := activeItem("item-2", "u2", nil, nil)
	paused.Status = types.ItemStatusPaused
	removed := activeItem("item-3", "u3", nil, nil)
	removed.Status = types.ItemStatusRemoved
	seedWatchlist(st, activeItem("item-1", "u1", nil, nil), paused, removed)

	runner := newTestRunner(st, fetcher, nil)
	run, err := runner.EvaluateWatchlist(context.Background(), "wl-1")
	require.NoError(t, err)

	assert.Equal(t, 1, run.ItemsChecked)
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestEvaluateWatchlist_AtMostOneInFlightPerItem(t *testing.T) {
	st := store.NewMemoryStore()
	block := make(chan struct{})
	fetcher := &stubFetcher{
		snapshots: map[string]types.Snapshot{
			"u1": {URL: "u1", Title: "one", Price: price(10), Available: true},
		},
		blockCh: block,
	}
	seedWatchlist(st, activeItem("item-1", "u1", nil, nil))

	runner := newTestRunner(st, fetcher, nil)

	var wg sync.WaitGroup
	runs := make([]*types.PipelineRun, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := runner.EvaluateWatchlist(context.Background(), "wl-1")
			require.NoError(t, err)
			runs[i] = run
		}()
	}

	// Let the second run hit the in-flight guard before releasing the fetch.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	var skips, updates int
	for _, run := range runs {
		assert.Equal(t, types.RunStatusCompleted, run.Status)
		for _, e := range run.Errors {
			if strings.Contains(e.Reason, "already in flight") {
				skips++
			}
		}
		for _, step := range run.Steps {
			if step == StageDiff+":item-1" {
				updates++
			}
		}
	}

	// Exactly one evaluation applied a snapshot update; the other was dropped.
	assert.Equal(t, 1, skips)
	assert.Equal(t, 1, updates)
}

func TestEvaluateWatchlist_CancelledContext(t *testing.T) {
	st := store.NewMemoryStore()
	fetcher := &stubFetcher{snapshots: map[string]types.Snapshot{
		"u1": {URL: "u1", Title: "one", Price: price(10), Available: true},
	}}
	seedWatchlist(st, activeItem("item-1", "u1", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(st, fetcher, nil)
	run, err := runner.EvaluateWatchlist(ctx, "wl-1")
	require.NoError(t, err)

	// No stage starts after cancellation is requested.
	assert.Empty(t, run.Steps)
	require.NotEmpty(t, run.Errors)
}

func TestEvaluateAll_IsolatesWatchlists(t *testing.T) {
	st := store.NewMemoryStore()
	fetcher := &stubFetcher{snapshots: map[string]types.Snapshot{
		"u1": {URL: "u1", Title: "one", Price: price(10), Available: true},
	}}
	st.PutWatchlist(types.Watchlist{
		ID: "wl-1", UserID: "user-1", Active: true,
		Items: []types.TrackedItem{activeItem("item-1", "u1", nil, nil)},
	})
	st.PutWatchlist(types.Watchlist{
		ID: "wl-2", UserID: "user-2", Active: true,
		Items: []types.TrackedItem{{
			ID: "item-9", WatchlistID: "wl-2", Name: "item-9", URL: "u9", Status: types.ItemStatusActive,
		}},
	})

	runner := newTestRunner(st, fetcher, nil)
	runs, err := runner.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	for _, run := range runs {
		assert.Equal(t, types.RunStatusCompleted, run.Status)
	}
	assert.Len(t, st.Runs(), 2)
}

func TestAnalyzeSnapshot(t *testing.T) {
	assert.Error(t, analyzeSnapshot(&types.Snapshot{}))
	assert.NoError(t, analyzeSnapshot(&types.Snapshot{Title: "x"}))
	assert.NoError(t, analyzeSnapshot(&types.Snapshot{Price: price(1)}))
}
