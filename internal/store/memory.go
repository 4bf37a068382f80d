package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// MemoryStore is an in-memory Store implementation used by tests and the
// standalone monitor command.
type MemoryStore struct {
	mu         sync.RWMutex
	watchlists map[string]types.Watchlist
	items      map[string]types.TrackedItem
	runs       []types.PipelineRun
	jobs       map[string]types.ScheduledJob
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		watchlists: make(map[string]types.Watchlist),
		items:      make(map[string]types.TrackedItem),
		jobs:       make(map[string]types.ScheduledJob),
	}
}

// PutWatchlist inserts or replaces a watchlist and indexes its items.
func (s *MemoryStore) PutWatchlist(wl types.Watchlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlists[wl.ID] = wl
	for _, item := range wl.Items {
		s.items[item.ID] = item
	}
}

// DeleteWatchlist removes a watchlist. Items stay indexed; they are only ever
// marked removed, never deleted.
func (s *MemoryStore) DeleteWatchlist(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchlists, id)
}

// ListActiveWatchlists returns all active watchlists with their current items.
func (s *MemoryStore) ListActiveWatchlists(_ context.Context) ([]types.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []types.Watchlist
	for _, wl := range s.watchlists {
		if wl.Active {
			active = append(active, s.withCurrentItems(wl))
		}
	}
	return active, nil
}

// GetWatchlist returns a watchlist with its current items, or nil.
func (s *MemoryStore) GetWatchlist(_ context.Context, id string) (*types.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wl, ok := s.watchlists[id]
	if !ok {
		return nil, nil
	}
	out := s.withCurrentItems(wl)
	return &out, nil
}

// withCurrentItems resolves a watchlist's items against the item index so
// callers observe snapshot updates made through SaveItem.
func (s *MemoryStore) withCurrentItems(wl types.Watchlist) types.Watchlist {
	items := make([]types.TrackedItem, 0, len(wl.Items))
	for _, item := range wl.Items {
		if current, ok := s.items[item.ID]; ok {
			items = append(items, current)
		} else {
			items = append(items, item)
		}
	}
	wl.Items = items
	return wl
}

// GetItem returns a tracked item, or nil.
func (s *MemoryStore) GetItem(_ context.Context, id string) (*types.TrackedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// SaveItem inserts or replaces a tracked item.
func (s *MemoryStore) SaveItem(_ context.Context, item types.TrackedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = item
	return nil
}

// RecordRun appends a completed run record.
func (s *MemoryStore) RecordRun(_ context.Context, run types.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, run)
	return nil
}

// Runs returns all recorded runs, oldest first.
func (s *MemoryStore) Runs() []types.PipelineRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PipelineRun, len(s.runs))
	copy(out, s.runs)
	return out
}

// GetJob returns a scheduled job entry, or nil. Implements scheduler.JobStore.
func (s *MemoryStore) GetJob(_ context.Context, id string) (*types.ScheduledJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// PutJob inserts or replaces a scheduled job entry.
func (s *MemoryStore) PutJob(_ context.Context, job types.ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job
	return nil
}

// DeleteJob removes a scheduled job entry.
func (s *MemoryStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, id)
	return nil
}

// ListJobs returns all scheduled job entries.
func (s *MemoryStore) ListJobs(_ context.Context) ([]types.ScheduledJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]types.ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs, nil
}
