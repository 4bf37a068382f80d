// Package scheduler maintains a registry of recurring monitoring jobs and
// fires each one at its configured interval. Registration is idempotent so a
// process restart can re-register its jobs without double-firing evaluations.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// DefaultQueueName is the queue recurring monitoring jobs are registered on.
const DefaultQueueName = "deals"

// DefaultTickResolution is how often the run loop checks for due jobs.
const DefaultTickResolution = time.Second

// JobHandler is invoked when a job fires.
type JobHandler func(ctx context.Context) error

// JobStore is the durable backend for scheduled job entries. Entries survive
// restarts; handlers are re-attached through RegisterRecurring on boot.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*types.ScheduledJob, error)
	PutJob(ctx context.Context, job types.ScheduledJob) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]types.ScheduledJob, error)
}

// RegistrationResult reports the outcome of a RegisterRecurring call.
type RegistrationResult string

const (
	Registered    RegistrationResult = "registered"
	AlreadyExists RegistrationResult = "already_exists"
)

// MonitorJobID returns the stable, deterministic job id for a watchlist's
// recurring monitor job.
func MonitorJobID(watchlistID string) string {
	return fmt.Sprintf("watchlist-%s-monitor", watchlistID)
}

// Scheduler fires registered jobs when they come due. Jobs fire concurrently;
// a failure in one handler never blocks another job's fire.
type Scheduler struct {
	store     JobStore
	queueName string

	mu       sync.Mutex
	handlers map[string]JobHandler
	inFlight sync.WaitGroup
}

// New creates a Scheduler over the given durable job store.
func New(store JobStore) *Scheduler {
	return &Scheduler{
		store:     store,
		queueName: DefaultQueueName,
		handlers:  make(map[string]JobHandler),
	}
}

// RegisterRecurring registers a recurring job. If a job with the same id
// already exists in the store, the existing entry is kept and the handler is
// re-attached; this is the restart path and is logged, not an error.
func (s *Scheduler) RegisterRecurring(ctx context.Context, jobID string, interval, firstFireOffset time.Duration, handler JobHandler) (RegistrationResult, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %v", interval)
	}
	if handler == nil {
		return "", fmt.Errorf("handler is required for job %q", jobID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("failed to check existing job %q: %w", jobID, err)
	}
	if existing != nil {
		log.Printf("[scheduler] Job %q already exists; skipping registration", jobID)
		s.handlers[jobID] = handler
		return AlreadyExists, nil
	}

	job := types.ScheduledJob{
		ID:         jobID,
		Interval:   interval,
		NextFireAt: time.Now().UTC().Add(firstFireOffset),
		QueueName:  s.queueName,
	}
	if err := s.store.PutJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to register job %q: %w", jobID, err)
	}
	s.handlers[jobID] = handler

	log.Printf("[scheduler] Scheduled %q (interval=%v)", jobID, interval)
	return Registered, nil
}

// Deactivate removes a job from the registry and the durable store.
func (s *Scheduler) Deactivate(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handlers, jobID)
	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("failed to deactivate job %q: %w", jobID, err)
	}
	return nil
}

// Tick fires every job whose next fire time is at or before now. Each due job
// fires at most once per interval regardless of how often Tick is invoked;
// missed intervals are not backfilled — the next fire time is advanced past
// now in whole intervals, so a long outage results in a single fire at the
// next boundary rather than a burst of catch-up fires.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	for _, job := range jobs {
		if job.NextFireAt.After(now) {
			continue
		}

		s.mu.Lock()
		handler, ok := s.handlers[job.ID]
		s.mu.Unlock()
		if !ok {
			// Durable entry without a handler: registered by a previous
			// process and not yet re-attached. Leave it for the owner.
			continue
		}

		for !job.NextFireAt.After(now) {
			job.NextFireAt = job.NextFireAt.Add(job.Interval)
		}
		if err := s.store.PutJob(ctx, job); err != nil {
			log.Printf("[scheduler] Failed to advance job %q: %v", job.ID, err)
			continue
		}

		s.fire(ctx, job.ID, handler)
	}

	return nil
}

func (s *Scheduler) fire(ctx context.Context, jobID string, handler JobHandler) {
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		if err := handler(ctx); err != nil {
			log.Printf("[scheduler] Job %q failed: %v", jobID, err)
		}
	}()
}

// Run drives Tick from a wall-clock ticker until the context is cancelled,
// then waits for in-flight job handlers to return.
func (s *Scheduler) Run(ctx context.Context, resolution time.Duration) error {
	if resolution <= 0 {
		resolution = DefaultTickResolution
	}

	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.inFlight.Wait()
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.Tick(ctx, now); err != nil {
				log.Printf("[scheduler] Tick failed: %v", err)
			}
		}
	}
}

// Wait blocks until all in-flight job handlers have returned. Intended for
// tests and orderly shutdown paths that do not use Run.
func (s *Scheduler) Wait() {
	s.inFlight.Wait()
}
