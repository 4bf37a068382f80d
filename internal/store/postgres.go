package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// PostgresStore is a Store backed by a PostgreSQL connection pool. It also
// implements the scheduler's JobStore for durable job registration.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ListActiveWatchlists returns all active watchlists with their items.
func (s *PostgresStore) ListActiveWatchlists(ctx context.Context) ([]types.Watchlist, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, active, monitor_interval_seconds, created_at
		 FROM watchlists
		 WHERE active = TRUE
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	defer rows.Close()

	var watchlists []types.Watchlist
	for rows.Next() {
		var wl types.Watchlist
		var intervalSeconds int64
		if err := rows.Scan(&wl.ID, &wl.UserID, &wl.Name, &wl.Active, &intervalSeconds, &wl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		wl.MonitorInterval = time.Duration(intervalSeconds) * time.Second
		watchlists = append(watchlists, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watchlists: %w", err)
	}

	for i := range watchlists {
		items, err := s.listItems(ctx, watchlists[i].ID)
		if err != nil {
			return nil, err
		}
		watchlists[i].Items = items
	}

	return watchlists, nil
}

// GetWatchlist returns a watchlist with its items, or nil if not found.
func (s *PostgresStore) GetWatchlist(ctx context.Context, id string) (*types.Watchlist, error) {
	var wl types.Watchlist
	var intervalSeconds int64
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, active, monitor_interval_seconds, created_at
		 FROM watchlists WHERE id = $1`, id,
	).Scan(&wl.ID, &wl.UserID, &wl.Name, &wl.Active, &intervalSeconds, &wl.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	wl.MonitorInterval = time.Duration(intervalSeconds) * time.Second

	items, err := s.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	wl.Items = items

	return &wl, nil
}

func (s *PostgresStore) listItems(ctx context.Context, watchlistID string) ([]types.TrackedItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, watchlist_id, name, url, target_price, last_known_snapshot, status, created_at, updated_at
		 FROM tracked_items
		 WHERE watchlist_id = $1 AND status <> 'removed'
		 ORDER BY created_at`, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []types.TrackedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem returns a tracked item, or nil if not found.
func (s *PostgresStore) GetItem(ctx context.Context, id string) (*types.TrackedItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, watchlist_id, name, url, target_price, last_known_snapshot, status, created_at, updated_at
		 FROM tracked_items WHERE id = $1`, id)

	item, err := scanItem(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.TrackedItem, error) {
	var item types.TrackedItem
	var snapshotJSON []byte
	if err := row.Scan(&item.ID, &item.WatchlistID, &item.Name, &item.URL,
		&item.TargetPrice, &snapshotJSON, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	if snapshotJSON != nil {
		var snapshot types.Snapshot
		if err := json.Unmarshal(snapshotJSON, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		item.LastKnownSnapshot = &snapshot
	}
	return &item, nil
}

// SaveWatchlist upserts a watchlist and all of its items. Used by the import
// command; the pipeline itself only ever writes items.
func (s *PostgresStore) SaveWatchlist(ctx context.Context, wl types.Watchlist) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watchlists (id, user_id, name, active, monitor_interval_seconds)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = $2, name = $3, active = $4, monitor_interval_seconds = $5`,
		wl.ID, wl.UserID, wl.Name, wl.Active, int64(wl.MonitorInterval/time.Second))
	if err != nil {
		return fmt.Errorf("failed to save watchlist %s: %w", wl.ID, err)
	}

	for _, item := range wl.Items {
		if err := s.SaveItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// SaveItem upserts a tracked item, replacing its last known snapshot.
func (s *PostgresStore) SaveItem(ctx context.Context, item types.TrackedItem) error {
	var snapshotJSON []byte
	if item.LastKnownSnapshot != nil {
		var err error
		snapshotJSON, err = json.Marshal(item.LastKnownSnapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracked_items (id, watchlist_id, name, url, target_price, last_known_snapshot, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $3, url = $4, target_price = $5, last_known_snapshot = $6, status = $7, updated_at = NOW()`,
		item.ID, item.WatchlistID, item.Name, item.URL, item.TargetPrice, snapshotJSON, item.Status)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}

// RecordRun persists the outcome of a completed pipeline run.
func (s *PostgresStore) RecordRun(ctx context.Context, run types.PipelineRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, watchlist_id, status, steps, errors, items_checked, notifications_sent, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.RunID, run.WatchlistID, run.Status, run.Steps, errorsJSON,
		run.ItemsChecked, run.NotificationsSent, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// GetJob returns a scheduled job entry, or nil if not found.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*types.ScheduledJob, error) {
	var job types.ScheduledJob
	var intervalSeconds int64
	err := s.pool.QueryRow(ctx,
		`SELECT id, interval_seconds, next_fire_at, queue_name FROM scheduled_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &intervalSeconds, &job.NextFireAt, &job.QueueName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scheduled job: %w", err)
	}
	job.Interval = time.Duration(intervalSeconds) * time.Second
	return &job, nil
}

// PutJob upserts a scheduled job entry.
func (s *PostgresStore) PutJob(ctx context.Context, job types.ScheduledJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scheduled_jobs (id, interval_seconds, next_fire_at, queue_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET interval_seconds = $2, next_fire_at = $3, queue_name = $4`,
		job.ID, int64(job.Interval/time.Second), job.NextFireAt, job.QueueName)
	if err != nil {
		return fmt.Errorf("failed to put scheduled job %s: %w", job.ID, err)
	}
	return nil
}

// DeleteJob removes a scheduled job entry.
func (s *PostgresStore) DeleteJob(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled job %s: %w", id, err)
	}
	return nil
}

// ListJobs returns all scheduled job entries.
func (s *PostgresStore) ListJobs(ctx context.Context) ([]types.ScheduledJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, interval_seconds, next_fire_at, queue_name FROM scheduled_jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.ScheduledJob
	for rows.Next() {
		var job types.ScheduledJob
		var intervalSeconds int64
		if err := rows.Scan(&job.ID, &intervalSeconds, &job.NextFireAt, &job.QueueName); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled job: %w", err)
		}
		job.Interval = time.Duration(intervalSeconds) * time.Second
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
