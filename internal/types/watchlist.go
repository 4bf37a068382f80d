// Package types provides type definitions for structured data used throughout the watchlist-monitor system.
package types

import (
	"time"
)

// ItemStatus represents the lifecycle state of a tracked item.
type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusPaused  ItemStatus = "paused"
	ItemStatusRemoved ItemStatus = "removed"
)

// Snapshot is one observed state of a marketplace item at a point in time.
// Snapshots are immutable once created.
type Snapshot struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Price       *float64  `json:"price"` // nil means the price could not be determined
	Available   bool      `json:"available"`
	Description string    `json:"description"`
	Images      []string  `json:"images,omitempty"`
	Seller      string    `json:"seller,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}

// TrackedItem identifies one thing being watched. Items are never deleted,
// only marked removed. LastKnownSnapshot is replaced by the pipeline after
// each successful evaluation.
type TrackedItem struct {
	ID                string     `json:"id"`
	WatchlistID       string     `json:"watchlist_id"`
	Name              string     `json:"name"`
	URL               string     `json:"url"`
	TargetPrice       *float64   `json:"target_price,omitempty"`
	LastKnownSnapshot *Snapshot  `json:"last_known_snapshot,omitempty"`
	Status            ItemStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Watchlist is a user's named collection of tracked items sharing search intent.
type Watchlist struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Name            string        `json:"name"`
	Items           []TrackedItem `json:"items,omitempty"`
	Active          bool          `json:"active"`
	MonitorInterval time.Duration `json:"monitor_interval,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ScheduledJob is a durable entry for one recurring job. IDs are stable and
// deterministic (derived from the watchlist id and job kind) so that
// re-registration after a restart can detect the existing entry.
type ScheduledJob struct {
	ID         string        `json:"id"`
	Interval   time.Duration `json:"interval"`
	NextFireAt time.Time     `json:"next_fire_at"`
	QueueName  string        `json:"queue_name"`
}
