package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunError records one failure during a pipeline run. A single item's failure
// does not abort the batch, so a completed run may carry errors.
type RunError struct {
	ItemID string `json:"item_id,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason"`
}

// PipelineRun is the transient execution context threaded through pipeline
// stages for one watchlist evaluation.
type PipelineRun struct {
	RunID             uuid.UUID  `json:"run_id"`
	WatchlistID       string     `json:"watchlist_id"`
	Steps             []string   `json:"steps"` // ordered log of completed step names
	Status            RunStatus  `json:"status"`
	Errors            []RunError `json:"errors,omitempty"`
	ItemsChecked      int        `json:"items_checked"`
	NotificationsSent int        `json:"notifications_sent"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// RecordStep appends a completed step name to the ordered step log.
func (r *PipelineRun) RecordStep(name string) {
	r.Steps = append(r.Steps, name)
}

// RecordError appends a failure description to the ordered error log.
func (r *PipelineRun) RecordError(itemID, stage, reason string) {
	r.Errors = append(r.Errors, RunError{ItemID: itemID, Stage: stage, Reason: reason})
}
