package observability

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	run := &types.PipelineRun{
		RunID:             uuid.New(),
		WatchlistID:       "wl-1",
		Status:            types.RunStatusCompleted,
		ItemsChecked:      3,
		NotificationsSent: 2,
		Errors: []types.RunError{
			{ItemID: "item-2", Stage: "fetch", Reason: "HTTP status 500"},
		},
	}

	p.PrintRun(run)
	output := buf.String()

	assert.Contains(t, output, "PIPELINE RUN")
	assert.Contains(t, output, "wl-1")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "item-2")
}

func TestPrintRun_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRun(nil)
	assert.Empty(t, buf.String())
}

func TestPrintDecision(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDecision("camera", types.NotificationDecision{
		ShouldNotify: true,
		Messages: []types.NotificationMessage{
			{Type: types.MessageTargetReached, Text: "Target reached!", Priority: types.PriorityHigh},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "NOTIFICATIONS: camera")
	assert.Contains(t, output, "target_reached")

	buf.Reset()
	p.PrintDecision("camera", types.NotificationDecision{})
	assert.Empty(t, buf.String())
}

func TestPrintChangeSet(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	percent := -40.0
	p.PrintChangeSet("camera", types.ChangeSet{
		Price: &types.PriceChange{Old: 150, New: 90, Percent: &percent, AbsoluteDelta: -60},
		Availability: &types.AvailabilityChange{
			Old: false, New: true, Status: types.BecameAvailable,
		},
	})
	output := buf.String()

	assert.Contains(t, output, "150.00 -> 90.00")
	assert.Contains(t, output, "-40.00%")
	assert.Contains(t, output, "became_available")

	buf.Reset()
	p.PrintChangeSet("camera", types.ChangeSet{NoPriorData: true})
	assert.Contains(t, buf.String(), "no prior data")
}
