// Package policy decides whether a detected change set warrants notifying the
// owning user and synthesizes the notification messages to send.
package policy

import (
	"fmt"
	"math"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// DefaultMajorDropPercent is the price decrease (as a negative percent) below
// which a major_drop message fires.
const DefaultMajorDropPercent = -20.0

// Config holds the notification thresholds. Thresholds are configuration
// rather than constants so business rules can evolve without code changes.
type Config struct {
	// MajorDropPercent is negative; a change with raw percent strictly below
	// it triggers a major_drop message.
	MajorDropPercent float64
}

// DefaultConfig returns the thresholds observed in production behavior.
func DefaultConfig() Config {
	return Config{MajorDropPercent: DefaultMajorDropPercent}
}

// Policy evaluates change sets against item target configuration.
type Policy struct {
	cfg Config
}

// New creates a Policy with the given thresholds.
func New(cfg Config) *Policy {
	if cfg.MajorDropPercent == 0 {
		cfg.MajorDropPercent = DefaultMajorDropPercent
	}
	return &Policy{cfg: cfg}
}

// Decide evaluates the change set for one item and returns the notification
// decision. All applicable rules emit their message; one rule firing does not
// suppress the others. Message order: target_reached, major_drop, available.
func (p *Policy) Decide(item types.TrackedItem, changes types.ChangeSet) types.NotificationDecision {
	if changes.NoPriorData || !changes.HasChanges() {
		return types.NotificationDecision{}
	}

	var messages []types.NotificationMessage

	if pc := changes.Price; pc != nil {
		if item.TargetPrice != nil && *item.TargetPrice > 0 && pc.New <= *item.TargetPrice {
			messages = append(messages, types.NotificationMessage{
				Type:     types.MessageTargetReached,
				Text:     fmt.Sprintf("Target reached! %s is now $%.2f (target: $%.2f)", item.Name, pc.New, *item.TargetPrice),
				Priority: types.PriorityHigh,
			})
		}

		if pc.RawPercent != nil && *pc.RawPercent < p.cfg.MajorDropPercent {
			messages = append(messages, types.NotificationMessage{
				Type:     types.MessageMajorDrop,
				Text:     fmt.Sprintf("Major price drop! %s dropped %.2f%% to $%.2f", item.Name, math.Abs(*pc.Percent), pc.New),
				Priority: types.PriorityMedium,
			})
		}
	}

	if ac := changes.Availability; ac != nil && ac.New {
		messages = append(messages, types.NotificationMessage{
			Type:     types.MessageAvailable,
			Text:     fmt.Sprintf("%s is now available!", item.Name),
			Priority: types.PriorityMedium,
		})
	}

	return types.NotificationDecision{
		ShouldNotify: len(messages) > 0,
		Messages:     messages,
	}
}
