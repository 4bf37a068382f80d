// Package notify routes decided notifications to a delivery collaborator.
// The core decides that and what to send; delivery transport is external.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// Notifier is the external delivery collaborator. Implementations send one
// message over a concrete channel (Telegram, email, log output).
type Notifier interface {
	Send(ctx context.Context, userID string, msg types.NotificationMessage) error
}

// Dispatcher hands decided messages to the delivery collaborator. Delivery
// failures are logged and not retried: at-most-one attempt per message.
type Dispatcher struct {
	notifier Notifier
}

// NewDispatcher creates a Dispatcher over the given delivery collaborator.
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

// Dispatch sends every message in the decision to the user. It returns the
// number of messages successfully handed off.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, decision types.NotificationDecision) int {
	if !decision.ShouldNotify {
		return 0
	}

	sent := 0
	for _, msg := range decision.Messages {
		if err := d.notifier.Send(ctx, userID, msg); err != nil {
			log.Printf("[notify] Failed to deliver %s notification to user %s: %v", msg.Type, userID, err)
			continue
		}
		sent++
	}
	return sent
}

// LogNotifier writes notifications to the process log. Used when no delivery
// channel is configured.
type LogNotifier struct{}

// Send logs the notification.
func (LogNotifier) Send(_ context.Context, userID string, msg types.NotificationMessage) error {
	log.Printf("NOTIFICATION for user %s [%s/%s]: %s", userID, msg.Type, msg.Priority, msg.Text)
	return nil
}

// FuncNotifier adapts a function to the Notifier interface. Convenient for tests.
type FuncNotifier func(ctx context.Context, userID string, msg types.NotificationMessage) error

// Send invokes the wrapped function.
func (f FuncNotifier) Send(ctx context.Context, userID string, msg types.NotificationMessage) error {
	return f(ctx, userID, msg)
}

// DispatchError represents a delivery collaborator failure.
type DispatchError struct {
	UserID string
	Cause  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to user %s failed: %v", e.UserID, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}
