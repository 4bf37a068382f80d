package types

// MessageType classifies a notification message.
type MessageType string

const (
	MessageTargetReached MessageType = "target_reached"
	MessageMajorDrop     MessageType = "major_drop"
	MessageAvailable     MessageType = "available"
)

// Priority indicates how urgently a message should be delivered.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// NotificationMessage is one message synthesized by the notification policy.
type NotificationMessage struct {
	Type     MessageType `json:"type"`
	Text     string      `json:"message"`
	Priority Priority    `json:"priority"`
}

// NotificationDecision is the outcome of evaluating a change set against an
// item's target configuration. Produced per pipeline run and handed to the
// dispatcher; never persisted by the core.
type NotificationDecision struct {
	ShouldNotify bool                  `json:"should_notify"`
	Messages     []NotificationMessage `json:"messages,omitempty"`
}
