package models

import "time"

// Event types recorded in the pump event log.
const (
	EventToggle = "TOGGLE"
	EventOff    = "OFF"
	EventTimer  = "TIMER"
	EventStatus = "STATUS"
)

// PumpEvent is a single log entry.
type PumpEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TOGGLE | OFF | TIMER | STATUS
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
