package interfaces

import "time"

// Event types published by the sync engine.
const (
	EventSyncStarted   = "sync_started"
	EventTickerDone    = "ticker_done"
	EventSyncProgress  = "sync_progress"
	EventSyncCompleted = "sync_completed"
)

// Event is a progress notification for operator UIs.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// EventService fans events out to subscribers. Publish never blocks on
// slow consumers; subscribers that fall behind drop events.
type EventService interface {
	Publish(eventType string, payload interface{})
	Subscribe() (<-chan Event, func())
}
