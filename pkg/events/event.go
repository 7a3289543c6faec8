package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SEARCH_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const SearchCompletedType = "SEARCH_COMPLETED"

// NewSearchCompleted records one finished search request, chain-of-thought
// or plain.
func NewSearchCompleted(userId uuid.UUID, recordId uuid.UUID, cotUsed bool, durationMs int64, tokensUsed int) Event {
	return BaseEvent{
		Type: SearchCompletedType,
		Data: map[string]interface{}{
			"user_id":     userId.String(),
			"record_id":   recordId.String(),
			"cot_used":    cotUsed,
			"duration_ms": durationMs,
			"tokens_used": tokensUsed,
		},
		OccurredAt: time.Now(),
	}
}
