package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CLAIM_SUBMITTED").
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

// New stamps an event with the current time. The time is also carried in the
// payload so consumers on the other side of the bus can read it back.
func New(eventType string, data map[string]interface{}) BaseEvent {
	now := time.Now().UTC()
	if data == nil {
		data = map[string]interface{}{}
	}
	data["occurred_at"] = now.Format(time.RFC3339Nano)
	return BaseEvent{Type: eventType, Data: data, OccurredAt: now}
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

// FromPayload rebuilds an event received from the bus.
func FromPayload(eventType string, data map[string]interface{}) BaseEvent {
	at := time.Now().UTC()
	if s, ok := data["occurred_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			at = t
		}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: at}
}
