// Package outbox implements the transactional outbox: domain events are
// written in the same transaction as the change that caused them and a
// background publisher forwards them to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	AppointmentCreated       = "appointment.created.v1"
	AppointmentStatusChanged = "appointment.status_changed.v1"
	UserRegistered           = "account.user_registered.v1"
)

// Event is the envelope stored in outbox_events.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps data in a JSON envelope with a fresh event id.
func NewEvent(aggregateType, aggregateID, eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	id := uuid.NewString()
	payload, err := json.Marshal(envelope{
		EventID:    id,
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	return Event{
		ID:            id,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// Recorder stores an event. Implementations join the transaction on ctx.
type Recorder interface {
	Record(ctx context.Context, evt Event) error
}

// LogRecorder writes events to the log instead of the outbox table. It is
// used when no Kafka brokers are configured.
type LogRecorder struct {
	Logger zerolog.Logger
}

func (r LogRecorder) Record(_ context.Context, evt Event) error {
	r.Logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", evt.EventType).
		Str("aggregate_type", evt.AggregateType).
		Str("aggregate_id", evt.AggregateID).
		Msg("domain event")
	return nil
}
