package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewEvent_Envelope(t *testing.T) {
	evt, err := NewEvent("appointment", "12", AppointmentCreated, map[string]any{"doctor_id": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.ID == "" || evt.AggregateID != "12" || evt.EventType != AppointmentCreated {
		t.Errorf("unexpected event %+v", evt)
	}

	var env struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(evt.Payload, &env); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if env.EventID != evt.ID || env.EventType != AppointmentCreated {
		t.Errorf("envelope mismatch %+v", env)
	}
	if env.Data["doctor_id"].(float64) != 3 {
		t.Errorf("expected data to be embedded, got %v", env.Data)
	}
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	if _, err := NewEvent("x", "1", "x.v1", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("clinic", AppointmentStatusChanged); got != "clinic.appointment.status_changed.v1" {
		t.Errorf("unexpected topic %s", got)
	}
	if got := Topic("", UserRegistered); got != UserRegistered {
		t.Errorf("unexpected topic without prefix %s", got)
	}
}

func TestBuildMessages(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceparent := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	msgs := BuildMessages(context.Background(), "clinic", []Record{
		{ID: 1, EventID: "e-1", AggregateType: "appointment", AggregateID: "7", EventType: AppointmentCreated, Payload: []byte(`{}`), Traceparent: traceparent},
		{ID: 2, EventID: "e-2", AggregateType: "user", AggregateID: "9", EventType: UserRegistered, Payload: []byte(`{}`)},
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != "clinic.appointment.created.v1" || string(msgs[0].Key) != "7" {
		t.Errorf("unexpected first message %s/%s", msgs[0].Topic, msgs[0].Key)
	}

	headers := map[string]string{}
	for _, h := range msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_id"] != "e-1" || headers["event_type"] != AppointmentCreated {
		t.Errorf("missing metadata headers: %v", headers)
	}
	if headers["traceparent"] != traceparent {
		t.Errorf("expected trace context to be forwarded, got %q", headers["traceparent"])
	}

	for _, h := range msgs[1].Headers {
		if h.Key == "traceparent" {
			t.Error("no trace context should be injected for rows without one")
		}
	}
}

func TestHeaderCarrier_Overwrites(t *testing.T) {
	c := &headerCarrier{}
	c.Set("a", "1")
	c.Set("a", "2")
	c.Set("b", "3")
	if c.Get("a") != "2" || len(c.Keys()) != 2 {
		t.Errorf("unexpected headers %v", c.headers)
	}
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	evt, _ := NewEvent("user", "5", UserRegistered, map[string]string{"username": "alice"})
	if err := (LogRecorder{Logger: zerolog.New(&buf)}).Record(context.Background(), evt); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), UserRegistered) || !strings.Contains(buf.String(), `"aggregate_id":"5"`) {
		t.Errorf("unexpected log %s", buf.String())
	}
}
