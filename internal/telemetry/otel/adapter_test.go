package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"

	"agent-session-gateway/internal/telemetry"
)

// captureLogger records emitted log records for inspection.
type captureLogger struct {
	records []otellog.Record
}

func (c *captureLogger) Emit(_ context.Context, rec otellog.Record) {
	c.records = append(c.records, rec)
}

func recordAttrs(rec otellog.Record) map[string]string {
	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewEventEmitter_NilProvider(t *testing.T) {
	emitter := NewEventEmitter(nil)
	if emitter == nil {
		t.Fatal("emitter should not be nil")
	}
	if err := emitter.Emit(context.Background(), &telemetry.Event{OrgID: "org-1"}); err != nil {
		t.Errorf("no-op emit: %v", err)
	}
}

func TestOtelEmitter_Emit(t *testing.T) {
	capture := &captureLogger{}
	emitter := NewEventEmitterWithLogger(capture)

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	event := &telemetry.Event{
		ID:        "evt-1",
		OrgID:     "org-1",
		UserID:    "user-1",
		SessionID: "sess-1",
		EventType: "ticket_issued",
		Source:    "gateway",
		Metadata:  `{"runtime":"rt-42"}`,
		CreatedAt: created,
	}

	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(capture.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(capture.records))
	}

	rec := capture.records[0]
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if got := rec.Body().AsString(); got != `{"runtime":"rt-42"}` {
		t.Errorf("body = %q, want metadata JSON", got)
	}
	attrs := recordAttrs(rec)
	want := map[string]string{
		"org_id":     "org-1",
		"user_id":    "user-1",
		"session_id": "sess-1",
		"event_type": "ticket_issued",
		"source":     "gateway",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %s = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestOtelEmitter_EmitNilEvent(t *testing.T) {
	capture := &captureLogger{}
	emitter := NewEventEmitterWithLogger(capture)

	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
	if len(capture.records) != 0 {
		t.Errorf("expected 0 records, got %d", len(capture.records))
	}
}

func TestOtelEmitter_DefaultsTimestamp(t *testing.T) {
	capture := &captureLogger{}
	emitter := NewEventEmitterWithLogger(capture)

	before := time.Now().UTC()
	if err := emitter.Emit(context.Background(), &telemetry.Event{OrgID: "org-1", EventType: "test"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(capture.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(capture.records))
	}
	ts := capture.records[0].Timestamp()
	if ts.Before(before) || ts.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("timestamp %v not defaulted to now", ts)
	}
}

func TestOtelEmitter_OmitsEmptyAttributes(t *testing.T) {
	capture := &captureLogger{}
	emitter := NewEventEmitterWithLogger(capture)

	if err := emitter.Emit(context.Background(), &telemetry.Event{OrgID: "org-1", EventType: "access_denied"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	attrs := recordAttrs(capture.records[0])
	for _, absent := range []string{"user_id", "session_id", "source"} {
		if _, ok := attrs[absent]; ok {
			t.Errorf("attr %s should be omitted when empty", absent)
		}
	}
	if attrs["org_id"] != "org-1" {
		t.Errorf("org_id = %q, want %q", attrs["org_id"], "org-1")
	}
}
