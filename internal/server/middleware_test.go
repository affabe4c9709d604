package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agent-session-gateway/internal/telemetry"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
}

func (c *captureEmitter) Emit(_ context.Context, event *telemetry.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEmitter) getEvents() []*telemetry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

func TestTelemetryMiddleware_EmitsRequestEvent(t *testing.T) {
	emitter := &captureEmitter{}
	handler := Telemetry(emitter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/session/s-1/ticket", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}

	// Emit is async.
	deadline := time.Now().Add(time.Second)
	for len(emitter.getEvents()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != "http_request" {
		t.Errorf("event type = %q, want http_request", events[0].EventType)
	}
	var meta httpRequestMetadata
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata unmarshal: %v", err)
	}
	if meta.Method != http.MethodGet || meta.Path != "/session/s-1/ticket" {
		t.Errorf("metadata = %+v, want GET /session/s-1/ticket", meta)
	}
	if meta.StatusCode != http.StatusTeapot {
		t.Errorf("status_code = %d, want 418", meta.StatusCode)
	}
}

func TestTelemetryMiddleware_SkipsPaths(t *testing.T) {
	emitter := &captureEmitter{}
	handler := Telemetry(emitter, map[string]bool{"/healthz": true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	time.Sleep(50 * time.Millisecond)
	if got := len(emitter.getEvents()); got != 0 {
		t.Errorf("expected 0 events for skipped path, got %d", got)
	}
}

func TestTelemetryMiddleware_NilEmitter(t *testing.T) {
	handler := Telemetry(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
