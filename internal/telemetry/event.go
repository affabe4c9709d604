// Package telemetry defines the gateway's audit/telemetry event and the
// emitter interface feeding the Kafka and OTel pipelines.
package telemetry

import (
	"context"
	"time"
)

// Event is one gateway event, serialized as JSON onto the wire.
type Event struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventEmitter emits telemetry events (e.g. to Kafka or OTel Logs).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
