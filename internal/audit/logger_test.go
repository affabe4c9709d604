package audit

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agent-session-gateway/internal/audit/domain"
	"agent-session-gateway/internal/telemetry"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeRepo) Create(_ context.Context, a *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, a)
	return nil
}

func (f *fakeRepo) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].OrgID == orgID {
			out = append(out, f.entries[i])
		}
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []*telemetry.Event
}

func (f *fakeEmitter) Emit(_ context.Context, event *telemetry.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) getEvents() []*telemetry.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func TestLogEvent_PersistsEntry(t *testing.T) {
	repo := &fakeRepo{}
	logger := NewLogger(repo, nil)

	req := httptest.NewRequest("GET", "/session/s-1/ticket", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	logger.LogEvent(req, "org-1", "user-1", ActionTicketIssued, "session/s-1", `{"runtimeId":"rt-42"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.OrgID != "org-1" || entry.UserID != "user-1" {
		t.Errorf("entry identity = %s/%s, want org-1/user-1", entry.OrgID, entry.UserID)
	}
	if entry.Action != ActionTicketIssued {
		t.Errorf("action = %q, want %q", entry.Action, ActionTicketIssued)
	}
	if entry.IP != "203.0.113.9" {
		t.Errorf("ip = %q, want 203.0.113.9 (port stripped)", entry.IP)
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
}

func TestLogEvent_SentinelOrgForUnauthenticated(t *testing.T) {
	repo := &fakeRepo{}
	logger := NewLogger(repo, nil)

	req := httptest.NewRequest("GET", "/session/s-1/ticket", nil)
	logger.LogEvent(req, "", "", ActionAccessDenied, "session/s-1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].OrgID != SentinelOrgID {
		t.Errorf("org = %q, want sentinel %q", repo.entries[0].OrgID, SentinelOrgID)
	}
}

func TestLogEvent_MirrorsToEmitter(t *testing.T) {
	repo := &fakeRepo{}
	emitter := &fakeEmitter{}
	logger := NewLogger(repo, emitter)

	req := httptest.NewRequest("DELETE", "/session/s-1", nil)
	logger.LogEvent(req, "org-1", "user-1", ActionSessionStopped, "session/s-1", "")

	deadline := time.Now().Add(time.Second)
	for len(emitter.getEvents()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].EventType != ActionSessionStopped {
		t.Errorf("event type = %q, want %q", events[0].EventType, ActionSessionStopped)
	}
	if events[0].ID != repo.entries[0].ID {
		t.Errorf("event id %q should match the persisted entry id %q", events[0].ID, repo.entries[0].ID)
	}
}

func TestLogEvent_NilRepoDoesNotPanic(t *testing.T) {
	logger := NewLogger(nil, nil)
	req := httptest.NewRequest("GET", "/", nil)
	logger.LogEvent(req, "org-1", "user-1", ActionCredentialSaved, "credentials/github", "")
}
