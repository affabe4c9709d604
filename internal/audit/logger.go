// Package audit records security-relevant gateway events: ticket issuance,
// denied access, and credential writes.
package audit

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"agent-session-gateway/internal/audit/domain"
	auditrepo "agent-session-gateway/internal/audit/repository"
	"agent-session-gateway/internal/telemetry"
)

// Actions recorded by the gateway.
const (
	ActionTicketIssued      = "ticket_issued"
	ActionAccessDenied      = "access_denied"
	ActionSessionStopped    = "session_stopped"
	ActionCredentialSaved   = "credential_saved"
	ActionCredentialDeleted = "credential_deleted"
)

// SentinelOrgID is the org_id used for audit events that have no org (e.g. a
// request rejected before identity resolution).
const SentinelOrgID = "_system"

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(r *http.Request, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional
// telemetry emitter for the Kafka/OTel pipeline.
type Logger struct {
	repo    auditrepo.Repository
	emitter telemetry.EventEmitter // may be nil
}

// NewLogger returns an AuditLogger that persists to repo and mirrors events
// to emitter. Both may be nil; a nil repo disables persistence.
func NewLogger(repo auditrepo.Repository, emitter telemetry.EventEmitter) *Logger {
	return &Logger{repo: repo, emitter: emitter}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not
// returned, and the write is bounded so slow storage never blocks a response.
func (l *Logger) LogEvent(r *http.Request, orgID, userID, action, resource, metadata string) {
	if orgID == "" {
		orgID = SentinelOrgID
	}
	now := time.Now().UTC()
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        clientIP(r),
		Metadata:  metadata,
		CreatedAt: now,
	}

	if l.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.repo.Create(ctx, entry); err != nil {
			log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
		}
	}

	telemetry.EmitAsync(l.emitter, r.Context(), &telemetry.Event{
		ID:        entry.ID,
		OrgID:     entry.OrgID,
		UserID:    entry.UserID,
		EventType: action,
		Source:    "gateway",
		Metadata:  metadata,
		CreatedAt: now,
	})
}

// clientIP returns the remote address without the port, or "unknown".
func clientIP(r *http.Request) string {
	if r == nil || r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
