package domain

import "time"

// Status is the lifecycle state of an agent session.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
	StatusError  Status = "ERROR"
)

// Session represents one user's agent interaction context, optionally bound
// to a compute runtime instance. Sessions are owned by the external platform;
// the gateway only reads them.
type Session struct {
	ID        string
	UserID    string
	OrgID     string
	Status    Status
	RuntimeID string // empty when no runtime has been assigned
	CreatedAt time.Time
	EndedAt   *time.Time // nil while the session has not ended
}

// Runnable reports whether the session can accept a realtime connection.
func (s *Session) Runnable() bool {
	return s.Status == StatusActive && s.RuntimeID != ""
}
