package repository

import (
	"context"

	"agent-session-gateway/internal/session/domain"
)

// Repository defines read access to agent sessions. Every lookup carries the
// owner and org filters in the query itself; a miss on any field is
// indistinguishable from absence.
type Repository interface {
	// FindActiveOwned returns the session matching id, owner, org, and
	// ACTIVE status, or nil if no row matches all filters.
	FindActiveOwned(ctx context.Context, id, userID, orgID string) (*domain.Session, error)
	// FindOwned returns the session matching id, owner, and org regardless
	// of status, or nil if no row matches all filters.
	FindOwned(ctx context.Context, id, userID, orgID string) (*domain.Session, error)
}
