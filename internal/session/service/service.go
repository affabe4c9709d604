package service

import (
	"context"
	"errors"

	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/session/domain"
	"agent-session-gateway/internal/session/repository"
)

// Sentinel errors for session authorization; handlers map them to HTTP codes.
var (
	// ErrNotFound covers absent, not-owned, wrong-tenant, and inactive
	// sessions alike, so callers cannot enumerate other tenants' session ids.
	ErrNotFound = errors.New("session not found")
	// ErrNoRuntimeAssigned means the session is valid but has no compute
	// runtime to connect to.
	ErrNoRuntimeAssigned = errors.New("session has no runtime assigned")
)

// Service validates session ownership before any connection information is
// disclosed.
type Service struct {
	repo repository.Repository
}

// NewService returns a Service backed by repo.
func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Authorize returns the session only when it exists, is ACTIVE, is owned by
// the caller, and belongs to the caller's org. All four conditions are
// filters on the lookup itself; any mismatch yields the same ErrNotFound.
// A matching session without an assigned runtime yields ErrNoRuntimeAssigned.
func (s *Service) Authorize(ctx context.Context, sessionID string, identity identitydomain.Context) (*domain.Session, error) {
	sess, err := s.repo.FindActiveOwned(ctx, sessionID, identity.UserID, identity.OrgID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if sess.RuntimeID == "" {
		return nil, ErrNoRuntimeAssigned
	}
	return sess, nil
}

// GetOwned returns the caller's session regardless of status, for status
// reads. Ownership and tenant filters still apply; misses are merged into
// ErrNotFound.
func (s *Service) GetOwned(ctx context.Context, sessionID string, identity identitydomain.Context) (*domain.Session, error) {
	sess, err := s.repo.FindOwned(ctx, sessionID, identity.UserID, identity.OrgID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return sess, nil
}
