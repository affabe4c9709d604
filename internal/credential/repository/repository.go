package repository

import (
	"context"

	"agent-session-gateway/internal/credential/domain"
)

// Repository defines persistence for stored credentials. Lookups always carry
// the owner and org filters.
type Repository interface {
	GetByProvider(ctx context.Context, userID, orgID, provider string) (*domain.Credential, error)
	ListByUser(ctx context.Context, userID, orgID string) ([]*domain.Credential, error)
	Upsert(ctx context.Context, c *domain.Credential) error
	Delete(ctx context.Context, userID, orgID, provider string) error
}
