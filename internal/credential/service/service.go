package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"agent-session-gateway/internal/credential/domain"
	"agent-session-gateway/internal/credential/repository"
	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/security"
)

// ErrNotFound is returned when the caller has no stored credential for the provider.
var ErrNotFound = errors.New("credential not found")

// Info is credential metadata safe to return to clients. It never carries the secret.
type Info struct {
	Provider  string    `json:"provider"`
	Host      string    `json:"host,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service stores third-party credentials encrypted at rest and decrypts them
// on demand for authorized use.
type Service struct {
	repo   repository.Repository
	cipher *security.Cipher
}

// NewService returns a Service encrypting with cipher and persisting to repo.
func NewService(repo repository.Repository, cipher *security.Cipher) *Service {
	return &Service{repo: repo, cipher: cipher}
}

// Save encrypts secret with a fresh IV and upserts the caller's credential
// for the provider.
func (s *Service) Save(ctx context.Context, identity identitydomain.Context, provider, secret, host string) (*Info, error) {
	ciphertext, iv, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Credential{
		ID:         uuid.New().String(),
		UserID:     identity.UserID,
		OrgID:      identity.OrgID,
		Provider:   provider,
		Ciphertext: ciphertext,
		IV:         iv,
		Host:       host,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return &Info{Provider: c.Provider, Host: c.Host, UpdatedAt: c.UpdatedAt}, nil
}

// Reveal decrypts and returns the caller's stored secret for the provider.
// Decryption failures propagate as security.ErrDecryption — corruption or
// tampering must never read as an empty value.
func (s *Service) Reveal(ctx context.Context, identity identitydomain.Context, provider string) (string, error) {
	c, err := s.repo.GetByProvider(ctx, identity.UserID, identity.OrgID, provider)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", ErrNotFound
	}
	return s.cipher.Decrypt(c.Ciphertext, c.IV)
}

// List returns metadata for the caller's stored credentials, without secrets.
func (s *Service) List(ctx context.Context, identity identitydomain.Context) ([]*Info, error) {
	creds, err := s.repo.ListByUser(ctx, identity.UserID, identity.OrgID)
	if err != nil {
		return nil, err
	}
	out := make([]*Info, len(creds))
	for i, c := range creds {
		out[i] = &Info{Provider: c.Provider, Host: c.Host, UpdatedAt: c.UpdatedAt}
	}
	return out, nil
}

// Get returns metadata for one stored credential, without the secret.
func (s *Service) Get(ctx context.Context, identity identitydomain.Context, provider string) (*Info, error) {
	c, err := s.repo.GetByProvider(ctx, identity.UserID, identity.OrgID, provider)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return &Info{Provider: c.Provider, Host: c.Host, UpdatedAt: c.UpdatedAt}, nil
}

// Delete removes the caller's credential for the provider.
func (s *Service) Delete(ctx context.Context, identity identitydomain.Context, provider string) error {
	c, err := s.repo.GetByProvider(ctx, identity.UserID, identity.OrgID, provider)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, identity.UserID, identity.OrgID, provider)
}
