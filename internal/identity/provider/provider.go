// Package provider defines the identity-provider boundary: token validation
// and the refresh round trip. The gateway treats the provider as a capability,
// not a specific vendor.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken is returned when a token is malformed, mis-signed, or carries incomplete claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is well-formed but past its expiry.
	ErrExpiredToken = errors.New("expired token")
	// ErrRefreshRejected is returned when the provider answers a refresh with a non-2xx status.
	// Unlike transport failures, a rejection must not be retried.
	ErrRefreshRejected = errors.New("refresh rejected")
)

// Verifier validates an access token and returns the subject and tenant it was issued for.
type Verifier interface {
	ValidateAccess(token string) (userID, orgID string, err error)
}

// TokenPair is the provider's answer to a successful refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresher exchanges a refresh token for a new token pair at the identity provider.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}
