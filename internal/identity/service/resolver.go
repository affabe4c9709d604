package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/identity/provider"
)

// ErrUnauthorized is returned when no valid identity can be established for a
// request. Handlers map it to 401 and must not execute the requested operation.
var ErrUnauthorized = errors.New("unauthorized")

const bearerPrefix = "bearer "

// Cookie names used when the credential rides on the transport session
// instead of the Authorization header.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Resolver produces an authenticated identity context from an inbound request.
// Dependencies are injected at startup and never mutated afterwards.
type Resolver struct {
	verifier  provider.Verifier
	refresher provider.Refresher // nil disables the refresh round trip
	timeout   time.Duration
}

// NewResolver returns a Resolver using verifier for token validation and
// refresher (may be nil) for expired-token refresh, bounded by timeout.
func NewResolver(verifier provider.Verifier, refresher provider.Refresher, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{verifier: verifier, refresher: refresher, timeout: timeout}
}

// Resolve extracts the caller's credential from the Authorization header or
// the access-token cookie and validates it. An expired token triggers at most
// one refresh round trip (itself retried at most once on transport failure).
// Any missing or invalid credential yields ErrUnauthorized.
func (r *Resolver) Resolve(req *http.Request) (domain.Context, error) {
	token := extractBearer(req)
	if token == "" {
		return domain.Context{}, ErrUnauthorized
	}

	userID, orgID, err := r.verifier.ValidateAccess(token)
	if err == nil {
		return domain.Context{UserID: userID, OrgID: orgID, BearerToken: token}, nil
	}
	if !errors.Is(err, provider.ErrExpiredToken) {
		return domain.Context{}, ErrUnauthorized
	}

	refreshed, err := r.refresh(req)
	if err != nil {
		return domain.Context{}, ErrUnauthorized
	}
	userID, orgID, err = r.verifier.ValidateAccess(refreshed.AccessToken)
	if err != nil {
		return domain.Context{}, ErrUnauthorized
	}
	return domain.Context{UserID: userID, OrgID: orgID, BearerToken: refreshed.AccessToken}, nil
}

// refresh performs the refresh round trip using the refresh-token cookie.
// Transport failures are retried once; a rejection by the provider is not.
func (r *Resolver) refresh(req *http.Request) (*provider.TokenPair, error) {
	if r.refresher == nil {
		return nil, ErrUnauthorized
	}
	cookie, err := req.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(req.Context(), r.timeout)
	defer cancel()

	pair, err := r.refresher.Refresh(ctx, cookie.Value)
	if err == nil {
		return pair, nil
	}
	if errors.Is(err, provider.ErrRefreshRejected) || ctx.Err() != nil {
		return nil, err
	}
	return r.refresher.Refresh(ctx, cookie.Value)
}

// extractBearer returns the credential from the Authorization header, falling
// back to the access-token cookie. Returns "" if neither is present.
func extractBearer(req *http.Request) string {
	v := strings.TrimSpace(req.Header.Get("Authorization"))
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	if cookie, err := req.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
