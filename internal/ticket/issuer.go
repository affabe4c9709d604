// Package ticket constructs ephemeral, signed connection descriptors for the
// compute runtime. Issuance is pure construction: callers must have passed
// session ownership validation first, and nothing here performs I/O.
package ticket

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	identitydomain "agent-session-gateway/internal/identity/domain"
	sessiondomain "agent-session-gateway/internal/session/domain"
)

// ErrInvalidTicket is returned by Verify for a malformed, mis-signed, or expired ticket.
var ErrInvalidTicket = errors.New("invalid ticket")

// Claims are signed into the connection ticket so the runtime can re-derive
// tenant scoping without trusting bare query parameters.
type Claims struct {
	jwt.RegisteredClaims
	OrgID     string `json:"org_id"`
	SessionID string `json:"session_id"`
	RuntimeID string `json:"runtime_id"`
}

// Ticket is an ephemeral connection descriptor. It is built per request,
// never stored, and has no lifecycle beyond the response that carries it.
type Ticket struct {
	SessionID     string
	RuntimeID     string
	ConnectionURL string
	ExpiresAt     time.Time
}

// Issuer builds signed connection tickets. Immutable after construction and
// safe for concurrent use.
type Issuer struct {
	secret []byte
	wsBase string
	ttl    time.Duration
}

// NewIssuer returns an Issuer signing with secret, targeting the runtime's
// realtime base URL, with the given ticket lifetime.
func NewIssuer(secret, wsBase string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Issuer{secret: []byte(secret), wsBase: strings.TrimRight(wsBase, "/"), ttl: ttl}
}

// DeriveSecret produces a ticket-signing secret from the process encryption
// secret for deployments that configure a single secret. Deterministic, so
// all gateway instances sharing the secret verify each other's tickets.
func DeriveSecret(encryptionSecret string) string {
	sum := sha256.Sum256([]byte("ticket-signing-v1:" + encryptionSecret))
	return hex.EncodeToString(sum[:])
}

// Issue builds the connection descriptor for the session, embedding the
// caller's identity both as query parameters (for the runtime's scoping
// convenience) and inside a short-lived HMAC-signed ticket the runtime
// verifies independently.
func (i *Issuer) Issue(session *sessiondomain.Session, identity identitydomain.Context) (*Ticket, error) {
	jti, err := generateJTI()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OrgID:     identity.OrgID,
		SessionID: session.ID,
		RuntimeID: session.RuntimeID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("userId", identity.UserID)
	q.Set("orgId", identity.OrgID)
	q.Set("ticket", signed)

	return &Ticket{
		SessionID:     session.ID,
		RuntimeID:     session.RuntimeID,
		ConnectionURL: i.wsBase + "/" + url.PathEscape(session.RuntimeID) + "?" + q.Encode(),
		ExpiresAt:     expiresAt,
	}, nil
}

// Verify validates a signed ticket string and returns its claims. Used by the
// runtime-facing verification path and tests.
func (i *Issuer) Verify(signed string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidTicket
	}
	if claims.Subject == "" || claims.OrgID == "" || claims.SessionID == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

// generateJTI returns a random 128-bit hex token id.
func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
