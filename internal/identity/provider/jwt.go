package provider

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims holds the claims the identity provider puts on access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
}

// JWTVerifier validates HS256 access tokens signed with the secret shared
// with the identity provider. Immutable after construction; safe for
// concurrent use.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a Verifier for HS256 tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// ValidateAccess parses and validates the token, returning its subject and
// org. Expired tokens yield ErrExpiredToken so callers can attempt a refresh;
// everything else invalid yields ErrInvalidToken.
func (v *JWTVerifier) ValidateAccess(token string) (userID, orgID string, err error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrExpiredToken
		}
		return "", "", ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" || claims.OrgID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.OrgID, nil
}
