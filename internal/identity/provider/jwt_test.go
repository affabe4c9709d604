package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, sub, orgID string, exp time.Time) string {
	t.Helper()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		OrgID: orgID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestValidateAccess_Valid(t *testing.T) {
	v := NewJWTVerifier("shh")
	token := signToken(t, "shh", "user-a", "org-1", time.Now().Add(time.Hour))

	userID, orgID, err := v.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if userID != "user-a" || orgID != "org-1" {
		t.Errorf("ValidateAccess = %q/%q, want user-a/org-1", userID, orgID)
	}
}

func TestValidateAccess_Expired(t *testing.T) {
	v := NewJWTVerifier("shh")
	token := signToken(t, "shh", "user-a", "org-1", time.Now().Add(-time.Hour))

	if _, _, err := v.ValidateAccess(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("ValidateAccess(expired) = %v, want ErrExpiredToken", err)
	}
}

func TestValidateAccess_WrongSecret(t *testing.T) {
	v := NewJWTVerifier("shh")
	token := signToken(t, "other", "user-a", "org-1", time.Now().Add(time.Hour))

	if _, _, err := v.ValidateAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateAccess(wrong secret) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_MissingClaims(t *testing.T) {
	v := NewJWTVerifier("shh")

	noOrg := signToken(t, "shh", "user-a", "", time.Now().Add(time.Hour))
	if _, _, err := v.ValidateAccess(noOrg); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccess(no org) = %v, want ErrInvalidToken", err)
	}

	noSub := signToken(t, "shh", "", "org-1", time.Now().Add(time.Hour))
	if _, _, err := v.ValidateAccess(noSub); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccess(no sub) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateAccess_Garbage(t *testing.T) {
	v := NewJWTVerifier("shh")
	if _, _, err := v.ValidateAccess("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateAccess(garbage) = %v, want ErrInvalidToken", err)
	}
}
