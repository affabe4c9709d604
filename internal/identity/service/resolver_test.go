package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agent-session-gateway/internal/identity/provider"
)

type fakeVerifier struct {
	valid   map[string][2]string // token -> {userID, orgID}
	expired map[string]bool
}

func (v *fakeVerifier) ValidateAccess(token string) (string, string, error) {
	if ids, ok := v.valid[token]; ok {
		return ids[0], ids[1], nil
	}
	if v.expired[token] {
		return "", "", provider.ErrExpiredToken
	}
	return "", "", provider.ErrInvalidToken
}

type fakeRefresher struct {
	calls int
	errs  []error // error per call; nil entry means success
	pair  *provider.TokenPair
}

func (r *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*provider.TokenPair, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	return r.pair, nil
}

func newRequest(t *testing.T, header, accessCookie, refreshCookie string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/session/s1/ticket", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if accessCookie != "" {
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: accessCookie})
	}
	if refreshCookie != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refreshCookie})
	}
	return req
}

func TestResolve_MissingCredential(t *testing.T) {
	r := NewResolver(&fakeVerifier{}, nil, time.Second)
	if _, err := r.Resolve(newRequest(t, "", "", "")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve = %v, want ErrUnauthorized", err)
	}
}

func TestResolve_InvalidToken(t *testing.T) {
	r := NewResolver(&fakeVerifier{}, nil, time.Second)
	if _, err := r.Resolve(newRequest(t, "Bearer nope", "", "")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve = %v, want ErrUnauthorized", err)
	}
}

func TestResolve_ValidHeaderToken(t *testing.T) {
	v := &fakeVerifier{valid: map[string][2]string{"tok-1": {"user-a", "org-1"}}}
	r := NewResolver(v, nil, time.Second)

	got, err := r.Resolve(newRequest(t, "Bearer tok-1", "", ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UserID != "user-a" || got.OrgID != "org-1" || got.BearerToken != "tok-1" {
		t.Errorf("Resolve = %+v, want user-a/org-1/tok-1", got)
	}
}

func TestResolve_BearerPrefixCaseInsensitive(t *testing.T) {
	v := &fakeVerifier{valid: map[string][2]string{"tok-1": {"user-a", "org-1"}}}
	r := NewResolver(v, nil, time.Second)

	if _, err := r.Resolve(newRequest(t, "bearer tok-1", "", "")); err != nil {
		t.Errorf("lowercase bearer rejected: %v", err)
	}
}

func TestResolve_CookieToken(t *testing.T) {
	v := &fakeVerifier{valid: map[string][2]string{"tok-c": {"user-b", "org-2"}}}
	r := NewResolver(v, nil, time.Second)

	got, err := r.Resolve(newRequest(t, "", "tok-c", ""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.UserID != "user-b" {
		t.Errorf("UserID = %q, want user-b", got.UserID)
	}
}

func TestResolve_ExpiredWithoutRefresher(t *testing.T) {
	v := &fakeVerifier{expired: map[string]bool{"old": true}}
	r := NewResolver(v, nil, time.Second)

	if _, err := r.Resolve(newRequest(t, "Bearer old", "", "rt")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve = %v, want ErrUnauthorized", err)
	}
}

func TestResolve_ExpiredRefreshSuccess(t *testing.T) {
	v := &fakeVerifier{
		valid:   map[string][2]string{"fresh": {"user-a", "org-1"}},
		expired: map[string]bool{"old": true},
	}
	ref := &fakeRefresher{pair: &provider.TokenPair{AccessToken: "fresh", RefreshToken: "rt2"}}
	r := NewResolver(v, ref, time.Second)

	got, err := r.Resolve(newRequest(t, "Bearer old", "", "rt"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.BearerToken != "fresh" {
		t.Errorf("BearerToken = %q, want refreshed token", got.BearerToken)
	}
	if ref.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", ref.calls)
	}
}

func TestResolve_RefreshRejectedNotRetried(t *testing.T) {
	v := &fakeVerifier{expired: map[string]bool{"old": true}}
	ref := &fakeRefresher{errs: []error{provider.ErrRefreshRejected}}
	r := NewResolver(v, ref, time.Second)

	if _, err := r.Resolve(newRequest(t, "Bearer old", "", "rt")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve = %v, want ErrUnauthorized", err)
	}
	if ref.calls != 1 {
		t.Errorf("refresh calls = %d, want 1 (rejections must not be retried)", ref.calls)
	}
}

func TestResolve_RefreshTransportErrorRetriedOnce(t *testing.T) {
	v := &fakeVerifier{
		valid:   map[string][2]string{"fresh": {"user-a", "org-1"}},
		expired: map[string]bool{"old": true},
	}
	ref := &fakeRefresher{
		errs: []error{errors.New("connection reset")},
		pair: &provider.TokenPair{AccessToken: "fresh"},
	}
	r := NewResolver(v, ref, time.Second)

	got, err := r.Resolve(newRequest(t, "Bearer old", "", "rt"))
	if err != nil {
		t.Fatalf("Resolve after retry: %v", err)
	}
	if got.BearerToken != "fresh" {
		t.Errorf("BearerToken = %q, want fresh", got.BearerToken)
	}
	if ref.calls != 2 {
		t.Errorf("refresh calls = %d, want 2 (exactly one retry)", ref.calls)
	}
}

func TestResolve_RefreshTransportErrorTwice(t *testing.T) {
	v := &fakeVerifier{expired: map[string]bool{"old": true}}
	ref := &fakeRefresher{errs: []error{errors.New("reset"), errors.New("reset")}}
	r := NewResolver(v, ref, time.Second)

	if _, err := r.Resolve(newRequest(t, "Bearer old", "", "rt")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve = %v, want ErrUnauthorized", err)
	}
	if ref.calls != 2 {
		t.Errorf("refresh calls = %d, want 2 (at most one retry)", ref.calls)
	}
}
