package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPRefresher performs the token refresh round trip against the identity
// provider's refresh endpoint.
type HTTPRefresher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRefresher returns a Refresher posting to baseURL with the given
// timeout. Returns nil when baseURL is empty, which disables refresh.
func NewHTTPRefresher(baseURL string, timeout time.Duration) *HTTPRefresher {
	if baseURL == "" {
		return nil
	}
	return &HTTPRefresher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Refresh exchanges refreshToken for a new token pair. A non-2xx answer is
// ErrRefreshRejected; transport failures are returned as-is so the caller can
// decide to retry once.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrRefreshRejected
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("identity refresh: decode response: %w", err)
	}
	if pair.AccessToken == "" {
		return nil, ErrRefreshRejected
	}
	return &pair, nil
}
