// Package proxy forwards authorized REST calls to the compute runtime with
// the caller's bearer credential attached.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	identitydomain "agent-session-gateway/internal/identity/domain"
)

// ErrUpstreamUnavailable is the single stable error for transport-level
// failures reaching the compute runtime: unreachable, timed out, or a
// response that could not be read. Internal detail never reaches clients.
var ErrUpstreamUnavailable = errors.New("compute runtime unavailable")

// maxResponseBody caps how much of an upstream response is buffered.
const maxResponseBody = 10 << 20 // 10MB

// Response is the upstream's answer, passed through with its status code.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Forwarder issues HTTP calls to the compute runtime's REST base URL. The
// caller's bearer token is forwarded as-is, never re-minted. Immutable after
// construction and safe for concurrent use.
type Forwarder struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewForwarder returns a Forwarder for the runtime at baseURL, bounding every
// call by timeout.
func NewForwarder(baseURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Forward calls method on the runtime's baseURL + path with the caller's
// bearer credential and optional JSON body. The call is bounded by the
// forwarder timeout and canceled when ctx is. Upstream status codes and
// bodies are passed through; transport failures become ErrUpstreamUnavailable.
// GET is retried once on transient connection failure; non-idempotent methods
// are never retried.
func (f *Forwarder) Forward(ctx context.Context, method, path string, identity identitydomain.Context, body []byte) (*Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := f.baseURL + path

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.do(callCtx, method, url, identity, body)
	if err != nil {
		if method != http.MethodGet || callCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s %s", ErrUpstreamUnavailable, method, path)
		}
		resp, err = f.do(callCtx, method, url, identity, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s", ErrUpstreamUnavailable, method, path)
		}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response for %s %s", ErrUpstreamUnavailable, method, path)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        b,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (f *Forwarder) do(ctx context.Context, method, url string, identity identitydomain.Context, body []byte) (*http.Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+identity.BearerToken)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.client.Do(req)
}
