// Package handler exposes the authenticated REST passthrough to the compute
// runtime under /proxy.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agent-session-gateway/internal/audit"
	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/proxy"
	"agent-session-gateway/internal/server/respond"
)

// maxRequestBody caps how much of an inbound body is forwarded upstream.
const maxRequestBody = 10 << 20 // 10MB

// IdentityResolver resolves the caller's identity from the request.
type IdentityResolver interface {
	Resolve(r *http.Request) (identitydomain.Context, error)
}

// Handler serves ANY /proxy/* by forwarding to the runtime with the caller's
// bearer credential.
type Handler struct {
	resolver  IdentityResolver
	forwarder *proxy.Forwarder
	audit     audit.AuditLogger
}

// NewHandler returns a proxy Handler. auditLogger may be nil.
func NewHandler(resolver IdentityResolver, forwarder *proxy.Forwarder, auditLogger audit.AuditLogger) *Handler {
	return &Handler{resolver: resolver, forwarder: forwarder, audit: auditLogger}
}

// Routes mounts the passthrough route on r for all methods.
func (h *Handler) Routes(r chi.Router) {
	r.HandleFunc("/proxy/*", h.forward)
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		if h.audit != nil {
			h.audit.LogEvent(r, "", "", audit.ActionAccessDenied, "proxy", `{"reason":"unauthenticated"}`)
		}
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	path := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "could not read request body")
			return
		}
	}

	resp, err := h.forwarder.Forward(r.Context(), r.Method, path, identity, body)
	if errors.Is(err, proxy.ErrUpstreamUnavailable) {
		respond.Error(w, http.StatusServiceUnavailable, respond.KindUnavailable, "compute runtime unavailable")
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
