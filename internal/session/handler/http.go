// Package handler exposes session routes: ticket issuance, status reads, and
// stop. Identity is resolved at the top of every handler and passed down
// explicitly.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agent-session-gateway/internal/audit"
	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/proxy"
	"agent-session-gateway/internal/server/respond"
	"agent-session-gateway/internal/session/service"
	"agent-session-gateway/internal/ticket"
)

// IdentityResolver resolves the caller's identity from the request.
type IdentityResolver interface {
	Resolve(r *http.Request) (identitydomain.Context, error)
}

// Handler serves the /session routes.
type Handler struct {
	resolver  IdentityResolver
	sessions  *service.Service
	tickets   *ticket.Issuer
	forwarder *proxy.Forwarder // may be nil; stop then skips the upstream call
	audit     audit.AuditLogger
}

// NewHandler returns a session Handler. forwarder and auditLogger may be nil.
func NewHandler(resolver IdentityResolver, sessions *service.Service, tickets *ticket.Issuer, forwarder *proxy.Forwarder, auditLogger audit.AuditLogger) *Handler {
	return &Handler{
		resolver:  resolver,
		sessions:  sessions,
		tickets:   tickets,
		forwarder: forwarder,
		audit:     auditLogger,
	}
}

// Routes mounts the session routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/session/{id}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.stopSession)
		r.Get("/ticket", h.issueTicket)
	})
}

type ticketResponse struct {
	SessionID        string    `json:"sessionId"`
	BackendRuntimeID string    `json:"backendRuntimeId"`
	ConnectionURL    string    `json:"connectionUrl"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type sessionResponse struct {
	SessionID        string     `json:"sessionId"`
	Status           string     `json:"status"`
	BackendRuntimeID string     `json:"backendRuntimeId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
}

type stopResponse struct {
	SessionID string `json:"sessionId"`
	Stopped   bool   `json:"stopped"`
}

func (h *Handler) issueTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "session id is required")
		return
	}
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		h.logEvent(r, "", "", audit.ActionAccessDenied, "session/"+id, `{"reason":"unauthenticated"}`)
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	sess, err := h.sessions.Authorize(r.Context(), id, identity)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.logEvent(r, identity.OrgID, identity.UserID, audit.ActionAccessDenied, "session/"+id, "")
		respond.Error(w, http.StatusNotFound, respond.KindNotFound, "Session not found or access denied.")
		return
	case errors.Is(err, service.ErrNoRuntimeAssigned):
		respond.Error(w, http.StatusConflict, respond.KindConflict, "session has no runtime assigned")
		return
	case err != nil:
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	tkt, err := h.tickets.Issue(sess, identity)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	meta, _ := json.Marshal(map[string]string{"runtimeId": sess.RuntimeID})
	h.logEvent(r, identity.OrgID, identity.UserID, audit.ActionTicketIssued, "session/"+id, string(meta))

	respond.JSON(w, http.StatusOK, ticketResponse{
		SessionID:        tkt.SessionID,
		BackendRuntimeID: tkt.RuntimeID,
		ConnectionURL:    tkt.ConnectionURL,
		ExpiresAt:        tkt.ExpiresAt,
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "session id is required")
		return
	}
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	sess, err := h.sessions.GetOwned(r.Context(), id, identity)
	if errors.Is(err, service.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.KindNotFound, "Session not found or access denied.")
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, sessionResponse{
		SessionID:        sess.ID,
		Status:           string(sess.Status),
		BackendRuntimeID: sess.RuntimeID,
		CreatedAt:        sess.CreatedAt,
		EndedAt:          sess.EndedAt,
	})
}

// stopSession authorizes the ACTIVE session and forwards the stop to the
// runtime. The upstream call is best-effort; the session record itself is
// owned by the external platform and never written here.
func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "session id is required")
		return
	}
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		h.logEvent(r, "", "", audit.ActionAccessDenied, "session/"+id, `{"reason":"unauthenticated"}`)
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	sess, err := h.sessions.Authorize(r.Context(), id, identity)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.logEvent(r, identity.OrgID, identity.UserID, audit.ActionAccessDenied, "session/"+id, "")
		respond.Error(w, http.StatusNotFound, respond.KindNotFound, "Active session not found or access denied.")
		return
	case errors.Is(err, service.ErrNoRuntimeAssigned):
		// Active but never started upstream; nothing to stop.
		respond.JSON(w, http.StatusOK, stopResponse{SessionID: id, Stopped: true})
		return
	case err != nil:
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	if h.forwarder != nil {
		if _, err := h.forwarder.Forward(r.Context(), http.MethodDelete, "/api/v1/sessions/"+sess.RuntimeID, identity, nil); err != nil {
			log.Printf("session: stop forward for %s failed: %v", id, err)
		}
	}

	h.logEvent(r, identity.OrgID, identity.UserID, audit.ActionSessionStopped, "session/"+id, "")
	respond.JSON(w, http.StatusOK, stopResponse{SessionID: id, Stopped: true})
}

func (h *Handler) logEvent(r *http.Request, orgID, userID, action, resource, metadata string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r, orgID, userID, action, resource, metadata)
}
