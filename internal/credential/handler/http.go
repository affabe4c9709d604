// Package handler exposes stored-credential routes. Secrets are accepted on
// write and never returned; list and get responses carry metadata only.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agent-session-gateway/internal/audit"
	"agent-session-gateway/internal/credential/service"
	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/server/respond"
)

// IdentityResolver resolves the caller's identity from the request.
type IdentityResolver interface {
	Resolve(r *http.Request) (identitydomain.Context, error)
}

// Handler serves the /credentials routes.
type Handler struct {
	resolver    IdentityResolver
	credentials *service.Service
	audit       audit.AuditLogger
}

// NewHandler returns a credential Handler. auditLogger may be nil.
func NewHandler(resolver IdentityResolver, credentials *service.Service, auditLogger audit.AuditLogger) *Handler {
	return &Handler{resolver: resolver, credentials: credentials, audit: auditLogger}
}

// Routes mounts the credential routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/credentials", func(r chi.Router) {
		r.Get("/", h.list)
		r.Put("/{provider}", h.save)
		r.Get("/{provider}", h.get)
		r.Delete("/{provider}", h.delete)
	})
}

type saveRequest struct {
	Secret string `json:"secret"`
	Host   string `json:"host,omitempty"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "invalid JSON body")
		return
	}
	if req.Secret == "" {
		respond.Error(w, http.StatusBadRequest, respond.KindBadRequest, "secret is required")
		return
	}

	info, err := h.credentials.Save(r.Context(), identity, provider, req.Secret, req.Host)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	if h.audit != nil {
		h.audit.LogEvent(r, identity.OrgID, identity.UserID, audit.ActionCredentialSaved, "credentials/"+provider, "")
	}
	respond.JSON(w, http.StatusOK, info)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	infos, err := h.credentials.List(r.Context(), identity)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"credentials": infos})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	info, err := h.credentials.Get(r.Context(), identity, provider)
	if errors.Is(err, service.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, info)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	identity, err := h.resolver.Resolve(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.KindUnauthorized, "authentication required")
		return
	}

	err = h.credentials.Delete(r.Context(), identity, provider)
	if errors.Is(err, service.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.KindNotFound, "credential not found")
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "internal error")
		return
	}

	if h.audit != nil {
		h.audit.LogEvent(r, identity.OrgID, identity.UserID, audit.ActionCredentialDeleted, "credentials/"+provider, "")
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
