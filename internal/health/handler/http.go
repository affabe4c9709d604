// Package handler serves liveness/readiness for load balancers and probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agent-session-gateway/internal/server/respond"
)

// Pinger reports storage reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /healthz.
type Handler struct {
	pinger Pinger // may be nil; DB check is then skipped
}

// NewHandler returns a health Handler. pinger may be nil.
func NewHandler(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

// Routes mounts the health route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.check)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			respond.Error(w, http.StatusServiceUnavailable, respond.KindUnavailable, "database unreachable")
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
