// Package server assembles the gateway's HTTP surface: session tickets,
// session status/stop, the runtime passthrough, stored credentials, and
// health.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"agent-session-gateway/internal/audit"
	credentialhandler "agent-session-gateway/internal/credential/handler"
	credentialservice "agent-session-gateway/internal/credential/service"
	healthhandler "agent-session-gateway/internal/health/handler"
	identitydomain "agent-session-gateway/internal/identity/domain"
	"agent-session-gateway/internal/proxy"
	proxyhandler "agent-session-gateway/internal/proxy/handler"
	sessionhandler "agent-session-gateway/internal/session/handler"
	sessionservice "agent-session-gateway/internal/session/service"
	"agent-session-gateway/internal/telemetry"
	"agent-session-gateway/internal/ticket"
)

// IdentityResolver resolves the caller's identity from the request. Satisfied
// by identity/service.Resolver.
type IdentityResolver interface {
	Resolve(r *http.Request) (identitydomain.Context, error)
}

// Deps holds the constructed dependencies the routes are wired with.
//
// Route → handler mapping:
//   - /session/{id}, /session/{id}/ticket → internal/session/handler
//   - /proxy/*                            → internal/proxy/handler
//   - /credentials                        → internal/credential/handler
//   - /healthz                            → internal/health/handler
type Deps struct {
	// Resolver establishes the caller's identity. Required.
	Resolver IdentityResolver
	// Sessions validates session ownership. Required for session routes.
	Sessions *sessionservice.Service
	// Credentials stores encrypted third-party credentials. Required for credential routes.
	Credentials *credentialservice.Service
	// Tickets signs connection tickets. Required for the ticket route.
	Tickets *ticket.Issuer
	// Forwarder reaches the compute runtime. Required for proxy and session stop.
	Forwarder *proxy.Forwarder
	// Audit records security-relevant events. May be nil.
	Audit audit.AuditLogger
	// Emitter receives per-request telemetry events. May be nil.
	Emitter telemetry.EventEmitter
	// Health reports storage reachability for /healthz (e.g. *sql.DB). May be nil.
	Health healthhandler.Pinger
	// ServiceName names the otelhttp server span. Defaults to "agent-session-gateway".
	ServiceName string
}

// NewRouter builds the gateway's HTTP handler with all routes mounted and
// otelhttp instrumentation on the outside.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Telemetry(deps.Emitter, map[string]bool{"/healthz": true}))

	healthhandler.NewHandler(deps.Health).Routes(r)
	sessionhandler.NewHandler(deps.Resolver, deps.Sessions, deps.Tickets, deps.Forwarder, deps.Audit).Routes(r)
	proxyhandler.NewHandler(deps.Resolver, deps.Forwarder, deps.Audit).Routes(r)
	credentialhandler.NewHandler(deps.Resolver, deps.Credentials, deps.Audit).Routes(r)

	name := deps.ServiceName
	if name == "" {
		name = "agent-session-gateway"
	}
	return otelhttp.NewHandler(r, name)
}

// New returns an http.Server serving handler on addr. Callers own Shutdown.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
