package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"agent-session-gateway/internal/telemetry"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// statusRecorder captures the response status for the telemetry middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Telemetry returns middleware that emits one event per request after it
// completes. Best-effort: failures never affect the response. If emitter is
// nil, the middleware no-ops. skipPaths are not emitted (e.g. /healthz).
func Telemetry(emitter telemetry.EventEmitter, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if emitter == nil || skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			meta := httpRequestMetadata{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: rec.status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   clientIP(r),
			}
			metaJSON, _ := json.Marshal(meta)
			telemetry.EmitAsync(emitter, r.Context(), &telemetry.Event{
				EventType: "http_request",
				Source:    "gateway",
				Metadata:  string(metaJSON),
				CreatedAt: time.Now().UTC(),
			})
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
