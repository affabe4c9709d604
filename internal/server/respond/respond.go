// Package respond writes the gateway's JSON response and error shapes.
package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

// Error kinds returned in the "error" field. Stable strings; clients match on them.
const (
	KindBadRequest   = "BadRequest"
	KindUnauthorized = "Unauthorized"
	KindNotFound     = "NotFound"
	KindConflict     = "Conflict"
	KindUnavailable  = "ServiceUnavailable"
	KindInternal     = "Internal"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON writes payload as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode failed: %v", err)
	}
}

// Error writes the stable error shape {"error": kind, "message": message}.
// Messages must stay generic; they are visible to clients.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, errorBody{Error: kind, Message: message})
}
