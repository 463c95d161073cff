// Package api provides the HTTP handlers for recognizers, actions, traces,
// the event journal and the global detection switch.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Runtime is the live side of the recognizers, implemented by app.App.
// Handlers call it after changing stored definitions.
type Runtime interface {
	Reload(id string) error
	Remove(id string)
	State(id string) (gesture.Snapshot, error)
	SetEnabled(enabled bool) error
	IsEnabled() bool
}

// errorResponse represents an error response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
