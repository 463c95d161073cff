package api

import (
	"encoding/json"
	"net/http"
)

// DetectionHandler serves the global detection switch.
type DetectionHandler struct {
	runtime Runtime
}

// NewDetectionHandler creates a new DetectionHandler.
func NewDetectionHandler(runtime Runtime) *DetectionHandler {
	return &DetectionHandler{runtime: runtime}
}

type detectionBody struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/detection.
func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req detectionBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.runtime.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update detection")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := h.runtime.IsEnabled()
	writeJSON(w, http.StatusOK, detectionBody{Enabled: &enabled})
}
