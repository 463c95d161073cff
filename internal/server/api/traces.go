package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/store"
)

type createTraceRequest struct {
	Name  string        `json:"name"`
	Trace gesture.Trace `json:"trace"`
}

type traceResponse struct {
	ID           int64   `json:"id"`
	RecognizerID string  `json:"recognizer_id"`
	Name         string  `json:"name"`
	Frames       int     `json:"frames"`
	Duration     float64 `json:"duration"`
	CreatedAt    string  `json:"created_at"`
}

type listTracesResponse struct {
	Traces []traceResponse `json:"traces"`
}

type replayRequest struct {
	TraceID int64         `json:"trace_id"`
	Trace   gesture.Trace `json:"trace"`
}

type replayResponse struct {
	Events   []gesture.ReplayEvent `json:"events"`
	Frames   int                   `json:"frames"`
	Duration float64               `json:"duration"`
}

func toTraceResponse(t *store.Trace) traceResponse {
	var frames gesture.Trace
	if err := json.Unmarshal(t.Data, &frames); err != nil {
		// Listed with zero frames rather than hiding the row.
		log.Warn("stored trace is unreadable", "id", t.ID, "error", err)
		frames = nil
	}
	return traceResponse{
		ID:           t.ID,
		RecognizerID: t.RecognizerID,
		Name:         t.Name,
		Frames:       len(frames),
		Duration:     frames.Duration().Seconds(),
		CreatedAt:    formatTime(t.CreatedAt),
	}
}

// listTraces handles GET /api/recognizers/{id}/traces.
func (h *RecognizerHandler) listTraces(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}
	traces, err := h.store.Traces().ListByRecognizer(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list traces")
		return
	}

	response := listTracesResponse{Traces: make([]traceResponse, 0, len(traces))}
	for i := range traces {
		response.Traces = append(response.Traces, toTraceResponse(&traces[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

// createTrace handles POST /api/recognizers/{id}/traces.
func (h *RecognizerHandler) createTrace(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}

	var req createTraceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Trace) == 0 {
		writeError(w, http.StatusBadRequest, "trace must not be empty")
		return
	}
	if err := req.Trace.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := json.Marshal(req.Trace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode trace")
		return
	}
	trace := &store.Trace{RecognizerID: id, Name: req.Name, Data: data}
	if err := h.store.Traces().Create(trace); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save trace")
		return
	}
	writeJSON(w, http.StatusCreated, toTraceResponse(trace))
}

// replay handles POST /api/recognizers/{id}/replay. It runs a stored or
// inline trace through a fresh machine built from the stored definition and
// never touches the live runtime.
func (h *RecognizerHandler) replay(w http.ResponseWriter, r *http.Request, id string) {
	rec, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var req replayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	trace := req.Trace
	if req.TraceID != 0 {
		stored, err := h.store.Traces().GetByID(req.TraceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Trace not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get trace")
			return
		}
		if err := json.Unmarshal(stored.Data, &trace); err != nil {
			writeError(w, http.StatusInternalServerError, "Stored trace is corrupt")
			return
		}
	}
	if len(trace) == 0 {
		writeError(w, http.StatusBadRequest, "trace_id or trace is required")
		return
	}

	def, err := gesture.ParseDefinition(rec.Definition)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	events, err := gesture.Replay(def, trace)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if events == nil {
		events = []gesture.ReplayEvent{}
	}

	writeJSON(w, http.StatusOK, replayResponse{
		Events:   events,
		Frames:   len(trace),
		Duration: trace.Duration().Seconds(),
	})
}
