package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/store"
)

// RecognizerHandler handles HTTP requests for recognizer resources and their
// traces, replays and live state.
type RecognizerHandler struct {
	store   *store.Store
	runtime Runtime
}

// NewRecognizerHandler creates a RecognizerHandler. runtime may be nil, in
// which case definitions are stored but nothing is reloaded.
func NewRecognizerHandler(s *store.Store, runtime Runtime) *RecognizerHandler {
	return &RecognizerHandler{store: s, runtime: runtime}
}

// ServeHTTP routes /api/recognizers, /api/recognizers/{id} and
// /api/recognizers/{id}/{state,traces,replay}.
func (h *RecognizerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recognizers")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "state":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.state(w, r, id)
	case "traces":
		switch r.Method {
		case http.MethodGet:
			h.listTraces(w, r, id)
		case http.MethodPost:
			h.createTrace(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "replay":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.replay(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type recognizerRequest struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	Enabled    *bool           `json:"enabled"`
}

type recognizerResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Family     string             `json:"family"`
	Definition gesture.Definition `json:"definition"`
	Enabled    bool               `json:"enabled"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
}

type listRecognizersResponse struct {
	Recognizers []recognizerResponse `json:"recognizers"`
}

func toRecognizerResponse(rec *store.Recognizer) recognizerResponse {
	var def gesture.Definition
	// Stored definitions are normalized on write; a row that no longer
	// decodes is shown with its family only.
	if err := json.Unmarshal(rec.Definition, &def); err != nil {
		def = gesture.Definition{Family: gesture.Family(rec.Family)}
	}
	return recognizerResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		Family:     rec.Family,
		Definition: def,
		Enabled:    rec.Enabled,
		CreatedAt:  formatTime(rec.CreatedAt),
		UpdatedAt:  formatTime(rec.UpdatedAt),
	}
}

// parseDefinition validates a request definition and returns its
// normalized JSON form.
func parseDefinition(raw json.RawMessage) (gesture.Definition, json.RawMessage, error) {
	def, err := gesture.ParseDefinition(raw)
	if err != nil {
		return gesture.Definition{}, nil, err
	}
	normalized, err := json.Marshal(def)
	if err != nil {
		return gesture.Definition{}, nil, err
	}
	return def, normalized, nil
}

func (h *RecognizerHandler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.Recognizers().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recognizers")
		return
	}

	response := listRecognizersResponse{
		Recognizers: make([]recognizerResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		response.Recognizers = append(response.Recognizers, toRecognizerResponse(rec))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *RecognizerHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRecognizerResponse(rec))
}

func (h *RecognizerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req recognizerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Definition) == 0 {
		writeError(w, http.StatusBadRequest, "definition is required")
		return
	}

	def, normalized, err := parseDefinition(req.Definition)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Recognizers().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Recognizer name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check recognizer name")
		return
	}

	rec := &store.Recognizer{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Family:     string(def.Family),
		Definition: normalized,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Recognizers().Create(rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create recognizer")
		return
	}

	h.reload(rec.ID)
	writeJSON(w, http.StatusCreated, toRecognizerResponse(rec))
}

func (h *RecognizerHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	rec, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var req recognizerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" && req.Name != rec.Name {
		if _, err := h.store.Recognizers().GetByName(req.Name); err == nil {
			writeError(w, http.StatusConflict, "Recognizer name already exists")
			return
		}
		rec.Name = req.Name
	}
	if len(req.Definition) > 0 {
		def, normalized, err := parseDefinition(req.Definition)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec.Family = string(def.Family)
		rec.Definition = normalized
	}
	if req.Enabled != nil {
		rec.Enabled = *req.Enabled
	}

	if err := h.store.Recognizers().Update(rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update recognizer")
		return
	}

	h.reload(id)
	writeJSON(w, http.StatusOK, toRecognizerResponse(rec))
}

func (h *RecognizerHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Recognizers().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recognizer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete recognizer")
		return
	}

	if h.runtime != nil {
		h.runtime.Remove(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecognizerHandler) state(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}
	if h.runtime == nil {
		writeError(w, http.StatusServiceUnavailable, "Detection runtime not available")
		return
	}
	snap, err := h.runtime.State(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Recognizer not loaded")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// lookup fetches a recognizer, writing a 404 or 500 when it cannot.
func (h *RecognizerHandler) lookup(w http.ResponseWriter, id string) (*store.Recognizer, bool) {
	rec, err := h.store.Recognizers().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recognizer not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recognizer")
		return nil, false
	}
	return rec, true
}

func (h *RecognizerHandler) reload(id string) {
	if h.runtime == nil {
		return
	}
	if err := h.runtime.Reload(id); err != nil {
		log.Warn("recognizer reload failed", "id", id, "error", err)
	}
}
