package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// ActionHandler handles HTTP requests for action bindings.
type ActionHandler struct {
	store *store.Store
}

// NewActionHandler creates a new ActionHandler with the given store.
func NewActionHandler(s *store.Store) *ActionHandler {
	return &ActionHandler{store: s}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/actions")
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

	id := path
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
}

type actionRequest struct {
	RecognizerID string          `json:"recognizer_id"`
	PluginName   string          `json:"plugin_name"`
	ActionName   string          `json:"action_name"`
	Trigger      string          `json:"trigger"`
	Config       json.RawMessage `json:"config"`
	Enabled      *bool           `json:"enabled"`
}

type actionResponse struct {
	ID           string          `json:"id"`
	RecognizerID string          `json:"recognizer_id"`
	PluginName   string          `json:"plugin_name"`
	ActionName   string          `json:"action_name"`
	Trigger      string          `json:"trigger"`
	Config       json.RawMessage `json:"config"`
	Enabled      bool            `json:"enabled"`
	CreatedAt    string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return actionResponse{
		ID:           a.ID,
		RecognizerID: a.RecognizerID,
		PluginName:   a.PluginName,
		ActionName:   a.ActionName,
		Trigger:      a.Trigger,
		Config:       config,
		Enabled:      a.Enabled,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

func validTrigger(t string) bool {
	return t == store.TriggerActivated || t == store.TriggerDeactivated
}

func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Actions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{
		Actions: make([]actionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		response.Actions = append(response.Actions, toActionResponse(a))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}
	writeJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.RecognizerID == "" {
		writeError(w, http.StatusBadRequest, "recognizer_id is required")
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if req.Trigger == "" {
		req.Trigger = store.TriggerActivated
	}
	if !validTrigger(req.Trigger) {
		writeError(w, http.StatusBadRequest, "trigger must be activated or deactivated")
		return
	}
	if !h.recognizerExists(w, req.RecognizerID) {
		return
	}

	action := &store.Action{
		ID:           uuid.New().String(),
		RecognizerID: req.RecognizerID,
		PluginName:   req.PluginName,
		ActionName:   req.ActionName,
		Trigger:      req.Trigger,
		Config:       req.Config,
		Enabled:      req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Actions().Create(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}
	writeJSON(w, http.StatusCreated, toActionResponse(action))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.RecognizerID != "" {
		if !h.recognizerExists(w, req.RecognizerID) {
			return
		}
		action.RecognizerID = req.RecognizerID
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.Trigger != "" {
		if !validTrigger(req.Trigger) {
			writeError(w, http.StatusBadRequest, "trigger must be activated or deactivated")
			return
		}
		action.Trigger = req.Trigger
	}
	if req.Config != nil {
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}
	writeJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recognizerExists writes a 400 or 500 and returns false when the
// recognizer cannot be confirmed.
func (h *ActionHandler) recognizerExists(w http.ResponseWriter, id string) bool {
	if _, err := h.store.Recognizers().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Recognizer not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify recognizer")
		return false
	}
	return true
}
