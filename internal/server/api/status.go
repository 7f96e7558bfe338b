package api

import (
	"encoding/json"
	"net/http"
)

// StatusHandler serves the pipeline snapshot.
type StatusHandler struct {
	pipeline Pipeline
}

// NewStatusHandler creates a StatusHandler for p.
func NewStatusHandler(p Pipeline) *StatusHandler {
	return &StatusHandler{pipeline: p}
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Status())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// EnabledHandler reads and toggles pointer control.
type EnabledHandler struct {
	pipeline Pipeline
}

// NewEnabledHandler creates an EnabledHandler for p.
func NewEnabledHandler(p Pipeline) *EnabledHandler {
	return &EnabledHandler{pipeline: p}
}

// ServeHTTP handles GET and POST /api/enabled.
func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.pipeline.IsEnabled()})
	case http.MethodPost:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.pipeline.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.pipeline.IsEnabled()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
