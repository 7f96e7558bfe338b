package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// SettingsHandler reads and updates the persisted settings.
type SettingsHandler struct {
	pipeline Pipeline
	store    *store.Store

	// mu serializes updates; each one reads, patches and writes back the
	// whole configuration.
	mu sync.Mutex
}

// NewSettingsHandler creates a SettingsHandler. s may be nil, in which case
// updates apply to the running pipeline only.
func NewSettingsHandler(p Pipeline, s *store.Store) *SettingsHandler {
	return &SettingsHandler{pipeline: p, store: s}
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := h.pipeline.Settings()
		writeJSON(w, http.StatusOK, cfg.Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update applies a partial key/value map on top of the active settings.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cfg := h.pipeline.Settings()
	if err := cfg.ApplySettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.pipeline.UpdateSettings(cfg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	settings := cfg.Settings()
	if h.store != nil {
		if err := h.store.Settings().SetAll(settings); err != nil {
			slog.Warn("settings not persisted", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to persist settings")
			return
		}
	}
	slog.Info("settings updated", "keys", len(req))
	writeJSON(w, http.StatusOK, settings)
}
