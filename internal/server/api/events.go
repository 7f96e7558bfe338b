package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type listEventsResponse struct {
	Events []store.Event `json:"events"`
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

// EventsHandler lists journal entries.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates an EventsHandler backed by s.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

// ServeHTTP handles GET /api/events?limit=N&kind=K.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	kind := store.EventKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", store.EventMode, store.EventDragStart, store.EventDragEnd, store.EventRightClick:
	default:
		writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}

	events, err := h.store.Events().Recent(limit, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}

// SessionsHandler lists capture sessions.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a SessionsHandler backed by s.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP handles GET /api/sessions?limit=N.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(limit, maxLimit), true
}
