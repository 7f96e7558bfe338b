// Package api provides HTTP API handlers for the mudra pointer controller.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
)

// Pipeline is the part of the running application the handlers need.
// *app.App implements it.
type Pipeline interface {
	Status() app.Status
	Settings() config.Config
	UpdateSettings(settings config.Config) error
	SetEnabled(enabled bool)
	IsEnabled() bool
}

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
