// Package server provides the HTTP status surface for the mudra pointer controller.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline is the running application as seen by the server. *app.App
// implements it.
type Pipeline interface {
	api.Pipeline
	Snapshot() []byte
	OnUpdate(fn func(app.Update))
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       Pipeline
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	live   *LiveHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		s.mux.Handle("/api/status", api.NewStatusHandler(s.config.App))
		s.mux.Handle("/api/enabled", api.NewEnabledHandler(s.config.App))
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.App, s.config.Store))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))

		s.live = NewLiveHandler(s.config.App)
		s.mux.Handle("/api/live", s.live)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store))
		s.mux.Handle("/api/sessions", api.NewSessionsHandler(s.config.Store))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.live != nil {
		s.live.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
