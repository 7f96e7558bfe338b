// Package app wires capture, detection, control, and the journal into the
// running hand-mouse pipeline.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/journal"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the capture rate when nothing moves and no hands are seen.
	IdleFPS = 5
	// ActiveFPS is the capture rate while hands or motion are present.
	ActiveFPS = 15
	// IdleHoldFrames is how many quiet frames pass before dropping to IdleFPS.
	IdleHoldFrames = 2 * ActiveFPS
	// DefaultMotionThresh is the percent of changed pixels that counts as motion.
	DefaultMotionThresh = 1.0
)

// ErrAlreadyRunning is returned by Start when the pipeline is running.
var ErrAlreadyRunning = errors.New("pipeline already running")

// Config holds the collaborators of the application. Camera and Detector are
// optional; Actuator is required.
type Config struct {
	Settings     config.Config
	Store        *store.Store
	Camera       capture.Camera
	Detector     detector.Detector
	Actuator     pointer.Actuator
	MotionThresh float64
	Clock        func() time.Time
}

// Status is a point-in-time snapshot of the pipeline for the HTTP API and
// the tray.
type Status struct {
	Running   bool                 `json:"running"`
	Enabled   bool                 `json:"enabled"`
	Mode      gesture.Mode         `json:"mode"`
	Hands     int                  `json:"hands"`
	Pointer   control.PointerState `json:"pointer"`
	FPS       int                  `json:"fps"`
	Frames    uint64               `json:"frames"`
	Dropped   uint64               `json:"dropped"`
	SessionID string               `json:"session_id,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Update is published to listeners after every processed frame.
type Update struct {
	Seq      uint64               `json:"seq"`
	At       time.Time            `json:"at"`
	Enabled  bool                 `json:"enabled"`
	Decision control.Decision     `json:"decision"`
	Pointer  control.PointerState `json:"pointer"`
}

// App is the hand-mouse application.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	actuator pointer.Actuator
	now      func() time.Time

	mu        sync.RWMutex
	settings  config.Config
	pending   *config.Config
	enabled   bool
	status    Status
	snapshot  []byte
	listeners []func(Update)

	cancel  context.CancelFunc
	done    chan struct{}
	session *store.Session
	journal *journal.Journal
	preview bool
}

// New creates an App. When no detector is supplied it tries the MediaPipe
// subprocess and falls back to a mock detector that never sees hands.
func New(cfg Config) (*App, error) {
	if cfg.Actuator == nil {
		return nil, errors.New("actuator is required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.MotionThresh <= 0 {
		cfg.MotionThresh = DefaultMotionThresh
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Camera == nil {
		cfg.Camera = capture.NewCamera(capture.Config{
			DeviceID: cfg.Settings.CameraID,
			Width:    cfg.Settings.CameraWidth,
			Height:   cfg.Settings.CameraHeight,
			FPS:      IdleFPS,
			Mirror:   cfg.Settings.Mirror,
		})
	}

	a := &App{
		config:   cfg,
		camera:   cfg.Camera,
		motion:   capture.NewMotionDetector(cfg.MotionThresh),
		detector: cfg.Detector,
		actuator: cfg.Actuator,
		now:      cfg.Clock,
		settings: cfg.Settings,
		enabled:  true,
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			slog.Info("using MediaPipe hand detection")
		} else {
			slog.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}

	// fail early on a configuration the controller rejects
	if _, err := a.newController(cfg.Settings); err != nil {
		return nil, err
	}
	return a, nil
}

// newController builds a controller for settings, asking the actuator for
// the screen size when the settings leave it open.
func (a *App) newController(settings config.Config, opts ...control.Option) (*control.Controller, error) {
	var w, h int
	if sizer, ok := a.actuator.(pointer.ScreenSizer); ok {
		w, h = sizer.ScreenSize()
	}
	cc, err := settings.Control(w, h)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(cc, a.actuator, append([]control.Option{control.WithClock(a.now)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	return ctrl, nil
}

// SetEnabled turns pointer control on or off. Frames keep flowing to the
// preview while disabled; an active drag is released on the next frame.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.status.Enabled = enabled
	a.mu.Unlock()

	if changed {
		slog.Info("pointer control toggled", "enabled", enabled)
	}
}

// IsEnabled returns whether pointer control is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Settings returns the active configuration.
func (a *App) Settings() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.pending != nil {
		return *a.pending
	}
	return a.settings
}

// UpdateSettings validates settings and hands them to the control loop,
// which rebuilds its controller before the next frame. Camera and server
// settings take effect on restart.
func (a *App) UpdateSettings(settings config.Config) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if _, err := a.newController(settings); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		a.settings = settings
		return nil
	}
	a.pending = &settings
	return nil
}

// OnUpdate registers fn to be called after every processed frame. fn runs on
// the control loop and must not block.
func (a *App) OnUpdate(fn func(Update)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Status returns the latest pipeline snapshot.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Snapshot returns the latest annotated frame as JPEG, or nil before the
// first frame.
func (a *App) Snapshot() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Start opens the camera, begins a session, and launches the pipeline
// goroutines. It returns once they are running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		return ErrAlreadyRunning
	}

	ctrl, err := a.newController(a.settings)
	if err != nil {
		return err
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(IdleFPS)

	if a.config.Store != nil {
		snapshot, _ := json.Marshal(a.settings)
		sess, err := a.config.Store.Sessions().Start(snapshot)
		if err != nil {
			slog.Warn("session not recorded", "error", err)
		} else {
			a.session = sess
			if a.settings.Journal {
				a.journal = journal.New(a.config.Store.Events(), sess.ID, journal.DefaultMaxSize, journal.DefaultFlushDelay)
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.preview = a.settings.Preview
	a.status = Status{Running: true, Enabled: a.enabled, FPS: IdleFPS, UpdatedAt: a.now()}
	if a.session != nil {
		a.status.SessionID = a.session.ID
	}

	mailbox := capture.NewMailbox(func(b *Batch) { b.Close() })
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer mailbox.Close()
		a.produce(ctx, mailbox)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		a.consume(ctx, mailbox, ctrl)
	}()
	go func() {
		wg.Wait()
		a.finish()
		close(a.done)
	}()

	slog.Info("pipeline started", "session", a.status.SessionID, "preview", a.preview)
	return nil
}

// Done returns a channel closed when the pipeline has stopped, or nil if it
// was never started.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline, waits for it to drain, and releases the camera
// and detector.
func (a *App) Stop() {
	a.mu.RLock()
	cancel, done := a.cancel, a.done
	a.mu.RUnlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := a.camera.Close(); err != nil {
		slog.Warn("error closing camera", "error", err)
	}
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			slog.Warn("error closing detector", "error", err)
		}
	}
}

// finish runs once both goroutines have exited.
func (a *App) finish() {
	if a.journal != nil {
		a.journal.Close()
	}
	if a.session != nil {
		if err := a.config.Store.Sessions().End(a.session.ID); err != nil {
			slog.Warn("session not closed", "error", err)
		}
	}

	a.mu.Lock()
	a.status.Running = false
	a.status.UpdatedAt = a.now()
	a.mu.Unlock()

	slog.Info("pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
