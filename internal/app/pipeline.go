package app

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/overlay"
)

// Batch is one captured frame and the hands found in it. The control loop
// owns it after receiving it from the mailbox and must Close it.
type Batch struct {
	Seq        uint64
	Frame      *gocv.Mat
	Hands      []detector.HandLandmarks
	Motion     bool
	CapturedAt time.Time
}

// Close releases the frame.
func (b *Batch) Close() {
	if b != nil && b.Frame != nil {
		b.Frame.Close()
		b.Frame = nil
	}
}

// produce reads frames at the paced rate, runs detection while control is
// enabled, and posts each batch to the mailbox.
//
// Rate logic:
// 1. Start at IdleFPS
// 2. Motion or hands switch to ActiveFPS
// 3. IdleHoldFrames quiet frames switch back to IdleFPS
func (a *App) produce(ctx context.Context, mailbox *capture.Mailbox[*Batch]) {
	pacer := capture.NewPacer(IdleFPS, ActiveFPS, IdleHoldFrames)
	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			slog.Warn("error reading frame", "error", err)
			continue
		}
		seq++
		b := &Batch{Seq: seq, Frame: frame, CapturedAt: a.now()}
		b.Motion, _ = a.motion.Detect(frame)

		if a.IsEnabled() {
			hands, err := a.detector.Detect(frame)
			if err != nil {
				slog.Warn("error detecting hands", "error", err)
				b.Close()
				continue
			}
			b.Hands = hands
		}

		if fps, changed := pacer.Observe(b.Motion, len(b.Hands)); changed {
			a.camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			a.mu.Lock()
			a.status.FPS = fps
			a.mu.Unlock()
			slog.Info("capture rate changed", "fps", fps)
		}

		if err := mailbox.Put(b); err != nil {
			return
		}
	}
}

// consume is the control loop: it is the only goroutine that touches the
// controller and, when enabled, the preview window.
func (a *App) consume(ctx context.Context, mailbox *capture.Mailbox[*Batch], ctrl *control.Controller) {
	var preview *overlay.Preview
	if a.preview {
		// HighGUI needs a stable OS thread
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		preview = overlay.NewPreview("mudra")
		defer preview.Close()
	}

	var frames uint64
	var mode gesture.Mode

	defer func() {
		if released := ctrl.Release(); len(released) > 0 {
			slog.Info("drag released on shutdown")
			if a.journal != nil {
				a.journal.RecordRelease(ctrl.State(), a.now())
			}
		}
	}()

	for {
		b, err := mailbox.Receive(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, capture.ErrMailboxClosed) {
				slog.Warn("control loop stopped", "error", err)
			}
			return
		}

		ctrl = a.applyPending(ctrl)
		frames++

		enabled := a.IsEnabled()
		var d control.Decision
		if enabled {
			d = ctrl.Step(b.Hands)
		} else if released := ctrl.Release(); len(released) > 0 {
			d.Actions = released
			slog.Info("drag released", "reason", "disabled")
			if a.journal != nil {
				a.journal.RecordRelease(ctrl.State(), b.CapturedAt)
			}
		}
		st := ctrl.State()

		if d.Mode != mode {
			slog.Info("mode changed", "from", mode, "to", d.Mode)
			mode = d.Mode
		}
		if enabled && a.journal != nil {
			a.journal.Record(d, st, b.CapturedAt)
		}

		overlay.Draw(b.Frame, ctrl.Mapper().Interior(), b.Hands, d, st.Dragging)
		var jpeg []byte
		if buf, err := gocv.IMEncode(gocv.JPEGFileExt, *b.Frame); err == nil {
			jpeg = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}

		quit := preview != nil && preview.Show(b.Frame)
		b.Close()

		a.publish(Update{Seq: b.Seq, At: b.CapturedAt, Enabled: enabled, Decision: d, Pointer: st}, frames, mailbox.Dropped(), jpeg)

		if quit {
			slog.Info("preview closed")
			return
		}
	}
}

// applyPending swaps in a controller for settings queued by UpdateSettings,
// carrying the pointer state across.
func (a *App) applyPending(ctrl *control.Controller) *control.Controller {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return ctrl
	}

	next, err := a.newController(*pending, control.WithState(ctrl.State()))
	if err != nil {
		slog.Warn("settings rejected", "error", err)
		return ctrl
	}

	a.mu.Lock()
	a.settings = *pending
	a.mu.Unlock()
	slog.Info("settings applied", "settings", settingsAttrs(*pending))
	return next
}

func settingsAttrs(c config.Config) slog.Value {
	settings := c.Settings()
	attrs := make([]slog.Attr, 0, len(settings))
	for k, v := range settings {
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.GroupValue(attrs...)
}

func (a *App) publish(u Update, frames, dropped uint64, jpeg []byte) {
	a.mu.Lock()
	a.status.Mode = u.Decision.Mode
	a.status.Hands = u.Decision.Hands
	a.status.Pointer = u.Pointer
	a.status.Frames = frames
	a.status.Dropped = dropped
	a.status.UpdatedAt = u.At
	if jpeg != nil {
		a.snapshot = jpeg
	}
	listeners := a.listeners
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}
