// Package journal records notable control events to the store without
// blocking the control loop.
package journal

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

// Batching defaults.
const (
	DefaultMaxSize    = 32
	DefaultFlushDelay = 2 * time.Second
)

// Sink persists a batch of events.
type Sink interface {
	InsertBatch(events []store.Event) error
}

// Journal turns frame decisions into events and writes them in batches.
// Writes happen on background goroutines; a failed batch is logged and
// dropped.
type Journal struct {
	sink       Sink
	sessionID  string
	maxSize    int
	flushDelay time.Duration

	mu       sync.Mutex
	items    []store.Event
	timer    *time.Timer
	lastMode gesture.Mode
	closed   bool
	wg       sync.WaitGroup
}

// New creates a journal writing to sink under sessionID. Non-positive sizes
// and delays fall back to the defaults.
func New(sink Sink, sessionID string, maxSize int, flushDelay time.Duration) *Journal {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Journal{
		sink:       sink,
		sessionID:  sessionID,
		maxSize:    maxSize,
		flushDelay: flushDelay,
		items:      make([]store.Event, 0, maxSize),
	}
}

// Record queues the events a decision implies: a mode change, drag start and
// end, and right clicks. It returns how many events were queued.
func (j *Journal) Record(d control.Decision, st control.PointerState, at time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || d.Err != nil {
		return 0
	}

	n := 0
	add := func(kind store.EventKind) {
		j.items = append(j.items, store.Event{
			SessionID:  j.sessionID,
			Kind:       kind,
			Mode:       d.Mode.String(),
			X:          st.SmoothedX,
			Y:          st.SmoothedY,
			OccurredAt: at,
		})
		n++
	}

	if d.Mode != j.lastMode {
		j.lastMode = d.Mode
		add(store.EventMode)
	}
	for _, a := range d.Actions {
		switch {
		case a.Kind == pointer.KindButtonDown && a.Button == pointer.ButtonLeft:
			add(store.EventDragStart)
		case a.Kind == pointer.KindButtonUp && a.Button == pointer.ButtonLeft:
			add(store.EventDragEnd)
		case a.Kind == pointer.KindClick && a.Button == pointer.ButtonRight:
			add(store.EventRightClick)
		}
	}

	if n > 0 {
		j.scheduleLocked()
	}
	return n
}

// RecordRelease queues a drag end that happened outside a frame decision,
// such as control being disabled mid-drag.
func (j *Journal) RecordRelease(st control.PointerState, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	j.items = append(j.items, store.Event{
		SessionID:  j.sessionID,
		Kind:       store.EventDragEnd,
		Mode:       j.lastMode.String(),
		X:          st.SmoothedX,
		Y:          st.SmoothedY,
		OccurredAt: at,
	})
	j.scheduleLocked()
}

func (j *Journal) scheduleLocked() {
	if len(j.items) >= j.maxSize {
		j.flushLocked()
		return
	}
	if j.timer == nil {
		j.timer = time.AfterFunc(j.flushDelay, j.timerFlush)
	} else {
		j.timer.Reset(j.flushDelay)
	}
}

func (j *Journal) timerFlush() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.flushLocked()
}

func (j *Journal) flushLocked() {
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	if len(j.items) == 0 {
		return
	}
	items := j.items
	j.items = make([]store.Event, 0, j.maxSize)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		if err := j.sink.InsertBatch(items); err != nil {
			slog.Warn("journal batch failed", "error", err, "count", len(items))
			return
		}
		slog.Debug("journal batch stored", "count", len(items))
	}()
}

// Pending returns how many events are waiting for the next flush.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.items)
}

// Flush writes pending events now.
func (j *Journal) Flush() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.flushLocked()
}

// Close flushes pending events and waits for in-flight writes. Later calls
// to Record are ignored.
func (j *Journal) Close() {
	j.mu.Lock()
	j.closed = true
	j.flushLocked()
	j.mu.Unlock()
	j.wg.Wait()
}
