package pointer

import "sync"

// Recorder is an Actuator that records every call instead of touching the OS.
// Use it in tests and dry runs.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	width   int
	height  int
	err     error
}

// NewRecorder creates a Recorder reporting the given screen size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

// SetError makes every subsequent call fail with err (after being recorded).
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) record(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.err
}

func (r *Recorder) ScreenSize() (int, int) { return r.width, r.height }
func (r *Recorder) MoveTo(x, y float64) error { return r.record(Move(x, y)) }
func (r *Recorder) Scroll(delta int) error { return r.record(ScrollBy(delta)) }
func (r *Recorder) ButtonDown(b Button) error { return r.record(Down(b)) }
func (r *Recorder) ButtonUp(b Button) error { return r.record(Up(b)) }
func (r *Recorder) Click(b Button) error { return r.record(ClickOf(b)) }

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Count returns how many recorded actions have the given kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards recorded actions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
