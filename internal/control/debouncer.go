package control

import (
	"time"

	"github.com/ayusman/mudra/internal/pointer"
)

// Debouncer turns level-triggered pinch and fist signals into edge-triggered
// button events.
//
// Drag: Up -(pinch)-> Down -(secondary hand seen, no pinch)-> Up.
// Right click: at most one per cooldown window while a fist is held.
type Debouncer struct {
	cooldown time.Duration
}

// NewDebouncer creates a debouncer with the given right-click cooldown.
func NewDebouncer(cooldown time.Duration) *Debouncer {
	return &Debouncer{cooldown: cooldown}
}

// Drag returns the button event for this frame's pinch state, if any. When the
// secondary hand was not observed the drag state is left alone.
func (d *Debouncer) Drag(st *PointerState, observed, pinching bool) (pointer.Action, bool) {
	if !observed {
		return pointer.Action{}, false
	}
	switch {
	case pinching && !st.Dragging:
		st.Dragging = true
		return pointer.Down(pointer.ButtonLeft), true
	case !pinching && st.Dragging:
		st.Dragging = false
		return pointer.Up(pointer.ButtonLeft), true
	}
	return pointer.Action{}, false
}

// Release ends an active drag unconditionally.
func (d *Debouncer) Release(st *PointerState) (pointer.Action, bool) {
	if !st.Dragging {
		return pointer.Action{}, false
	}
	st.Dragging = false
	return pointer.Up(pointer.ButtonLeft), true
}

// RightClick returns a right click when a fist is held and the cooldown since
// the previous click has elapsed.
func (d *Debouncer) RightClick(st *PointerState, fist bool, now time.Time) (pointer.Action, bool) {
	if !fist {
		return pointer.Action{}, false
	}
	if !st.LastRightClickAt.IsZero() && now.Sub(st.LastRightClickAt) <= d.cooldown {
		return pointer.Action{}, false
	}
	st.LastRightClickAt = now
	return pointer.ClickOf(pointer.ButtonRight), true
}
