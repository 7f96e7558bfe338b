// Package control turns classified gestures into pointer actions and owns the
// state that carries from one frame to the next.
package control

import "time"

// PointerState is the only memory kept across frames.
//
// The smoother writes SmoothedX/SmoothedY; the debouncer writes Dragging and
// LastRightClickAt. Dragging is true exactly while a left button-down has been
// issued without its matching button-up.
type PointerState struct {
	SmoothedX        float64   `json:"smoothed_x"`
	SmoothedY        float64   `json:"smoothed_y"`
	Dragging         bool      `json:"dragging"`
	LastRightClickAt time.Time `json:"last_right_click_at"`

	// relative mapping anchor: last landmark position (camera px) and the
	// unsmoothed screen target derived from it
	anchored         bool
	anchorCamX       float64
	anchorCamY       float64
	anchorX, anchorY float64
}

// clearAnchor forgets the relative mapping anchor.
func (s *PointerState) clearAnchor() {
	s.anchored = false
}
