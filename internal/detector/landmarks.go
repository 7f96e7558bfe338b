// Package detector provides the hand-pose provider interface and the landmark types it produces.
package detector

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the provider.
const (
	LabelLeft  = "Left"
	LabelRight = "Right"
)

// ErrMalformedHand is returned for a hand observation that violates the provider contract.
var ErrMalformedHand = errors.New("malformed hand observation")

// Point3D is a landmark position normalized to the camera frame, origin top-left.
// Z is carried through from the provider but unused by the control logic.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand in one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Label returns the canonical handedness label, or "" when the provider sent something else.
func (h *HandLandmarks) Label() string {
	switch strings.ToLower(strings.TrimSpace(h.Handedness)) {
	case "left":
		return LabelLeft
	case "right":
		return LabelRight
	}
	return ""
}

// Validate checks the observation against the provider contract.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrMalformedHand)
	}
	if h.Label() == "" {
		return fmt.Errorf("%w: handedness %q", ErrMalformedHand, h.Handedness)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedHand, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
