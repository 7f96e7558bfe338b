// Package gesture classifies per-frame hand poses into pointer control modes.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrUnknownPolicy is returned when a policy name is not recognized.
var ErrUnknownPolicy = errors.New("unknown gesture policy")

// Thumb policy names.
const (
	ThumbPinkyBase = "pinky-base"
	ThumbMirroredX = "mirrored-x"
)

// Drag policy names.
const (
	DragPinch       = "pinch"
	DragPinchClosed = "pinch-closed"
)

// FingerStates reports which fingers are extended. True means open.
type FingerStates struct {
	Thumb  bool `json:"thumb"`
	Index  bool `json:"index"`
	Middle bool `json:"middle"`
	Ring   bool `json:"ring"`
	Pinky  bool `json:"pinky"`
}

// IsFist reports whether no finger, thumb included, is open.
func (s FingerStates) IsFist() bool {
	return !s.Thumb && !s.Index && !s.Middle && !s.Ring && !s.Pinky
}

// AllOtherFingersOpen reports whether index, middle, ring and pinky are open.
// The thumb is not considered.
func (s FingerStates) AllOtherFingersOpen() bool {
	return s.Index && s.Middle && s.Ring && s.Pinky
}

// OthersClosed reports whether middle, ring and pinky are all closed.
func (s FingerStates) OthersClosed() bool {
	return !s.Middle && !s.Ring && !s.Pinky
}

// ThumbOpenPolicy decides whether the thumb of a hand is extended.
type ThumbOpenPolicy interface {
	Name() string
	ThumbOpen(h *detector.HandLandmarks) bool
}

// PinkyBaseThumb treats the thumb as open when its tip is horizontally farther
// from the pinky base than its IP joint is. It does not depend on which way the
// hand faces.
type PinkyBaseThumb struct{}

func (PinkyBaseThumb) Name() string { return ThumbPinkyBase }

func (PinkyBaseThumb) ThumbOpen(h *detector.HandLandmarks) bool {
	base := h.Points[detector.PinkyMCP].X
	return math.Abs(h.Points[detector.ThumbTip].X-base) > math.Abs(h.Points[detector.ThumbIP].X-base)
}

// MirroredXThumb treats the thumb as open when its tip lies right of its IP
// joint in the mirrored frame.
type MirroredXThumb struct{}

func (MirroredXThumb) Name() string { return ThumbMirroredX }

func (MirroredXThumb) ThumbOpen(h *detector.HandLandmarks) bool {
	return h.Points[detector.ThumbTip].X > h.Points[detector.ThumbIP].X
}

// ThumbPolicyByName returns the thumb policy registered under name.
func ThumbPolicyByName(name string) (ThumbOpenPolicy, error) {
	switch name {
	case ThumbPinkyBase, "":
		return PinkyBaseThumb{}, nil
	case ThumbMirroredX:
		return MirroredXThumb{}, nil
	}
	return nil, fmt.Errorf("%w: thumb %q", ErrUnknownPolicy, name)
}

// fingerTips lists index through pinky tips; each PIP joint is tip-2.
var fingerTips = [4]int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}

// FingerStatesOf classifies every finger of h. A finger is open only when its
// tip is strictly above (smaller y) its PIP joint.
func FingerStatesOf(h *detector.HandLandmarks, thumb ThumbOpenPolicy) FingerStates {
	var open [4]bool
	for i, tip := range fingerTips {
		open[i] = h.Points[tip].Y < h.Points[tip-2].Y
	}
	return FingerStates{
		Thumb:  thumb.ThumbOpen(h),
		Index:  open[0],
		Middle: open[1],
		Ring:   open[2],
		Pinky:  open[3],
	}
}

// PinchDistance is the 2D distance between thumb tip and index tip in
// normalized frame units.
func PinchDistance(h *detector.HandLandmarks) float64 {
	return point2(h.Points[detector.ThumbTip]).Sub(point2(h.Points[detector.IndexTip])).Norm()
}

func point2(p detector.Point3D) r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// DragQualifyPolicy decides whether a secondary-hand pose holds the drag button.
type DragQualifyPolicy interface {
	Name() string
	Qualifies(states FingerStates, pinchDistance, threshold float64) bool
}

// PinchOnlyDrag qualifies on pinch distance alone.
type PinchOnlyDrag struct{}

func (PinchOnlyDrag) Name() string { return DragPinch }

func (PinchOnlyDrag) Qualifies(_ FingerStates, pinchDistance, threshold float64) bool {
	return pinchDistance < threshold
}

// PinchClosedDrag additionally requires middle, ring and pinky to be closed.
type PinchClosedDrag struct{}

func (PinchClosedDrag) Name() string { return DragPinchClosed }

func (PinchClosedDrag) Qualifies(states FingerStates, pinchDistance, threshold float64) bool {
	return pinchDistance < threshold && states.OthersClosed()
}

// DragPolicyByName returns the drag policy registered under name.
func DragPolicyByName(name string) (DragQualifyPolicy, error) {
	switch name {
	case DragPinch, "":
		return PinchOnlyDrag{}, nil
	case DragPinchClosed:
		return PinchClosedDrag{}, nil
	}
	return nil, fmt.Errorf("%w: drag %q", ErrUnknownPolicy, name)
}
