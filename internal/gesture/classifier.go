package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Mode is the control mode reported for a frame.
type Mode int

const (
	ModeIdle Mode = iota
	ModeScrollUp
	ModeScrollDown
	ModeMove
	ModePinch
	ModeFist
)

var modeNames = [...]string{"idle", "scroll-up", "scroll-down", "move", "pinch", "fist"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// MarshalText renders the mode by name in JSON payloads.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name written by MarshalText.
func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Pointer landmark names.
const (
	PointerIndex = "index"
	PointerWrist = "wrist"
)

// PointerLandmarkByName maps a pointer landmark name to its landmark index.
func PointerLandmarkByName(name string) (int, error) {
	switch name {
	case PointerIndex, "":
		return detector.IndexTip, nil
	case PointerWrist:
		return detector.Wrist, nil
	}
	return 0, fmt.Errorf("%w: pointer landmark %q", ErrUnknownPolicy, name)
}

// Config holds classifier thresholds and policies.
type Config struct {
	Thumb           ThumbOpenPolicy
	Drag            DragQualifyPolicy
	PinchThreshold  float64
	ScrollTick      int
	ScrollUpBelow   float64 // wrist y above the frame's upper band scrolls up
	ScrollDownAbove float64 // wrist y below the lower band scrolls down
	PointerLandmark int     // landmark of the secondary hand that steers the cursor
}

// DefaultConfig returns the thresholds of the original hand mouse.
func DefaultConfig() Config {
	return Config{
		Thumb:           PinkyBaseThumb{},
		Drag:            PinchOnlyDrag{},
		PinchThreshold:  0.1,
		ScrollTick:      20,
		ScrollUpBelow:   0.4,
		ScrollDownAbove: 0.6,
		PointerLandmark: detector.IndexTip,
	}
}

// Classification is everything the classifier derived from one frame.
type Classification struct {
	Mode Mode `json:"mode"`

	// ScrollPose is set while the secondary hand is held open alone, including
	// inside the dead zone where no tick is produced.
	ScrollPose  bool `json:"scroll_pose"`
	ScrollDelta int  `json:"scroll_delta"` // +tick for up, -tick for down

	// HasTarget is set in move mode; Target is the steering landmark.
	HasTarget bool             `json:"has_target"`
	Target    detector.Point3D `json:"target"`

	// PinchObserved is set whenever a secondary hand was seen, so a drag can be
	// released. Pinching is the drag policy's verdict.
	PinchObserved bool    `json:"pinch_observed"`
	Pinching      bool    `json:"pinching"`
	PinchDistance float64 `json:"pinch_distance"`

	// PinchPoint is the secondary hand's index tip, where a drag is drawn.
	PinchPoint detector.Point3D `json:"pinch_point"`

	Fist bool `json:"fist"`

	Primary   *FingerStates `json:"primary,omitempty"`
	Secondary *FingerStates `json:"secondary,omitempty"`
}

// Classifier turns role-resolved hands into a Classification. It keeps no
// state between frames.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier. Nil policies fall back to the defaults.
func NewClassifier(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.Thumb == nil {
		cfg.Thumb = def.Thumb
	}
	if cfg.Drag == nil {
		cfg.Drag = def.Drag
	}
	return &Classifier{cfg: cfg}
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify evaluates one frame.
//
// Scroll (secondary hand alone, four fingers open) and move (both hands, four
// fingers open on each) are mutually exclusive by hand presence. Pinch on the
// secondary hand and fist on the primary hand are evaluated on every frame
// regardless of scroll or move.
func (c *Classifier) Classify(hands Hands) Classification {
	var out Classification

	var primary, secondary FingerStates
	if hands.Primary != nil {
		primary = FingerStatesOf(hands.Primary, c.cfg.Thumb)
		out.Primary = &primary
	}
	if hands.Secondary != nil {
		secondary = FingerStatesOf(hands.Secondary, c.cfg.Thumb)
		out.Secondary = &secondary
	}

	switch {
	case hands.Secondary != nil && hands.Primary == nil:
		if secondary.AllOtherFingersOpen() {
			out.ScrollPose = true
			wristY := hands.Secondary.Points[detector.Wrist].Y
			if wristY < c.cfg.ScrollUpBelow {
				out.Mode = ModeScrollUp
				out.ScrollDelta = c.cfg.ScrollTick
			} else if wristY > c.cfg.ScrollDownAbove {
				out.Mode = ModeScrollDown
				out.ScrollDelta = -c.cfg.ScrollTick
			}
		}
	case hands.Secondary != nil && hands.Primary != nil:
		if secondary.AllOtherFingersOpen() && primary.AllOtherFingersOpen() {
			out.Mode = ModeMove
			out.HasTarget = true
			out.Target = hands.Secondary.Points[c.cfg.PointerLandmark]
		}
	}

	if hands.Secondary != nil {
		out.PinchObserved = true
		out.PinchDistance = PinchDistance(hands.Secondary)
		out.PinchPoint = hands.Secondary.Points[detector.IndexTip]
		out.Pinching = c.cfg.Drag.Qualifies(secondary, out.PinchDistance, c.cfg.PinchThreshold)
	}

	if hands.Primary != nil {
		out.Fist = primary.IsFist()
	}

	if out.Mode == ModeIdle {
		switch {
		case out.Pinching:
			out.Mode = ModePinch
		case out.Fist:
			out.Mode = ModeFist
		}
	}

	return out
}
