package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrDetectorUnavailable is returned when no hand-pose backend can be started.
var ErrDetectorUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand-pose providers.
//
// Frames passed to Detect must already be mirrored horizontally; the handedness
// labels in the result are computed on that mirrored image.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the MediaPipe service script lookup.
	ScriptPath string
}

// DefaultConfig returns the detection settings the pointer controller was tuned with.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}
