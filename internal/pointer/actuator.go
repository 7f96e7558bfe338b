// Package pointer defines the OS pointer actuator the controller drives.
package pointer

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

// Actuator injects pointer events into the operating system.
type Actuator interface {
	// MoveTo moves the cursor to absolute screen coordinates.
	MoveTo(x, y float64) error
	// Scroll sends a vertical scroll; positive is up.
	Scroll(delta int) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
	Click(b Button) error
}

// ScreenSizer reports the pixel size of the primary display.
type ScreenSizer interface {
	ScreenSize() (width, height int)
}

// MarshalText renders the button by name in JSON payloads.
func (b Button) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
