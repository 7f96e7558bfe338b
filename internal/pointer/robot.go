package pointer

import (
	"math"

	"github.com/go-vgo/robotgo"
)

// Robot drives the real system cursor through robotgo.
type Robot struct{}

// NewRobot returns the robotgo-backed actuator.
func NewRobot() *Robot {
	return &Robot{}
}

// ScreenSize returns the primary display size in pixels.
func (r *Robot) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func (r *Robot) MoveTo(x, y float64) error {
	robotgo.Move(int(math.Round(x)), int(math.Round(y)))
	return nil
}

func (r *Robot) Scroll(delta int) error {
	switch {
	case delta > 0:
		robotgo.ScrollDir(delta, "up")
	case delta < 0:
		robotgo.ScrollDir(-delta, "down")
	}
	return nil
}

func (r *Robot) ButtonDown(b Button) error {
	return robotgo.Toggle(b.String())
}

func (r *Robot) ButtonUp(b Button) error {
	return robotgo.Toggle(b.String(), "up")
}

func (r *Robot) Click(b Button) error {
	robotgo.Click(b.String())
	return nil
}
