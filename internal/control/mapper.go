package control

import (
	"fmt"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/ayusman/mudra/internal/detector"
)

// Mapping names.
const (
	MappingAbsolute = "absolute"
	MappingRelative = "relative"
)

// MapperConfig describes the camera interior region and the screen.
type MapperConfig struct {
	CameraWidth  int
	CameraHeight int
	FrameMargin  int // inset in camera pixels on every side
	ScreenWidth  int
	ScreenHeight int
	Mode         string // MappingAbsolute or MappingRelative
}

// Mapper converts normalized landmark positions to screen coordinates.
type Mapper struct {
	camW, camH float64
	interiorX  r1.Interval
	interiorY  r1.Interval
	screen     r2.Rect
	relative   bool
}

// NewMapper validates cfg and builds a Mapper.
func NewMapper(cfg MapperConfig) (*Mapper, error) {
	if cfg.CameraWidth <= 0 || cfg.CameraHeight <= 0 {
		return nil, fmt.Errorf("camera size %dx%d must be positive", cfg.CameraWidth, cfg.CameraHeight)
	}
	if cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		return nil, fmt.Errorf("screen size %dx%d must be positive", cfg.ScreenWidth, cfg.ScreenHeight)
	}
	if cfg.FrameMargin < 0 || 2*cfg.FrameMargin >= cfg.CameraWidth || 2*cfg.FrameMargin >= cfg.CameraHeight {
		return nil, fmt.Errorf("frame margin %d leaves no interior in a %dx%d frame", cfg.FrameMargin, cfg.CameraWidth, cfg.CameraHeight)
	}

	var relative bool
	switch cfg.Mode {
	case MappingAbsolute, "":
	case MappingRelative:
		relative = true
	default:
		return nil, fmt.Errorf("unknown mapping %q", cfg.Mode)
	}

	margin := float64(cfg.FrameMargin)
	camW, camH := float64(cfg.CameraWidth), float64(cfg.CameraHeight)
	return &Mapper{
		camW:      camW,
		camH:      camH,
		interiorX: r1.Interval{Lo: margin, Hi: camW - margin},
		interiorY: r1.Interval{Lo: margin, Hi: camH - margin},
		screen: r2.Rect{
			X: r1.Interval{Lo: 0, Hi: float64(cfg.ScreenWidth)},
			Y: r1.Interval{Lo: 0, Hi: float64(cfg.ScreenHeight)},
		},
		relative: relative,
	}, nil
}

// Interior returns the camera-pixel rectangle that spans the whole screen.
func (m *Mapper) Interior() r2.Rect {
	return r2.Rect{X: m.interiorX, Y: m.interiorY}
}

// Screen returns the screen rectangle.
func (m *Mapper) Screen() r2.Rect {
	return m.screen
}

// Relative reports whether the mapper works in relative mode.
func (m *Mapper) Relative() bool {
	return m.relative
}

// Absolute maps a landmark linearly from the camera interior onto the screen.
// Points outside the interior clamp to the screen edge.
func (m *Mapper) Absolute(p detector.Point3D) (float64, float64) {
	return interp(p.X*m.camW, m.interiorX, m.screen.X), interp(p.Y*m.camH, m.interiorY, m.screen.Y)
}

// Target returns the unsmoothed screen target for a move frame. In relative
// mode the landmark's motion since the previous move frame is scaled onto the
// screen and added to the previous target; the first move frame anchors at the
// current cursor position.
func (m *Mapper) Target(st *PointerState, p detector.Point3D) (float64, float64) {
	if !m.relative {
		return m.Absolute(p)
	}

	camX, camY := p.X*m.camW, p.Y*m.camH
	if !st.anchored {
		st.anchored = true
		st.anchorCamX, st.anchorCamY = camX, camY
		st.anchorX, st.anchorY = st.SmoothedX, st.SmoothedY
		return st.anchorX, st.anchorY
	}

	dx := (camX - st.anchorCamX) * m.screen.X.Length() / m.interiorX.Length()
	dy := (camY - st.anchorCamY) * m.screen.Y.Length() / m.interiorY.Length()
	target := m.screen.ClampPoint(r2.Point{X: st.anchorX + dx, Y: st.anchorY + dy})

	st.anchorCamX, st.anchorCamY = camX, camY
	st.anchorX, st.anchorY = target.X, target.Y
	return target.X, target.Y
}

// interp maps v from in to out, clamping to out's bounds.
func interp(v float64, in, out r1.Interval) float64 {
	v = in.ClampPoint(v)
	return out.Lo + (v-in.Lo)/in.Length()*out.Length()
}
