package control

import "fmt"

// Smoother applies exponential smoothing to cursor targets.
//
// The single parameter is a divisor: each frame the cursor covers 1/divisor of
// the remaining distance. 1 disables smoothing; larger values are smoother and
// slower.
type Smoother struct {
	alpha float64
}

// NewSmoother creates a smoother for the given divisor, which must be >= 1.
func NewSmoother(divisor float64) (*Smoother, error) {
	if !(divisor >= 1) {
		return nil, fmt.Errorf("smoothing divisor %v must be >= 1", divisor)
	}
	return &Smoother{alpha: 1 / divisor}, nil
}

// Alpha returns the per-frame blend factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Step moves the smoothed position toward (tx, ty) and returns it.
func (s *Smoother) Step(st *PointerState, tx, ty float64) (float64, float64) {
	st.SmoothedX += (tx - st.SmoothedX) * s.alpha
	st.SmoothedY += (ty - st.SmoothedY) * s.alpha
	return st.SmoothedX, st.SmoothedY
}
