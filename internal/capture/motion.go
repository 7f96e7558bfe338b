package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffThreshold = 25
)

// MotionDetector reports how much of the scene changed between consecutive
// frames. It blurs a grayscale copy of each frame and counts pixels whose
// difference from the previous frame exceeds a fixed threshold.
type MotionDetector struct {
	threshold float64 // percent of changed pixels that counts as motion
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of the pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. The first frame only primes
// the detector and never reports motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame; the next Detect primes again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Pacer picks the capture rate: the active rate while hands or motion are
// seen, dropping back to the idle rate after Hold quiet frames.
type Pacer struct {
	IdleFPS   int
	ActiveFPS int
	Hold      int

	quiet  int
	active bool
}

// NewPacer returns a pacer that starts idle.
func NewPacer(idleFPS, activeFPS, hold int) *Pacer {
	return &Pacer{IdleFPS: idleFPS, ActiveFPS: activeFPS, Hold: hold}
}

// Observe records one frame and returns the rate to capture at and whether it
// differs from the previous answer.
func (p *Pacer) Observe(motion bool, hands int) (int, bool) {
	if motion || hands > 0 {
		p.quiet = 0
		if !p.active {
			p.active = true
			return p.ActiveFPS, true
		}
		return p.ActiveFPS, false
	}

	if !p.active {
		return p.IdleFPS, false
	}
	p.quiet++
	if p.quiet >= p.Hold {
		p.active = false
		p.quiet = 0
		return p.IdleFPS, true
	}
	return p.ActiveFPS, false
}

// Active reports whether the pacer is at the active rate.
func (p *Pacer) Active() bool {
	return p.active
}
