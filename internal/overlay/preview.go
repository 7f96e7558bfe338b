package overlay

import (
	"gocv.io/x/gocv"
)

// KeyEscape is the key code that closes the preview.
const KeyEscape = 27

// Preview shows annotated frames in a desktop window.
//
// OpenCV's HighGUI must be driven from a single thread; call every method
// from the goroutine that created the Preview.
type Preview struct {
	window *gocv.Window
}

// NewPreview opens a window with the given title.
func NewPreview(title string) *Preview {
	return &Preview{window: gocv.NewWindow(title)}
}

// Show displays frame and polls the keyboard for one millisecond. It reports
// whether the user asked to quit (Escape or the window was closed).
func (p *Preview) Show(frame *gocv.Mat) bool {
	if frame == nil || frame.Empty() {
		return false
	}
	p.window.IMShow(*frame)
	key := p.window.WaitKey(1)
	return key&0xFF == KeyEscape || !p.window.IsOpen()
}

// Close destroys the window.
func (p *Preview) Close() error {
	return p.window.Close()
}
