// Package overlay draws the control state onto camera frames and shows them
// in a preview window.
package overlay

import (
	"image"
	"image/color"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// Captions shown for the active mode.
const (
	CaptionScroll     = "SCROLLING"
	CaptionMove       = "MOVE MODE"
	CaptionRightClick = "RIGHT CLICK"
)

var (
	interiorColor = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	boneColor     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	jointColor    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	scrollColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	moveColor     = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	clickColor    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	dragColor     = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// connections are the bones of the 21-point hand model.
var connections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// Caption returns the mode caption for a decision and whether a right click
// fired on this frame. The scroll caption stays up while the scroll pose is
// held in the dead zone.
func Caption(d control.Decision) (string, bool) {
	clicked := false
	for _, a := range d.Actions {
		if a.Kind == pointer.KindClick && a.Button == pointer.ButtonRight {
			clicked = true
		}
	}

	switch {
	case d.Mode == gesture.ModeScrollUp, d.Mode == gesture.ModeScrollDown, d.Classification.ScrollPose:
		return CaptionScroll, clicked
	case d.Mode == gesture.ModeMove:
		return CaptionMove, clicked
	}
	return "", clicked
}

// Draw annotates frame in place with the interior rectangle, hand skeletons,
// the mode caption, and a drag marker.
func Draw(frame *gocv.Mat, interior r2.Rect, hands []detector.HandLandmarks, d control.Decision, dragging bool) {
	if frame == nil || frame.Empty() {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	gocv.Rectangle(frame, image.Rect(
		int(interior.X.Lo), int(interior.Y.Lo),
		int(interior.X.Hi), int(interior.Y.Hi),
	), interiorColor, 2)

	for i := range hands {
		drawHand(frame, &hands[i], w, h)
	}

	caption, clicked := Caption(d)
	switch caption {
	case CaptionScroll:
		gocv.PutText(frame, caption, image.Pt(20, 50), gocv.FontHersheyPlain, 2, scrollColor, 2)
	case CaptionMove:
		gocv.PutText(frame, caption, image.Pt(20, 50), gocv.FontHersheyPlain, 2, moveColor, 2)
	}
	if clicked {
		gocv.PutText(frame, CaptionRightClick, image.Pt(w-200, 50), gocv.FontHersheyPlain, 2, clickColor, 2)
	}

	if dragging && d.Classification.PinchObserved {
		gocv.Circle(frame, pixel(d.Classification.PinchPoint, w, h), 15, dragColor, -1)
	}
}

func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks, w, h int) {
	for _, c := range connections {
		gocv.Line(frame, pixel(hand.Points[c[0]], w, h), pixel(hand.Points[c[1]], w, h), boneColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(frame, pixel(p, w, h), 3, jointColor, -1)
	}
}

func pixel(p detector.Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}
