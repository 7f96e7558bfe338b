package pointer

import "fmt"

// Kind is the type of a pointer action.
type Kind int

const (
	KindMove Kind = iota
	KindScroll
	KindButtonDown
	KindButtonUp
	KindClick
)

var kindNames = [...]string{"move", "scroll", "button-down", "button-up", "click"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind by name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is one actuator call decided by the controller.
type Action struct {
	Kind   Kind    `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Delta  int     `json:"delta,omitempty"`
	Button Button  `json:"button"`
}

// Move returns a cursor move action.
func Move(x, y float64) Action { return Action{Kind: KindMove, X: x, Y: y} }

// ScrollBy returns a scroll action.
func ScrollBy(delta int) Action { return Action{Kind: KindScroll, Delta: delta} }

// Down returns a button press action.
func Down(b Button) Action { return Action{Kind: KindButtonDown, Button: b} }

// Up returns a button release action.
func Up(b Button) Action { return Action{Kind: KindButtonUp, Button: b} }

// ClickOf returns a discrete click action.
func ClickOf(b Button) Action { return Action{Kind: KindClick, Button: b} }

// Apply performs the action on a.
func (act Action) Apply(a Actuator) error {
	switch act.Kind {
	case KindMove:
		return a.MoveTo(act.X, act.Y)
	case KindScroll:
		return a.Scroll(act.Delta)
	case KindButtonDown:
		return a.ButtonDown(act.Button)
	case KindButtonUp:
		return a.ButtonUp(act.Button)
	case KindClick:
		return a.Click(act.Button)
	}
	return fmt.Errorf("unknown action kind %d", int(act.Kind))
}

func (act Action) String() string {
	switch act.Kind {
	case KindMove:
		return fmt.Sprintf("move(%.1f, %.1f)", act.X, act.Y)
	case KindScroll:
		return fmt.Sprintf("scroll(%d)", act.Delta)
	case KindButtonDown, KindButtonUp, KindClick:
		return fmt.Sprintf("%s(%s)", act.Kind, act.Button)
	}
	return act.Kind.String()
}
