package control

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// Config holds everything the controller needs to turn hands into actions.
type Config struct {
	Gesture       gesture.Config
	DominantRight bool
	LabelMapping  gesture.LabelMapping
	Smoothing     float64 // divisor, >= 1
	Mapper        MapperConfig
	ClickCooldown time.Duration
}

// DefaultConfig returns the controller defaults for a 640x480 camera and the
// given screen size.
func DefaultConfig(screenWidth, screenHeight int) Config {
	return Config{
		Gesture:       gesture.DefaultConfig(),
		DominantRight: true,
		LabelMapping:  gesture.MappingMirrored,
		Smoothing:     5,
		Mapper: MapperConfig{
			CameraWidth:  640,
			CameraHeight: 480,
			FrameMargin:  100,
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
			Mode:         MappingAbsolute,
		},
		ClickCooldown: time.Second,
	}
}

// Decision is the outcome of one frame.
type Decision struct {
	Mode           gesture.Mode           `json:"mode"`
	Classification gesture.Classification `json:"classification"`
	Actions        []pointer.Action       `json:"actions"`
	Hands          int                    `json:"hands"`
	Err            error                  `json:"-"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the controller's clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLogger sets the logger used for per-frame and failure logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithState seeds the controller's pointer state, e.g. to carry the cursor
// position across a reconfiguration.
func WithState(st PointerState) Option {
	return func(c *Controller) {
		c.state = st
	}
}

// Controller runs the per-frame pipeline: resolve roles, classify, smooth and
// map the pointer, debounce buttons, and drive the actuator.
//
// A Controller is not safe for concurrent use. Only one goroutine may call
// Step or Release.
type Controller struct {
	resolver   *gesture.Resolver
	classifier *gesture.Classifier
	mapper     *Mapper
	smoother   *Smoother
	debouncer  *Debouncer
	actuator   pointer.Actuator
	state      PointerState
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a Controller that drives actuator.
func New(cfg Config, actuator pointer.Actuator, opts ...Option) (*Controller, error) {
	if actuator == nil {
		return nil, fmt.Errorf("actuator is required")
	}
	mapper, err := NewMapper(cfg.Mapper)
	if err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}
	smoother, err := NewSmoother(cfg.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("smoother: %w", err)
	}
	if cfg.ClickCooldown < 0 {
		return nil, fmt.Errorf("click cooldown %v must not be negative", cfg.ClickCooldown)
	}

	c := &Controller{
		resolver:   gesture.NewResolver(cfg.DominantRight, cfg.LabelMapping),
		classifier: gesture.NewClassifier(cfg.Gesture),
		mapper:     mapper,
		smoother:   smoother,
		debouncer:  NewDebouncer(cfg.ClickCooldown),
		actuator:   actuator,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mapper returns the controller's camera-to-screen mapper.
func (c *Controller) Mapper() *Mapper {
	return c.mapper
}

// State returns a copy of the controller-owned pointer state.
func (c *Controller) State() PointerState {
	return c.state
}

// Decide computes the actions for one frame and updates st. It does not touch
// the actuator.
func (c *Controller) Decide(st *PointerState, hands []detector.HandLandmarks, now time.Time) Decision {
	for i := range hands {
		if err := hands[i].Validate(); err != nil {
			return Decision{Mode: gesture.ModeIdle, Hands: len(hands), Err: fmt.Errorf("hand %d: %w", i, err)}
		}
	}

	resolved := c.resolver.Resolve(hands)
	if resolved.Count() == 0 {
		return Decision{Mode: gesture.ModeIdle, Hands: len(hands)}
	}

	cls := c.classifier.Classify(resolved)
	var actions []pointer.Action

	switch {
	case cls.ScrollDelta != 0:
		actions = append(actions, pointer.ScrollBy(cls.ScrollDelta))
	case cls.HasTarget:
		tx, ty := c.mapper.Target(st, cls.Target)
		x, y := c.smoother.Step(st, tx, ty)
		actions = append(actions, pointer.Move(x, y))
	}
	if cls.Mode != gesture.ModeMove {
		st.clearAnchor()
	}

	if a, ok := c.debouncer.Drag(st, cls.PinchObserved, cls.Pinching); ok {
		actions = append(actions, a)
	}
	if a, ok := c.debouncer.RightClick(st, cls.Fist, now); ok {
		actions = append(actions, a)
	}

	return Decision{
		Mode:           cls.Mode,
		Classification: cls,
		Actions:        actions,
		Hands:          len(hands),
	}
}

// Step runs Decide on the controller's own state and applies the resulting
// actions in order. Actuator failures are logged; the state still reflects
// the decision.
func (c *Controller) Step(hands []detector.HandLandmarks) Decision {
	d := c.Decide(&c.state, hands, c.now())
	if d.Err != nil {
		c.logger.Debug("frame skipped", "error", d.Err)
		return d
	}
	c.apply(d.Actions)
	if len(d.Actions) > 0 {
		c.logger.Debug("frame", "mode", d.Mode, "actions", len(d.Actions))
	}
	return d
}

// Release ends an active drag, pressing button-up on the actuator. It is used
// when control is disabled mid-drag.
func (c *Controller) Release() []pointer.Action {
	a, ok := c.debouncer.Release(&c.state)
	if !ok {
		return nil
	}
	actions := []pointer.Action{a}
	c.apply(actions)
	return actions
}

func (c *Controller) apply(actions []pointer.Action) {
	for _, a := range actions {
		if err := a.Apply(c.actuator); err != nil {
			c.logger.Warn("actuator failed", "action", a.String(), "error", err)
		}
	}
}
