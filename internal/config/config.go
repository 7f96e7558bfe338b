// Package config holds runtime configuration for mudra.
//
// Values are layered: Default, then settings persisted in the store
// (ApplySettings), then a .env file and MUDRA_* environment variables
// (LoadEnv), then command-line flags in main.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
)

// ErrInvalidConfig is returned for out-of-range or unparsable values.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "MUDRA_"

// Config is the full runtime configuration.
type Config struct {
	DominantRight bool   `json:"dominant_right"`
	LabelMapping  string `json:"label_mapping"`

	Smoothing    float64 `json:"smoothing"`
	FrameMargin  int     `json:"frame_margin"`
	CameraWidth  int     `json:"camera_width"`
	CameraHeight int     `json:"camera_height"`
	ScreenWidth  int     `json:"screen_width"` // 0 asks the actuator
	ScreenHeight int     `json:"screen_height"`
	Mapping      string  `json:"mapping"`

	ClickCooldown   time.Duration `json:"click_cooldown"`
	PinchThreshold  float64       `json:"pinch_threshold"`
	ScrollTick      int           `json:"scroll_tick"`
	ScrollUpBelow   float64       `json:"scroll_up_below"`
	ScrollDownAbove float64       `json:"scroll_down_above"`
	ThumbPolicy     string        `json:"thumb_policy"`
	DragPolicy      string        `json:"drag_policy"`
	PointerLandmark string        `json:"pointer_landmark"`

	CameraID int    `json:"camera_id"`
	Mirror   bool   `json:"mirror"`
	Preview  bool   `json:"preview"`
	Tray     bool   `json:"tray"`
	HTTPAddr string `json:"http_addr"`
	DataDir  string `json:"data_dir"`
	Journal  bool   `json:"journal"`
	LogLevel string `json:"log_level"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		DominantRight:   true,
		LabelMapping:    string(gesture.MappingMirrored),
		Smoothing:       5,
		FrameMargin:     100,
		CameraWidth:     640,
		CameraHeight:    480,
		Mapping:         control.MappingAbsolute,
		ClickCooldown:   time.Second,
		PinchThreshold:  0.1,
		ScrollTick:      20,
		ScrollUpBelow:   0.4,
		ScrollDownAbove: 0.6,
		ThumbPolicy:     gesture.ThumbPinkyBase,
		DragPolicy:      gesture.DragPinch,
		PointerLandmark: gesture.PointerIndex,
		Mirror:          true,
		HTTPAddr:        ":8080",
		DataDir:         "~/.mudra",
		Journal:         true,
		LogLevel:        "info",
	}
}

// field binds a setting key to a Config field.
type field struct {
	key     string
	persist bool // stored in the settings table and editable over HTTP
	get     func(*Config) string
	set     func(*Config, string) error
}

var fields = []field{
	{"dominant_hand", true, func(c *Config) string {
		if c.DominantRight {
			return "right"
		}
		return "left"
	}, func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "right":
			c.DominantRight = true
		case "left":
			c.DominantRight = false
		default:
			return fmt.Errorf("want left or right, got %q", v)
		}
		return nil
	}},
	{"label_mapping", true, func(c *Config) string { return c.LabelMapping }, setString(func(c *Config) *string { return &c.LabelMapping })},
	{"smoothing", true, func(c *Config) string { return formatFloat(c.Smoothing) }, setFloat(func(c *Config) *float64 { return &c.Smoothing })},
	{"frame_margin", true, func(c *Config) string { return strconv.Itoa(c.FrameMargin) }, setInt(func(c *Config) *int { return &c.FrameMargin })},
	{"camera_width", true, func(c *Config) string { return strconv.Itoa(c.CameraWidth) }, setInt(func(c *Config) *int { return &c.CameraWidth })},
	{"camera_height", true, func(c *Config) string { return strconv.Itoa(c.CameraHeight) }, setInt(func(c *Config) *int { return &c.CameraHeight })},
	{"screen_width", true, func(c *Config) string { return strconv.Itoa(c.ScreenWidth) }, setInt(func(c *Config) *int { return &c.ScreenWidth })},
	{"screen_height", true, func(c *Config) string { return strconv.Itoa(c.ScreenHeight) }, setInt(func(c *Config) *int { return &c.ScreenHeight })},
	{"mapping", true, func(c *Config) string { return c.Mapping }, setString(func(c *Config) *string { return &c.Mapping })},
	{"click_cooldown", true, func(c *Config) string { return c.ClickCooldown.String() }, func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.ClickCooldown = d
		return nil
	}},
	{"pinch_threshold", true, func(c *Config) string { return formatFloat(c.PinchThreshold) }, setFloat(func(c *Config) *float64 { return &c.PinchThreshold })},
	{"scroll_tick", true, func(c *Config) string { return strconv.Itoa(c.ScrollTick) }, setInt(func(c *Config) *int { return &c.ScrollTick })},
	{"scroll_up_below", true, func(c *Config) string { return formatFloat(c.ScrollUpBelow) }, setFloat(func(c *Config) *float64 { return &c.ScrollUpBelow })},
	{"scroll_down_above", true, func(c *Config) string { return formatFloat(c.ScrollDownAbove) }, setFloat(func(c *Config) *float64 { return &c.ScrollDownAbove })},
	{"thumb_policy", true, func(c *Config) string { return c.ThumbPolicy }, setString(func(c *Config) *string { return &c.ThumbPolicy })},
	{"drag_policy", true, func(c *Config) string { return c.DragPolicy }, setString(func(c *Config) *string { return &c.DragPolicy })},
	{"pointer_landmark", true, func(c *Config) string { return c.PointerLandmark }, setString(func(c *Config) *string { return &c.PointerLandmark })},
	{"camera_id", true, func(c *Config) string { return strconv.Itoa(c.CameraID) }, setInt(func(c *Config) *int { return &c.CameraID })},
	{"mirror", true, func(c *Config) string { return strconv.FormatBool(c.Mirror) }, setBool(func(c *Config) *bool { return &c.Mirror })},
	{"preview", true, func(c *Config) string { return strconv.FormatBool(c.Preview) }, setBool(func(c *Config) *bool { return &c.Preview })},
	{"tray", true, func(c *Config) string { return strconv.FormatBool(c.Tray) }, setBool(func(c *Config) *bool { return &c.Tray })},
	{"journal", true, func(c *Config) string { return strconv.FormatBool(c.Journal) }, setBool(func(c *Config) *bool { return &c.Journal })},
	{"http_addr", false, func(c *Config) string { return c.HTTPAddr }, setString(func(c *Config) *string { return &c.HTTPAddr })},
	{"data_dir", false, func(c *Config) string { return c.DataDir }, setString(func(c *Config) *string { return &c.DataDir })},
	{"log_level", false, func(c *Config) string { return c.LogLevel }, setString(func(c *Config) *string { return &c.LogLevel })},
}

func setString(p func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*p(c) = strings.TrimSpace(v)
		return nil
	}
}

func setInt(p func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*p(c) = i
		return nil
	}
}

func setFloat(p func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*p(c) = f
		return nil
	}
}

func setBool(p func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*p(c) = b
		return nil
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Settings returns the persisted settings as key/value strings.
func (c *Config) Settings() map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.persist {
			out[f.key] = f.get(c)
		}
	}
	return out
}

// ApplySettings overlays key/value settings onto c. Unknown keys and
// unparsable values fail with ErrInvalidConfig and leave c unchanged.
func (c *Config) ApplySettings(settings map[string]string) error {
	next := *c
	for key, value := range settings {
		f, ok := lookup(key)
		if !ok || !f.persist {
			return fmt.Errorf("%w: unknown setting %q", ErrInvalidConfig, key)
		}
		if err := f.set(&next, value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
	}
	*c = next
	return nil
}

// EnvName returns the environment variable that overrides a setting key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// LoadEnv loads envFile (if it exists) into the process environment and then
// applies every MUDRA_* variable that is set. Variables already present in
// the environment win over the file.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	next := *c
	for _, f := range fields {
		v, ok := os.LookupEnv(EnvName(f.key))
		if !ok || v == "" {
			continue
		}
		if err := f.set(&next, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvName(f.key), err)
		}
	}
	*c = next
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !(c.Smoothing >= 1) {
		bad("smoothing %v must be >= 1", c.Smoothing)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		bad("camera size %dx%d must be positive", c.CameraWidth, c.CameraHeight)
	} else if c.FrameMargin < 0 || 2*c.FrameMargin >= c.CameraWidth || 2*c.FrameMargin >= c.CameraHeight {
		bad("frame margin %d does not fit a %dx%d frame", c.FrameMargin, c.CameraWidth, c.CameraHeight)
	}
	if c.ScreenWidth < 0 || c.ScreenHeight < 0 {
		bad("screen size %dx%d must not be negative", c.ScreenWidth, c.ScreenHeight)
	}
	if c.ClickCooldown < 0 {
		bad("click cooldown %v must not be negative", c.ClickCooldown)
	}
	if !(c.PinchThreshold > 0) {
		bad("pinch threshold %v must be positive", c.PinchThreshold)
	}
	if c.ScrollTick < 0 {
		bad("scroll tick %d must not be negative", c.ScrollTick)
	}
	if !(0 <= c.ScrollUpBelow && c.ScrollUpBelow <= c.ScrollDownAbove && c.ScrollDownAbove <= 1) {
		bad("scroll band [%v, %v] must lie within [0, 1]", c.ScrollUpBelow, c.ScrollDownAbove)
	}
	if _, err := gesture.ParseLabelMapping(c.LabelMapping); err != nil {
		bad("%v", err)
	}
	if _, err := gesture.ThumbPolicyByName(c.ThumbPolicy); err != nil {
		bad("%v", err)
	}
	if _, err := gesture.DragPolicyByName(c.DragPolicy); err != nil {
		bad("%v", err)
	}
	if _, err := gesture.PointerLandmarkByName(c.PointerLandmark); err != nil {
		bad("%v", err)
	}
	if c.Mapping != control.MappingAbsolute && c.Mapping != control.MappingRelative {
		bad("unknown mapping %q", c.Mapping)
	}
	if c.CameraID < 0 {
		bad("camera id %d must not be negative", c.CameraID)
	}
	if _, err := c.Level(); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// DataPath expands a leading ~ in DataDir.
func (c *Config) DataPath() (string, error) {
	dir := c.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// Control builds the controller configuration for the given screen size. A
// configured ScreenWidth/ScreenHeight overrides the size passed in.
func (c *Config) Control(screenWidth, screenHeight int) (control.Config, error) {
	thumb, err := gesture.ThumbPolicyByName(c.ThumbPolicy)
	if err != nil {
		return control.Config{}, err
	}
	drag, err := gesture.DragPolicyByName(c.DragPolicy)
	if err != nil {
		return control.Config{}, err
	}
	landmark, err := gesture.PointerLandmarkByName(c.PointerLandmark)
	if err != nil {
		return control.Config{}, err
	}
	mapping, err := gesture.ParseLabelMapping(c.LabelMapping)
	if err != nil {
		return control.Config{}, err
	}
	if c.ScreenWidth > 0 {
		screenWidth = c.ScreenWidth
	}
	if c.ScreenHeight > 0 {
		screenHeight = c.ScreenHeight
	}

	return control.Config{
		Gesture: gesture.Config{
			Thumb:           thumb,
			Drag:            drag,
			PinchThreshold:  c.PinchThreshold,
			ScrollTick:      c.ScrollTick,
			ScrollUpBelow:   c.ScrollUpBelow,
			ScrollDownAbove: c.ScrollDownAbove,
			PointerLandmark: landmark,
		},
		DominantRight: c.DominantRight,
		LabelMapping:  mapping,
		Smoothing:     c.Smoothing,
		Mapper: control.MapperConfig{
			CameraWidth:  c.CameraWidth,
			CameraHeight: c.CameraHeight,
			FrameMargin:  c.FrameMargin,
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
			Mode:         c.Mapping,
		},
		ClickCooldown: c.ClickCooldown,
	}, nil
}
