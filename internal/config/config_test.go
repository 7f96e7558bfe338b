package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.DominantRight {
		t.Error("DominantRight should default to true")
	}
	if cfg.Smoothing != 5 {
		t.Errorf("Smoothing = %v, want 5", cfg.Smoothing)
	}
	if cfg.FrameMargin != 100 {
		t.Errorf("FrameMargin = %d, want 100", cfg.FrameMargin)
	}
	if cfg.CameraWidth != 640 || cfg.CameraHeight != 480 {
		t.Errorf("camera = %dx%d, want 640x480", cfg.CameraWidth, cfg.CameraHeight)
	}
	if cfg.ClickCooldown != time.Second {
		t.Errorf("ClickCooldown = %v, want 1s", cfg.ClickCooldown)
	}
	if cfg.PinchThreshold != 0.1 {
		t.Errorf("PinchThreshold = %v, want 0.1", cfg.PinchThreshold)
	}
	if cfg.ScrollTick != 20 {
		t.Errorf("ScrollTick = %d, want 20", cfg.ScrollTick)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.DominantRight = false
	cfg.Smoothing = 2.5
	cfg.ClickCooldown = 1500 * time.Millisecond

	restored := Default()
	if err := restored.ApplySettings(cfg.Settings()); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if restored != cfg {
		t.Errorf("restored = %+v, want %+v", restored, cfg)
	}
}

func TestSettingsSkipsLocalFields(t *testing.T) {
	cfg := Default()
	settings := cfg.Settings()
	for _, key := range []string{"data_dir", "http_addr", "log_level"} {
		if _, ok := settings[key]; ok {
			t.Errorf("Settings() should not include %q", key)
		}
	}
}

func TestApplySettingsErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]string
	}{
		{"unknown key", map[string]string{"warp_speed": "9"}},
		{"local key", map[string]string{"data_dir": "/tmp"}},
		{"bad float", map[string]string{"smoothing": "soft"}},
		{"bad int", map[string]string{"frame_margin": "1.5"}},
		{"bad bool", map[string]string{"mirror": "maybe"}},
		{"bad duration", map[string]string{"click_cooldown": "10"}},
		{"bad hand", map[string]string{"dominant_hand": "both"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplySettings(tt.settings)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("ApplySettings() error = %v, want ErrInvalidConfig", err)
			}
			if cfg != Default() {
				t.Error("failed ApplySettings should leave config unchanged")
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MUDRA_SMOOTHING", "3")
	t.Setenv("MUDRA_DOMINANT_HAND", "left")
	t.Setenv("MUDRA_HTTP_ADDR", ":9999")
	t.Setenv("MUDRA_CLICK_COOLDOWN", "750ms")

	cfg := Default()
	if err := cfg.LoadEnv(""); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if cfg.Smoothing != 3 {
		t.Errorf("Smoothing = %v, want 3", cfg.Smoothing)
	}
	if cfg.DominantRight {
		t.Error("DominantRight should be false")
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.ClickCooldown != 750*time.Millisecond {
		t.Errorf("ClickCooldown = %v, want 750ms", cfg.ClickCooldown)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MUDRA_FRAME_MARGIN=80\nMUDRA_SCROLL_TICK=5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// the environment wins over the file
	t.Setenv("MUDRA_SCROLL_TICK", "7")
	// godotenv sets variables it loads; make sure they are cleaned up
	t.Setenv("MUDRA_FRAME_MARGIN", "")
	os.Unsetenv("MUDRA_FRAME_MARGIN")

	cfg := Default()
	if err := cfg.LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if cfg.FrameMargin != 80 {
		t.Errorf("FrameMargin = %d, want 80", cfg.FrameMargin)
	}
	if cfg.ScrollTick != 7 {
		t.Errorf("ScrollTick = %d, want 7", cfg.ScrollTick)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("LoadEnv() with missing file error = %v", err)
	}
}

func TestLoadEnvBadValue(t *testing.T) {
	t.Setenv("MUDRA_PINCH_THRESHOLD", "tight")

	cfg := Default()
	if err := cfg.LoadEnv(""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadEnv() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"smoothing below one", func(c *Config) { c.Smoothing = 0.5 }},
		{"margin swallows frame", func(c *Config) { c.FrameMargin = 240 }},
		{"negative margin", func(c *Config) { c.FrameMargin = -1 }},
		{"zero camera", func(c *Config) { c.CameraWidth = 0 }},
		{"negative screen", func(c *Config) { c.ScreenWidth = -1 }},
		{"negative cooldown", func(c *Config) { c.ClickCooldown = -time.Second }},
		{"zero pinch threshold", func(c *Config) { c.PinchThreshold = 0 }},
		{"inverted scroll band", func(c *Config) { c.ScrollUpBelow, c.ScrollDownAbove = 0.7, 0.3 }},
		{"unknown label mapping", func(c *Config) { c.LabelMapping = "sideways" }},
		{"unknown thumb policy", func(c *Config) { c.ThumbPolicy = "z-depth" }},
		{"unknown drag policy", func(c *Config) { c.DragPolicy = "grab" }},
		{"unknown landmark", func(c *Config) { c.PointerLandmark = "elbow" }},
		{"unknown mapping", func(c *Config) { c.Mapping = "joystick" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	level, err := cfg.Level()
	if err != nil {
		t.Fatalf("Level() error = %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", level)
	}
}

func TestDataPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := Default()
	got, err := cfg.DataPath()
	if err != nil {
		t.Fatalf("DataPath() error = %v", err)
	}
	if want := filepath.Join(home, ".mudra"); got != want {
		t.Errorf("DataPath() = %q, want %q", got, want)
	}

	cfg.DataDir = "/var/lib/mudra"
	if got, _ := cfg.DataPath(); got != "/var/lib/mudra" {
		t.Errorf("DataPath() = %q, want /var/lib/mudra", got)
	}
}

func TestControl(t *testing.T) {
	cfg := Default()
	cfg.ThumbPolicy = gesture.ThumbMirroredX
	cfg.DragPolicy = gesture.DragPinchClosed
	cfg.PointerLandmark = gesture.PointerWrist
	cfg.LabelMapping = string(gesture.MappingLiteral)
	cfg.ScreenHeight = 900

	cc, err := cfg.Control(1920, 1080)
	if err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if cc.Gesture.Thumb.Name() != gesture.ThumbMirroredX {
		t.Errorf("thumb policy = %q", cc.Gesture.Thumb.Name())
	}
	if cc.Gesture.Drag.Name() != gesture.DragPinchClosed {
		t.Errorf("drag policy = %q", cc.Gesture.Drag.Name())
	}
	if cc.Gesture.PointerLandmark != detector.Wrist {
		t.Errorf("pointer landmark = %d, want wrist", cc.Gesture.PointerLandmark)
	}
	if cc.LabelMapping != gesture.MappingLiteral {
		t.Errorf("label mapping = %q", cc.LabelMapping)
	}
	if cc.Mapper.ScreenWidth != 1920 || cc.Mapper.ScreenHeight != 900 {
		t.Errorf("screen = %dx%d, want 1920x900", cc.Mapper.ScreenWidth, cc.Mapper.ScreenHeight)
	}
	if cc.ClickCooldown != time.Second {
		t.Errorf("cooldown = %v, want 1s", cc.ClickCooldown)
	}
}
