// Mudra drives the system pointer from hand gestures seen by the webcam.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// flags override everything else when given on the command line.
type flags struct {
	envFile  string
	addr     string
	dataDir  string
	logLevel string
	preview  bool
	tray     bool
	webDir   string
}

func parseFlags() (*flags, *flag.FlagSet) {
	f := &flags{}
	fs := flag.NewFlagSet("mudra", flag.ExitOnError)
	fs.StringVar(&f.envFile, "env", ".env", "dotenv file with MUDRA_* overrides")
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address (empty disables the server)")
	fs.StringVar(&f.dataDir, "data-dir", "", "directory for the settings and journal database")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&f.preview, "preview", false, "show the annotated camera preview (ESC quits)")
	fs.BoolVar(&f.tray, "tray", false, "show the system tray menu")
	fs.StringVar(&f.webDir, "web", "", "directory of static files served at /")
	fs.Parse(os.Args[1:])
	return f, fs
}

// apply copies the flags that were set explicitly onto cfg.
func (f *flags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.HTTPAddr = f.addr
		case "data-dir":
			cfg.DataDir = f.dataDir
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "preview":
			cfg.Preview = f.preview
		case "tray":
			cfg.Tray = f.tray
		}
	})
}

func main() {
	if err := run(); err != nil {
		slog.Error("mudra failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	f, fs := parseFlags()

	// The database location itself comes from env and flags only.
	boot := config.Default()
	if err := boot.LoadEnv(f.envFile); err != nil {
		return err
	}
	f.apply(fs, &boot)

	dataDir, err := boot.DataPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cfg, err := loadConfig(st, f, fs)
	if err != nil {
		return err
	}

	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	slog.Info("mudra starting", "data_dir", dataDir, "mapping", cfg.Mapping, "dominant_right", cfg.DominantRight)

	a, err := app.New(app.Config{
		Settings: cfg,
		Store:    st,
		Actuator: pointer.NewRobot(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	if cfg.HTTPAddr != "" {
		srv := server.New(server.Config{StaticDir: f.webDir, Store: st, App: a})
		go func() {
			if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
				slog.Error("http server error", "error", err)
			}
		}()
	}

	if cfg.Tray {
		runTray(ctx, cancel, a, cfg.HTTPAddr)
	} else {
		select {
		case <-ctx.Done():
		case <-a.Done():
		}
	}

	slog.Info("shutting down...")
	cancel()
	return nil
}

// loadConfig layers persisted settings, the env file, and flags over the
// defaults.
func loadConfig(st *store.Store, f *flags, fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	stored, err := st.Settings().All()
	if err != nil {
		return cfg, fmt.Errorf("load settings: %w", err)
	}
	if err := cfg.ApplySettings(stored); err != nil {
		// a stale key from an older version should not keep us from starting
		slog.Warn("ignoring stored settings", "error", err)
		cfg = config.Default()
	}

	if err := cfg.LoadEnv(f.envFile); err != nil {
		return cfg, err
	}
	f.apply(fs, &cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runTray blocks in the tray loop until quit, a signal, or the pipeline stops.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, addr string) {
	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	t.OnSettings(func() {
		slog.Info("settings are served over HTTP", "url", settingsURL(addr))
	})

	a.OnUpdate(func(u app.Update) {
		t.SetEnabled(u.Enabled)
		t.SetMode(u.Decision.Mode)
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.Done():
		}
		t.Quit()
	}()

	t.Run()
}

func settingsURL(addr string) string {
	if addr == "" {
		return "(http disabled)"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/settings"
}
