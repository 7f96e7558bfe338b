package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func getJSON(t *testing.T, client *http.Client, url string, v any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, http.StatusOK)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s decode error = %v", url, err)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	mockDetector := detector.NewMockDetector()
	recorder := pointer.NewRecorder(1920, 1080)

	application, err := app.New(app.Config{
		Settings: config.Default(),
		Store:    s,
		Camera:   capture.NewBlankCamera(640, 480),
		Detector: mockDetector,
		Actuator: recorder,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ts := httptest.NewServer(server.New(server.Config{Store: s, App: application}))
	defer ts.Close()
	client := ts.Client()

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	t.Run("BothHandsOpenMovePointer", func(t *testing.T) {
		mockDetector.SetHands([]detector.HandLandmarks{
			detector.OpenPalmLandmarks(),
			detector.Labeled(detector.OpenPalmLandmarks(), detector.LabelLeft),
		})
		waitFor(t, "move mode", func() bool {
			return application.Status().Mode == gesture.ModeMove
		})
		if recorder.Count(pointer.KindMove) == 0 {
			t.Error("no pointer moves in move mode")
		}

		var status app.Status
		getJSON(t, client, ts.URL+"/api/status", &status)
		if !status.Running || status.Hands != 2 {
			t.Errorf("status = %+v, want running with two hands", status)
		}
	})

	t.Run("PrimaryFistRightClicks", func(t *testing.T) {
		mockDetector.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
		waitFor(t, "right click", func() bool {
			return recorder.Count(pointer.KindClick) > 0
		})
		waitFor(t, "fist mode", func() bool {
			return application.Status().Mode == gesture.ModeFist
		})
	})

	t.Run("DisableOverHTTP", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/enabled", "application/json", strings.NewReader(`{"enabled": false}`))
		if err != nil {
			t.Fatalf("POST /api/enabled error = %v", err)
		}
		resp.Body.Close()

		waitFor(t, "idle after disable", func() bool {
			return application.Status().Mode == gesture.ModeIdle
		})
		before := len(recorder.Actions())
		time.Sleep(300 * time.Millisecond)
		if after := len(recorder.Actions()); after != before {
			t.Errorf("actuator got %d actions while disabled", after-before)
		}
	})

	t.Run("SettingsPersist", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{"click_cooldown": "2s"}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/settings error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		if got := application.Settings().ClickCooldown; got != 2*time.Second {
			t.Errorf("ClickCooldown = %v, want 2s", got)
		}
		stored, err := s.Settings().Get("click_cooldown")
		if err != nil || stored != "2s" {
			t.Errorf("stored click_cooldown = %q, %v", stored, err)
		}
	})

	application.Stop()

	t.Run("JournalListsEvents", func(t *testing.T) {
		var clicks struct {
			Events []store.Event `json:"events"`
		}
		getJSON(t, client, ts.URL+"/api/events?kind=right_click", &clicks)
		if len(clicks.Events) == 0 {
			t.Fatal("no right_click events journaled")
		}
		if clicks.Events[0].Mode != gesture.ModeFist.String() {
			t.Errorf("right click mode = %q, want fist", clicks.Events[0].Mode)
		}

		var sessions struct {
			Sessions []store.Session `json:"sessions"`
		}
		getJSON(t, client, ts.URL+"/api/sessions", &sessions)
		if len(sessions.Sessions) != 1 || sessions.Sessions[0].EndedAt == nil {
			t.Errorf("sessions = %+v, want one ended session", sessions.Sessions)
		}
	})
}
