package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

// fakePipeline stands in for *app.App.
type fakePipeline struct {
	mu        sync.Mutex
	settings  config.Config
	enabled   bool
	snapshot  []byte
	listeners []func(app.Update)
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{settings: config.Default(), enabled: true}
}

func (p *fakePipeline) Status() app.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return app.Status{Running: true, Enabled: p.enabled, Mode: gesture.ModeIdle, FPS: 5}
}

func (p *fakePipeline) Settings() config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

func (p *fakePipeline) UpdateSettings(settings config.Config) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = settings
	return nil
}

func (p *fakePipeline) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

func (p *fakePipeline) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *fakePipeline) Snapshot() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *fakePipeline) setSnapshot(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = b
}

func (p *fakePipeline) OnUpdate(fn func(app.Update)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *fakePipeline) publish(u app.Update) {
	p.mu.Lock()
	listeners := p.listeners
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(u)
	}
}

func TestAPI_SettingsWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	p := newFakePipeline()
	ts := httptest.NewServer(New(Config{Store: s, App: p}))
	defer ts.Close()

	client := ts.Client()

	// 1. Update a setting
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewBufferString(`{"smoothing": "3"}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 2. Read it back
	resp, err = client.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET /api/settings error = %v", err)
	}
	var settings map[string]string
	json.NewDecoder(resp.Body).Decode(&settings)
	resp.Body.Close()
	if settings["smoothing"] != "3" {
		t.Errorf("smoothing = %q, want 3", settings["smoothing"])
	}

	// 3. It survives a restart through the store
	stored, err := s.Settings().All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	restored := config.Default()
	if err := restored.ApplySettings(stored); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if restored.Smoothing != 3 {
		t.Errorf("restored smoothing = %v, want 3", restored.Smoothing)
	}

	// 4. Disable control
	resp, err = client.Post(ts.URL+"/api/enabled", "application/json", strings.NewReader(`{"enabled": false}`))
	if err != nil {
		t.Fatalf("POST /api/enabled error = %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	var status app.Status
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if status.Enabled {
		t.Error("status still enabled after POST /api/enabled")
	}

	// 5. Events and sessions are listed
	for _, path := range []string{"/api/events", "/api/sessions"} {
		resp, err = client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestStreamHandler(t *testing.T) {
	p := newFakePipeline()
	frame := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}
	p.setSnapshot(frame)

	h := NewStreamHandler(p)
	h.interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if n := strings.Count(body, "--frame"); n != 1 {
		t.Errorf("got %d parts for an unchanged snapshot, want 1", n)
	}
	if !strings.Contains(body, "Content-Length: 6\r\n\r\n"+string(frame)) {
		t.Errorf("part body not found in %q", body)
	}
}

func TestStreamHandler_NewFrames(t *testing.T) {
	p := newFakePipeline()
	h := NewStreamHandler(p)
	h.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	p.setSnapshot([]byte("one"))
	time.Sleep(30 * time.Millisecond)
	p.setSnapshot([]byte("two"))
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	if n := strings.Count(rec.Body.String(), "--frame"); n != 2 {
		t.Errorf("got %d parts, want 2", n)
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	h := NewStreamHandler(newFakePipeline())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestLiveHandler(t *testing.T) {
	p := newFakePipeline()
	srv := New(Config{App: p})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.live.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.publish(app.Update{
		Seq:     7,
		Enabled: true,
		Decision: control.Decision{
			Mode:    gesture.ModeFist,
			Actions: []pointer.Action{pointer.ClickOf(pointer.ButtonRight)},
			Hands:   1,
		},
		Pointer: control.PointerState{SmoothedX: 100, SmoothedY: 200},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got struct {
		Seq      uint64 `json:"seq"`
		Decision struct {
			Mode    string `json:"mode"`
			Actions []struct {
				Kind string `json:"kind"`
			} `json:"actions"`
		} `json:"decision"`
		Pointer struct {
			SmoothedX float64 `json:"smoothed_x"`
		} `json:"pointer"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v (%s)", err, msg)
	}
	if got.Seq != 7 || got.Decision.Mode != "fist" || got.Pointer.SmoothedX != 100 {
		t.Errorf("got %+v", got)
	}
	if len(got.Decision.Actions) != 1 || got.Decision.Actions[0].Kind != "click" {
		t.Errorf("actions = %+v, want one click", got.Decision.Actions)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for srv.live.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveHandler_Close(t *testing.T) {
	p := newFakePipeline()
	h := NewLiveHandler(p)
	ts := httptest.NewServer(h)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	for h.Clients() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() error = %v, want normal closure", err)
	}

	// broadcasting after close is a no-op
	p.publish(app.Update{Seq: 1})
}
