package server

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultStreamInterval paces the MJPEG stream at roughly the active capture rate.
const DefaultStreamInterval = 66 * time.Millisecond

// Snapshotter provides the latest annotated frame as JPEG.
type Snapshotter interface {
	Snapshot() []byte
}

// StreamHandler serves the annotated preview as MJPEG.
type StreamHandler struct {
	source   Snapshotter
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading frames from source.
func NewStreamHandler(source Snapshotter) *StreamHandler {
	return &StreamHandler{source: source, interval: DefaultStreamInterval}
}

// ServeHTTP streams MJPEG frames until the client goes away. A frame is
// written only when the snapshot changed since the last one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		if jpeg := h.source.Snapshot(); len(jpeg) > 0 && !sameFrame(jpeg, last) {
			if err := writePart(w, jpeg); err != nil {
				return
			}
			last = jpeg
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// sameFrame reports whether a and b are the same snapshot. Snapshots are
// replaced, never mutated, so comparing the backing array is enough.
func sameFrame(a, b []byte) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
