package detector

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestHandLandmarks_Label(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Left", LabelLeft},
		{"left", LabelLeft},
		{" RIGHT ", LabelRight},
		{"right", LabelRight},
		{"", ""},
		{"both", ""},
	}

	for _, tt := range tests {
		h := HandLandmarks{Handedness: tt.in}
		if got := h.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandLandmarks_Validate(t *testing.T) {
	t.Run("fixtures are valid", func(t *testing.T) {
		for name, h := range map[string]HandLandmarks{
			"open palm": OpenPalmLandmarks(),
			"thumbs up": ThumbsUpLandmarks(),
			"fist":      FistLandmarks(),
			"pinch":     PinchLandmarks(),
		} {
			if err := h.Validate(); err != nil {
				t.Errorf("%s: unexpected error: %v", name, err)
			}
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		var h *HandLandmarks
		if err := h.Validate(); !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("unknown handedness", func(t *testing.T) {
		h := Labeled(OpenPalmLandmarks(), "Unknown")
		if err := h.Validate(); !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("NaN landmark", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Points[IndexTip].Y = math.NaN()
		err := h.Validate()
		if !errors.Is(err, ErrMalformedHand) {
			t.Fatalf("expected ErrMalformedHand, got %v", err)
		}
		if !strings.Contains(err.Error(), "landmark 8") {
			t.Errorf("error should name the landmark, got %q", err.Error())
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("decodes hands", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`{"hands":[{"handedness":"Left","score":0.91,"points":[`)
		for i := 0; i < NumLandmarks; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"x":0.5,"y":0.25,"z":0}`)
		}
		sb.WriteString("]}]}\n")

		hands, err := decodeResponse([]byte(sb.String()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != LabelLeft {
			t.Errorf("handedness = %q, want %q", hands[0].Handedness, LabelLeft)
		}
		if hands[0].Points[PinkyTip].Y != 0.25 {
			t.Errorf("pinky tip y = %f, want 0.25", hands[0].Points[PinkyTip].Y)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})

	t.Run("short landmark list", func(t *testing.T) {
		_, err := decodeResponse([]byte(`{"hands":[{"handedness":"Right","points":[{"x":0,"y":0,"z":0}]}]}`))
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := decodeResponse([]byte("not json")); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returned hands are copies", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})

		first, _ := mock.Detect(nil)
		first[0].Handedness = "mutated"

		second, _ := mock.Detect(nil)
		if second[0].Handedness != LabelRight {
			t.Errorf("mock state leaked through returned slice: %q", second[0].Handedness)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestFixtureHelpers(t *testing.T) {
	t.Run("Translated shifts every point", func(t *testing.T) {
		base := OpenPalmLandmarks()
		moved := Translated(base, 0.1, -0.2)
		for i := range base.Points {
			if math.Abs(moved.Points[i].X-(base.Points[i].X+0.1)) > 1e-12 ||
				math.Abs(moved.Points[i].Y-(base.Points[i].Y-0.2)) > 1e-12 {
				t.Fatalf("point %d not translated: %+v -> %+v", i, base.Points[i], moved.Points[i])
			}
		}
	})

	t.Run("Labeled does not modify the original", func(t *testing.T) {
		base := OpenPalmLandmarks()
		left := Labeled(base, LabelLeft)
		if base.Handedness != LabelRight || left.Handedness != LabelLeft {
			t.Errorf("got base=%q left=%q", base.Handedness, left.Handedness)
		}
	})

	t.Run("pinch fixture brings thumb to index tip", func(t *testing.T) {
		h := PinchLandmarks()
		dx := h.Points[ThumbTip].X - h.Points[IndexTip].X
		dy := h.Points[ThumbTip].Y - h.Points[IndexTip].Y
		if d := math.Hypot(dx, dy); d > 0.05 {
			t.Errorf("pinch distance %f, want < 0.05", d)
		}
	})

	t.Run("open palm fingers are extended", func(t *testing.T) {
		h := OpenPalmLandmarks()
		for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y >= h.Points[tip-2].Y {
				t.Errorf("tip %d not above its pip", tip)
			}
		}
	})

	t.Run("fist fingers are curled", func(t *testing.T) {
		h := FistLandmarks()
		for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y < h.Points[tip-2].Y {
				t.Errorf("tip %d above its pip", tip)
			}
		}
	})
}
