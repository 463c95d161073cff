package detector

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pose"
)

const epsilon = 1e-9

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("wrist at origin after normalization", func(t *testing.T) {
		hand := HandLandmarks{
			Handedness: "Right",
			Score:      0.9,
		}
		hand.Points[Wrist] = Point3D{X: 100.0, Y: 200.0, Z: 50.0}
		hand.Points[MiddleMCP] = Point3D{X: 130.0, Y: 240.0, Z: 50.0}

		normalized := hand.Normalize()

		w := normalized.Points[Wrist]
		if math.Abs(w.X) > epsilon || math.Abs(w.Y) > epsilon || math.Abs(w.Z) > epsilon {
			t.Errorf("expected wrist at origin, got %+v", w)
		}
		if normalized.Handedness != hand.Handedness {
			t.Errorf("expected handedness %s, got %s", hand.Handedness, normalized.Handedness)
		}
		if normalized.Score != hand.Score {
			t.Errorf("expected score %f, got %f", hand.Score, normalized.Score)
		}
	})

	t.Run("distance from wrist to middle MCP is 1.0", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[Wrist] = Point3D{X: 10.0, Y: 20.0, Z: 5.0}
		hand.Points[MiddleMCP] = Point3D{X: 13.0, Y: 24.0, Z: 5.0} // distance = 5.0

		normalized := hand.Normalize()

		m := normalized.Points[MiddleMCP]
		distance := math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
		if math.Abs(distance-1.0) > epsilon {
			t.Errorf("expected distance from wrist to middle MCP to be 1.0, got %f", distance)
		}
		if math.Abs(m.X-0.6) > epsilon || math.Abs(m.Y-0.8) > epsilon {
			t.Errorf("expected image orientation preserved, got %+v", m)
		}
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.Normalize() != nil {
			t.Error("expected nil result for nil input")
		}
	})
}

func TestPoint3D_Vector(t *testing.T) {
	v := Point3D{X: 0.2, Y: 0.3, Z: 0.4}.Vector()
	if v.X != 0.2 || v.Y != -0.3 || v.Z != -0.4 {
		t.Errorf("expected image y and z flipped, got %v", v)
	}
}

func TestHandLandmarks_Pose(t *testing.T) {
	tests := []struct {
		name     string
		hand     HandLandmarks
		finger   float64 // max angle between finger direction and up, or -1
		extended [pose.NumFingers]bool
	}{
		{
			name:     "open palm faces the camera with fingers up",
			hand:     OpenPalmLandmarks(),
			finger:   5,
			extended: pose.AllExtended(),
		},
		{
			name:     "thumbs up extends only the thumb",
			hand:     ThumbsUpLandmarks(),
			finger:   -1,
			extended: [pose.NumFingers]bool{true, false, false, false, false},
		},
		{
			name:     "palm down",
			hand:     PalmDownLandmarks(),
			finger:   -1,
			extended: pose.AllExtended(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.hand.Pose()
			if !s.Tracked {
				t.Error("expected derived pose to be tracked")
			}
			if s.Extended != tt.extended {
				t.Errorf("expected extension %v, got %v", tt.extended, s.Extended)
			}
			if tt.finger >= 0 {
				if a := gesture.Angle(s.FingerDirection, pose.Up); a > tt.finger {
					t.Errorf("expected finger within %v degrees of up, got %v", tt.finger, a)
				}
			}
		})
	}
}

func TestHandLandmarks_PalmNormal(t *testing.T) {
	if a := gesture.Angle(OpenPalmLandmarks().Pose().PalmNormal, pose.Forward); a > 10 {
		t.Errorf("open palm: expected normal toward the camera, off by %v degrees", a)
	}
	if a := gesture.Angle(PalmDownLandmarks().Pose().PalmNormal, pose.Down); a > 1 {
		t.Errorf("palm down: expected normal down, off by %v degrees", a)
	}
	if a := gesture.Angle(PalmUpLandmarks().Pose().PalmNormal, pose.Up); a > 1 {
		t.Errorf("palm up: expected normal up, off by %v degrees", a)
	}

	left := PalmDownLandmarks()
	left.Handedness = "Left"
	if a := gesture.Angle(left.Pose().PalmNormal, pose.Up); a > 1 {
		t.Errorf("left hand: expected normal flipped, off by %v degrees from up", a)
	}
}

func TestFilterHands(t *testing.T) {
	low := OpenPalmLandmarks()
	low.Score = 0.2
	hands := []HandLandmarks{low, OpenPalmLandmarks(), ThumbsUpLandmarks()}

	got := filterHands(hands, Config{MaxHands: 1, MinConfidence: 0.5})
	if len(got) != 1 || got[0].Score < 0.5 {
		t.Fatalf("expected one confident hand, got %d", len(got))
	}
}

func TestParseResponse(t *testing.T) {
	hands, err := parseResponse([]byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0.3}],"handedness":"Left","score":0.8}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hands) != 1 || hands[0].Handedness != "Left" || hands[0].Points[Wrist].Y != 0.2 {
		t.Errorf("unexpected hands: %+v", hands)
	}

	if _, err := parseResponse([]byte(`{"error":"model not loaded"}`)); err == nil {
		t.Error("expected service error to surface")
	}
	if _, err := parseResponse([]byte(`garbage`)); err == nil {
		t.Error("expected parse error")
	}
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

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)
		if !errors.Is(err, expectedErr) {
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
