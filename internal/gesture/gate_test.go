package gesture

import (
	"testing"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/pose"
)

func TestAngleGate_Hysteresis(t *testing.T) {
	g := NewAngleGate(45, 65, pose.Down)

	steps := []struct {
		angle float64
		want  bool
	}{
		{80, false}, // above on angle, never engaged
		{55, false}, // between thresholds, still disengaged
		{45, true},  // on angle is inclusive
		{55, true},  // between thresholds, holds
		{65, true},  // off angle is inclusive
		{66, false},
		{50, false},
		{10, true},
	}

	for i, s := range steps {
		if got := g.EvaluateAngle(s.angle); got != s.want {
			t.Errorf("step %d: EvaluateAngle(%v) = %v, want %v", i, s.angle, got, s.want)
		}
	}
}

func TestAngleGate_EvaluateDirection(t *testing.T) {
	g := NewAngleGate(45, 65, pose.Down)

	if !g.Evaluate(pose.AtAngle(pose.Down, 10)) {
		t.Fatal("expected gate to engage 10 degrees from down")
	}
	if !g.Evaluate(pose.AtAngle(pose.Down, 60)) {
		t.Error("expected gate to hold 60 degrees from down")
	}
	if g.Evaluate(pose.AtAngle(pose.Down, 80)) {
		t.Error("expected gate to disengage 80 degrees from down")
	}
}

func TestAngleGate_Idempotent(t *testing.T) {
	g := NewAngleGate(45, 65, pose.Up)
	dir := pose.AtAngle(pose.Up, 55)

	for i := 0; i < 10; i++ {
		if g.Evaluate(dir) {
			t.Fatalf("evaluation %d: gate engaged without crossing on angle", i)
		}
	}

	g.Evaluate(pose.Up)
	for i := 0; i < 10; i++ {
		if !g.Evaluate(dir) {
			t.Fatalf("evaluation %d: gate toggled on unchanged pose", i)
		}
	}
}

func TestAngleGate_ClampsOffAngle(t *testing.T) {
	g := NewAngleGate(50, 20, pose.Up)
	if g.OffAngle != 50 {
		t.Errorf("expected off angle clamped to 50, got %v", g.OffAngle)
	}
}

func TestAngleGate_Reset(t *testing.T) {
	g := NewAngleGate(45, 65, pose.Up)
	g.EvaluateAngle(0)
	g.Reset()
	if g.Engaged() {
		t.Error("expected gate to be disengaged after Reset")
	}
}

func TestAngle(t *testing.T) {
	if got := Angle(pose.Up, pose.Down); got < 179.999 || got > 180.001 {
		t.Errorf("Angle(up, down) = %v, want 180", got)
	}
	if got := Angle(pose.Up, pose.Forward); got < 89.999 || got > 90.001 {
		t.Errorf("Angle(up, forward) = %v, want 90", got)
	}
}

func TestAngleGate_ZeroDirectionHolds(t *testing.T) {
	if got := Angle(r3.Vector{}, pose.Up); got != 90 {
		t.Errorf("Angle(zero, up) = %v, want 90", got)
	}

	down := NewAngleGate(45, 65, pose.Down)
	up := NewAngleGate(45, 65, pose.Up)
	if down.Evaluate(r3.Vector{}) || up.Evaluate(r3.Vector{}) {
		t.Fatal("a zero direction must not engage a disengaged gate")
	}

	down.Evaluate(pose.AtAngle(pose.Down, 10))
	if !down.Evaluate(r3.Vector{}) {
		t.Error("a zero direction must not disengage an engaged gate")
	}
}
