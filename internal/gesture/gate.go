// Package gesture implements the hand-gesture recognizers: hysteresis angle
// gates, finger extension matching, bounded time windows, and the palm-flip,
// wave and swipe state machines built from them.
package gesture

import "github.com/golang/geo/r3"

// AngleGate is a two-threshold boolean gate over the angle between a measured
// direction and a fixed reference direction. It engages at or below OnAngle
// and disengages only above OffAngle, so angles in between hold the state.
type AngleGate struct {
	OnAngle   float64   // degrees
	OffAngle  float64   // degrees, never below OnAngle
	Reference r3.Vector // unit vector

	engaged bool
}

// NewAngleGate creates a disengaged gate. An off angle below the on angle is
// clamped up to the on angle.
func NewAngleGate(onAngle, offAngle float64, reference r3.Vector) *AngleGate {
	if offAngle < onAngle {
		offAngle = onAngle
	}
	return &AngleGate{
		OnAngle:   onAngle,
		OffAngle:  offAngle,
		Reference: reference,
	}
}

// Evaluate measures direction against the reference and updates the gate.
// A zero direction carries no measurement and leaves the gate unchanged.
// Callers skip the call when no pose is available.
func (g *AngleGate) Evaluate(direction r3.Vector) bool {
	if !Measurable(direction) {
		return g.engaged
	}
	return g.EvaluateAngle(Angle(direction, g.Reference))
}

// EvaluateAngle updates the gate from an already measured angle in degrees.
func (g *AngleGate) EvaluateAngle(degrees float64) bool {
	if !g.engaged && degrees <= g.OnAngle {
		g.engaged = true
	} else if g.engaged && degrees > g.OffAngle {
		g.engaged = false
	}
	return g.engaged
}

// Engaged returns the current state without measuring.
func (g *AngleGate) Engaged() bool {
	return g.engaged
}

// Reset disengages the gate.
func (g *AngleGate) Reset() {
	g.engaged = false
}

// Measurable reports whether v has a direction.
func Measurable(v r3.Vector) bool {
	return v.Norm2() > 0
}

// Angle returns the angle between a and b in degrees, in [0, 180]. A zero
// vector has no direction and measures 90.
func Angle(a, b r3.Vector) float64 {
	if !Measurable(a) || !Measurable(b) {
		return 90
	}
	return a.Angle(b).Degrees()
}
