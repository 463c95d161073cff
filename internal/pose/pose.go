// Package pose describes the hand-pose samples consumed by gesture recognizers
// and the sensor interface that produces them.
package pose

import "github.com/golang/geo/r3"

// Finger identifies one of the five fingers, thumb first.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers = 5
)

// String returns the lowercase finger name.
func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	}
	return "unknown"
}

// Reference directions in the tracker's right-handed, Y-up frame.
var (
	Up      = r3.Vector{X: 0, Y: 1, Z: 0}
	Down    = r3.Vector{X: 0, Y: -1, Z: 0}
	Forward = r3.Vector{X: 0, Y: 0, Z: 1}
)

// Sample is one tick's snapshot of hand geometry. Directions are unit vectors.
type Sample struct {
	PalmNormal      r3.Vector        `json:"palm_normal"`
	FingerDirection r3.Vector        `json:"finger_direction"` // middle finger distal bone
	ArmDirection    r3.Vector        `json:"arm_direction"`
	Extended        [NumFingers]bool `json:"extended"`
	Tracked         bool             `json:"tracked"`
}

// Sensor is the external tracking collaborator.
type Sensor interface {
	// Current returns the latest pose, or false when no hand is available.
	Current() (Sample, bool)

	// IsTracked reports whether the sensor is actively tracking a hand.
	IsTracked() bool
}

// Read combines Current and IsTracked into one reading. The returned flag is
// true only when a pose is present and tracked.
func Read(s Sensor) (Sample, bool) {
	if s == nil {
		return Sample{}, false
	}
	sample, ok := s.Current()
	if !ok || !s.IsTracked() || !sample.Tracked {
		return sample, false
	}
	return sample, true
}

// AllExtended returns an extension array with every finger extended.
func AllExtended() [NumFingers]bool {
	return [NumFingers]bool{true, true, true, true, true}
}
