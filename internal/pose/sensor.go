package pose

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"
)

// ScriptedSensor is a Sensor whose output is set directly by the caller.
// It is safe for concurrent use and is intended for tests and replays.
type ScriptedSensor struct {
	mu      sync.RWMutex
	sample  Sample
	present bool
}

// NewScriptedSensor creates a sensor that reports no hand until Set is called.
func NewScriptedSensor() *ScriptedSensor {
	return &ScriptedSensor{}
}

// Set replaces the current pose. The sample's Tracked flag controls IsTracked.
func (s *ScriptedSensor) Set(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = sample
	s.present = true
}

// Clear removes the current pose, as if the hand left the field of view.
func (s *ScriptedSensor) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = Sample{}
	s.present = false
}

// Current implements Sensor.
func (s *ScriptedSensor) Current() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sample, s.present
}

// IsTracked implements Sensor.
func (s *ScriptedSensor) IsTracked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present && s.sample.Tracked
}

// AtAngle returns a unit vector rotated the given number of degrees away
// from reference, toward an arbitrary fixed orthogonal axis.
func AtAngle(reference r3.Vector, degrees float64) r3.Vector {
	ref := reference.Normalize()
	ortho := ref.Ortho()
	rad := degrees * math.Pi / 180
	return ref.Mul(math.Cos(rad)).Add(ortho.Mul(math.Sin(rad))).Normalize()
}
