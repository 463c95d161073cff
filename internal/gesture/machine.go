package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/pose"
)

// Machine is one recognizer's state machine. Sample runs on the slow periodic
// tick, Frame on every fast frame tick. The ok flag is false when the sensor
// has no pose or is not tracking. Machines are not safe for concurrent use.
type Machine interface {
	Family() Family
	Sample(s pose.Sample, ok bool, dt time.Duration)
	Frame(s pose.Sample, ok bool, dt time.Duration)

	// Deactivate forces the output inactive, emitting Deactivated if it was active.
	Deactivate(reason Reason)

	// Reset returns the machine to its initial state without emitting events.
	Reset()

	IsActive() bool
	SetListener(fn Listener)
	Snapshot() Snapshot
}

// Snapshot is a read-only view of a machine's state for debug output.
type Snapshot struct {
	Family  Family          `json:"family"`
	Stage   string          `json:"stage"`
	Active  bool            `json:"active"`
	Gates   map[string]bool `json:"gates"`
	Elapsed float64         `json:"elapsed"` // seconds on the running window
}
