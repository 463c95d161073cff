package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/pose"
)

// ErrInvalidTrace is returned for a trace whose timestamps go backwards.
var ErrInvalidTrace = errors.New("invalid trace")

// TraceFrame is one recorded frame. A nil Pose means no hand was available.
type TraceFrame struct {
	At   float64      `json:"at"` // seconds since the start of the trace
	Pose *pose.Sample `json:"pose,omitempty"`
}

// Trace is a recorded pose stream.
type Trace []TraceFrame

// Duration returns the time covered by the trace.
func (t Trace) Duration() time.Duration {
	if len(t) == 0 {
		return 0
	}
	return seconds(t[len(t)-1].At - t[0].At)
}

// Validate checks that frame timestamps never go backwards.
func (t Trace) Validate() error {
	for i := 1; i < len(t); i++ {
		if t[i].At < t[i-1].At {
			return fmt.Errorf("%w: frame %d at %.3fs precedes %.3fs", ErrInvalidTrace, i, t[i].At, t[i-1].At)
		}
	}
	return nil
}

// ReplayEvent is an event emitted during a replay, stamped with trace time.
type ReplayEvent struct {
	At     float64 `json:"at"`
	Kind   Kind    `json:"kind"`
	Reason Reason  `json:"reason"`
}

// Replay runs a trace through a fresh machine built from def. Every trace
// frame is a frame tick; a sampling tick runs on the first frame and then
// whenever at least one period has passed since the previous sampling tick.
// Sampling runs before the frame tick at the same instant.
func Replay(def Definition, trace Trace) ([]ReplayEvent, error) {
	if err := trace.Validate(); err != nil {
		return nil, err
	}
	m, period, err := def.Build()
	if err != nil {
		return nil, err
	}

	var (
		events []ReplayEvent
		now    float64
	)
	m.SetListener(func(ev Event) {
		events = append(events, ReplayEvent{At: now, Kind: ev.Kind, Reason: ev.Reason})
	})

	var lastSample, lastFrame time.Duration
	for i, f := range trace {
		at := seconds(f.At)
		now = f.At

		var (
			s  pose.Sample
			ok bool
		)
		if f.Pose != nil {
			s, ok = *f.Pose, f.Pose.Tracked
		}

		switch {
		case i == 0:
			m.Sample(s, ok, 0)
			lastSample = at
		case at-lastSample >= period:
			m.Sample(s, ok, at-lastSample)
			lastSample = at
		}

		var dt time.Duration
		if i > 0 {
			dt = at - lastFrame
		}
		m.Frame(s, ok, dt)
		lastFrame = at
	}

	return events, nil
}
