package gesture

import "time"

// TimedSwitch is a bounded time window. While armed it accumulates elapsed
// time; it is expired once elapsed exceeds the limit.
type TimedSwitch struct {
	elapsed time.Duration
	limit   time.Duration
	armed   bool
}

// NewTimedSwitch creates a disarmed window with the given limit.
func NewTimedSwitch(limit time.Duration) TimedSwitch {
	return TimedSwitch{limit: limit}
}

// Arm starts the window from zero.
func (t *TimedSwitch) Arm() {
	t.elapsed = 0
	t.armed = true
}

// Advance adds dt to the elapsed time if armed.
func (t *TimedSwitch) Advance(dt time.Duration) {
	if t.armed && dt > 0 {
		t.elapsed += dt
	}
}

// Within reports whether the elapsed time is still inside the limit.
func (t *TimedSwitch) Within() bool {
	return t.elapsed <= t.limit
}

// Expired reports whether an armed window has run past its limit.
func (t *TimedSwitch) Expired() bool {
	return t.armed && t.elapsed > t.limit
}

// Reset disarms the window and zeroes the elapsed time.
func (t *TimedSwitch) Reset() {
	t.elapsed = 0
	t.armed = false
}

func (t *TimedSwitch) Armed() bool            { return t.armed }
func (t *TimedSwitch) Elapsed() time.Duration { return t.elapsed }
func (t *TimedSwitch) Limit() time.Duration   { return t.limit }
