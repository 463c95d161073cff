package gesture

import "time"

// Kind is the type of a recognizer transition.
type Kind string

const (
	// Activated and Deactivated are the host-visible gesture output.
	Activated   Kind = "activated"
	Deactivated Kind = "deactivated"
	// Abandoned reports a gesture that started but did not complete. It never
	// changes the active flag.
	Abandoned Kind = "abandoned"
)

// Reason explains why a transition fired.
type Reason string

const (
	ReasonCompleted    Reason = "completed"
	ReasonReleased     Reason = "released"
	ReasonTrackingLost Reason = "tracking_lost"
	ReasonStopped      Reason = "stopped"
	ReasonTimeout      Reason = "timeout"
	ReasonReversed     Reason = "reversed"
)

// Event is one transition. Machines fill Kind and Reason; the Recognizer
// runtime stamps the name, family and time.
type Event struct {
	Recognizer string    `json:"recognizer"`
	Family     Family    `json:"family"`
	Kind       Kind      `json:"kind"`
	Reason     Reason    `json:"reason"`
	Time       time.Time `json:"time"`
}

// Listener receives events synchronously from inside the tick that produced
// them. It must not call back into the emitting recognizer.
type Listener func(Event)

// latch is the activation flag shared by every machine. Activate and
// Deactivate are idempotent on the flag.
type latch struct {
	active   bool
	listener Listener
}

func (l *latch) SetListener(fn Listener) {
	l.listener = fn
}

func (l *latch) IsActive() bool {
	return l.active
}

func (l *latch) activate(reason Reason) {
	if l.active {
		return
	}
	l.active = true
	l.emit(Activated, reason)
}

func (l *latch) deactivate(reason Reason) {
	if !l.active {
		return
	}
	l.active = false
	l.emit(Deactivated, reason)
}

func (l *latch) abandon(reason Reason) {
	l.emit(Abandoned, reason)
}

func (l *latch) emit(kind Kind, reason Reason) {
	if l.listener != nil {
		l.listener(Event{Kind: kind, Reason: reason})
	}
}
