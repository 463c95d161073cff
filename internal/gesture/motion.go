package gesture

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/pose"
)

// MotionStage is the stage of a wave or swipe machine.
type MotionStage int

const (
	MotionIdle MotionStage = iota
	MotionPointingUp
	MotionMoving
)

// motionParams is the resolved configuration shared by waves and swipes.
type motionParams struct {
	family      Family
	variant     Variant
	mode        Mode
	direction   Direction
	pointingOn  float64
	pointingOff float64
	pointingRef r3.Vector
	threshold   float64
	maximum     time.Duration
	release     time.Duration
	fingers     ExtensionRequirement
}

// Motion recognizes a cock-then-sweep hand motion: fingers extended and
// pointing at the reference, then a sweep of the wrist or arm past the
// threshold angle from up, within the maximum time. The Double variant
// requires the sweep and a return to the starting pose inside one window.
//
// The periodic tick updates the extension and pointing gates; the frame tick
// advances the motion itself.
type Motion struct {
	latch

	p               motionParams
	pointing        *AngleGate
	fingersExtended bool
	stage           MotionStage
	window          TimedSwitch
	firstHalf       bool
	hold            TimedSwitch
}

// NewWave creates a wave machine. The config is normalized first.
func NewWave(cfg WaveConfig) *Motion {
	cfg.Normalize()
	return newMotion(motionParams{
		family:      FamilyWave,
		variant:     cfg.Variant,
		mode:        cfg.Mode,
		pointingOn:  cfg.HandOnAngle,
		pointingOff: cfg.HandOffAngle,
		pointingRef: pose.Up,
		threshold:   cfg.WaveAngle,
		maximum:     seconds(cfg.MaximumWaveTime),
		release:     seconds(cfg.ReleaseAfter),
		fingers:     cfg.Fingers,
	})
}

// NewSwipe creates a swipe machine. The config is normalized first.
func NewSwipe(cfg SwipeConfig) *Motion {
	cfg.Normalize()
	return newMotion(motionParams{
		family:      FamilySwipe,
		variant:     VariantSingle,
		mode:        cfg.Mode,
		direction:   cfg.Direction,
		pointingOn:  cfg.HandOnAngle,
		pointingOff: cfg.HandOffAngle,
		pointingRef: pose.Forward,
		threshold:   cfg.SwipeAngle,
		maximum:     seconds(cfg.MaximumSwipeTime),
		release:     seconds(cfg.ReleaseAfter),
		fingers:     cfg.Fingers,
	})
}

func newMotion(p motionParams) *Motion {
	return &Motion{
		p:        p,
		pointing: NewAngleGate(p.pointingOn, p.pointingOff, p.pointingRef),
		window:   NewTimedSwitch(p.maximum),
		hold:     NewTimedSwitch(p.release),
	}
}

func (m *Motion) Family() Family { return m.p.family }

// Stage returns the current stage.
func (m *Motion) Stage() MotionStage { return m.stage }

// CompletedFirstHalf reports whether a Double motion is waiting for its second half.
func (m *Motion) CompletedFirstHalf() bool { return m.firstHalf }

// Sample updates the extension and pointing gates.
func (m *Motion) Sample(s pose.Sample, ok bool, _ time.Duration) {
	if !ok {
		m.loseTracking()
		return
	}
	m.fingersExtended = m.p.fingers.Matches(s.Extended)
	m.pointing.Evaluate(s.FingerDirection)
}

// Frame advances the motion by one frame tick.
func (m *Motion) Frame(s pose.Sample, ok bool, dt time.Duration) {
	if m.active && m.hold.Armed() {
		m.hold.Advance(dt)
		if m.hold.Expired() {
			m.hold.Reset()
			m.deactivate(ReasonReleased)
		}
	}
	if !ok {
		return
	}
	m.Step(m.watched(s), dt)
}

// Step evaluates one watched direction measured dt after the previous frame.
func (m *Motion) Step(watched r3.Vector, dt time.Duration) {
	pointing := m.pointing.Engaged()
	begin := m.fingersExtended && pointing
	angle := Angle(watched, pose.Up)

	if m.firstHalf {
		m.window.Advance(dt)
		if begin && m.window.Within() {
			m.complete()
			return
		}
	} else {
		switch m.stage {
		case MotionIdle:
			if begin {
				m.stage = MotionPointingUp
			}

		case MotionPointingUp:
			if !pointing {
				m.stage = MotionMoving
				m.window.Arm()
			}

		case MotionMoving:
			// A zero direction is no measurement; the window keeps running.
			if !Measurable(watched) || angle < m.p.threshold {
				m.window.Advance(dt)
			} else if m.window.Within() && m.directionConfirmed(watched) {
				if m.p.variant == VariantDouble {
					m.firstHalf = true
					m.stage = MotionIdle
				} else {
					m.complete()
					return
				}
			}
		}
	}

	if m.window.Expired() {
		m.clear()
		m.abandon(ReasonTimeout)
	}
}

// directionConfirmed always accepts. The configured swipe direction is
// carried as configuration only.
func (m *Motion) directionConfirmed(r3.Vector) bool {
	return true
}

func (m *Motion) watched(s pose.Sample) r3.Vector {
	if m.p.mode == ModeArm {
		return s.ArmDirection
	}
	return s.FingerDirection
}

func (m *Motion) complete() {
	m.clear()
	if m.active {
		return
	}
	m.activate(ReasonCompleted)
	if m.p.release > 0 {
		m.hold.Arm()
	}
}

func (m *Motion) clear() {
	m.stage = MotionIdle
	m.window.Reset()
	m.firstHalf = false
}

func (m *Motion) loseTracking() {
	m.fingersExtended = false
	m.clear()
	m.hold.Reset()
	m.deactivate(ReasonTrackingLost)
}

// Deactivate implements Machine.
func (m *Motion) Deactivate(reason Reason) {
	m.hold.Reset()
	m.deactivate(reason)
}

// Reset implements Machine.
func (m *Motion) Reset() {
	m.pointing.Reset()
	m.fingersExtended = false
	m.clear()
	m.hold.Reset()
	m.active = false
}

// Snapshot implements Machine.
func (m *Motion) Snapshot() Snapshot {
	return Snapshot{
		Family: m.p.family,
		Stage:  m.stageName(),
		Active: m.active,
		Gates: map[string]bool{
			"fingers_extended": m.fingersExtended,
			"pointing":         m.pointing.Engaged(),
			"first_half":       m.firstHalf,
		},
		Elapsed: m.window.Elapsed().Seconds(),
	}
}

func (m *Motion) stageName() string {
	switch m.stage {
	case MotionPointingUp:
		return "pointing_up"
	case MotionMoving:
		if m.p.family == FamilySwipe {
			return "swiping"
		}
		return "waving"
	}
	return "idle"
}
