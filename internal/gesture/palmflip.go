package gesture

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/pose"
)

// FlipStage is the stage of a PalmFlip machine.
type FlipStage int

const (
	FlipIdle FlipStage = iota
	FlipPalmDown
	FlipFlipping
	FlipPalmUp
)

func (s FlipStage) String() string {
	switch s {
	case FlipPalmDown:
		return "palm_down"
	case FlipFlipping:
		return "flipping"
	case FlipPalmUp:
		return "palm_up"
	}
	return "idle"
}

// PalmFlip recognizes the palm turning from facing down to facing up within
// a bounded flip time. It activates on reaching palm-up and deactivates when
// the palm leaves the up position.
type PalmFlip struct {
	latch

	down  *AngleGate
	up    *AngleGate
	stage FlipStage
	flip  TimedSwitch
}

// NewPalmFlip creates a PalmFlip machine. The config is normalized first.
func NewPalmFlip(cfg PalmFlipConfig) *PalmFlip {
	cfg.Normalize()
	return &PalmFlip{
		down: NewAngleGate(cfg.OnAngleDown, cfg.OffAngleDown, pose.Down),
		up:   NewAngleGate(cfg.OnAngleUp, cfg.OffAngleUp, pose.Up),
		flip: NewTimedSwitch(seconds(cfg.MaximumFlipTime)),
	}
}

func (p *PalmFlip) Family() Family { return FamilyPalmFlip }

// Stage returns the current stage.
func (p *PalmFlip) Stage() FlipStage { return p.stage }

// Sample advances the machine by one periodic tick.
func (p *PalmFlip) Sample(s pose.Sample, ok bool, dt time.Duration) {
	if !ok {
		p.loseTracking()
		return
	}
	p.Step(s.PalmNormal, dt)
}

// Frame is a no-op: palm flips are timed on the periodic tick.
func (p *PalmFlip) Frame(pose.Sample, bool, time.Duration) {}

// Step evaluates one palm normal measurement taken dt after the previous one.
func (p *PalmFlip) Step(normal r3.Vector, dt time.Duration) {
	downEngaged := p.down.Evaluate(normal)
	upEngaged := p.up.Evaluate(normal)

	switch p.stage {
	case FlipIdle:
		if downEngaged {
			p.stage = FlipPalmDown
		}

	case FlipPalmDown:
		if !downEngaged {
			p.stage = FlipFlipping
			p.flip.Arm()
			p.flip.Advance(dt)
			p.checkFlip(upEngaged, downEngaged)
		}

	case FlipFlipping:
		// The budget keeps running if the palm drops back down.
		p.flip.Advance(dt)
		p.checkFlip(upEngaged, downEngaged)

	case FlipPalmUp:
		if !upEngaged {
			p.stage = FlipIdle
			p.deactivate(ReasonReleased)
			if downEngaged {
				p.stage = FlipPalmDown
			}
		}
	}
}

func (p *PalmFlip) checkFlip(upEngaged, downEngaged bool) {
	switch {
	case upEngaged && p.flip.Within():
		p.flip.Reset()
		p.stage = FlipPalmUp
		p.activate(ReasonCompleted)
	case p.flip.Expired():
		p.flip.Reset()
		p.stage = FlipIdle
		reason := ReasonTimeout
		if downEngaged {
			p.stage = FlipPalmDown
			reason = ReasonReversed
		}
		p.abandon(reason)
	}
}

// loseTracking drops any flip in progress. Gates hold their state.
func (p *PalmFlip) loseTracking() {
	p.flip.Reset()
	if p.stage == FlipFlipping || p.stage == FlipPalmUp {
		p.stage = FlipIdle
	}
	p.deactivate(ReasonTrackingLost)
}

// Deactivate implements Machine.
func (p *PalmFlip) Deactivate(reason Reason) {
	if p.stage == FlipPalmUp {
		p.stage = FlipIdle
	}
	p.deactivate(reason)
}

// Reset implements Machine.
func (p *PalmFlip) Reset() {
	p.down.Reset()
	p.up.Reset()
	p.flip.Reset()
	p.stage = FlipIdle
	p.active = false
}

// Snapshot implements Machine.
func (p *PalmFlip) Snapshot() Snapshot {
	return Snapshot{
		Family: FamilyPalmFlip,
		Stage:  p.stage.String(),
		Active: p.active,
		Gates: map[string]bool{
			"palm_down": p.down.Engaged(),
			"palm_up":   p.up.Engaged(),
		},
		Elapsed: p.flip.Elapsed().Seconds(),
	}
}
