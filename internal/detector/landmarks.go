// Package detector finds hand landmarks in camera frames and derives the
// pose samples gesture recognizers consume from them.
package detector

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/pose"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// extensionRatio is how much farther from the wrist a fingertip must be than
// its middle joint for the finger to count as extended.
const extensionRatio = 1.2

// fingerJoints maps each finger to the joint its tip is compared against and
// the tip itself.
var fingerJoints = [pose.NumFingers][2]int{
	pose.Thumb:  {ThumbIP, ThumbTip},
	pose.Index:  {IndexPIP, IndexTip},
	pose.Middle: {MiddlePIP, MiddleTip},
	pose.Ring:   {RingPIP, RingTip},
	pose.Pinky:  {PinkyPIP, PinkyTip},
}

// Point3D is a landmark in MediaPipe image coordinates: x to the right,
// y downward, z away from the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector converts the point into the tracker frame used by poses: X to the
// right, Y up, Z toward the camera.
func (p Point3D) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: -p.Y, Z: -p.Z}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Normalize returns a copy with the wrist at the origin, scaled so the
// distance from wrist to middle finger MCP is 1.0.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist].Vector()
	scale := h.Points[MiddleMCP].Vector().Sub(wrist).Norm()
	if scale < 1e-10 {
		scale = 1
	}

	for i := 0; i < NumLandmarks; i++ {
		v := h.Points[i].Vector().Sub(wrist).Mul(1 / scale)
		normalized.Points[i] = Point3D{X: v.X, Y: -v.Y, Z: -v.Z}
	}
	return normalized
}

// Pose derives a tracked pose sample from the landmarks.
//
// The palm normal is the normal of the wrist, index MCP and pinky MCP plane,
// oriented out of the palm. The finger direction is the middle finger's
// distal bone. The wrist to middle MCP bone stands in for the forearm, which
// the hand landmarker does not see. A finger counts as extended when its tip
// is clearly farther from the wrist than its middle joint.
func (h *HandLandmarks) Pose() pose.Sample {
	n := h.Normalize()
	v := func(i int) r3.Vector { return n.Points[i].Vector() }

	normal := v(IndexMCP).Cross(v(PinkyMCP))
	if h.Handedness == "Left" {
		normal = normal.Mul(-1)
	}

	s := pose.Sample{
		PalmNormal:      unit(normal),
		FingerDirection: unit(v(MiddleTip).Sub(v(MiddleDIP))),
		ArmDirection:    unit(v(MiddleMCP)),
		Tracked:         true,
	}
	for f, j := range fingerJoints {
		s.Extended[f] = v(j[1]).Norm() > extensionRatio*v(j[0]).Norm()
	}
	return s
}

func unit(v r3.Vector) r3.Vector {
	if n := v.Norm(); n < 1e-10 || math.IsNaN(n) {
		return r3.Vector{}
	}
	return v.Normalize()
}
