package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrUnknownFamily is returned for a definition naming no known gesture family.
	ErrUnknownFamily = errors.New("unknown gesture family")
	// ErrInvalidDefinition is returned for an unknown mode, variant or direction.
	ErrInvalidDefinition = errors.New("invalid gesture definition")
)

// Family is a recognizer family.
type Family string

const (
	FamilyPalmFlip Family = "palm_flip"
	FamilyWave     Family = "wave"
	FamilySwipe    Family = "swipe"
)

// Families lists every supported family.
func Families() []Family {
	return []Family{FamilyPalmFlip, FamilyWave, FamilySwipe}
}

// Variant selects single or double waves.
type Variant string

const (
	VariantSingle Variant = "single"
	VariantDouble Variant = "double"
)

// Mode selects the watched direction of a motion.
type Mode string

const (
	ModeWrist Mode = "wrist" // middle finger distal bone
	ModeArm   Mode = "arm"   // forearm
)

// Direction is the configured swipe direction.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// PalmFlipConfig configures a palm flip. Angles are degrees, times seconds.
// Zero fields take defaults.
type PalmFlipConfig struct {
	Period          float64 `json:"period"`
	MaximumFlipTime float64 `json:"maximum_flip_time"`
	OnAngleDown     float64 `json:"on_angle_down"`
	OffAngleDown    float64 `json:"off_angle_down"`
	OnAngleUp       float64 `json:"on_angle_up"`
	OffAngleUp      float64 `json:"off_angle_up"`
}

// DefaultPalmFlipConfig returns the default palm flip configuration.
func DefaultPalmFlipConfig() PalmFlipConfig {
	return PalmFlipConfig{
		Period:          0.1,
		MaximumFlipTime: 0.1,
		OnAngleDown:     45,
		OffAngleDown:    65,
		OnAngleUp:       45,
		OffAngleUp:      65,
	}
}

// Normalize fills defaults and clamps each off angle up to its on angle.
func (c *PalmFlipConfig) Normalize() {
	d := DefaultPalmFlipConfig()
	orDefault(&c.Period, d.Period)
	orDefault(&c.MaximumFlipTime, d.MaximumFlipTime)
	orDefault(&c.OnAngleDown, d.OnAngleDown)
	orDefault(&c.OffAngleDown, d.OffAngleDown)
	orDefault(&c.OnAngleUp, d.OnAngleUp)
	orDefault(&c.OffAngleUp, d.OffAngleUp)
	c.OffAngleDown = math.Max(c.OffAngleDown, c.OnAngleDown)
	c.OffAngleUp = math.Max(c.OffAngleUp, c.OnAngleUp)
}

// WaveConfig configures a single or double wave.
type WaveConfig struct {
	Variant         Variant              `json:"variant"`
	Mode            Mode                 `json:"mode"`
	Period          float64              `json:"period"`
	HandOnAngle     float64              `json:"hand_on_angle"`
	HandOffAngle    float64              `json:"hand_off_angle"`
	WaveAngle       float64              `json:"wave_angle"`
	MaximumWaveTime float64              `json:"maximum_wave_time"`
	ReleaseAfter    float64              `json:"release_after,omitempty"`
	Fingers         ExtensionRequirement `json:"fingers"`
}

// DefaultWaveConfig returns the default single wrist wave configuration.
func DefaultWaveConfig() WaveConfig {
	return WaveConfig{
		Variant:         VariantSingle,
		Mode:            ModeWrist,
		Period:          0.1,
		HandOnAngle:     15,
		HandOffAngle:    25,
		WaveAngle:       60,
		MaximumWaveTime: 0.5,
		Fingers:         AllFingersExtended(),
	}
}

// Normalize fills defaults and clamps the hand off angle.
func (c *WaveConfig) Normalize() {
	d := DefaultWaveConfig()
	if c.Variant == "" {
		c.Variant = d.Variant
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Variant == VariantDouble {
		d.MaximumWaveTime = 1.0
	}
	orDefault(&c.Period, d.Period)
	orDefault(&c.HandOnAngle, d.HandOnAngle)
	orDefault(&c.HandOffAngle, d.HandOffAngle)
	orDefault(&c.WaveAngle, d.WaveAngle)
	orDefault(&c.MaximumWaveTime, d.MaximumWaveTime)
	if c.Fingers.IsZero() {
		c.Fingers = d.Fingers
	}
	c.HandOffAngle = math.Max(c.HandOffAngle, c.HandOnAngle)
}

// SwipeConfig configures a swipe. Direction is recorded but not checked.
type SwipeConfig struct {
	Mode             Mode                 `json:"mode"`
	Direction        Direction            `json:"direction"`
	Period           float64              `json:"period"`
	HandOnAngle      float64              `json:"hand_on_angle"`
	HandOffAngle     float64              `json:"hand_off_angle"`
	SwipeAngle       float64              `json:"swipe_angle"`
	MaximumSwipeTime float64              `json:"maximum_swipe_time"`
	ReleaseAfter     float64              `json:"release_after,omitempty"`
	Fingers          ExtensionRequirement `json:"fingers"`
}

// DefaultSwipeConfig returns the default wrist swipe configuration.
func DefaultSwipeConfig() SwipeConfig {
	return SwipeConfig{
		Mode:             ModeWrist,
		Direction:        DirectionRight,
		Period:           0.1,
		HandOnAngle:      30,
		HandOffAngle:     45,
		SwipeAngle:       60,
		MaximumSwipeTime: 0.5,
		Fingers:          AllFingersExtended(),
	}
}

// Normalize fills defaults and clamps the hand off angle.
func (c *SwipeConfig) Normalize() {
	d := DefaultSwipeConfig()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Direction == "" {
		c.Direction = d.Direction
	}
	orDefault(&c.Period, d.Period)
	orDefault(&c.HandOnAngle, d.HandOnAngle)
	orDefault(&c.HandOffAngle, d.HandOffAngle)
	orDefault(&c.SwipeAngle, d.SwipeAngle)
	orDefault(&c.MaximumSwipeTime, d.MaximumSwipeTime)
	if c.Fingers.IsZero() {
		c.Fingers = d.Fingers
	}
	c.HandOffAngle = math.Max(c.HandOffAngle, c.HandOnAngle)
}

// Definition is the persisted, hot-reloadable configuration of one
// recognizer. Only the section matching Family is used.
type Definition struct {
	Family   Family          `json:"family"`
	PalmFlip *PalmFlipConfig `json:"palm_flip,omitempty"`
	Wave     *WaveConfig     `json:"wave,omitempty"`
	Swipe    *SwipeConfig    `json:"swipe,omitempty"`
}

// ParseDefinition decodes, normalizes and validates a JSON definition.
func ParseDefinition(data []byte) (Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// Normalize creates the family section when missing, fills its defaults and
// drops sections belonging to other families.
func (d *Definition) Normalize() {
	switch d.Family {
	case FamilyPalmFlip:
		if d.PalmFlip == nil {
			d.PalmFlip = &PalmFlipConfig{}
		}
		d.PalmFlip.Normalize()
		d.Wave, d.Swipe = nil, nil
	case FamilyWave:
		if d.Wave == nil {
			d.Wave = &WaveConfig{}
		}
		d.Wave.Normalize()
		d.PalmFlip, d.Swipe = nil, nil
	case FamilySwipe:
		if d.Swipe == nil {
			d.Swipe = &SwipeConfig{}
		}
		d.Swipe.Normalize()
		d.PalmFlip, d.Wave = nil, nil
	}
}

// Validate checks the family and enumerations of a normalized definition.
func (d Definition) Validate() error {
	switch d.Family {
	case FamilyPalmFlip:
		if d.PalmFlip == nil {
			return fmt.Errorf("%w: missing palm_flip section", ErrInvalidDefinition)
		}
	case FamilyWave:
		if d.Wave == nil {
			return fmt.Errorf("%w: missing wave section", ErrInvalidDefinition)
		}
		if d.Wave.Variant != VariantSingle && d.Wave.Variant != VariantDouble {
			return fmt.Errorf("%w: variant %q", ErrInvalidDefinition, d.Wave.Variant)
		}
		if err := validateMode(d.Wave.Mode); err != nil {
			return err
		}
	case FamilySwipe:
		if d.Swipe == nil {
			return fmt.Errorf("%w: missing swipe section", ErrInvalidDefinition)
		}
		if err := validateMode(d.Swipe.Mode); err != nil {
			return err
		}
		switch d.Swipe.Direction {
		case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		default:
			return fmt.Errorf("%w: direction %q", ErrInvalidDefinition, d.Swipe.Direction)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFamily, d.Family)
	}
	return nil
}

func validateMode(m Mode) error {
	if m != ModeWrist && m != ModeArm {
		return fmt.Errorf("%w: mode %q", ErrInvalidDefinition, m)
	}
	return nil
}

// Period returns the sampling period of the definition's family section.
func (d Definition) Period() time.Duration {
	switch {
	case d.Family == FamilyPalmFlip && d.PalmFlip != nil:
		return seconds(d.PalmFlip.Period)
	case d.Family == FamilyWave && d.Wave != nil:
		return seconds(d.Wave.Period)
	case d.Family == FamilySwipe && d.Swipe != nil:
		return seconds(d.Swipe.Period)
	}
	return 0
}

// Build normalizes and validates the definition and returns a fresh machine
// together with its sampling period.
func (d Definition) Build() (Machine, time.Duration, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, 0, err
	}

	var m Machine
	switch d.Family {
	case FamilyPalmFlip:
		m = NewPalmFlip(*d.PalmFlip)
	case FamilyWave:
		m = NewWave(*d.Wave)
	case FamilySwipe:
		m = NewSwipe(*d.Swipe)
	}
	return m, d.Period(), nil
}

func orDefault(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
