package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/pose"
)

// Extension is the required state of one finger.
type Extension string

const (
	Extended    Extension = "extended"
	NotExtended Extension = "not_extended"
	Either      Extension = "either"
)

// Matches reports whether a finger with the given extension flag satisfies e.
func (e Extension) Matches(extended bool) bool {
	switch e {
	case Either:
		return true
	case Extended:
		return extended
	case NotExtended:
		return !extended
	}
	return false
}

// ExtensionRequirement holds one requirement per finger, thumb through pinky.
type ExtensionRequirement [pose.NumFingers]Extension

// AllFingersExtended requires every finger to be extended.
func AllFingersExtended() ExtensionRequirement {
	return ExtensionRequirement{Extended, Extended, Extended, Extended, Extended}
}

// Matches returns true iff every finger satisfies its requirement.
func (r ExtensionRequirement) Matches(flags [pose.NumFingers]bool) bool {
	for i, req := range r {
		if !req.Matches(flags[i]) {
			return false
		}
	}
	return true
}

// IsZero reports whether no requirement has been set.
func (r ExtensionRequirement) IsZero() bool {
	return r == ExtensionRequirement{}
}

// UnmarshalJSON decodes a five-element array of extension names.
func (r *ExtensionRequirement) UnmarshalJSON(data []byte) error {
	var names []Extension
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	if len(names) != pose.NumFingers {
		return fmt.Errorf("fingers: want %d requirements, got %d", pose.NumFingers, len(names))
	}
	for i, n := range names {
		switch n {
		case Extended, NotExtended, Either:
			r[i] = n
		default:
			return fmt.Errorf("fingers: unknown requirement %q for %s", n, pose.Finger(i))
		}
	}
	return nil
}
