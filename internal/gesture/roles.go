package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrUnknownMapping is returned for an unrecognized label mapping name.
var ErrUnknownMapping = errors.New("unknown label mapping")

// Role is the logical job a hand performs.
type Role int

const (
	// RolePrimary is the user's dominant hand. It right-clicks with a fist.
	RolePrimary Role = iota
	// RoleSecondary is the other hand. It scrolls, steers the cursor and pinches to drag.
	RoleSecondary
)

func (r Role) String() string {
	if r == RolePrimary {
		return "primary"
	}
	return "secondary"
}

// Side is a physical hand of the user.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// LabelMapping says how provider labels relate to the user's physical hands.
type LabelMapping string

const (
	// MappingMirrored: the provider ran on a flipped image, so "Left" is the
	// user's physical right hand.
	MappingMirrored LabelMapping = "mirrored"
	// MappingLiteral: "Left" is the user's physical left hand.
	MappingLiteral LabelMapping = "literal"
)

// ParseLabelMapping validates a mapping name.
func ParseLabelMapping(name string) (LabelMapping, error) {
	switch LabelMapping(name) {
	case MappingMirrored, "":
		return MappingMirrored, nil
	case MappingLiteral:
		return MappingLiteral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMapping, name)
}

// sideOf returns the physical hand a provider label refers to.
func (m LabelMapping) sideOf(label string) Side {
	left := label == detector.LabelLeft
	if m == MappingMirrored {
		left = !left
	}
	if left {
		return SideLeft
	}
	return SideRight
}

// RoleTable returns the provider-label to role table for a configuration.
//
//	dominant  mapping   "Left"     "Right"
//	right     mirrored  primary    secondary
//	right     literal   secondary  primary
//	left      mirrored  secondary  primary
//	left      literal   primary    secondary
func RoleTable(dominantRight bool, mapping LabelMapping) map[string]Role {
	dominant := SideLeft
	if dominantRight {
		dominant = SideRight
	}
	table := make(map[string]Role, 2)
	for _, label := range []string{detector.LabelLeft, detector.LabelRight} {
		if mapping.sideOf(label) == dominant {
			table[label] = RolePrimary
		} else {
			table[label] = RoleSecondary
		}
	}
	return table
}

// Hands is the role-resolved view of one frame.
type Hands struct {
	Primary   *detector.HandLandmarks
	Secondary *detector.HandLandmarks
}

// Count returns how many roles are filled.
func (h Hands) Count() int {
	n := 0
	if h.Primary != nil {
		n++
	}
	if h.Secondary != nil {
		n++
	}
	return n
}

// Resolver assigns roles to the provider's hands.
type Resolver struct {
	table map[string]Role
}

// NewResolver creates a resolver for the given dominant hand and label mapping.
func NewResolver(dominantRight bool, mapping LabelMapping) *Resolver {
	return &Resolver{table: RoleTable(dominantRight, mapping)}
}

// Resolve assigns each observation to a role. When two observations map to the
// same role the first one wins and the rest are dropped. Observations with an
// unrecognized label are skipped.
func (r *Resolver) Resolve(hands []detector.HandLandmarks) Hands {
	var out Hands
	for i := range hands {
		role, ok := r.table[hands[i].Label()]
		if !ok {
			continue
		}
		switch role {
		case RolePrimary:
			if out.Primary == nil {
				out.Primary = &hands[i]
			}
		case RoleSecondary:
			if out.Secondary == nil {
				out.Secondary = &hands[i]
			}
		}
	}
	return out
}
