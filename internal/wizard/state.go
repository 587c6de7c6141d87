// Package wizard tracks where a visitor is in the two-step card builder.
//
// The builder has two steps: collecting the profile, then customizing the
// card. The only legal move is collecting → customizing, made once the
// profile has been saved. There is no way back: a new card starts with a
// new intake.
//
// The customizing step is bound to its profile by a signed draft token
// (token.go) carried in a cookie. It is not a login; it only proves that the
// browser holding it completed the intake for that profile.
package wizard

import (
	"errors"
	"fmt"
)

// Step is a wizard state.
type Step string

const (
	StepCollecting  Step = "collecting"
	StepCustomizing Step = "customizing"
)

func (s Step) String() string { return string(s) }

// ErrInvalidTransition is returned for any move other than
// collecting → customizing.
var ErrInvalidTransition = errors.New("wizard: invalid step transition")

// State is the wizard state of one visitor.
type State struct {
	Step      Step
	ProfileID string
}

// New returns the state every visitor starts in.
func New() State {
	return State{Step: StepCollecting}
}

// Customizing returns the state for a visitor whose draft names profileID.
func Customizing(profileID string) State {
	return State{Step: StepCustomizing, ProfileID: profileID}
}

// Advance moves from collecting to customizing for the saved profile.
func (s *State) Advance(profileID string) error {
	if s.Step != StepCollecting {
		return fmt.Errorf("%w: from %s", ErrInvalidTransition, s.Step)
	}
	if profileID == "" {
		return fmt.Errorf("%w: no profile saved", ErrInvalidTransition)
	}
	s.Step = StepCustomizing
	s.ProfileID = profileID
	return nil
}
