// Package environment outlines the interfaces and sturcts needed to implement
// concrete environments
package environment

import (
	"errors"

	"github.com/samuelfneumann/discretesac/timestep"
)

var (
	// ErrInvalidAction is returned when an action outside of
	// [0, NumActions()) is taken
	ErrInvalidAction = errors.New("invalid action")

	// ErrEpisodeOver is returned when Step is called after the last
	// step of an episode without calling Reset
	ErrEpisodeOver = errors.New("episode is over")
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() []float64
}

// Ender determines whether a timestep should end an episode. If so, the
// Ender adjusts the TimeStep's StepType to timestep.Last and returns
// true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment with discrete actions
// in [0, NumActions()) and observations of dimension ObservationDim()
type Environment interface {
	// Reset starts a new episode and returns its first timestep
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step with the given action. If the
	// returned timestep is the last in the episode, Reset must be called
	// before stepping again.
	Step(action int) (timestep.TimeStep, error)

	ObservationDim() int
	NumActions() int

	// Close releases any resources held by the environment
	Close() error
}
