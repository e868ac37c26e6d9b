package environment

import "github.com/samuelfneumann/discretesac/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode truncation. If the episode
// should be ended End() will modify the timestep so that its StepType
// is timestep.Last. Episodes ended by a StepLimit are truncated, not
// terminated.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.Truncate()
		return true
	}
	return false
}

// EpisodeSteps returns the maximum number of steps in an episode
func (s StepLimit) EpisodeSteps() int {
	return s.episodeSteps
}
