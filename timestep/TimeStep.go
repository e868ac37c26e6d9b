// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment.
//
// A Last TimeStep ends an episode either because the task terminated
// (Terminated is true) or because the episode was cut short, for
// example by a step limit (Terminated is false).
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation []float64
	Number      int
	Terminated  bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o []float64, n int, terminated bool) TimeStep {
	return TimeStep{t, r, o, n, terminated}
}

// StepType returns the type of the TimeStep
func (t TimeStep) StepType() StepType {
	return t.stepType
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.stepType == Last
}

// Truncated returns whether the episode ended on this TimeStep without
// the task terminating.
func (t TimeStep) Truncated() bool {
	return t.stepType == Last && !t.Terminated
}

// Truncate makes the TimeStep the last in its episode. If the task had
// not terminated on this TimeStep, the episode is truncated.
func (t *TimeStep) Truncate() {
	t.stepType = Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Terminated: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Terminated, t.Number)
}
