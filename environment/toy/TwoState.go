// Package toy implements small environments with known solutions which
// are useful for checking that agents learn
package toy

import (
	"fmt"

	env "github.com/samuelfneumann/discretesac/environment"
	ts "github.com/samuelfneumann/discretesac/timestep"
)

const (
	NumStates  int = 2
	NumActions int = 2

	// EpisodeSteps is the default number of steps before an episode is
	// truncated
	EpisodeSteps int = 10
)

// TwoState is an environment with two states, observed as one-hot
// vectors, and two actions. Taking the action whose index equals the
// current state's index gives a reward of 1 and moves to the other
// state. Any other action gives a reward of 0 and leaves the state
// unchanged. The task never terminates; episodes are truncated after
// a fixed number of steps.
type TwoState struct {
	starter     env.CategoricalStarter
	stepLimiter env.StepLimit

	state    int
	lastStep ts.TimeStep
	started  bool
}

// NewTwoState returns a new TwoState environment which starts in either
// state with equal probability
func NewTwoState(episodeSteps int, seed uint64) *TwoState {
	return &TwoState{
		starter:     env.NewUniformCategoricalStarter([]int{NumStates}, seed),
		stepLimiter: env.NewStepLimit(episodeSteps),
	}
}

// Reset resets the environment and returns a starting state
func (t *TwoState) Reset() (ts.TimeStep, error) {
	t.state = int(t.starter.Start()[0])
	t.lastStep = ts.New(ts.First, 0.0, oneHot(t.state), 0, false)
	t.started = true

	return t.lastStep, nil
}

// Step takes one environmental step given action a
func (t *TwoState) Step(a int) (ts.TimeStep, error) {
	if !t.started || t.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: %w", env.ErrEpisodeOver)
	}
	if a < 0 || a >= NumActions {
		return ts.TimeStep{}, fmt.Errorf("step: %w: %v ∉ {0, 1}",
			env.ErrInvalidAction, a)
	}

	reward := 0.0
	if a == t.state {
		reward = 1.0
		t.state = 1 - t.state
	}

	nextStep := ts.New(ts.Mid, reward, oneHot(t.state), t.lastStep.Number+1,
		false)
	t.stepLimiter.End(&nextStep)

	t.lastStep = nextStep
	return nextStep, nil
}

// State returns the index of the current state
func (t *TwoState) State() int {
	return t.state
}

// ObservationDim returns the dimension of observations
func (t *TwoState) ObservationDim() int {
	return NumStates
}

// NumActions returns the number of actions in the environment
func (t *TwoState) NumActions() int {
	return NumActions
}

// Close closes the environment
func (t *TwoState) Close() error {
	t.started = false
	return nil
}

func (t *TwoState) String() string {
	return "TwoState"
}

func oneHot(state int) []float64 {
	obs := make([]float64, NumStates)
	obs[state] = 1.0
	return obs
}
