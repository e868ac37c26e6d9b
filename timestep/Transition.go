package timestep

import "fmt"

// Transition is a single (s, a, r, s', terminal) tuple of environment
// interaction. Transitions are treated as immutable once created.
type Transition struct {
	State     []float64
	Action    int
	NextState []float64
	Reward    float64

	// Terminal is true only if the episode ended because the task
	// terminated, never because of truncation.
	Terminal bool
}

// NewTransition returns the Transition which took the environment from
// step to next by taking action. The observations are copied so that
// later changes to either TimeStep do not leak into the Transition.
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	state := make([]float64, len(step.Observation))
	copy(state, step.Observation)

	nextState := make([]float64, len(next.Observation))
	copy(nextState, next.Observation)

	return Transition{
		State:     state,
		Action:    action,
		NextState: nextState,
		Reward:    next.Reward,
		Terminal:  next.Last() && next.Terminated,
	}
}

// TerminalFloat returns 1.0 if the Transition is terminal and 0.0
// otherwise
func (t Transition) TerminalFloat() float64 {
	if t.Terminal {
		return 1.0
	}
	return 0.0
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %v  |  Reward: %.2f  |  "+
		"Terminal: %v", t.Action, t.Reward, t.Terminal)
}
