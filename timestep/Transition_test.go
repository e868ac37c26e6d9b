package timestep

import "testing"

func TestNewTransitionTerminal(t *testing.T) {
	tests := []struct {
		name     string
		next     TimeStep
		terminal bool
	}{
		{"mid", New(Mid, 1, []float64{1, 2}, 1, false), false},
		{"terminated", New(Last, 1, []float64{1, 2}, 1, true), true},
		{"truncated", New(Last, 1, []float64{1, 2}, 1, false), false},
	}

	first := New(First, 0, []float64{0, 0}, 0, false)
	for _, test := range tests {
		tr := NewTransition(first, 1, test.next)
		if tr.Terminal != test.terminal {
			t.Errorf("%v: want terminal(%v) have(%v)", test.name,
				test.terminal, tr.Terminal)
		}
		if test.next.Truncated() == tr.Terminal && test.next.Last() {
			t.Errorf("%v: truncated and terminal must be exclusive",
				test.name)
		}
	}
}

func TestNewTransitionCopies(t *testing.T) {
	obs := []float64{1, 2}
	nextObs := []float64{3, 4}
	tr := NewTransition(New(First, 0, obs, 0, false), 0,
		New(Mid, 2.5, nextObs, 1, false))

	obs[0] = 100
	nextObs[0] = 100
	if tr.State[0] != 1 || tr.NextState[0] != 3 {
		t.Errorf("transition shares memory with its timesteps: %v %v",
			tr.State, tr.NextState)
	}
	if tr.Reward != 2.5 {
		t.Errorf("reward: want(2.5) have(%v)", tr.Reward)
	}
}
