package toy

import (
	"errors"
	"testing"

	env "github.com/samuelfneumann/discretesac/environment"
)

func TestOptimalActionsAlternate(t *testing.T) {
	e := NewTwoState(EpisodeSteps, 1)
	step, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}

	total := 0.0
	for !step.Last() {
		prev := e.State()
		if step.Observation[prev] != 1.0 {
			t.Fatalf("observation %v does not encode state %v",
				step.Observation, prev)
		}

		step, err = e.Step(prev)
		if err != nil {
			t.Fatal(err)
		}
		if e.State() != 1-prev {
			t.Errorf("optimal action should move from state %v", prev)
		}
		total += step.Reward
	}

	if total != float64(EpisodeSteps) {
		t.Errorf("want return %v have %v", EpisodeSteps, total)
	}
	if !step.Truncated() {
		t.Error("episode should be truncated, not terminated")
	}
	if _, err := e.Step(0); !errors.Is(err, env.ErrEpisodeOver) {
		t.Errorf("want ErrEpisodeOver have(%v)", err)
	}
}

func TestWrongActionStays(t *testing.T) {
	e := NewTwoState(EpisodeSteps, 2)
	if _, err := e.Reset(); err != nil {
		t.Fatal(err)
	}

	state := e.State()
	step, err := e.Step(1 - state)
	if err != nil {
		t.Fatal(err)
	}
	if step.Reward != 0 || e.State() != state {
		t.Errorf("wrong action: want reward 0 in state %v have reward %v "+
			"in state %v", state, step.Reward, e.State())
	}
}

func TestBothStartStates(t *testing.T) {
	e := NewTwoState(EpisodeSteps, 3)
	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		if _, err := e.Reset(); err != nil {
			t.Fatal(err)
		}
		seen[e.State()] = true
	}
	if len(seen) != NumStates {
		t.Errorf("want both start states have %v", seen)
	}
}

func TestInvalidAction(t *testing.T) {
	e := NewTwoState(EpisodeSteps, 4)
	if _, err := e.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Step(2); !errors.Is(err, env.ErrInvalidAction) {
		t.Errorf("want ErrInvalidAction have(%v)", err)
	}
}
