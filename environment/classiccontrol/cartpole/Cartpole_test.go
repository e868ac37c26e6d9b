package cartpole

import (
	"errors"
	"math"
	"testing"

	env "github.com/samuelfneumann/discretesac/environment"
)

func TestResetWithinStartBounds(t *testing.T) {
	c := New(EpisodeSteps, 1)
	for i := 0; i < 100; i++ {
		step, err := c.Reset()
		if err != nil {
			t.Fatal(err)
		}
		if !step.First() {
			t.Fatalf("reset: want first timestep have %v", step.StepType())
		}
		if len(step.Observation) != ObservationDims {
			t.Fatalf("reset: want %v features have %v", ObservationDims,
				len(step.Observation))
		}
		for j, v := range step.Observation {
			if math.Abs(v) > StartBound {
				t.Errorf("reset: feature %v = %v outside ±%v", j, v,
					StartBound)
			}
		}
	}
}

func TestPoleFallsTerminates(t *testing.T) {
	c := New(EpisodeSteps, 2)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	// Always pushing right tips the pole over well before the step limit
	steps := 0
	for {
		step, err := c.Step(1)
		if err != nil {
			t.Fatal(err)
		}
		steps++
		if step.Reward != 1.0 {
			t.Errorf("step %v: want reward 1 have %v", steps, step.Reward)
		}
		if step.Last() {
			if !step.Terminated {
				t.Error("falling pole should terminate the episode")
			}
			if step.Truncated() {
				t.Error("falling pole should not truncate the episode")
			}
			break
		}
		if steps > EpisodeSteps {
			t.Fatal("episode did not end")
		}
	}
	if steps >= EpisodeSteps {
		t.Errorf("want termination before %v steps have %v", EpisodeSteps,
			steps)
	}

	if _, err := c.Step(0); !errors.Is(err, env.ErrEpisodeOver) {
		t.Errorf("step after episode end: want ErrEpisodeOver have(%v)", err)
	}
}

func TestStepLimitTruncates(t *testing.T) {
	const limit = 5
	c := New(limit, 3)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	// Alternating actions keep the pole up for a handful of steps
	for i := 1; i <= limit; i++ {
		step, err := c.Step(i % 2)
		if err != nil {
			t.Fatal(err)
		}
		if i < limit && step.Last() {
			t.Fatalf("episode ended early at step %v", i)
		}
		if i == limit {
			if !step.Truncated() {
				t.Errorf("want truncation at step %v have %v", limit, step)
			}
		}
	}
}

func TestInvalidAction(t *testing.T) {
	c := New(EpisodeSteps, 4)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}
	for _, a := range []int{-1, 2, 10} {
		if _, err := c.Step(a); !errors.Is(err, env.ErrInvalidAction) {
			t.Errorf("action %v: want ErrInvalidAction have(%v)", a, err)
		}
	}
}

func TestDynamics(t *testing.T) {
	c := New(EpisodeSteps, 5)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}
	c.lastStep.Observation = []float64{0, 0, 0, 0}

	step, err := c.Step(1)
	if err != nil {
		t.Fatal(err)
	}

	// From rest, only the velocities change after one Euler step
	temp := ForceMag / TotalMass
	thAcc := -temp / (HalfPoleLength * (4.0/3.0 - PoleMass/TotalMass))
	xAcc := temp - PoleMass*HalfPoleLength*thAcc/TotalMass
	want := []float64{0, Dt * xAcc, 0, Dt * thAcc}

	for i := range want {
		if math.Abs(step.Observation[i]-want[i]) > 1e-12 {
			t.Errorf("feature %v: want %v have %v", i, want[i],
				step.Observation[i])
		}
	}
}

func TestPositionBounds(t *testing.T) {
	tests := []struct {
		x, xDot        float64
		wantTerminated bool
	}{
		{0, 0, false},
		{2.3, 1, false},   // x = 2.32
		{2.39, 1, true},   // x = 2.41
		{-2.39, -1, true}, // x = -2.41
		{2.4, 0, false},   // boundary is inside
	}

	for _, test := range tests {
		c := New(EpisodeSteps, 6)
		if _, err := c.Reset(); err != nil {
			t.Fatal(err)
		}
		c.lastStep.Observation = []float64{test.x, test.xDot, 0, 0}

		step, err := c.Step(0)
		if err != nil {
			t.Fatal(err)
		}
		if step.Terminated != test.wantTerminated {
			t.Errorf("x=%v ẋ=%v: want terminated %v have %v", test.x,
				test.xDot, test.wantTerminated, step.Terminated)
		}
	}
}
