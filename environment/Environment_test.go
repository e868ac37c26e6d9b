package environment

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/discretesac/timestep"
)

func TestUniformStarterBounds(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}, {Min: 5, Max: 6}}
	s := NewUniformStarter(bounds, 3)

	for i := 0; i < 200; i++ {
		start := s.Start()
		for j := range bounds {
			if start[j] < bounds[j].Min || start[j] > bounds[j].Max {
				t.Fatalf("feature %v = %v outside %v", j, start[j], bounds[j])
			}
		}
	}
}

func TestUniformStarterSeeded(t *testing.T) {
	bounds := []r1.Interval{{Min: 0, Max: 1}}
	a, b := NewUniformStarter(bounds, 9), NewUniformStarter(bounds, 9)
	for i := 0; i < 10; i++ {
		if x, y := a.Start()[0], b.Start()[0]; x != y {
			t.Fatalf("sample %v: same seed gave %v and %v", i, x, y)
		}
	}
}

func TestCategoricalStarter(t *testing.T) {
	s := NewCategoricalStarter([][]float64{{0, 1}, {1, 0, 0}}, 1)
	for i := 0; i < 20; i++ {
		start := s.Start()
		if start[0] != 1 || start[1] != 0 {
			t.Fatalf("want [1 0] have %v", start)
		}
	}

	u := NewUniformCategoricalStarter([]int{3}, 2)
	seen := make(map[float64]bool)
	for i := 0; i < 200; i++ {
		seen[u.Start()[0]] = true
	}
	if len(seen) != 3 {
		t.Errorf("want 3 distinct starts have %v", seen)
	}
}

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)
	for n := 1; n <= 3; n++ {
		step := timestep.New(timestep.Mid, 0, nil, n, false)
		ended := limit.End(&step)
		if ended != (n == 3) {
			t.Errorf("step %v: want ended %v have %v", n, n == 3, ended)
		}
		if ended && !step.Truncated() {
			t.Errorf("step %v: step limit should truncate", n)
		}
	}

	never := NewStepLimit(0)
	step := timestep.New(timestep.Mid, 0, nil, 1_000_000, false)
	if never.End(&step) {
		t.Error("non-positive step limit should never end episodes")
	}
}
