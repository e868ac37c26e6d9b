package solver

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSolverJSON(t *testing.T) {
	adam, err := NewAdam(1e-3, 1e-8, 0.9, 0.999, 1, 5.0)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if decoded.Type != Adam {
		t.Errorf("want type %v have %v", Adam, decoded.Type)
	}
	if decoded.Config != adam.Config {
		t.Errorf("want config %v have %v", adam.Config, decoded.Config)
	}
	if decoded.Solver == nil {
		t.Error("decoded solver has no gorgonia solver")
	}
}

func TestInvalidSolver(t *testing.T) {
	tests := []struct {
		name   string
		create func() (*Solver, error)
	}{
		{"zero step size", func() (*Solver, error) { return NewDefaultAdam(0, 1) }},
		{"zero batch", func() (*Solver, error) { return NewVanilla(0.1, 0, -1) }},
		{"bad β", func() (*Solver, error) {
			return NewAdam(0.1, 1e-8, 1.0, 0.999, 1, -1)
		}},
		{"bad ρ", func() (*Solver, error) {
			return NewRMSProp(0.1, 1e-8, 0.001, 1.5, 1, -1)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := test.create(); !errors.Is(err, ErrInvalidSolver) {
				t.Errorf("want ErrInvalidSolver have(%v)", err)
			}
		})
	}
}

func TestUnmarshalUnknownSolver(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "Adagrad", "Config": {}}`), &s)
	if err == nil {
		t.Error("unmarshal: expected error for unknown solver type")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"adam", Adam},
		{"RMSProp", RMSProp},
		{"Vanilla", Vanilla},
	}

	for _, test := range tests {
		s, err := Parse(test.name, 0.01, 2)
		if err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}
		if s.Type != test.want || s.LearnRate() != 0.01 || s.BatchSize() != 2 {
			t.Errorf("%v: want %v(0.01) batch 2 have %v batch %v", test.name,
				test.want, s, s.BatchSize())
		}
	}

	if _, err := Parse("adagrad", 0.01, 1); !errors.Is(err, ErrInvalidSolver) {
		t.Errorf("unknown solver: want ErrInvalidSolver have(%v)", err)
	}
}

func TestWithLearnRate(t *testing.T) {
	adam, err := NewAdam(1e-3, 1e-6, 0.8, 0.9, 1, 5.0)
	if err != nil {
		t.Fatal(err)
	}

	changed, err := adam.WithLearnRate(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if changed.LearnRate() != 0.5 || adam.LearnRate() != 1e-3 {
		t.Errorf("want new step size 0.5 and original 0.001, have %v and %v",
			changed.LearnRate(), adam.LearnRate())
	}
	want := adam.Config.(AdamConfig)
	want.StepSize = 0.5
	if changed.Config != want {
		t.Errorf("other hyperparameters changed: want %v have %v", want,
			changed.Config)
	}

	if _, err := adam.WithLearnRate(0); !errors.Is(err, ErrInvalidSolver) {
		t.Errorf("zero step size: want ErrInvalidSolver have(%v)", err)
	}

	vanilla, err := adam.WithType("vanilla")
	if err != nil {
		t.Fatal(err)
	}
	if vanilla.Type != Vanilla || vanilla.LearnRate() != 1e-3 {
		t.Errorf("want Vanilla(0.001) have %v", vanilla)
	}
}

func TestNewSolversAreIndependent(t *testing.T) {
	s, err := NewDefaultAdam(0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.New() == s.New() {
		t.Error("New should return a fresh gorgonia solver")
	}
}
