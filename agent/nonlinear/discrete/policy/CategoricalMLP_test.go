package policy

import (
	"math"
	"path/filepath"
	"testing"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/discretesac/network"
)

func newPolicy(t *testing.T, features, actions int) *CategoricalMLP {
	t.Helper()
	net, err := network.NewMultiHeadMLP(features, 1, actions, G.NewGraph(),
		[]int{8}, []bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	pol, err := NewCategoricalMLP(net, 1)
	if err != nil {
		t.Fatal(err)
	}
	return pol
}

func TestProbabilitiesValid(t *testing.T) {
	pol := newPolicy(t, 4, 3)
	defer pol.Close()

	states := [][]float64{
		{0, 0, 0, 0},
		{1, -1, 0.5, 2},
		{100, -100, 50, 10},
	}
	for _, state := range states {
		probs, err := pol.Probabilities(state)
		if err != nil {
			t.Fatal(err)
		}

		sum := 0.0
		for _, p := range probs {
			if p < 0 || p > 1 || math.IsNaN(p) {
				t.Errorf("state %v: invalid probability %v", state, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-5 {
			t.Errorf("state %v: probabilities sum to %v", state, sum)
		}
	}
}

func TestSelectActionInRange(t *testing.T) {
	pol := newPolicy(t, 2, 4)
	defer pol.Close()

	counts := make([]int, pol.NumActions())
	for i := 0; i < 500; i++ {
		action, err := pol.SelectAction([]float64{0.1, 0.2})
		if err != nil {
			t.Fatal(err)
		}
		if action < 0 || action >= pol.NumActions() {
			t.Fatalf("action %v outside [0, %v)", action, pol.NumActions())
		}
		counts[action]++
	}

	// A freshly initialized policy is never close enough to
	// deterministic to select a single action 500 times
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	if nonZero < 2 {
		t.Errorf("training mode should sample actions, counts: %v", counts)
	}
}

func TestEvalIsGreedy(t *testing.T) {
	pol := newPolicy(t, 2, 3)
	defer pol.Close()

	state := []float64{0.3, -0.7}
	probs, err := pol.Probabilities(state)
	if err != nil {
		t.Fatal(err)
	}
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	pol.Eval()
	if !pol.IsEval() {
		t.Fatal("policy should be in evaluation mode")
	}
	for i := 0; i < 20; i++ {
		action, err := pol.SelectAction(state)
		if err != nil {
			t.Fatal(err)
		}
		if action != best {
			t.Fatalf("eval: want greedy action %v have %v", best, action)
		}
	}
	pol.Train()
	if pol.IsEval() {
		t.Error("policy should be in training mode")
	}
}

func TestSaveLoad(t *testing.T) {
	pol := newPolicy(t, 3, 2)
	defer pol.Close()

	path := filepath.Join(t.TempDir(), "test.policy")
	if err := Save(path, pol.Network()); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	state := []float64{1, 2, 3}
	want, err := pol.Probabilities(state)
	if err != nil {
		t.Fatal(err)
	}
	have, err := loaded.Probabilities(state)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if math.Abs(want[i]-have[i]) > 1e-12 {
			t.Errorf("load: probability %v want %v have %v", i, want[i],
				have[i])
		}
	}
}

func TestNewRequiresBatchOne(t *testing.T) {
	net, err := network.NewMultiHeadMLP(2, 4, 2, G.NewGraph(), []int{},
		[]bool{}, G.GlorotU(1.0), []*network.Activation{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCategoricalMLP(net, 0); err == nil {
		t.Error("expected error for network with batch size 4")
	}
}
