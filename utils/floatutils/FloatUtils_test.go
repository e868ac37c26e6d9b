package floatutils

import (
	"math"
	"testing"
)

func TestSoftmax(t *testing.T) {
	tests := [][]float64{
		{0, 0},
		{1, 2, 3},
		{-1000, 0, 1000},
		{750, 751},
	}

	for _, logits := range tests {
		probs := Softmax(nil, logits)
		sum := 0.0
		for _, p := range probs {
			if p < 0 || math.IsNaN(p) {
				t.Errorf("softmax(%v): invalid probability %v", logits, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("softmax(%v): probabilities sum to %v", logits, sum)
		}
	}
}

func TestLogSoftmaxUniform(t *testing.T) {
	logp := LogSoftmax(nil, []float64{3, 3, 3, 3})
	want := -math.Log(4)
	for i, l := range logp {
		if math.Abs(l-want) > 1e-12 {
			t.Errorf("logsoftmax[%d]: want(%v) have(%v)", i, want, l)
		}
	}
}

func TestMinPairwise(t *testing.T) {
	a := []float64{1, 5, -2}
	b := []float64{2, 4, -3}
	got := MinPairwise(nil, a, b)
	want := []float64{1, 4, -3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("minpairwise[%d]: want(%v) have(%v)", i, want[i], got[i])
		}
	}
}

func TestAllFinite(t *testing.T) {
	if i, ok := AllFinite([]float64{1, 2, 3}); !ok || i != -1 {
		t.Errorf("allfinite: want(-1, true) have(%v, %v)", i, ok)
	}
	if i, ok := AllFinite([]float64{1, math.Inf(1), math.NaN()}); ok || i != 1 {
		t.Errorf("allfinite: want(1, false) have(%v, %v)", i, ok)
	}
}

func TestArgMax(t *testing.T) {
	got := ArgMax(1, 3, 2, 3)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("argmax: want([1 3]) have(%v)", got)
	}
}
