package op

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/discretesac/utils/floatutils"
)

func run(t *testing.T, g *G.ExprGraph, out *G.Node) []float64 {
	t.Helper()
	var val G.Value
	G.Read(out, &val)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	return append([]float64(nil), val.Data().([]float64)...)
}

func TestLogSoftmax(t *testing.T) {
	data := []float64{
		1, 2, 3,
		-1000, 0, 1000,
		0.5, 0.5, 0.5,
	}
	g := G.NewGraph()
	logits := G.NewMatrix(g, tensor.Float64, G.WithShape(3, 3),
		G.WithName("logits"), G.WithValue(tensor.New(
			tensor.WithShape(3, 3),
			tensor.WithBacking(append([]float64(nil), data...)),
		)))

	logp, err := LogSoftmax(logits)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, logp)

	for row := 0; row < 3; row++ {
		want := floatutils.LogSoftmax(nil, data[row*3:row*3+3])
		for col := range want {
			h := have[row*3+col]
			if math.IsNaN(h) || math.Abs(h-want[col]) > 1e-9 {
				t.Errorf("row %v col %v: want %v have %v", row, col,
					want[col], h)
			}
		}
	}
}

func TestMin(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(4), G.WithName("a"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{1, 5, -2, 3}))))
	b := G.NewVector(g, tensor.Float64, G.WithShape(4), G.WithName("b"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{2, 4, -3, 3}))))

	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, min)
	want := []float64{1, 4, -3, 3}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("index %v: want %v have %v", i, want[i], have[i])
		}
	}
}
