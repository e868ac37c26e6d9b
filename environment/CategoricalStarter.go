package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter returns starting states sampled from a
// multi-dimensional categorical distribution. Dimension i is sampled
// from (0, 1, 2, ... len(weights[i])-1) with probabilities proportional
// to weights[i].
type CategoricalStarter struct {
	features int
	seed     uint64
	rand     []distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter
func NewCategoricalStarter(weights [][]float64,
	seed uint64) CategoricalStarter {
	source := rand.NewSource(seed)

	rand := make([]distuv.Categorical, len(weights))
	for i := range rand {
		rand[i] = distuv.NewCategorical(weights[i], source)
	}

	return CategoricalStarter{len(weights), seed, rand}
}

// NewUniformCategoricalStarter returns a new CategoricalStarter which
// samples dimension i uniformly from (0, 1, 2, ... bounds[i]-1)
func NewUniformCategoricalStarter(bounds []int,
	seed uint64) CategoricalStarter {
	weights := make([][]float64, len(bounds))
	for i := range weights {
		weights[i] = make([]float64, bounds[i])
		for j := range weights[i] {
			weights[i][j] = 1.0 / float64(bounds[i])
		}
	}

	return NewCategoricalStarter(weights, seed)
}

// Start returns a starting state vector
func (c CategoricalStarter) Start() []float64 {
	start := make([]float64, c.features)
	for i := range start {
		start[i] = c.rand[i].Rand()
	}

	return start
}
