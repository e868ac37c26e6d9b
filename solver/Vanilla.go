package solver

import G "gorgonia.org/gorgonia"

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	}

	return newSolver(Vanilla, vanilla)
}

// Create returns a Gorgonia Vanilla Solver as described by the
// VanillaConfig
func (v VanillaConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	}
	if v.Clip > 0 {
		opts = append(opts, G.WithClip(v.Clip))
	}
	return G.NewVanillaSolver(opts...)
}

func (v VanillaConfig) Validate() error {
	return validateCommon(v.StepSize, v.Batch)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// LearnRate returns the step size of the solver
func (v VanillaConfig) LearnRate() float64 {
	return v.StepSize
}

// BatchSize returns the batch size the solver scales gradients by
func (v VanillaConfig) BatchSize() int {
	return v.Batch
}

// WithLearnRate returns a copy of the configuration with step size
// stepSize
func (v VanillaConfig) WithLearnRate(stepSize float64) Config {
	v.StepSize = stepSize
	return v
}
