package sac

import (
	"math"

	"github.com/samuelfneumann/discretesac/agent"
	"github.com/samuelfneumann/discretesac/initwfn"
	"github.com/samuelfneumann/discretesac/network"
	"github.com/samuelfneumann/discretesac/solver"
)

// Version is the current version of the Config format
const Version = 1

// Config implements a configuration for a SAC agent
type Config struct {
	Version int

	// Hidden layer sizes and activations of the policy and critics
	Hidden      []int
	Activations []*network.Activation

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Solvers of the policy, both critics, and the entropy temperature.
	// Each agent creates its own Gorgonia solvers from these, so a
	// Config may be shared between agents.
	PolicySolver *solver.Solver
	CriticSolver *solver.Solver
	AlphaSolver  *solver.Solver

	Discount float64 // γ
	Tau      float64 // Polyak averaging constant

	// The entropy target is AlphaScale * log(number of actions)
	AlphaScale float64
	InitAlpha  float64
	LearnAlpha bool

	TargetUpdate    int // Learning steps between target network updates
	UpdateFrequency int // Environment steps between learning steps

	// BatchSize is the number of transitions in each update and must
	// equal the batch size of the experience replay buffer
	BatchSize int

	// SaveDir is the directory in which policies are saved
	SaveDir string
}

// DefaultConfig returns a Config with the default hyperparameters. All
// solvers are Adam with a step size of 3e-4.
func DefaultConfig() Config {
	init, _ := initwfn.NewGlorotU(1.0)
	policySolver, _ := solver.NewDefaultAdam(3e-4, 1)
	criticSolver, _ := solver.NewDefaultAdam(3e-4, 1)
	alphaSolver, _ := solver.NewDefaultAdam(3e-4, 1)

	return Config{
		Version:         Version,
		Hidden:          []int{256, 256},
		Activations:     []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:         init,
		PolicySolver:    policySolver,
		CriticSolver:    criticSolver,
		AlphaSolver:     alphaSolver,
		Discount:        0.99,
		Tau:             0.005,
		AlphaScale:      0.75,
		InitAlpha:       1.0,
		LearnAlpha:      true,
		TargetUpdate:    1,
		UpdateFrequency: 1,
		BatchSize:       256,
		SaveDir:         "policies",
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// SAC agent. All errors returned are of type *agent.ConfigurationError.
func (c Config) Validate() error {
	if c.Version != Version {
		return agent.NewConfigurationError("Version", "want(%v) have(%v)",
			Version, c.Version)
	}

	if len(c.Hidden) != len(c.Activations) {
		return agent.NewConfigurationError("Activations", "invalid number "+
			"of activations\n\twant(%v)\n\thave(%v)", len(c.Hidden),
			len(c.Activations))
	}
	for i, size := range c.Hidden {
		if size < 1 {
			return agent.NewConfigurationError("Hidden", "layer %v must "+
				"have a positive number of units, have(%v)", i, size)
		}
		if c.Activations[i] == nil {
			return agent.NewConfigurationError("Activations", "layer %v "+
				"has no activation", i)
		}
	}
	if c.InitWFn == nil || c.InitWFn.InitWFn() == nil {
		return agent.NewConfigurationError("InitWFn", "weight initializer "+
			"must be set")
	}

	solvers := []struct {
		field string
		value *solver.Solver
	}{
		{"PolicySolver", c.PolicySolver},
		{"CriticSolver", c.CriticSolver},
		{"AlphaSolver", c.AlphaSolver},
	}
	for _, s := range solvers {
		if s.value == nil || s.value.Config == nil {
			return agent.NewConfigurationError(s.field, "solver must be set")
		}
		if err := s.value.Config.Validate(); err != nil {
			return agent.NewConfigurationError(s.field, "%v", err)
		}
	}

	if !(c.Discount > 0 && c.Discount < 1) {
		return agent.NewConfigurationError("Discount", "γ must be in (0, 1), "+
			"have(%v)", c.Discount)
	}
	if !(c.Tau > 0 && c.Tau <= 1) {
		return agent.NewConfigurationError("Tau", "τ must be in (0, 1], "+
			"have(%v)", c.Tau)
	}
	if math.IsNaN(c.AlphaScale) || math.IsInf(c.AlphaScale, 0) {
		return agent.NewConfigurationError("AlphaScale", "must be finite, "+
			"have(%v)", c.AlphaScale)
	}
	if !(c.InitAlpha > 0) || math.IsInf(c.InitAlpha, 0) {
		return agent.NewConfigurationError("InitAlpha", "α must be positive "+
			"and finite, have(%v)", c.InitAlpha)
	}

	if c.TargetUpdate < 1 {
		return agent.NewConfigurationError("TargetUpdate", "target networks "+
			"must be updated at positive intervals, have(%v)", c.TargetUpdate)
	}
	if c.UpdateFrequency < 1 {
		return agent.NewConfigurationError("UpdateFrequency", "updates must "+
			"happen at positive intervals, have(%v)", c.UpdateFrequency)
	}
	if c.BatchSize < 1 {
		return agent.NewConfigurationError("BatchSize", "must be positive, "+
			"have(%v)", c.BatchSize)
	}

	return nil
}

// CreateAgent creates a new SAC agent based on the configuration
func (c Config) CreateAgent(obsDim, numActions int,
	seed uint64) (agent.Agent, error) {
	return New(obsDim, numActions, c, seed)
}
