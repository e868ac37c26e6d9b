// Package experiment implements functionality for running experiments:
// training an agent online in an environment, recording the data it
// generates, and sweeping over hyperparameters
package experiment

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/discretesac/agent"
	"github.com/samuelfneumann/discretesac/agent/nonlinear/discrete/sac"
	"github.com/samuelfneumann/discretesac/expreplay"
	"github.com/samuelfneumann/discretesac/initwfn"
	"github.com/samuelfneumann/discretesac/network"
	"github.com/samuelfneumann/discretesac/solver"
)

// ConfigVersion is the current version of the Config format
const ConfigVersion = 1

// CPU is the only supported device
const CPU = "cpu"

// Config represents a configuration of an experiment
type Config struct {
	Version int

	Agent       sac.Config
	Environment string

	BufferSize   int // Capacity of the experience replay buffer
	SampleSize   int // Number of transitions in each update
	MaxSteps     int // Number of environment steps to train for
	ExploreSteps int // Steps of uniform random actions before learning
	EpisodeSteps int // Steps before an episode is truncated, 0 for default

	Seed uint64

	LogDir  string // Root directory of all run data
	RunName string // Name of this run's directory under LogDir

	CheckpointEvery int // Steps between policy snapshots, 0 disables
	LogEvery        int // Steps between logged scalars, 0 disables

	Device string
}

// DefaultConfig returns the default experiment configuration
func DefaultConfig() Config {
	return Config{
		Version:      ConfigVersion,
		Agent:        sac.DefaultConfig(),
		Environment:  CartpoleName,
		BufferSize:   1_000_000,
		SampleSize:   256,
		MaxSteps:     600_000,
		ExploreSteps: 0,
		LogDir:       "runs",
		RunName:      "run",
		LogEvery:     1000,
		Device:       CPU,
	}
}

// LoadConfig reads a Config from the JSON file at path. Fields missing
// from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not read config")
	}

	c := DefaultConfig()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrapf(err, "could not decode config %v",
			path)
	}
	return c, nil
}

// Save writes the Config to path as JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return errors.Wrap(err, "could not encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "save config")
}

// Validate checks a Config to ensure it is a valid configuration of an
// experiment. All errors returned are of type *agent.ConfigurationError.
func (c Config) Validate() error {
	if c.Version != ConfigVersion {
		return agent.NewConfigurationError("Version", "want(%v) have(%v)",
			ConfigVersion, c.Version)
	}

	if err := c.BufferConfig().Validate(); err != nil {
		return agent.NewConfigurationError("BufferSize", "%v", err)
	}

	if c.MaxSteps < 1 {
		return agent.NewConfigurationError("MaxSteps", "must be positive, "+
			"have(%v)", c.MaxSteps)
	}
	if c.ExploreSteps < 0 {
		return agent.NewConfigurationError("ExploreSteps", "must be "+
			"non-negative, have(%v)", c.ExploreSteps)
	}
	if c.Device != "" && c.Device != CPU {
		return agent.NewConfigurationError("Device", "only %q is "+
			"supported, have(%q)", CPU, c.Device)
	}
	if !IsEnvironment(c.Environment) {
		return agent.NewConfigurationError("Environment", "no such "+
			"environment %q", c.Environment)
	}

	return c.AgentConfig().Validate()
}

// BufferConfig returns the configuration of the experience replay
// buffer
func (c Config) BufferConfig() expreplay.Config {
	return expreplay.Config{
		Capacity:   c.BufferSize,
		SampleSize: c.SampleSize,
	}
}

// AgentConfig returns the configuration of the agent, with its batch
// size set to the experiment's sample size
func (c Config) AgentConfig() sac.Config {
	a := c.Agent
	a.BatchSize = c.SampleSize
	return a
}

// Set sets the hyperparameter called name to value. Names are the
// snake case forms of the fields of Config and sac.Config, e.g.
// alpha_scale or buffer_size, and every name returned by
// Hyperparameters is accepted. Lists such as hidden_sizes are comma
// separated. Setting hidden_size or activation sets every hidden layer.
//
// Solvers are never modified in place, so a copy of a Config may be
// Set without changing the original.
func (c *Config) Set(name, value string) error {
	var err error
	switch strings.ToLower(name) {
	case "version":
		c.Version, err = strconv.Atoi(value)
	case "hidden_size":
		var size int
		if size, err = strconv.Atoi(value); err == nil {
			hidden := make([]int, len(c.Agent.Hidden))
			for i := range hidden {
				hidden[i] = size
			}
			c.Agent.Hidden = hidden
		}
	case "hidden_sizes":
		var hidden []int
		if hidden, err = parseInts(value); err == nil {
			c.Agent.Hidden = hidden
			c.Agent.Activations = resizeActivations(c.Agent.Activations,
				len(hidden))
		}
	case "activation":
		var act *network.Activation
		if act, err = network.NewActivation(strings.ToLower(value)); err == nil {
			for i := range c.Agent.Activations {
				c.Agent.Activations[i] = act
			}
		}
	case "activations":
		var acts []*network.Activation
		if acts, err = parseActivations(value); err == nil {
			c.Agent.Activations = acts
		}
	case "init_wfn":
		var init *initwfn.InitWFn
		if init, err = initwfn.Parse(value); err == nil {
			c.Agent.InitWFn = init
		}
	case "policy_lr":
		c.Agent.PolicySolver, err = withLearnRate(c.Agent.PolicySolver, value)
	case "critic_lr":
		c.Agent.CriticSolver, err = withLearnRate(c.Agent.CriticSolver, value)
	case "alpha_lr":
		c.Agent.AlphaSolver, err = withLearnRate(c.Agent.AlphaSolver, value)
	case "policy_solver":
		c.Agent.PolicySolver, err = withType(c.Agent.PolicySolver, value)
	case "critic_solver":
		c.Agent.CriticSolver, err = withType(c.Agent.CriticSolver, value)
	case "alpha_solver":
		c.Agent.AlphaSolver, err = withType(c.Agent.AlphaSolver, value)
	case "discount":
		c.Agent.Discount, err = strconv.ParseFloat(value, 64)
	case "tau":
		c.Agent.Tau, err = strconv.ParseFloat(value, 64)
	case "alpha_scale":
		c.Agent.AlphaScale, err = strconv.ParseFloat(value, 64)
	case "init_alpha":
		c.Agent.InitAlpha, err = strconv.ParseFloat(value, 64)
	case "learn_alpha":
		c.Agent.LearnAlpha, err = strconv.ParseBool(value)
	case "target_update":
		c.Agent.TargetUpdate, err = strconv.Atoi(value)
	case "update_frequency":
		c.Agent.UpdateFrequency, err = strconv.Atoi(value)
	case "explore_steps":
		c.ExploreSteps, err = strconv.Atoi(value)
	case "buffer_size":
		c.BufferSize, err = strconv.Atoi(value)
	case "sample_size":
		c.SampleSize, err = strconv.Atoi(value)
	case "max_steps":
		c.MaxSteps, err = strconv.Atoi(value)
	case "episode_steps":
		c.EpisodeSteps, err = strconv.Atoi(value)
	case "checkpoint_every":
		c.CheckpointEvery, err = strconv.Atoi(value)
	case "log_every":
		c.LogEvery, err = strconv.Atoi(value)
	case "environment_name", "environment":
		c.Environment = value
	case "seed":
		c.Seed, err = strconv.ParseUint(value, 10, 64)
	case "device":
		c.Device = value
	default:
		return agent.NewConfigurationError(name, "no such hyperparameter")
	}

	if err != nil {
		return agent.NewConfigurationError(name, "invalid value %q: %v",
			value, err)
	}
	return nil
}

// Hyperparameters returns the hyperparameters of the Config as ordered
// name, value pairs. Names and values are in the form accepted by Set.
func (c Config) Hyperparameters() [][2]string {
	a := c.Agent
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	hidden := make([]string, len(a.Hidden))
	for i, size := range a.Hidden {
		hidden[i] = strconv.Itoa(size)
	}
	activations := make([]string, len(a.Activations))
	for i, act := range a.Activations {
		activations[i] = act.String()
	}
	initWFn := ""
	if a.InitWFn != nil {
		initWFn = strings.ToLower(string(a.InitWFn.Type))
	}

	return [][2]string{
		{"version", strconv.Itoa(c.Version)},
		{"hidden_sizes", strings.Join(hidden, ",")},
		{"activations", strings.Join(activations, ",")},
		{"init_wfn", initWFn},
		{"policy_solver", solverType(a.PolicySolver)},
		{"policy_lr", f(learnRate(a.PolicySolver))},
		{"critic_solver", solverType(a.CriticSolver)},
		{"critic_lr", f(learnRate(a.CriticSolver))},
		{"alpha_solver", solverType(a.AlphaSolver)},
		{"alpha_lr", f(learnRate(a.AlphaSolver))},
		{"discount", f(a.Discount)},
		{"tau", f(a.Tau)},
		{"alpha_scale", f(a.AlphaScale)},
		{"init_alpha", f(a.InitAlpha)},
		{"learn_alpha", strconv.FormatBool(a.LearnAlpha)},
		{"target_update", strconv.Itoa(a.TargetUpdate)},
		{"update_frequency", strconv.Itoa(a.UpdateFrequency)},
		{"explore_steps", strconv.Itoa(c.ExploreSteps)},
		{"buffer_size", strconv.Itoa(c.BufferSize)},
		{"sample_size", strconv.Itoa(c.SampleSize)},
		{"max_steps", strconv.Itoa(c.MaxSteps)},
		{"episode_steps", strconv.Itoa(c.EpisodeSteps)},
		{"checkpoint_every", strconv.Itoa(c.CheckpointEvery)},
		{"log_every", strconv.Itoa(c.LogEvery)},
		{"environment_name", c.Environment},
		{"seed", strconv.FormatUint(c.Seed, 10)},
		{"device", c.device()},
	}
}

func parseInts(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return []int{}, nil
	}
	fields := strings.Split(value, ",")
	ints := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		ints[i] = n
	}
	return ints, nil
}

func parseActivations(value string) ([]*network.Activation, error) {
	if strings.TrimSpace(value) == "" {
		return []*network.Activation{}, nil
	}
	fields := strings.Split(value, ",")
	acts := make([]*network.Activation, len(fields))
	for i, field := range fields {
		act, err := network.NewActivation(
			strings.ToLower(strings.TrimSpace(field)))
		if err != nil {
			return nil, err
		}
		acts[i] = act
	}
	return acts, nil
}

// resizeActivations returns n activations, keeping existing ones and
// repeating the last for new layers
func resizeActivations(acts []*network.Activation,
	n int) []*network.Activation {
	resized := make([]*network.Activation, n)
	for i := range resized {
		switch {
		case i < len(acts):
			resized[i] = acts[i]
		case len(acts) > 0:
			resized[i] = acts[len(acts)-1]
		default:
			resized[i] = network.ReLU()
		}
	}
	return resized
}

// withLearnRate returns a copy of s with the step size in value, or s
// itself if value is not a valid step size
func withLearnRate(s *solver.Solver, value string) (*solver.Solver, error) {
	stepSize, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return s, err
	}

	var next *solver.Solver
	if s == nil {
		next, err = solver.NewDefaultAdam(stepSize, 1)
	} else {
		next, err = s.WithLearnRate(stepSize)
	}
	if err != nil {
		return s, err
	}
	return next, nil
}

// withType returns a solver of the type named by value with the step
// size of s, or s itself if there is no such solver type
func withType(s *solver.Solver, value string) (*solver.Solver, error) {
	var next *solver.Solver
	var err error
	if s == nil {
		next, err = solver.Parse(value, 3e-4, 1)
	} else {
		next, err = s.WithType(value)
	}
	if err != nil {
		return s, err
	}
	return next, nil
}

func solverType(s *solver.Solver) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(string(s.Type))
}

func learnRate(s *solver.Solver) float64 {
	if s == nil || s.Config == nil {
		return 0
	}
	return s.LearnRate()
}

func (c Config) device() string {
	if c.Device == "" {
		return CPU
	}
	return c.Device
}
