package experiment

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/samuelfneumann/discretesac/agent"
	"github.com/samuelfneumann/discretesac/environment"
	"github.com/samuelfneumann/discretesac/experiment/checkpointer"
	"github.com/samuelfneumann/discretesac/experiment/tracker"
)

const (
	// HyperparametersFile is the name of the hyperparameter record in
	// each run directory
	HyperparametersFile = "hparams.csv"

	// DivergedFile is written to the run directory if the agent's
	// parameters diverge
	DivergedFile = "diverged"

	dataDir = "data"
)

// Result summarises a finished run
type Result struct {
	RunID string
	Dir   string
	Steps int

	// Divergence is non-nil if the run ended because the agent's
	// parameters diverged
	Divergence *agent.NumericalDivergenceError

	EpisodesFinished int
	EpisodicReturn   float64 // Return of the last finished episode
	Series           *tracker.Series
}

// Diverged returns whether the run diverged
func (r Result) Diverged() bool {
	return r.Divergence != nil
}

// Run runs the experiment described by c. All data from the run is
// saved in the directory <LogDir>/<RunName>:
//
//	hparams.csv		the hyperparameters of the run and its id
//	data/			each recorded series as gob, CSV, and PNG files
//	policies/		saved policies, unless the agent's SaveDir is absolute
//	diverged		only present if the agent diverged
//
// Options are applied after the default options of the run, and can be
// used to register additional Trackers. If the agent diverges, the
// returned error wraps the *agent.NumericalDivergenceError and the
// Result is still valid.
func Run(ctx context.Context, c Config, extra ...Option) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "run")
	}

	dir := filepath.Join(c.LogDir, c.RunName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, errors.Wrap(err, "run: could not create run "+
			"directory")
	}

	result := Result{RunID: uuid.New().String(), Dir: dir}
	entry := log.WithFields(log.Fields{
		"run": c.RunName,
		"id":  result.RunID,
	})

	err := WriteHyperparameters(filepath.Join(dir, HyperparametersFile), c,
		result.RunID)
	if err != nil {
		return result, errors.Wrap(err, "run")
	}

	e, err := NewEnvironment(c.Environment, c.EpisodeSteps, c.Seed)
	if err != nil {
		return result, errors.Wrap(err, "run")
	}

	agentConfig := c.AgentConfig()
	if !filepath.IsAbs(agentConfig.SaveDir) {
		agentConfig.SaveDir = filepath.Join(dir, agentConfig.SaveDir)
	}
	a, err := newAgent(agentConfig, e, c.Seed)
	if err != nil {
		e.Close()
		return result, errors.Wrap(err, "run: could not create agent")
	}
	defer func() {
		if err := closeAgent(a); err != nil {
			entry.WithError(err).Warn("could not close agent")
		}
	}()

	buffer, err := c.BufferConfig().Create(e.ObservationDim(), c.Seed+1)
	if err != nil {
		e.Close()
		return result, errors.Wrap(err, "run: could not create buffer")
	}

	result.Series = tracker.NewSeries()
	var sink tracker.Sink = result.Series
	if c.LogEvery > 0 {
		sink = tracker.Multi(result.Series, tracker.NewLogger(entry,
			c.LogEvery))
	}
	returns := tracker.NewReturn(sink)

	opts := []Option{
		WithExploration(c.ExploreSteps, c.Seed+2),
		WithTrackers(returns, tracker.NewEpisodeLength(sink)),
		WithLogger(entry),
	}
	if c.CheckpointEvery > 0 {
		if saver, ok := a.(agent.PolicySaver); ok {
			check := checkpointer.NewNStep(c.CheckpointEvery, saver,
				checkpointer.TagEnumerator(0, "checkpoint"))
			opts = append(opts, WithCheckpointer(check))
		}
	}

	online := NewOnline(e, a, buffer, c.MaxSteps, sink,
		append(opts, extra...)...)

	entry.WithFields(log.Fields{
		"environment": c.Environment,
		"steps":       c.MaxSteps,
	}).Info("starting run")
	runErr := online.Run(ctx)

	result.Steps = online.Steps()
	result.EpisodesFinished = returns.EpisodesFinished()
	result.EpisodicReturn = returns.EpisodicReturn()

	if saveErr := result.Series.Save(filepath.Join(dir, dataDir)); saveErr != nil {
		entry.WithError(saveErr).Error("could not save data")
		if runErr == nil {
			runErr = saveErr
		}
	}

	var divergence *agent.NumericalDivergenceError
	if errors.As(runErr, &divergence) {
		result.Divergence = divergence
		entry.WithFields(log.Fields{
			"step":     result.Steps,
			"quantity": divergence.Quantity,
		}).Error("agent diverged")

		markerErr := os.WriteFile(filepath.Join(dir, DivergedFile),
			[]byte("diverged\n"), 0o644)
		if markerErr != nil {
			entry.WithError(markerErr).Error("could not write divergence " +
				"marker")
		}
	} else if runErr == nil {
		entry.WithFields(log.Fields{
			"episodes": result.EpisodesFinished,
			"return":   result.EpisodicReturn,
		}).Info("finished run")
	}

	return result, runErr
}

// newAgent creates the agent described by c to act in e
func newAgent(c agent.Config, e environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.CreateAgent(e.ObservationDim(), e.NumActions(), seed)
}

// WriteHyperparameters writes the hyperparameters of c and the run id
// to path as a two column name, value CSV file
func WriteHyperparameters(path string, c Config, runID string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "writehyperparameters")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "writehyperparameters")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"run_id", runID}); err != nil {
		return errors.Wrap(err, "writehyperparameters")
	}
	for _, hp := range c.Hyperparameters() {
		if err := w.Write(hp[:]); err != nil {
			return errors.Wrap(err, "writehyperparameters")
		}
	}
	w.Flush()

	return errors.Wrap(w.Error(), "writehyperparameters")
}
