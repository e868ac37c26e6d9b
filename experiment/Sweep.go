package experiment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SweepResult is the result of a single run of a sweep
type SweepResult struct {
	Param string
	Value string
	Run   int
	Result
}

// SweepDir returns the directory in which the runs of a sweep over
// param are saved: <logDir>/<experiment>/<param>_experiment
func SweepDir(logDir, experiment, param string) string {
	return filepath.Join(logDir, experiment, param+"_experiment")
}

// SweepRunName returns the name of run i with param set to value,
// <param>(<value>)_run(<i>)
func SweepRunName(param, value string, i int) string {
	return fmt.Sprintf("%v(%v)_run(%v)", param, value, i)
}

// DivergedRunFile returns the name of the file written to the
// directory of run i of a sweep if the run diverges,
// nan_v(<value>)_run(<i>).txt
func DivergedRunFile(value string, i int) string {
	return fmt.Sprintf("nan_v(%v)_run(%v).txt", value, i)
}

// Sweep trains an agent runs times for each value of the hyperparameter
// param. All other hyperparameters are taken from base. Runs in which
// the agent diverges are recorded and the sweep continues with the
// next run. Any other error stops the sweep.
func Sweep(ctx context.Context, base Config, experiment, param string,
	values []string, runs int) ([]SweepResult, error) {
	if runs < 1 {
		return nil, errors.Errorf("sweep: need at least one run, have(%v)",
			runs)
	}

	// Check all values before starting any runs
	for _, value := range values {
		c := base
		if err := c.Set(param, value); err != nil {
			return nil, errors.Wrap(err, "sweep")
		}
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "sweep: %v=%v", param, value)
		}
	}

	dir := SweepDir(base.LogDir, experiment, param)
	results := make([]SweepResult, 0, len(values)*runs)

	for _, value := range values {
		for i := 0; i < runs; i++ {
			c := base
			if err := c.Set(param, value); err != nil {
				return results, errors.Wrap(err, "sweep")
			}
			c.LogDir = dir
			c.RunName = SweepRunName(param, value, i)

			result, err := Run(ctx, c)
			results = append(results, SweepResult{param, value, i, result})

			if result.Diverged() {
				path := filepath.Join(result.Dir, DivergedRunFile(value, i))
				if err := os.WriteFile(path, []byte("diverged\n"),
					0o644); err != nil {
					return results, errors.Wrap(err, "sweep")
				}
				log.WithFields(log.Fields{
					param: value,
					"run": i,
				}).Warn("run diverged, continuing sweep")
				continue
			}
			if err != nil {
				return results, errors.Wrapf(err, "sweep: %v", c.RunName)
			}
		}
	}

	return results, nil
}

// PrintSummary writes a coloured summary of the results of a sweep to w
func PrintSummary(w io.Writer, results []SweepResult) {
	for _, r := range results {
		name := SweepRunName(r.Param, r.Value, r.Run)
		if r.Diverged() {
			fmt.Fprintf(w, "%v  %v at step %v (%v)\n", aurora.Red("diverged"),
				name, r.Steps, r.Divergence.Quantity)
			continue
		}
		fmt.Fprintf(w, "%v  %v  episodes: %v  last return: %v\n",
			aurora.Green("finished"), name, r.EpisodesFinished,
			aurora.Bold(fmt.Sprintf("%.2f", r.EpisodicReturn)))
	}
}
