package experiment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/discretesac/agent/nonlinear/discrete/policy"
)

// Evaluate runs episodes of the environment called envName with the
// policy saved at policyPath in evaluation mode, selecting the most
// probable action in each state. The return of each episode is
// returned.
func Evaluate(ctx context.Context, policyPath, envName string, episodes,
	episodeSteps int, seed uint64) ([]float64, error) {
	pol, err := policy.Load(policyPath, seed)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate")
	}
	defer pol.Close()
	pol.Eval()

	e, err := NewEnvironment(envName, episodeSteps, seed)
	if err != nil {
		return nil, errors.Wrap(err, "evaluate")
	}
	defer e.Close()

	if e.ObservationDim() != pol.Network().Features() ||
		e.NumActions() != pol.NumActions() {
		return nil, errors.Errorf("evaluate: policy with %v features and "+
			"%v actions cannot act in %v", pol.Network().Features(),
			pol.NumActions(), envName)
	}

	returns := make([]float64, 0, episodes)
	for i := 0; i < episodes; i++ {
		step, err := e.Reset()
		if err != nil {
			return returns, errors.Wrap(err, "evaluate")
		}

		episodeReturn := 0.0
		for !step.Last() {
			if err := ctx.Err(); err != nil {
				return returns, err
			}

			action, err := pol.SelectAction(step.Observation)
			if err != nil {
				return returns, errors.Wrapf(err, "evaluate: episode %v", i)
			}
			if step, err = e.Step(action); err != nil {
				return returns, errors.Wrapf(err, "evaluate: episode %v", i)
			}
			episodeReturn += step.Reward
		}
		returns = append(returns, episodeReturn)
	}

	return returns, nil
}
