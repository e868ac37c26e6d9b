package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/discretesac/experiment"
)

// EvaluateCommand returns the command which evaluates a saved policy
func EvaluateCommand() *cobra.Command {
	var (
		env          string
		episodes     int
		episodeSteps int
		seed         uint64
	)

	cmd := &cobra.Command{
		Use:   "evaluate <policy file>",
		Short: "Run greedy episodes with a saved policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			returns, err := experiment.Evaluate(cmd.Context(), args[0], env,
				episodes, episodeSteps, seed)
			if err != nil {
				return err
			}

			mean, std := stat.MeanStdDev(returns, nil)
			fmt.Fprintf(cmd.OutOrStdout(), "episodes: %v  return: %.2f ± %.2f\n",
				len(returns), mean, std)
			return nil
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", experiment.CartpoleName,
		"environment to evaluate in")
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 10, "number of episodes")
	cmd.Flags().IntVar(&episodeSteps, "episode-steps", 0, "steps before "+
		"an episode is truncated, 0 for the environment default")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")

	return cmd
}
