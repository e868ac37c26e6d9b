package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/discretesac/experiment"
)

// SweepCommand returns the command which sweeps over the values of a
// single hyperparameter
func SweepCommand() *cobra.Command {
	var (
		flags   experimentFlags
		name    string
		param   string
		values  []string
		runs    int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Train agents for each value of a hyperparameter",
		Long: "Train agents for each value of a hyperparameter. Runs are " +
			"saved in <log-dir>/<name>/<param>_experiment/" +
			"<param>(<value>)_run(<i>). Runs which diverge are recorded " +
			"and the sweep continues.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if param == "" || len(values) == 0 {
				return errors.New("sweep: --param and --values are required")
			}

			c, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd.Flags(), &c); err != nil {
				return err
			}

			results, err := experiment.Sweep(cmd.Context(), c, name, param,
				values, runs)
			if summary {
				experiment.PrintSummary(cmd.OutOrStdout(), results)
			}
			return err
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&name, "name", "test", "name of the experiment")
	cmd.Flags().StringVarP(&param, "param", "p", "", "hyperparameter to "+
		"sweep, e.g. "+strings.Join([]string{"alpha_scale", "tau",
		"seed"}, ", "))
	cmd.Flags().StringSliceVar(&values, "values", nil, "values of the "+
		"hyperparameter")
	cmd.Flags().IntVar(&runs, "runs", 1, "runs per value")
	cmd.Flags().BoolVar(&summary, "summary", true, "print a summary of "+
		"the sweep")

	return cmd
}
