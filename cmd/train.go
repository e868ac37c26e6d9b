package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/samuelfneumann/discretesac/experiment"
	"github.com/samuelfneumann/discretesac/experiment/tracker"
)

// experimentFlags holds the command line flags which override values in
// the configuration file
type experimentFlags struct {
	env        string
	steps      int
	explore    int
	seed       uint64
	logDir     string
	run        string
	checkpoint int
	logEvery   int
	device     string
	set        []string
}

func (f *experimentFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.env, "env", "e", experiment.CartpoleName,
		"environment to train in")
	flags.IntVar(&f.steps, "steps", 600_000, "environment steps to train for")
	flags.IntVar(&f.explore, "explore", 0, "steps of random actions before "+
		"learning starts")
	flags.Uint64Var(&f.seed, "seed", 0, "random seed")
	flags.StringVar(&f.logDir, "log-dir", "runs", "root directory of run data")
	flags.StringVar(&f.run, "run", "run", "name of the run directory")
	flags.IntVar(&f.checkpoint, "checkpoint", 0, "steps between policy "+
		"snapshots, 0 disables snapshots")
	flags.IntVar(&f.logEvery, "log-every", 1000, "steps between logged "+
		"metrics, 0 disables logging")
	flags.StringVar(&f.device, "device", experiment.CPU, "compute device")
	flags.StringSliceVar(&f.set, "set", nil, "hyperparameter overrides "+
		"as name=value")
}

// apply overrides values of c with the flags which were set
func (f *experimentFlags) apply(flags *pflag.FlagSet,
	c *experiment.Config) error {
	if flags.Changed("env") {
		c.Environment = f.env
	}
	if flags.Changed("steps") {
		c.MaxSteps = f.steps
	}
	if flags.Changed("explore") {
		c.ExploreSteps = f.explore
	}
	if flags.Changed("seed") {
		c.Seed = f.seed
	}
	if flags.Changed("log-dir") {
		c.LogDir = f.logDir
	}
	if flags.Changed("run") {
		c.RunName = f.run
	}
	if flags.Changed("checkpoint") {
		c.CheckpointEvery = f.checkpoint
	}
	if flags.Changed("log-every") {
		c.LogEvery = f.logEvery
	}
	if flags.Changed("device") {
		c.Device = f.device
	}

	for _, s := range f.set {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return errors.Errorf("invalid override %q, want name=value", s)
		}
		if err := c.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// TrainCommand returns the command which trains a single agent
func TrainCommand() *cobra.Command {
	var (
		flags    experimentFlags
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent online",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd.Flags(), &c); err != nil {
				return err
			}

			var opts []experiment.Option
			if progress {
				bar := tracker.NewProgress(cmd.ErrOrStderr(), 40, c.MaxSteps,
					100)
				opts = append(opts, experiment.WithTrackers(bar))
			}

			_, err = experiment.Run(cmd.Context(), c, opts...)
			return err
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&progress, "progress", false, "draw a progress bar")

	return cmd
}
