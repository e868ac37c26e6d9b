// Package cmd implements the command line interface for training and
// evaluating discrete Soft Actor-Critic agents
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/discretesac/experiment"
)

var (
	configFile string
	verbose    bool
	jsonLogs   bool
)

// NewRootCommand returns the root command of the CLI
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "discretesac",
		Short: "Train discrete Soft Actor-Critic agents",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			if jsonLogs {
				log.SetFormatter(&log.JSONFormatter{})
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"JSON experiment configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log debug messages")
	root.PersistentFlags().BoolVar(&jsonLogs, "json", false,
		"log in JSON format")

	root.AddCommand(TrainCommand(), SweepCommand(), EvaluateCommand())
	return root
}

// Execute runs the CLI. The context passed to each command is cancelled
// on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig returns the configuration in the config file, or the
// default configuration if no file was given
func loadConfig() (experiment.Config, error) {
	if configFile == "" {
		return experiment.DefaultConfig(), nil
	}
	return experiment.LoadConfig(configFile)
}
