package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/samuelfneumann/discretesac/experiment"
)

func TestApplyFlags(t *testing.T) {
	var flags experimentFlags
	set := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.register(set)

	err := set.Parse([]string{
		"--env", experiment.TwoStateName,
		"--steps", "100",
		"--seed", "7",
		"--set", "alpha_scale=0.2,tau=0.01",
	})
	if err != nil {
		t.Fatal(err)
	}

	c := experiment.DefaultConfig()
	c.LogDir = "from-file"
	if err := flags.apply(set, &c); err != nil {
		t.Fatal(err)
	}

	if c.Environment != experiment.TwoStateName || c.MaxSteps != 100 ||
		c.Seed != 7 {
		t.Errorf("flags not applied: %+v", c)
	}
	if c.Agent.AlphaScale != 0.2 || c.Agent.Tau != 0.01 {
		t.Errorf("overrides not applied: α scale %v τ %v",
			c.Agent.AlphaScale, c.Agent.Tau)
	}
	if c.LogDir != "from-file" {
		t.Errorf("unset flag overrode config value, log dir %v", c.LogDir)
	}
}

func TestApplyInvalidOverride(t *testing.T) {
	var flags experimentFlags
	set := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.register(set)
	if err := set.Parse([]string{"--set", "tau"}); err != nil {
		t.Fatal(err)
	}

	c := experiment.DefaultConfig()
	if err := flags.apply(set, &c); err == nil {
		t.Error("want error for override without a value")
	}
}

func TestTrainAndEvaluate(t *testing.T) {
	dir := t.TempDir()

	root := NewRootCommand()
	root.SetArgs([]string{"train", "--env", experiment.TwoStateName,
		"--steps", "30", "--log-dir", dir, "--run", "cli", "--log-every", "0",
		"--progress", "--set", "sample_size=4,buffer_size=50,hidden_size=8"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root = NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"evaluate", dir + "/cli/policies/final.policy",
		"--env", experiment.TwoStateName, "-n", "2"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "episodes: 2") {
		t.Errorf("unexpected evaluation output %q", out.String())
	}
}
