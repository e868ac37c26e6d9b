// Package checkpointer implements Checkpointers, which periodically
// save an agent's policy during an experiment
package checkpointer

import "github.com/samuelfneumann/discretesac/agent"

// Checkpointer checkpoints/saves the policy of an agent based on the
// number of environment steps taken
type Checkpointer interface {
	// Checkpoint saves the policy if it is due to be saved at the given
	// step. The path of the saved file is returned, or the empty string
	// if nothing was saved.
	Checkpoint(step int) (string, error)
}

// Saveable is an agent whose policy can be saved to disk
type Saveable = agent.PolicySaver
