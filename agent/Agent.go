// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/discretesac/expreplay"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Update performs a single update to the learner using a batch of
	// transitions. The step is the number of environment steps taken so
	// far, which learners may use to decide whether to learn at all.
	Update(batch expreplay.Batch, step int) error
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should have pointers to the same weights so that
// any changes the learner makes to the weights are reflected in the
// actions the Policy chooses
type Policy interface {
	// SelectAction returns an action in [0, NumActions()) for the
	// observation state
	SelectAction(state []float64) (int, error)
	NumActions() int

	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// PolicySaver is an Agent whose policy can be saved to disk
type PolicySaver interface {
	// SavePolicy saves the policy under the given tag and returns the
	// path of the saved file
	SavePolicy(tag string) (string, error)
}

// LossReporter is a Learner that reports the losses of its most recent
// update, keyed by name
type LossReporter interface {
	Losses() map[string]float64
}
