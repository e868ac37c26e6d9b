// Package policy implements policies using function approximation using
// Gorgonia. Many of these policies use nonlinear function
// aprpoximation.
package policy

import (
	"encoding/gob"
	"fmt"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/discretesac/network"
	"github.com/samuelfneumann/discretesac/utils/floatutils"
)

// CategoricalMLP implements a categorical (softmax) policy using a
// feedforward neural network/MLP. Given an environment with N actions,
// the neural network will produce N outputs, the logits of each action.
//
// The network of a CategoricalMLP must take a batch of a single
// observation. The policy owns a VM over the network's graph which it
// runs each time an action is selected:
//
//	Set input to policy's network:	policy.SetInput(obs)
//	Predict the logits:				vm.RunAll()
//	Sample an action:				action ~ softmax(logits)
//
// In training mode actions are sampled from the softmax distribution.
// In evaluation mode the action with the highest probability is
// selected, with ties broken randomly.
type CategoricalMLP struct {
	net network.NeuralNet
	vm  G.VM

	numActions int
	probs      []float64

	src  rand.Source
	rng  *rand.Rand
	eval bool
}

// NewCategoricalMLP returns a new CategoricalMLP which selects actions
// using the argument network. The network must have a batch size of 1.
func NewCategoricalMLP(net network.NeuralNet,
	seed uint64) (*CategoricalMLP, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newcategoricalmlp: network must have a "+
			"batch size of 1, have(%v)", net.BatchSize())
	}
	if net.Outputs() < 1 {
		return nil, fmt.Errorf("newcategoricalmlp: network must have at "+
			"least one output, have(%v)", net.Outputs())
	}

	src := rand.NewSource(seed)
	return &CategoricalMLP{
		net:        net,
		vm:         G.NewTapeMachine(net.Graph()),
		numActions: net.Outputs(),
		probs:      make([]float64, net.Outputs()),
		src:        src,
		rng:        rand.New(src),
	}, nil
}

// Load loads a policy saved with Save from a file. The returned policy
// can only be used for selecting actions.
func Load(path string, seed uint64) (*CategoricalMLP, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open policy file: %v", err)
	}
	defer file.Close()

	var net network.MultiHeadMLP
	if err := gob.NewDecoder(file).Decode(&net); err != nil {
		return nil, fmt.Errorf("load: could not decode policy: %v", err)
	}

	return NewCategoricalMLP(&net, seed)
}

// Save gob encodes the network of the policy to a file at path
func Save(path string, net network.NeuralNet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create policy file: %v", err)
	}

	if err := gob.NewEncoder(file).Encode(net); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode policy: %v", err)
	}
	return file.Close()
}

// Logits returns the logits the policy predicts for an observation.
// The returned slice is owned by the caller.
func (c *CategoricalMLP) Logits(state []float64) ([]float64, error) {
	if err := c.net.SetInput(state); err != nil {
		return nil, fmt.Errorf("logits: %v", err)
	}
	defer c.vm.Reset()

	if err := c.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("logits: could not run policy: %v", err)
	}

	logits := c.net.Output().Data().([]float64)
	return append([]float64(nil), logits...), nil
}

// Probabilities returns the probability of selecting each action in
// an observation. The returned slice is owned by the caller.
func (c *CategoricalMLP) Probabilities(state []float64) ([]float64, error) {
	logits, err := c.Logits(state)
	if err != nil {
		return nil, fmt.Errorf("probabilities: %v", err)
	}
	return floatutils.Softmax(logits, logits), nil
}

// SelectAction selects an action in an observation
func (c *CategoricalMLP) SelectAction(state []float64) (int, error) {
	logits, err := c.Logits(state)
	if err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}
	probs := floatutils.Softmax(c.probs, logits)

	if i, ok := floatutils.AllFinite(probs); !ok {
		return 0, fmt.Errorf("selectaction: non-finite probability %v for "+
			"action %v", probs[i], i)
	}

	if c.eval {
		actions := floatutils.ArgMax(probs...)
		return actions[c.rng.Intn(len(actions))], nil
	}
	dist := distuv.NewCategorical(probs, c.src)
	return int(dist.Rand()), nil
}

// Set sets the weights of the policy's network to those of another
// network with the same architecture
func (c *CategoricalMLP) Set(source network.NeuralNet) error {
	return c.net.Set(source)
}

// Network returns the network of the policy
func (c *CategoricalMLP) Network() network.NeuralNet {
	return c.net
}

// NumActions returns the number of actions the policy selects between
func (c *CategoricalMLP) NumActions() int {
	return c.numActions
}

// Eval sets the policy to evaluation mode
func (c *CategoricalMLP) Eval() {
	c.eval = true
}

// Train sets the policy to training mode
func (c *CategoricalMLP) Train() {
	c.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (c *CategoricalMLP) IsEval() bool {
	return c.eval
}

// Close closes the policy's VM
func (c *CategoricalMLP) Close() error {
	return c.vm.Close()
}
