// Package network implements neural networks on Gorgonia computational
// graphs.
//
// Each NeuralNet lives in a single *G.ExprGraph. Networks which must
// compute on different batch sizes or on different inputs are cloned
// into their own graphs, and their weights are kept in sync with Set()
// or Polyak().
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network function approximator
type NeuralNet interface {
	// Graph returns the computational graph holding the network
	Graph() *G.ExprGraph

	// Clone clones the network into a new computational graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network into a new computational graph
	// with a new input batch size
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node, which must be given in
	// row major order
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	Set(NeuralNet) error

	// Polyak sets the weights of the network to τ * source + (1 - τ) *
	// weights
	Polyak(NeuralNet, float64) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after the
	// graph has been run by a VM
	Output() G.Value

	// Prediction returns the node holding the network's prediction
	Prediction() *G.Node
}
