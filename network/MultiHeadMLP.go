package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MultiHeadMLP implements a multi-layered perceptron with multiple
// output nodes, one for each value that should be predicted.
type MultiHeadMLP struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int
	prefix     string

	// Data needed for gobbing and cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// validate checks that there is one bias flag and one activation per
// hidden layer
func validate(hiddenSizes []int, biases []bool,
	activations []*Activation) error {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "invalid number of activations\n\twant(%d)\n\thave(%d)"
		return fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "invalid number of biases\n\twant(%d)\n\thave(%d)"
		return fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	for i, size := range hiddenSizes {
		if size < 1 {
			return fmt.Errorf("hidden layer %v must have a positive number "+
				"of units, have(%v)", i, size)
		}
	}
	return nil
}

// NewMultiHeadMLPFromInput returns a new multi-head output MLP that
// uses input as its input node. Many networks may share the same input
// node as long as each uses a different prefix, which is prepended to
// the names of all the network's learnables.
//
// See NewMultiHeadMLP for the meaning of the other arguments.
func NewMultiHeadMLPFromInput(input *G.Node, outputs int,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (*MultiHeadMLP, error) {
	if err := validate(hiddenSizes, biases, activations); err != nil {
		return nil, fmt.Errorf("newmultiheadmlpfrominput: %v", err)
	}

	if !input.IsMatrix() {
		return nil, fmt.Errorf("newmultiheadmlpfrominput: input must be a " +
			"matrix")
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newmultiheadmlpfrominput: outputs must be "+
			"positive, have(%v)", outputs)
	}

	batch := input.Shape()[0]
	features := input.Shape()[1]
	g := input.Graph()

	// Add a final linear layer with no activation to ensure outputs
	// heads are predicted by the network
	layerSizes := append(append([]int{}, hiddenSizes...), outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActivations := append(append([]*Activation{}, activations...),
		Identity())

	layers := addfcLayers(g, layerSizes, layerBiases, layerActivations, init,
		features, prefix)

	// Create the network and run the forward pass on the input node
	network := &MultiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		prefix:      prefix,
		hiddenSizes: append([]int{}, hiddenSizes...),
		biases:      append([]bool{}, biases...),
		activations: append([]*Activation{}, activations...),
	}
	if _, err := network.fwd(input); err != nil {
		msg := "newmultiheadmlpfrominput: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return network, nil
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// that has multiple output nodes, The number of outputs nodes is equal
// to outputs. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer is always added such that given any input, the output will
// be outputs. The final layer also contains a bias unit, and bias units
// for each additional hidden layer is specified by biases. The final
// layer will contain no activations, and the activations of additional
// hidden layers is specified by activations. The parameter init
// determines the weight initialization scheme.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (*MultiHeadMLP, error) {
	if features < 1 || batch < 1 {
		return nil, fmt.Errorf("newmultiheadmlp: features and batch must "+
			"be positive, have(%v, %v)", features, batch)
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	return NewMultiHeadMLPFromInput(input, outputs, hiddenSizes, biases,
		init, activations, "")
}

// Graph returns the computational graph of the MultiHeadMLP.
func (e *MultiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a MultiHeadMLP
func (e *MultiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a MultiHeadMLP to a new computational graph
// with a new input batch size. The weights of the clone are copies of
// the weights of e.
func (e *MultiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be "+
			"positive, have(%v)", batchSize)
	}
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName(e.input.Name()),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers
	l := make([]*fcLayer, len(e.layers))
	for i := range e.layers {
		l[i] = e.layers[i].cloneTo(graph)
	}

	network := &MultiHeadMLP{
		g:           graph,
		layers:      l,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		prefix:      e.prefix,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone: %v", err)
	}

	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *MultiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *MultiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *MultiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *MultiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		msg := "setinput: invalid number of inputs\n\twant(%v)\n\thave(%v)"
		return fmt.Errorf(msg, e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of a MultiHeadMLP to be equal to the
// weights of another NeuralNet with the same architecture. Weights are
// copied into the existing backing arrays, so VMs compiled on the
// graph of dest stay valid.
func (dest *MultiHeadMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: incompatible networks with %v and %v "+
			"learnables", len(sourceNodes), len(nodes))
	}

	for i := range nodes {
		weights, sourceWeights, err := backings(nodes[i], sourceNodes[i])
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		copy(weights, sourceWeights)
	}
	return nil
}

// Polyak sets the weights of a MultiHeadMLP to be a polyak
// average between its existing weights and the weights of another
// NeuralNet:
//
//	weights ← τ * source + (1 - τ) * weights
//
// The update is performed directly on the backing arrays, outside of
// any computational graph, so no gradients are involved.
func (dest *MultiHeadMLP) Polyak(source NeuralNet, tau float64) error {
	if tau < 0 || tau > 1 {
		return fmt.Errorf("polyak: τ must be in [0, 1], have(%v)", tau)
	}
	if tau == 1.0 {
		return dest.Set(source)
	}

	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("polyak: incompatible networks with %v and %v "+
			"learnables", len(sourceNodes), len(nodes))
	}

	for i := range nodes {
		weights, sourceWeights, err := backings(nodes[i], sourceNodes[i])
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}
		for j := range weights {
			weights[j] = tau*sourceWeights[j] + (1-tau)*weights[j]
		}
	}
	return nil
}

// backings returns the backing arrays of the values of two nodes of
// the same size
func backings(dest, source *G.Node) ([]float64, []float64, error) {
	weights, err := Backing(dest)
	if err != nil {
		return nil, nil, err
	}
	sourceWeights, err := Backing(source)
	if err != nil {
		return nil, nil, err
	}
	if len(weights) != len(sourceWeights) {
		return nil, nil, fmt.Errorf("node %v has %v weights but node %v "+
			"has %v", dest.Name(), len(weights), source.Name(),
			len(sourceWeights))
	}
	return weights, sourceWeights, nil
}

// Backing returns the backing []float64 of the value of a learnable
// node. Modifying the returned slice modifies the node's value.
func Backing(n *G.Node) ([]float64, error) {
	value, ok := n.Value().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("node %v does not hold a *tensor.Dense", n.Name())
	}
	data, ok := value.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("node %v does not hold float64 data", n.Name())
	}
	return data, nil
}

// Learnables returns the learnable nodes in a MultiHeadMLP
func (e *MultiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables computes all the learnables for the network
func (e *MultiHeadMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].weights)
		if bias := e.layers[i].bias; bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnables nodes with their gradients.
func (e *MultiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = G.NodesToValueGrads(e.Learnables())
	}
	return e.model
}

// fwd performs the forward pass of the MultiHeadMLP on the input
// node
func (e *MultiHeadMLP) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the output of the MultiHeadMLP after its graph has
// been run.
func (e *MultiHeadMLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the MultiHeadMLP
func (e *MultiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface. Only the
// architecture and weights are encoded, the batch size of the decoded
// network is always 1.
func (e *MultiHeadMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(e.numInputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of inputs")
	}
	if err := enc.Encode(e.numOutputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of outputs")
	}
	if err := enc.Encode(e.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}
	if err := enc.Encode(e.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}
	if err := enc.Encode(e.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	// Store the weights of each learnable
	for i, node := range e.Learnables() {
		weights, err := Backing(node)
		if err != nil {
			return nil, fmt.Errorf("gobencode: %v", err)
		}
		if err := enc.Encode(weights); err != nil {
			msg := "gobencode: could not encode learnable %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadMLP) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var numInputs, numOutputs int
	if err := dec.Decode(&numInputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode number of inputs")
	}
	if err := dec.Decode(&numOutputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	// Create a new MLP and fill its learnables with the decoded weights
	newMLP, err := NewMultiHeadMLP(numInputs, 1, numOutputs, G.NewGraph(),
		hiddenSizes, biases, G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}

	for i, node := range newMLP.Learnables() {
		var weights []float64
		if err := dec.Decode(&weights); err != nil {
			return fmt.Errorf("gobdecode: could not decode learnable %v: %v",
				i, err)
		}

		backing, err := Backing(node)
		if err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
		if len(backing) != len(weights) {
			return fmt.Errorf("gobdecode: learnable %v has %v weights, "+
				"decoded %v", i, len(backing), len(weights))
		}
		copy(backing, weights)
	}

	// The read registered by fwd points into newMLP, so the receiver
	// needs its own
	*e = *newMLP
	e.predVal = nil
	G.Read(e.prediction, &e.predVal)

	return nil
}
