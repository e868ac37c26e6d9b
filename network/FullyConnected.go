package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, err
		}
	}

	if f.act == nil || f.act.IsIdentity() || f.act.IsNil() {
		return x, nil
	}
	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph. The weights
// of the clone are copies of the weights of f.
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	clone := &fcLayer{
		weights: cloneLearnable(g, f.weights),
		act:     f.act,
	}
	if f.bias != nil {
		clone.bias = cloneLearnable(g, f.bias)
	}
	return clone
}

// cloneLearnable creates a new matrix node in g with the same name and
// a copy of the value of n
func cloneLearnable(g *G.ExprGraph, n *G.Node) *G.Node {
	value := n.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(n.Shape()...),
		G.WithName(n.Name()),
		G.WithValue(value),
	)
}

// addfcLayers creates the fully connected layers of an MLP in g. Layer
// i has hiddenSizes[i] units, a bias unit if biases[i], and activation
// activations[i]. The prefix is prepended to all node names so that
// multiple networks can share a single graph.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix string) []*fcLayer {
	layers := make([]*fcLayer, len(hiddenSizes))

	in := features
	for i, out := range hiddenSizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("%vL%vW", prefix, i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("%vL%vB", prefix, i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers[i] = &fcLayer{weights: weights, bias: bias, act: activations[i]}
		in = out
	}

	return layers
}
