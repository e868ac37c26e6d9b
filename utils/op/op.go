// Package op provides extended Gorgonia graph operations.
package op

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Min returns the elementwise minimum between the nodes. If values are
// equal the first value is returned
func Min(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the second axis of a matrix. The maximum logit of
// each row is subtracted before exponentiating.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node) (*G.Node, error) {
	if !logits.IsMatrix() {
		return nil, fmt.Errorf("logsumexp: logits must be a matrix")
	}
	rows := logits.Shape()[0]

	max, err := G.Max(logits, 1)
	if err != nil {
		return nil, err
	}
	column, err := G.Reshape(max, []int{rows, 1})
	if err != nil {
		return nil, err
	}

	exponent, err := G.BroadcastSub(logits, column, nil, []byte{1})
	if err != nil {
		return nil, err
	}
	if exponent, err = G.Exp(exponent); err != nil {
		return nil, err
	}

	sum, err := G.Sum(exponent, 1)
	if err != nil {
		return nil, err
	}
	log, err := G.Log(sum)
	if err != nil {
		return nil, err
	}

	return G.Add(max, log)
}

// LogSoftmax calculates the log of the softmax of each row of a matrix
// of logits
func LogSoftmax(logits *G.Node) (*G.Node, error) {
	lse, err := LogSumExp(logits)
	if err != nil {
		return nil, fmt.Errorf("logsoftmax: %v", err)
	}

	column, err := G.Reshape(lse, []int{logits.Shape()[0], 1})
	if err != nil {
		return nil, fmt.Errorf("logsoftmax: %v", err)
	}
	return G.BroadcastSub(logits, column, nil, []byte{1})
}
