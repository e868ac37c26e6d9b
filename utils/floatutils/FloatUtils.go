// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// ArgMax returns the indices of all maximal values in a slice of
// float64.
func ArgMax(values ...float64) []int {
	max, indices := values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] > max {
			max = values[i]
			indices = []int{i}
		} else if values[i] == max {
			indices = append(indices, i)
		}
	}
	return indices
}

// LogSoftmax stores the log of the softmax of logits in dst and returns
// dst. If dst is nil, a new slice is allocated. The maximum logit is
// subtracted before exponentiating so that large logits do not overflow.
func LogSoftmax(dst, logits []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(logits))
	}
	if len(dst) != len(logits) {
		panic("logsoftmax: length mismatch")
	}

	max := floats.Max(logits)
	for i := range logits {
		dst[i] = logits[i] - max
	}
	lse := floats.LogSumExp(dst)
	floats.AddConst(-lse, dst)

	return dst
}

// Softmax stores the softmax of logits in dst and returns dst. If dst is
// nil, a new slice is allocated.
func Softmax(dst, logits []float64) []float64 {
	dst = LogSoftmax(dst, logits)
	for i := range dst {
		dst[i] = math.Exp(dst[i])
	}
	return dst
}

// MinPairwise stores the elementwise minimum of a and b in dst and
// returns dst. If dst is nil, a new slice is allocated.
func MinPairwise(dst, a, b []float64) []float64 {
	if len(a) != len(b) {
		panic("minpairwise: length mismatch")
	}
	if dst == nil {
		dst = make([]float64, len(a))
	}
	for i := range a {
		dst[i] = math.Min(a[i], b[i])
	}
	return dst
}

// IsFinite returns whether x is neither NaN nor ±Inf
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// AllFinite returns the index of the first non-finite value in values,
// and false if such a value exists. Otherwise, AllFinite returns -1 and
// true.
func AllFinite(values []float64) (int, bool) {
	for i, v := range values {
		if !IsFinite(v) {
			return i, false
		}
	}
	return -1, true
}
