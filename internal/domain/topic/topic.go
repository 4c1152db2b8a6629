// Package topic models per-document topic affinities and the per-request
// weight vector derived from them.
package topic

import (
	"math"
	"strconv"
)

// Vector is a sparse topic index -> affinity mapping. Absent indices are zero.
type Vector map[int]float64

// ParseVector converts a stored categories object (keys are decimal topic
// indices) into a Vector. Keys outside [0, topics) or not integers are dropped.
func ParseVector(categories map[string]float64, topics int) Vector {
	v := make(Vector, len(categories))
	for key, affinity := range categories {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= topics {
			continue
		}
		if math.IsNaN(affinity) || math.IsInf(affinity, 0) {
			continue
		}
		v[idx] = affinity
	}
	return v
}

// Weights is a dense weight per topic index.
type Weights []float64

// Neutral returns the neutral prior: weight 1 for each of n topics.
func Neutral(n int) Weights {
	w := make(Weights, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// Len returns the topic count.
func (w Weights) Len() int { return len(w) }

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	copy(out, w)
	return out
}

// Add folds a liked document's affinities into w in place.
func (w Weights) Add(v Vector) {
	for idx, affinity := range v {
		if idx >= 0 && idx < len(w) {
			w[idx] += affinity
		}
	}
}

// Sub folds a disliked document's affinities into w in place.
func (w Weights) Sub(v Vector) {
	for idx, affinity := range v {
		if idx >= 0 && idx < len(w) {
			w[idx] -= affinity
		}
	}
}

// Min returns the smallest weight (0 for an empty vector).
func (w Weights) Min() float64 {
	if len(w) == 0 {
		return 0
	}
	m := w[0]
	for _, x := range w[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	var s float64
	for _, x := range w {
		s += x
	}
	return s
}

// Normalize shifts w into the non-negative orthant (only when the minimum is
// negative) and divides by the sum, so the result is a distribution over topics.
// If the shifted sum is not positive the uniform distribution is returned.
func (w Weights) Normalize() Weights {
	out := w.Clone()
	if len(out) == 0 {
		return out
	}
	if m := out.Min(); m < 0 {
		shift := math.Abs(m)
		for i := range out {
			out[i] += shift
		}
	}
	sum := out.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		uniform := 1 / float64(len(out))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Scale returns w multiplied by m.
func (w Weights) Scale(m float64) Weights {
	out := w.Clone()
	for i := range out {
		out[i] *= m
	}
	return out
}

// IsFinite reports whether every weight is a finite number.
func (w Weights) IsFinite() bool {
	for _, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
