// Package similarity implements the fixed, non-learned transforms that turn
// two encoded sentence vectors into a similarity score.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// Metric selects the similarity transform.
type Metric string

const (
	// Manhattan scores exp(-Σ|lᵢ - rᵢ|).
	Manhattan Metric = "manhattan"

	// Cosine scores exp(Σ l̂ᵢ·r̂ᵢ) over the L2-normalized vectors.
	Cosine Metric = "cosine"
)

// l2Epsilon bounds the squared norm used when normalizing, matching the
// usual l2_normalize definition x / sqrt(max(Σx², ε)).
const l2Epsilon = 1e-12

// ErrShape is returned when the inputs do not have the expected lengths.
var ErrShape = errors.New("similarity: vector shape mismatch")

// ParseMetric maps a user-supplied metric name to a Metric. Only "cosine"
// selects the cosine transform; anything else falls back to Manhattan.
func ParseMetric(s string) Metric {
	if s == string(Cosine) {
		return Cosine
	}
	return Manhattan
}

func (m Metric) String() string {
	return string(m)
}

// Transform scores a merged vector holding the left encoding in its first
// hidden values and the right encoding in the remaining hidden values.
func Transform(m Metric, merged []float64, hidden int) (float64, error) {
	if hidden <= 0 {
		return 0, fmt.Errorf("%w: hidden size must be positive, got %d", ErrShape, hidden)
	}
	if len(merged) != 2*hidden {
		return 0, fmt.Errorf("%w: merged vector has %d values, want %d", ErrShape, len(merged), 2*hidden)
	}
	return Score(m, merged[:hidden], merged[hidden:])
}

// Score applies the metric to two vectors of equal length.
func Score(m Metric, left, right []float64) (float64, error) {
	if len(left) != len(right) {
		return 0, fmt.Errorf("%w: left has %d values, right has %d", ErrShape, len(left), len(right))
	}
	if len(left) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", ErrShape)
	}
	if m == Cosine {
		return CosineScore(left, right), nil
	}
	return ManhattanScore(left, right), nil
}

// ManhattanScore returns exp(-‖left - right‖₁). Lengths must match.
func ManhattanScore(left, right []float64) float64 {
	var dist float64
	for i := range left {
		dist += math.Abs(left[i] - right[i])
	}
	return math.Exp(-dist)
}

// CosineScore returns exp(Σ l̂ᵢ·r̂ᵢ) where l̂ and r̂ are normalized
// independently. Lengths must match.
func CosineScore(left, right []float64) float64 {
	ln, _ := normalize(left)
	rn, _ := normalize(right)
	var sum float64
	for i := range ln {
		sum += ln[i] * rn[i]
	}
	return math.Exp(sum)
}

// normalize returns v / sqrt(max(Σv², ε)) and the divisor used.
func normalize(v []float64) ([]float64, float64) {
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	norm := math.Sqrt(math.Max(sq, l2Epsilon))
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, norm
}

// Gradient returns the score together with its partial derivatives with
// respect to every element of left and right.
func Gradient(m Metric, left, right []float64) (float64, []float64, []float64, error) {
	if len(left) != len(right) || len(left) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: left has %d values, right has %d", ErrShape, len(left), len(right))
	}
	if m == Cosine {
		s, dl, dr := cosineGradient(left, right)
		return s, dl, dr, nil
	}
	s, dl, dr := manhattanGradient(left, right)
	return s, dl, dr, nil
}

func manhattanGradient(left, right []float64) (float64, []float64, []float64) {
	score := ManhattanScore(left, right)
	dl := make([]float64, len(left))
	dr := make([]float64, len(right))
	for i := range left {
		var sign float64
		switch d := left[i] - right[i]; {
		case d > 0:
			sign = 1
		case d < 0:
			sign = -1
		}
		dl[i] = -score * sign
		dr[i] = score * sign
	}
	return score, dl, dr
}

func cosineGradient(left, right []float64) (float64, []float64, []float64) {
	ln, lnorm := normalize(left)
	rn, rnorm := normalize(right)

	var dot float64
	for i := range ln {
		dot += ln[i] * rn[i]
	}
	score := math.Exp(dot)

	return score,
		normalizedGradient(left, ln, rn, lnorm, dot, score),
		normalizedGradient(right, rn, ln, rnorm, dot, score)
}

// normalizedGradient back-propagates score·other through v ↦ v/‖v‖. Below
// the ε floor the divisor is constant and the Jacobian is diagonal.
func normalizedGradient(v, unit, other []float64, norm, dot, score float64) []float64 {
	out := make([]float64, len(v))
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	if sq < l2Epsilon {
		for i := range out {
			out[i] = score * other[i] / norm
		}
		return out
	}
	for i := range out {
		out[i] = score * (other[i] - unit[i]*dot) / norm
	}
	return out
}
