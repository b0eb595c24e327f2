package train

import (
	"fmt"
	"math"

	"github.com/papercomputeco/siamese/pkg/nn"
)

// Adadelta keeps running averages of squared gradients and squared updates
// for each parameter:
//
//	a = ρa + (1-ρ)g²
//	u = g·√(d+ε)/√(a+ε)
//	p = p - lr·u
//	d = ρd + (1-ρ)u²
type Adadelta struct {
	LearningRate float64
	Rho          float64
	Epsilon      float64
	ClipNorm     float64

	params []*nn.Param
	accum  [][]float64
	delta  [][]float64
}

// NewAdadelta creates optimizer state for params.
func NewAdadelta(params []*nn.Param, lr, rho, eps, clipNorm float64) *Adadelta {
	a := &Adadelta{
		LearningRate: lr,
		Rho:          rho,
		Epsilon:      eps,
		ClipNorm:     clipNorm,
		params:       params,
		accum:        make([][]float64, len(params)),
		delta:        make([][]float64, len(params)),
	}
	for i, p := range params {
		a.accum[i] = make([]float64, p.Size())
		a.delta[i] = make([]float64, p.Size())
	}
	return a
}

// Step clips each gradient in place and applies one update. grads must be
// aligned with the params passed to NewAdadelta.
func (a *Adadelta) Step(grads [][]float64) error {
	if len(grads) != len(a.params) {
		return fmt.Errorf("adadelta: got %d gradients for %d parameters", len(grads), len(a.params))
	}
	for k, p := range a.params {
		g := grads[k]
		if len(g) != p.Size() {
			return fmt.Errorf("adadelta: gradient for %s has %d values, want %d", p.Name, len(g), p.Size())
		}
		ClipByNorm(g, a.ClipNorm)

		acc, del := a.accum[k], a.delta[k]
		for i, gi := range g {
			acc[i] = a.Rho*acc[i] + (1-a.Rho)*gi*gi
			u := gi * math.Sqrt(del[i]+a.Epsilon) / math.Sqrt(acc[i]+a.Epsilon)
			p.Data[i] -= a.LearningRate * u
			del[i] = a.Rho*del[i] + (1-a.Rho)*u*u
		}
	}
	return nil
}

// ClipByNorm rescales g in place so that its L2 norm is at most maxNorm. A
// non-positive maxNorm leaves g untouched.
func ClipByNorm(g []float64, maxNorm float64) {
	if maxNorm <= 0 {
		return
	}
	norm := nn.L2Norm(g)
	if norm <= maxNorm {
		return
	}
	scale := maxNorm / norm
	for i := range g {
		g[i] *= scale
	}
}
