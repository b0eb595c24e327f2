package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// LSTM is a single-layer LSTM that returns its final hidden state.
//
// Parameters follow the Keras layout so that exported weights line up with
// the usual tooling: z = x·Kernel + h·Recurrent + Bias, where the 4H columns
// of z hold the input, forget, cell and output gates in that order.
type LSTM struct {
	InputSize  int
	HiddenSize int

	Kernel    *Param // [InputSize, 4*HiddenSize]
	Recurrent *Param // [HiddenSize, 4*HiddenSize]
	Bias      *Param // [4*HiddenSize]
}

// NewLSTM creates an LSTM with Glorot-uniform input weights, orthogonal
// recurrent weights and a forget-gate bias of one.
func NewLSTM(name string, inputSize, hiddenSize int, rng *rand.Rand) (*LSTM, error) {
	if inputSize <= 0 || hiddenSize <= 0 {
		return nil, fmt.Errorf("lstm sizes must be positive, got input=%d hidden=%d", inputSize, hiddenSize)
	}
	gates := 4 * hiddenSize

	l := &LSTM{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		Kernel:     NewParam(name+"/kernel", true, inputSize, gates),
		Recurrent:  NewParam(name+"/recurrent_kernel", true, hiddenSize, gates),
		Bias:       NewParam(name+"/bias", true, gates),
	}

	GlorotUniform(l.Kernel, inputSize, gates, rng)
	Orthogonal(l.Recurrent, rng)
	for j := hiddenSize; j < 2*hiddenSize; j++ {
		l.Bias.Data[j] = 1
	}

	return l, nil
}

// Params returns the trainable parameters in a stable order.
func (l *LSTM) Params() []*Param {
	return []*Param{l.Kernel, l.Recurrent, l.Bias}
}

// LSTMGrad accumulates gradients for one LSTM.
type LSTMGrad struct {
	Kernel    []float64
	Recurrent []float64
	Bias      []float64
}

// NewGrad returns a zeroed gradient buffer sized for l.
func (l *LSTM) NewGrad() *LSTMGrad {
	return &LSTMGrad{
		Kernel:    make([]float64, l.Kernel.Size()),
		Recurrent: make([]float64, l.Recurrent.Size()),
		Bias:      make([]float64, l.Bias.Size()),
	}
}

// Slices returns the buffers aligned with LSTM.Params.
func (g *LSTMGrad) Slices() [][]float64 {
	return [][]float64{g.Kernel, g.Recurrent, g.Bias}
}

// Zero clears the buffers.
func (g *LSTMGrad) Zero() {
	for _, s := range g.Slices() {
		clear(s)
	}
}

// Add accumulates other into g.
func (g *LSTMGrad) Add(other *LSTMGrad) {
	dst, src := g.Slices(), other.Slices()
	for k := range dst {
		for i, v := range src[k] {
			dst[k][i] += v
		}
	}
}

type lstmStep struct {
	x     []float64
	hPrev []float64
	cPrev []float64

	i, f, g, o []float64
	c          []float64
}

// LSTMTrace records the activations of one forward pass for Backward.
type LSTMTrace struct {
	steps []lstmStep

	// H is the final hidden state.
	H []float64
}

// Forward runs the sequence xs through the LSTM starting from zero state.
// Forward does not mutate l and is safe to call concurrently.
func (l *LSTM) Forward(xs [][]float64) (*LSTMTrace, error) {
	if len(xs) == 0 {
		return nil, errors.New("lstm forward: empty sequence")
	}

	hidden := l.HiddenSize
	gates := 4 * hidden

	h := make([]float64, hidden)
	c := make([]float64, hidden)
	z := make([]float64, gates)

	trace := &LSTMTrace{steps: make([]lstmStep, len(xs))}
	for t, x := range xs {
		if len(x) != l.InputSize {
			return nil, fmt.Errorf("lstm forward: step %d has %d features, want %d", t, len(x), l.InputSize)
		}

		copy(z, l.Bias.Data)
		for i, xi := range x {
			if xi == 0 {
				continue
			}
			row := l.Kernel.Data[i*gates : (i+1)*gates]
			for j, w := range row {
				z[j] += xi * w
			}
		}
		for k, hk := range h {
			if hk == 0 {
				continue
			}
			row := l.Recurrent.Data[k*gates : (k+1)*gates]
			for j, w := range row {
				z[j] += hk * w
			}
		}

		step := lstmStep{
			x:     x,
			hPrev: h,
			cPrev: c,
			i:     make([]float64, hidden),
			f:     make([]float64, hidden),
			g:     make([]float64, hidden),
			o:     make([]float64, hidden),
			c:     make([]float64, hidden),
		}
		hNext := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			step.i[j] = sigmoid(z[j])
			step.f[j] = sigmoid(z[hidden+j])
			step.g[j] = math.Tanh(z[2*hidden+j])
			step.o[j] = sigmoid(z[3*hidden+j])
			step.c[j] = step.f[j]*c[j] + step.i[j]*step.g[j]
			hNext[j] = step.o[j] * math.Tanh(step.c[j])
		}

		trace.steps[t] = step
		h, c = hNext, step.c
	}

	trace.H = h
	return trace, nil
}

// Backward propagates dh (the gradient of the loss with respect to the final
// hidden state) back through every step of tr and adds the parameter
// gradients into grad. Inputs are treated as constants.
func (l *LSTM) Backward(tr *LSTMTrace, dh []float64, grad *LSTMGrad) error {
	if tr == nil || len(tr.steps) == 0 {
		return errors.New("lstm backward: empty trace")
	}
	if len(dh) != l.HiddenSize {
		return fmt.Errorf("lstm backward: gradient has %d values, want %d", len(dh), l.HiddenSize)
	}

	hidden := l.HiddenSize
	gates := 4 * hidden

	dhNext := append([]float64(nil), dh...)
	dcNext := make([]float64, hidden)
	dz := make([]float64, gates)

	for t := len(tr.steps) - 1; t >= 0; t-- {
		s := tr.steps[t]

		for j := 0; j < hidden; j++ {
			tc := math.Tanh(s.c[j])
			do := dhNext[j] * tc
			dc := dcNext[j] + dhNext[j]*s.o[j]*(1-tc*tc)

			di := dc * s.g[j]
			dg := dc * s.i[j]
			df := dc * s.cPrev[j]
			dcNext[j] = dc * s.f[j]

			dz[j] = di * s.i[j] * (1 - s.i[j])
			dz[hidden+j] = df * s.f[j] * (1 - s.f[j])
			dz[2*hidden+j] = dg * (1 - s.g[j]*s.g[j])
			dz[3*hidden+j] = do * s.o[j] * (1 - s.o[j])
		}

		for j, v := range dz {
			grad.Bias[j] += v
		}
		for i, xi := range s.x {
			if xi == 0 {
				continue
			}
			row := grad.Kernel[i*gates : (i+1)*gates]
			for j, v := range dz {
				row[j] += xi * v
			}
		}

		dhPrev := make([]float64, hidden)
		for k := 0; k < hidden; k++ {
			wrow := l.Recurrent.Data[k*gates : (k+1)*gates]
			var acc float64
			for j, v := range dz {
				acc += wrow[j] * v
			}
			dhPrev[k] = acc

			hk := s.hPrev[k]
			if hk == 0 {
				continue
			}
			grow := grad.Recurrent[k*gates : (k+1)*gates]
			for j, v := range dz {
				grow[j] += hk * v
			}
		}
		dhNext = dhPrev
	}

	return nil
}
