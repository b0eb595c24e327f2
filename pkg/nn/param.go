// Package nn holds the dense float64 building blocks of the siamese model:
// named parameters, weight initializers, a frozen embedding lookup and an
// LSTM layer with backpropagation through time.
package nn

import (
	"fmt"
	"math"
)

// Param is a named, row-major parameter tensor.
type Param struct {
	Name      string
	Shape     []int
	Data      []float64
	Trainable bool
}

// NewParam allocates a zeroed parameter of the given shape.
func NewParam(name string, trainable bool, shape ...int) *Param {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return &Param{
		Name:      name,
		Shape:     append([]int(nil), shape...),
		Data:      make([]float64, size),
		Trainable: trainable,
	}
}

// Size returns the number of scalar values held by the parameter.
func (p *Param) Size() int {
	return len(p.Data)
}

// Rows returns the leading dimension.
func (p *Param) Rows() int {
	if len(p.Shape) == 0 {
		return 0
	}
	return p.Shape[0]
}

// Cols returns the trailing dimension of a 2-D parameter, or 1 for vectors.
func (p *Param) Cols() int {
	if len(p.Shape) < 2 {
		return 1
	}
	return p.Shape[len(p.Shape)-1]
}

// Row returns row r of a 2-D parameter. The returned slice aliases Data.
func (p *Param) Row(r int) []float64 {
	cols := p.Cols()
	return p.Data[r*cols : (r+1)*cols]
}

// Clone returns a deep copy.
func (p *Param) Clone() *Param {
	return &Param{
		Name:      p.Name,
		Shape:     append([]int(nil), p.Shape...),
		Data:      append([]float64(nil), p.Data...),
		Trainable: p.Trainable,
	}
}

// SameShape reports whether p and other have identical shapes.
func (p *Param) SameShape(other *Param) bool {
	if len(p.Shape) != len(other.Shape) {
		return false
	}
	for i := range p.Shape {
		if p.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

func (p *Param) String() string {
	return fmt.Sprintf("%s%v", p.Name, p.Shape)
}

// CountParams sums parameter sizes.
func CountParams(params []*Param) int {
	n := 0
	for _, p := range params {
		n += p.Size()
	}
	return n
}

// L2Norm returns the Euclidean norm of v.
func L2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
