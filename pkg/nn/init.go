package nn

import (
	"math"
	"math/rand"
)

// GlorotUniform fills p with values drawn from U(-limit, limit) where
// limit = sqrt(6 / (fanIn + fanOut)).
func GlorotUniform(p *Param, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range p.Data {
		p.Data[i] = (rng.Float64()*2 - 1) * limit
	}
}

// Orthogonal fills a 2-D parameter with a (semi-)orthogonal matrix: rows are
// orthonormal when rows <= cols, columns otherwise.
func Orthogonal(p *Param, rng *rand.Rand) {
	rows, cols := p.Rows(), p.Cols()
	transpose := rows > cols
	n, m := rows, cols
	if transpose {
		n, m = cols, rows
	}

	basis := make([][]float64, 0, n)
	for len(basis) < n {
		v := make([]float64, m)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		for _, b := range basis {
			var dot float64
			for i := range v {
				dot += v[i] * b[i]
			}
			for i := range v {
				v[i] -= dot * b[i]
			}
		}
		norm := L2Norm(v)
		if norm < 1e-8 {
			continue
		}
		for i := range v {
			v[i] /= norm
		}
		basis = append(basis, v)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if transpose {
				p.Data[j*cols+i] = basis[i][j]
			} else {
				p.Data[i*cols+j] = basis[i][j]
			}
		}
	}
}

// RandomNormal fills p with N(0, stddev²) samples.
func RandomNormal(p *Param, stddev float64, rng *rand.Rand) {
	for i := range p.Data {
		p.Data[i] = rng.NormFloat64() * stddev
	}
}
