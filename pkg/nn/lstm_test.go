package nn_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/nn"
)

// weightedLoss is Σ wⱼ·hⱼ over the final hidden state.
func weightedLoss(l *nn.LSTM, xs [][]float64, w []float64) float64 {
	tr, err := l.Forward(xs)
	Expect(err).NotTo(HaveOccurred())
	var sum float64
	for j, h := range tr.H {
		sum += w[j] * h
	}
	return sum
}

func randomSequence(rng *rand.Rand, steps, width int) [][]float64 {
	xs := make([][]float64, steps)
	for t := range xs {
		xs[t] = make([]float64, width)
		for i := range xs[t] {
			xs[t][i] = rng.NormFloat64()
		}
	}
	return xs
}

var _ = Describe("LSTM", func() {
	var (
		rng  *rand.Rand
		lstm *nn.LSTM
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
		var err error
		lstm, err = nn.NewLSTM("lstm", 3, 4, rng)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLSTM", func() {
		It("rejects non-positive sizes", func() {
			_, err := nn.NewLSTM("lstm", 0, 4, rng)
			Expect(err).To(HaveOccurred())
			_, err = nn.NewLSTM("lstm", 3, 0, rng)
			Expect(err).To(HaveOccurred())
		})

		It("uses the keras parameter layout", func() {
			Expect(lstm.Kernel.Shape).To(Equal([]int{3, 16}))
			Expect(lstm.Recurrent.Shape).To(Equal([]int{4, 16}))
			Expect(lstm.Bias.Shape).To(Equal([]int{16}))
		})

		It("sets the forget gate bias to one", func() {
			for j := 0; j < 16; j++ {
				if j >= 4 && j < 8 {
					Expect(lstm.Bias.Data[j]).To(Equal(1.0))
				} else {
					Expect(lstm.Bias.Data[j]).To(Equal(0.0))
				}
			}
		})

		It("initializes recurrent weights with orthonormal rows", func() {
			for a := 0; a < 4; a++ {
				for b := 0; b < 4; b++ {
					var dot float64
					ra, rb := lstm.Recurrent.Row(a), lstm.Recurrent.Row(b)
					for j := range ra {
						dot += ra[j] * rb[j]
					}
					if a == b {
						Expect(dot).To(BeNumerically("~", 1, 1e-9))
					} else {
						Expect(dot).To(BeNumerically("~", 0, 1e-9))
					}
				}
			}
		})
	})

	Describe("Forward", func() {
		It("rejects empty sequences", func() {
			_, err := lstm.Forward(nil)
			Expect(err).To(HaveOccurred())
		})

		It("rejects steps of the wrong width", func() {
			_, err := lstm.Forward([][]float64{{1, 2}})
			Expect(err).To(HaveOccurred())
		})

		It("keeps hidden activations inside (-1, 1)", func() {
			tr, err := lstm.Forward(randomSequence(rng, 6, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.H).To(HaveLen(4))
			for _, h := range tr.H {
				Expect(math.Abs(h)).To(BeNumerically("<", 1))
			}
		})

		It("is deterministic for the same input", func() {
			xs := randomSequence(rng, 5, 3)
			a, err := lstm.Forward(xs)
			Expect(err).NotTo(HaveOccurred())
			b, err := lstm.Forward(xs)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.H).To(Equal(b.H))
		})
	})

	Describe("Backward", func() {
		It("matches finite differences for every parameter", func() {
			xs := randomSequence(rng, 5, 3)
			w := []float64{0.3, -1.2, 0.7, 2.0}

			tr, err := lstm.Forward(xs)
			Expect(err).NotTo(HaveOccurred())
			grad := lstm.NewGrad()
			Expect(lstm.Backward(tr, w, grad)).To(Succeed())

			const eps = 1e-6
			for k, p := range lstm.Params() {
				analytic := grad.Slices()[k]
				for i := range p.Data {
					orig := p.Data[i]
					p.Data[i] = orig + eps
					up := weightedLoss(lstm, xs, w)
					p.Data[i] = orig - eps
					down := weightedLoss(lstm, xs, w)
					p.Data[i] = orig

					numeric := (up - down) / (2 * eps)
					Expect(analytic[i]).To(BeNumerically("~", numeric, 1e-6), "%s[%d]", p.Name, i)
				}
			}
		})

		It("accumulates across calls", func() {
			xs := randomSequence(rng, 3, 3)
			dh := []float64{1, 1, 1, 1}
			tr, err := lstm.Forward(xs)
			Expect(err).NotTo(HaveOccurred())

			once := lstm.NewGrad()
			Expect(lstm.Backward(tr, dh, once)).To(Succeed())
			twice := lstm.NewGrad()
			Expect(lstm.Backward(tr, dh, twice)).To(Succeed())
			Expect(lstm.Backward(tr, dh, twice)).To(Succeed())

			for i := range once.Bias {
				Expect(twice.Bias[i]).To(BeNumerically("~", 2*once.Bias[i], 1e-12))
			}
		})

		It("rejects a gradient of the wrong size", func() {
			tr, err := lstm.Forward(randomSequence(rng, 2, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(lstm.Backward(tr, []float64{1}, lstm.NewGrad())).NotTo(Succeed())
		})
	})

	Describe("LSTMGrad", func() {
		It("adds and zeroes buffers", func() {
			a := lstm.NewGrad()
			b := lstm.NewGrad()
			b.Bias[0] = 2
			a.Add(b)
			a.Add(b)
			Expect(a.Bias[0]).To(Equal(4.0))
			a.Zero()
			Expect(a.Bias[0]).To(Equal(0.0))
		})
	})
})
