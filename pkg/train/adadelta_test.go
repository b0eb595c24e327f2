package train_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/train"
)

var _ = Describe("ClipByNorm", func() {
	It("rescales gradients above the limit", func() {
		g := []float64{3, 4}
		train.ClipByNorm(g, 1.25)
		Expect(g[0]).To(BeNumerically("~", 0.75, 1e-12))
		Expect(g[1]).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("leaves gradients within the limit alone", func() {
		g := []float64{0.3, 0.4}
		train.ClipByNorm(g, 1.25)
		Expect(g).To(Equal([]float64{0.3, 0.4}))
	})

	It("is disabled by a zero limit", func() {
		g := []float64{30, 40}
		train.ClipByNorm(g, 0)
		Expect(g).To(Equal([]float64{30, 40}))
	})
})

var _ = Describe("Adadelta", func() {
	const (
		rho = 0.95
		eps = 1e-7
	)

	It("applies the clipped running-average update", func() {
		p := nn.NewParam("w", true, 2)
		p.Data[0], p.Data[1] = 1, -1
		opt := train.NewAdadelta([]*nn.Param{p}, 1.0, rho, eps, 1.25)

		Expect(opt.Step([][]float64{{3, 4}})).To(Succeed())

		for i, g := range []float64{0.75, 1.0} {
			acc := (1 - rho) * g * g
			u := g * math.Sqrt(eps) / math.Sqrt(acc+eps)
			start := []float64{1, -1}[i]
			Expect(p.Data[i]).To(BeNumerically("~", start-u, 1e-12))
		}
	})

	It("grows its step as updates accumulate", func() {
		p := nn.NewParam("w", true, 1)
		opt := train.NewAdadelta([]*nn.Param{p}, 1.0, rho, eps, 0)

		prev := 0.0
		var steps []float64
		for i := 0; i < 5; i++ {
			Expect(opt.Step([][]float64{{1}})).To(Succeed())
			steps = append(steps, prev-p.Data[0])
			prev = p.Data[0]
		}
		for i := 1; i < len(steps); i++ {
			Expect(steps[i]).To(BeNumerically(">", steps[i-1]))
		}
	})

	It("scales the update by the learning rate", func() {
		a := nn.NewParam("a", true, 1)
		b := nn.NewParam("b", true, 1)
		Expect(train.NewAdadelta([]*nn.Param{a}, 1.0, rho, eps, 0).Step([][]float64{{0.5}})).To(Succeed())
		Expect(train.NewAdadelta([]*nn.Param{b}, 0.5, rho, eps, 0).Step([][]float64{{0.5}})).To(Succeed())
		Expect(b.Data[0]).To(BeNumerically("~", a.Data[0]/2, 1e-15))
	})

	It("rejects misaligned gradients", func() {
		p := nn.NewParam("w", true, 2)
		opt := train.NewAdadelta([]*nn.Param{p}, 1.0, rho, eps, 0)
		Expect(opt.Step([][]float64{{1}})).To(HaveOccurred())
		Expect(opt.Step(nil)).To(HaveOccurred())
	})
})

var _ = Describe("Loss", func() {
	It("computes mean squared error", func() {
		Expect(train.MSE([]float64{1, 0.5}, []float64{0, 0.5})).To(Equal(0.5))
		Expect(train.MSE(nil, nil)).To(Equal(0.0))
	})

	It("compares labels to rounded predictions", func() {
		preds := []float64{0.9, 0.2, 0.5, 0.51}
		labels := []float64{1, 0, 0, 1}
		Expect(train.Accuracy(preds, labels)).To(Equal(1.0))
		Expect(train.Accuracy(nil, nil)).To(Equal(0.0))
	})

	It("never counts graded labels as hits", func() {
		preds := []float64{0.25, 0.5, 0.75}
		labels := []float64{0.25, 0.5, 0.75}
		Expect(train.Accuracy(preds, labels)).To(Equal(0.0))
	})

	It("rounds one half down", func() {
		Expect(train.Accuracy([]float64{0.5}, []float64{1})).To(Equal(0.0))
	})
})
