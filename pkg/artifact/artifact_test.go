package artifact_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/siamese"
	"github.com/papercomputeco/siamese/pkg/similarity"
)

func buildModel(seed int64, hidden int, metric similarity.Metric) (*siamese.Model, *dataset.Vocabulary) {
	vocab := dataset.NewVocabulary()
	vocab.AddText("a man plays the guitar while a woman sings")

	rng := rand.New(rand.NewSource(seed))
	emb := nn.NewParam("embedding/embeddings", false, vocab.Size()+1, 5)
	for i := 5; i < len(emb.Data); i++ {
		emb.Data[i] = rng.NormFloat64()
	}
	m, err := siamese.New(siamese.Config{
		MaxLen:        6,
		EmbeddingSize: 5,
		VocabSize:     vocab.Size(),
		HiddenSize:    hidden,
		Metric:        metric,
	}, emb, rng)
	Expect(err).NotTo(HaveOccurred())
	return m, vocab
}

var _ = Describe("Save and Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("writes the structure, weights and vocabulary", func() {
		m, vocab := buildModel(1, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())

		for _, f := range []string{artifact.StructureFile, artifact.WeightsFile, artifact.VocabFile} {
			Expect(filepath.Join(dir, f)).To(BeAnExistingFile())
		}

		data, err := os.ReadFile(filepath.Join(dir, artifact.StructureFile))
		Expect(err).NotTo(HaveOccurred())
		var raw map[string]any
		Expect(json.Unmarshal(data, &raw)).To(Succeed())
		Expect(raw["format"]).To(Equal(artifact.Format))
		Expect(raw["layers"]).To(HaveLen(6))
	})

	for _, metric := range []similarity.Metric{similarity.Manhattan, similarity.Cosine} {
		It("reproduces scores exactly with "+metric.String(), func() {
			m, vocab := buildModel(2, 7, metric)
			Expect(artifact.Save(dir, m, vocab)).To(Succeed())

			b, err := artifact.Load(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Model.Config()).To(Equal(m.Config()))
			Expect(b.Vocab.WordToID).To(Equal(vocab.WordToID))

			left := vocab.EncodeText("a man plays the guitar", 6)
			right := vocab.EncodeText("a woman sings", 6)
			want, err := m.Score(left, right)
			Expect(err).NotTo(HaveOccurred())
			got, err := b.Model.Score(left, right)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))

			text, err := b.ScoreText("a man plays the guitar", "a woman sings")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(want))

			for i, p := range m.Params() {
				Expect(b.Model.Params()[i].Data).To(Equal(p.Data))
			}
		})
	}

	It("fails when the weights file is missing", func() {
		m, vocab := buildModel(3, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())
		Expect(os.Remove(filepath.Join(dir, artifact.WeightsFile))).To(Succeed())

		_, err := artifact.Load(dir)
		Expect(err).To(HaveOccurred())
	})

	It("fails when the structure file is missing", func() {
		m, vocab := buildModel(3, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())
		Expect(os.Remove(filepath.Join(dir, artifact.StructureFile))).To(Succeed())

		_, err := artifact.Load(dir)
		Expect(err).To(HaveOccurred())
	})

	It("rejects weights saved for a different architecture", func() {
		other := GinkgoT().TempDir()
		a, vocab := buildModel(4, 4, similarity.Manhattan)
		b, _ := buildModel(4, 5, similarity.Manhattan)
		Expect(artifact.Save(dir, a, vocab)).To(Succeed())
		Expect(artifact.Save(other, b, vocab)).To(Succeed())

		data, err := os.ReadFile(filepath.Join(other, artifact.WeightsFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(dir, artifact.WeightsFile), data, 0o600)).To(Succeed())

		_, err = artifact.Load(dir)
		Expect(err).To(MatchError(artifact.ErrMismatch))
	})

	It("rejects a truncated payload", func() {
		m, vocab := buildModel(5, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())

		path := filepath.Join(dir, artifact.WeightsFile)
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(path, data[:len(data)-8], 0o600)).To(Succeed())

		_, err = artifact.Load(dir)
		Expect(err).To(MatchError(artifact.ErrMismatch))
	})

	It("rejects a file that is not a weights file", func() {
		m, vocab := buildModel(5, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, artifact.WeightsFile), []byte("HDF5 or something else"), 0o600)).To(Succeed())

		_, err := artifact.Load(dir)
		Expect(err).To(MatchError(artifact.ErrMismatch))
	})

	It("loads a model saved without a vocabulary", func() {
		m, _ := buildModel(6, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, nil)).To(Succeed())

		b, err := artifact.Load(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Vocab).To(BeNil())
		_, err = b.ScoreText("a", "b")
		Expect(err).To(HaveOccurred())
	})

	It("leaves no temporary files behind", func() {
		m, vocab := buildModel(7, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
	})
})

var _ = Describe("Holder", func() {
	It("swaps the active bundle", func() {
		first := &artifact.Bundle{Dir: "a"}
		second := &artifact.Bundle{Dir: "b"}
		h := artifact.NewHolder(first)

		Expect(h.Current()).To(BeIdenticalTo(first))
		Expect(h.Swap(second)).To(BeIdenticalTo(first))
		Expect(h.Current()).To(BeIdenticalTo(second))
	})
})

var _ = Describe("Watch", func() {
	It("reloads the model after it is saved again", func() {
		dir := GinkgoT().TempDir()
		m, vocab := buildModel(8, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, m, vocab)).To(Succeed())

		b, err := artifact.Load(dir)
		Expect(err).NotTo(HaveOccurred())
		h := artifact.NewHolder(b)

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)
		done := make(chan error, 1)
		go func() {
			done <- artifact.Watch(ctx, h, 20*time.Millisecond, logger.Nop())
		}()

		// Give the watcher time to register before writing.
		time.Sleep(100 * time.Millisecond)
		retrained, _ := buildModel(9, 4, similarity.Manhattan)
		Expect(artifact.Save(dir, retrained, vocab)).To(Succeed())

		Eventually(func() []float64 {
			return h.Current().Model.Encoder().Kernel.Data
		}).WithTimeout(5 * time.Second).Should(Equal(retrained.Encoder().Kernel.Data))

		cancel()
		Eventually(done).WithTimeout(time.Second).Should(Receive(BeNil()))
	})
})
