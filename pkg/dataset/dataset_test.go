package dataset_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/dataset"
)

const sickTSV = "pair_ID\tsentence_A\tsentence_B\trelatedness_score\tentailment_judgment\n" +
	"1\tA group of kids is playing in a yard\tA group of boys in a yard is playing\t4.5\tNEUTRAL\n" +
	"2\tA man is playing the guitar\tA woman is slicing an onion\t1\tNEUTRAL\n" +
	"3\tThe dog runs\tA dog is running\t5\tENTAILMENT\n" +
	"4\tTwo kids are playing\tKids play outside\t3\tNEUTRAL\n"

const quoraTSV = "id\tqid1\tqid2\tquestion1\tquestion2\tis_duplicate\n" +
	"0\t1\t2\tWhat is Go?\tWhat is the Go language?\t1\n" +
	"1\t3\t4\tHow do I learn \"Go\" fast?\tWhere is Paris?\t0\n"

func writeFile(name, content string) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("parses SICK and normalizes relatedness onto [0, 1]", func() {
		path := writeFile("sick.tsv", sickTSV)

		ds, err := dataset.Load(dataset.Options{Name: "sick", Path: path, TrainingRatio: 1, MaxLen: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.Train).To(HaveLen(4))
		Expect(ds.Validation).To(BeEmpty())
		Expect(ds.MaxLen).To(Equal(10))

		labels := map[string]float64{}
		for _, p := range ds.Train {
			Expect(p.Left).To(HaveLen(10))
			Expect(p.Right).To(HaveLen(10))
			labels[p.LeftText] = p.Label
		}
		Expect(labels["A group of kids is playing in a yard"]).To(BeNumerically("~", 0.875, 1e-12))
		Expect(labels["A man is playing the guitar"]).To(Equal(0.0))
		Expect(labels["The dog runs"]).To(Equal(1.0))
	})

	It("parses Quora duplicate labels as given", func() {
		path := writeFile("quora.tsv", quoraTSV)

		ds, err := dataset.Load(dataset.Options{Name: "quora", Path: path, TrainingRatio: 0.5, MaxLen: 6})
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.Train).To(HaveLen(1))
		Expect(ds.Validation).To(HaveLen(1))

		all := append(append([]dataset.Pair(nil), ds.Train...), ds.Validation...)
		for _, p := range all {
			Expect(p.Label).To(Or(Equal(0.0), Equal(1.0)))
		}
		id, ok := ds.Vocab.ID("go")
		Expect(ok).To(BeTrue())
		Expect(id).To(BeNumerically(">", 0))
	})

	It("uses the longest sentence when MaxLen is not positive", func() {
		path := writeFile("sick.tsv", sickTSV)

		ds, err := dataset.Load(dataset.Options{Name: "sick", Path: path, TrainingRatio: 0.8})
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.MaxLen).To(Equal(9))
	})

	It("splits deterministically for a fixed seed", func() {
		path := writeFile("sick.tsv", sickTSV)
		opts := dataset.Options{Name: "sick", Path: path, TrainingRatio: 0.5, MaxLen: 5, Seed: 42}

		a, err := dataset.Load(opts)
		Expect(err).NotTo(HaveOccurred())
		b, err := dataset.Load(opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Train).To(Equal(b.Train))
		Expect(a.Validation).To(Equal(b.Validation))
	})

	It("rejects unknown dataset names", func() {
		_, err := dataset.Load(dataset.Options{Name: "snli", Path: "x", TrainingRatio: 0.8})
		Expect(err).To(MatchError(dataset.ErrUnknownDataset))
	})

	It("fails on a missing file", func() {
		_, err := dataset.Load(dataset.Options{Name: "sick", Path: "/does/not/exist.tsv", TrainingRatio: 0.8})
		Expect(err).To(HaveOccurred())
	})

	It("fails when required columns are absent", func() {
		path := writeFile("bad.tsv", "a\tb\tc\n1\t2\t3\n")
		_, err := dataset.Load(dataset.Options{Name: "sick", Path: path, TrainingRatio: 0.8})
		Expect(err).To(MatchError(ContainSubstring("relatedness_score")))
	})

	It("fails on a non-numeric label", func() {
		path := writeFile("bad.tsv", "sentence_A\tsentence_B\trelatedness_score\na\tb\thigh\n")
		_, err := dataset.Load(dataset.Options{Name: "sick", Path: path, TrainingRatio: 0.8})
		Expect(err).To(MatchError(ContainSubstring("line 2")))
	})
})

var _ = Describe("LoadPairs", func() {
	It("encodes every pair with an existing vocabulary in file order", func() {
		path := writeFile("sick.tsv", sickTSV)
		vocab := dataset.NewVocabulary()
		vocab.AddText("dog runs")

		pairs, err := dataset.LoadPairs("sick", path, vocab, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(pairs).To(HaveLen(4))
		Expect(pairs[2].LeftText).To(Equal("The dog runs"))
		Expect(pairs[2].Left).To(Equal([]int{0, 0, 1, 2}))
		Expect(pairs[1].Left).To(Equal([]int{0, 0, 0, 0}))
	})

	It("rejects unknown datasets and non-positive lengths", func() {
		path := writeFile("sick.tsv", sickTSV)
		_, err := dataset.LoadPairs("msrp", path, dataset.NewVocabulary(), 4)
		Expect(err).To(MatchError(dataset.ErrUnknownDataset))
		_, err = dataset.LoadPairs("sick", path, dataset.NewVocabulary(), 0)
		Expect(err).To(HaveOccurred())
	})

	It("requires a vocabulary", func() {
		path := writeFile("sick.tsv", sickTSV)
		_, err := dataset.LoadPairs("sick", path, nil, 4)
		Expect(err).To(MatchError(ContainSubstring("vocabulary is required")))
	})
})

var _ = Describe("Tokenize", func() {
	It("lowercases and splits on punctuation", func() {
		Expect(dataset.Tokenize("What's Go, really?")).To(Equal([]string{"what", "s", "go", "really"}))
	})

	It("returns nothing for blank text", func() {
		Expect(dataset.Tokenize("  ?! ")).To(BeEmpty())
	})
})

var _ = Describe("Pad", func() {
	It("pads at the front", func() {
		Expect(dataset.Pad([]int{4, 5}, 4)).To(Equal([]int{0, 0, 4, 5}))
	})

	It("truncates from the front", func() {
		Expect(dataset.Pad([]int{1, 2, 3, 4, 5}, 3)).To(Equal([]int{3, 4, 5}))
	})

	It("does not alias its input", func() {
		in := []int{1, 2}
		out := dataset.Pad(in, 2)
		out[0] = 9
		Expect(in[0]).To(Equal(1))
	})
})

var _ = Describe("Vocabulary", func() {
	var v *dataset.Vocabulary

	BeforeEach(func() {
		v = dataset.NewVocabulary()
	})

	It("assigns ids from one in order of first appearance", func() {
		Expect(v.AddText("the cat and the dog")).To(Equal([]int{1, 2, 3, 1, 4}))
		Expect(v.Size()).To(Equal(4))
		Expect(v.Words()).To(Equal([]string{"the", "cat", "and", "dog"}))
	})

	It("drops unknown words when encoding", func() {
		v.AddText("a small cat")
		Expect(v.EncodeText("A big cat", 4)).To(Equal([]int{0, 0, 1, 3}))
	})

	It("round trips through vocab.json", func() {
		v.AddText("hello world")
		path := writeFile("vocab.json", `{"word_to_id":{"hello":1,"world":2}}`)

		loaded, err := dataset.LoadVocabulary(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.WordToID).To(Equal(v.WordToID))
	})

	It("rejects sparse ids", func() {
		path := writeFile("vocab.json", `{"word_to_id":{"hello":1,"world":3}}`)
		_, err := dataset.LoadVocabulary(path)
		Expect(err).To(HaveOccurred())
	})
})
