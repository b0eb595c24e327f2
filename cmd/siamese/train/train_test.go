package traincmder_test

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	traincmder "github.com/papercomputeco/siamese/cmd/siamese/train"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/similarity"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

var _ = Describe("NewTrainCmd", func() {
	It("registers the training flags with their defaults", func() {
		cmd := traincmder.NewTrainCmd()

		for name, def := range map[string]string{
			"data-name":       "sick",
			"data-file":       "Datasets/SICK.tsv",
			"training-ratio":  "0.8",
			"max-len":         "20",
			"hidden-size":     "50",
			"batch-size":      "32",
			"num-iters":       "7",
			"distance-metric": "manhattan",
			"clip-norm":       "1.25",
			"output-dir":      "Models",
		} {
			f := cmd.Flags().Lookup(name)
			Expect(f).NotTo(BeNil(), name)
			Expect(f.DefValue).To(Equal(def), name)
		}
		Expect(cmd.Flags().Lookup("embedding-file").Shorthand).To(Equal("e"))
	})
})

var _ = Describe("Train command execution", func() {
	var (
		dir, dataFile, vectorsFile string
		out                        *bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		var err error
		dataFile, err = testutils.WriteSICKFile(dir)
		Expect(err).NotTo(HaveOccurred())
		vectorsFile, err = testutils.WriteVectorsFile(dir, 4, 7)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := traincmder.NewTrainCmd()
		cmd.SetOut(out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("trains, saves the model and writes the history report", func() {
		modelDir := filepath.Join(dir, "model")
		err := execute(
			"-f", dataFile,
			"-e", vectorsFile,
			"-r", "0.75",
			"-l", "8",
			"-z", "3",
			"-b", "2",
			"-n", "2",
			"-w", "2",
			"-m", "cosine",
			"-o", modelDir,
			"--storage", "memory",
		)
		Expect(err).NotTo(HaveOccurred())

		for _, f := range []string{artifact.StructureFile, artifact.WeightsFile, artifact.VocabFile, traincmder.HistoryFile} {
			Expect(filepath.Join(modelDir, f)).To(BeAnExistingFile())
		}
		Expect(out.String()).To(ContainSubstring("6 training pairs, 2 validation pairs"))
		Expect(out.String()).To(ContainSubstring("2 epochs in 0:00:"))

		b, err := artifact.Load(modelDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Model.Config().Metric).To(Equal(similarity.Cosine))
		Expect(b.Model.Config().HiddenSize).To(Equal(3))
		Expect(b.Model.Config().EmbeddingSize).To(Equal(4))
	})

	It("fails with a wrapped error for a missing dataset", func() {
		err := execute("-f", filepath.Join(dir, "missing.tsv"), "-e", vectorsFile, "--storage", "memory")
		Expect(err).To(MatchError(ContainSubstring("loading dataset")))
	})

	It("fails for an unknown dataset layout", func() {
		err := execute("--data-name", "msrp", "-f", dataFile, "-e", vectorsFile, "--storage", "memory")
		Expect(err).To(MatchError(ContainSubstring("unknown dataset")))
	})
})
