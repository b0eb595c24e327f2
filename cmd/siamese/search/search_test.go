package searchcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/papercomputeco/siamese/api/search"
	indexcmder "github.com/papercomputeco/siamese/cmd/siamese/index"
	searchcmder "github.com/papercomputeco/siamese/cmd/siamese/search"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/similarity"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

var _ = Describe("Search command execution", func() {
	var (
		modelDir, dbPath string
		out              *bytes.Buffer
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		b := testutils.NewTestBundle(similarity.Manhattan, 13)
		modelDir = filepath.Join(dir, "model")
		Expect(artifact.Save(modelDir, b.Model, b.Vocab)).To(Succeed())
		dbPath = filepath.Join(dir, "sentences.db")

		idx := indexcmder.NewIndexCmd()
		idx.SetIn(strings.NewReader(strings.Join(testutils.TestSentences, "\n")))
		idx.SetOut(GinkgoWriter)
		idx.SetArgs([]string{"-d", modelDir, "--vector-store-target", dbPath, "-"})
		Expect(idx.Execute()).To(Succeed())

		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := searchcmder.NewSearchCmd()
		cmd.SetOut(out)
		cmd.SetArgs(append([]string{"-d", modelDir, "--vector-store-target", dbPath}, args...))
		return cmd.Execute()
	}

	It("ranks the exact sentence first with score 1", func() {
		query := testutils.TestSentences[2]
		Expect(execute("--json", "-k", "2", query)).To(Succeed())

		var output apisearch.SearchOutput
		Expect(json.Unmarshal(out.Bytes(), &output)).To(Succeed())
		Expect(output.Count).To(Equal(2))
		Expect(output.Metric).To(Equal("manhattan"))
		Expect(output.Results[0].Text).To(Equal(query))
		Expect(output.Results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("prints only sentences with --quiet", func() {
		Expect(execute("-q", "-k", "1", testutils.TestSentences[0])).To(Succeed())
		Expect(out.String()).To(Equal(testutils.TestSentences[0] + "\n"))
	})

	It("renders a table by default", func() {
		Expect(execute(testutils.TestSentences[1])).To(Succeed())
		Expect(out.String()).To(ContainSubstring("SENTENCE"))
		Expect(out.String()).To(ContainSubstring(testutils.TestSentences[1]))
	})
})

var _ = Describe("SearchAPI", func() {
	It("calls /v1/search and decodes the output", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/search"))
			Expect(r.URL.Query().Get("query")).To(Equal("the dog"))
			Expect(r.URL.Query().Get("top_k")).To(Equal("3"))
			_ = json.NewEncoder(w).Encode(apisearch.SearchOutput{Query: "the dog", Metric: "cosine", Count: 0})
		}))
		DeferCleanup(server.Close)

		output, err := searchcmder.SearchAPI(context.Background(), server.URL, "the dog", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(output.Metric).To(Equal("cosine"))
	})

	It("reports non-200 responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "search is not configured", http.StatusServiceUnavailable)
		}))
		DeferCleanup(server.Close)

		_, err := searchcmder.SearchAPI(context.Background(), server.URL, "q", 1)
		Expect(err).To(MatchError(ContainSubstring("HTTP 503")))
	})
})
