package mcp_test

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/api/mcp"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/embeddings/encoder"
	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/similarity"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
	"github.com/papercomputeco/siamese/pkg/vector"
)

// connect returns a client session talking to s over in-memory transports.
func connect(ctx context.Context, s *mcp.Server) *sdk.ClientSession {
	serverTransport, clientTransport := sdk.NewInMemoryTransports()

	ss, err := s.Inner().Connect(ctx, serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(ss.Close)

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(cs.Close)
	return cs
}

func textOf(res *sdk.CallToolResult) string {
	Expect(res.Content).NotTo(BeEmpty())
	text, ok := res.Content[0].(*sdk.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		ctx          context.Context
		holder       *artifact.Holder
		vectorDriver *testutils.MockVectorDriver
	)

	BeforeEach(func() {
		ctx = context.Background()
		holder = artifact.NewHolder(testutils.NewTestBundle(similarity.Manhattan, 3))
		vectorDriver = testutils.NewMockVectorDriver()
	})

	Describe("NewServer", func() {
		It("returns an error when no model is loaded", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("model is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Models: holder})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{Models: holder, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("tools", func() {
		listTools := func(cfg mcp.Config) []string {
			server, err := mcp.NewServer(cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := connect(ctx, server).ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			var names []string
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			return names
		}

		It("offers only similarity without a sentence index", func() {
			Expect(listTools(mcp.Config{Models: holder, Logger: logger.Nop()})).To(ConsistOf("similarity"))
		})

		It("adds search when an index is configured", func() {
			embedder, err := encoder.NewEmbedder(holder)
			Expect(err).NotTo(HaveOccurred())
			Expect(listTools(mcp.Config{
				Models:       holder,
				VectorDriver: vectorDriver,
				Embedder:     embedder,
				Logger:       logger.Nop(),
			})).To(ConsistOf("similarity", "search"))
		})
	})

	Describe("similarity tool", func() {
		It("scores identical sentences as 1", func() {
			server, err := mcp.NewServer(mcp.Config{Models: holder, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			res, err := connect(ctx, server).CallTool(ctx, &sdk.CallToolParams{
				Name: "similarity",
				Arguments: map[string]any{
					"left":  "a man is playing a guitar",
					"right": "a man is playing a guitar",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out mcp.SimilarityOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Score).To(Equal(1.0))
			Expect(out.Metric).To(Equal("manhattan"))
		})
	})

	Describe("search tool", func() {
		It("returns indexed sentences ranked by the model", func() {
			embedder, err := encoder.NewEmbedder(holder)
			Expect(err).NotTo(HaveOccurred())

			for _, s := range testutils.TestSentences {
				v, err := embedder.Embed(ctx, s)
				Expect(err).NotTo(HaveOccurred())
				Expect(vectorDriver.Add(ctx, []vector.Document{{ID: s, Text: s, Embedding: v}})).To(Succeed())
			}

			server, err := mcp.NewServer(mcp.Config{
				Models:       holder,
				VectorDriver: vectorDriver,
				Embedder:     embedder,
				Logger:       logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			res, err := connect(ctx, server).CallTool(ctx, &sdk.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": testutils.TestSentences[2], "top_k": 2},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out struct {
				Results []struct {
					Text  string  `json:"text"`
					Score float64 `json:"score"`
				} `json:"results"`
			}
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Results).To(HaveLen(2))
			Expect(out.Results[0].Text).To(Equal(testutils.TestSentences[2]))
			Expect(out.Results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("reports embedding failures as tool errors", func() {
			embedder, err := encoder.NewEmbedder(holder)
			Expect(err).NotTo(HaveOccurred())
			server, err := mcp.NewServer(mcp.Config{
				Models:       holder,
				VectorDriver: vectorDriver,
				Embedder:     embedder,
				Logger:       logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			res, err := connect(ctx, server).CallTool(ctx, &sdk.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": "xylophone"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
