package qdrant_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/vector"
	"github.com/papercomputeco/siamese/pkg/vector/qdrant"
)

// Set SIAMESE_TEST_QDRANT_ADDR (e.g. localhost:6334) to run against a live server.
const addrEnv = "SIAMESE_TEST_QDRANT_ADDR"

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("requires an address", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("address is required")))
		})

		It("requires dimensions", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Addr: "localhost:6334"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions cannot be 0")))
		})

		It("rejects an address without a port", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Addr: "localhost", Dimensions: 4}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("implements vector.Driver", func() {
			var _ vector.Driver = (*qdrant.Driver)(nil)
		})
	})

	Describe("against a live server", func() {
		var driver *qdrant.Driver

		BeforeEach(func() {
			addr := os.Getenv(addrEnv)
			if addr == "" {
				Skip(addrEnv + " not set")
			}
			var err error
			driver, err = qdrant.NewDriver(context.Background(), qdrant.Config{
				Addr:       addr,
				Collection: "siamese_test_" + uuid.NewString()[:8],
				Dimensions: 4,
				Cosine:     true,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(driver.Close)
		})

		It("adds, queries, gets and deletes documents", func() {
			ctx := context.Background()
			Expect(driver.Add(ctx, []vector.Document{
				{ID: "a", Text: "a dog runs", Embedding: []float32{1, 0, 0, 0}},
				{ID: "b", Text: "a cat sleeps", Embedding: []float32{0, 1, 0, 0}},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0.1, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[0].Text).To(Equal("a dog runs"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))

			docs, err := driver.Get(ctx, []string{"b", "missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Embedding).To(HaveLen(4))

			Expect(driver.Delete(ctx, []string{"a"})).To(Succeed())
			docs, err = driver.Get(ctx, []string{"a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})
})
