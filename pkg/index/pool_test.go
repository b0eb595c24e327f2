package index_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/index"
	"github.com/papercomputeco/siamese/pkg/logger"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

var _ = Describe("Pool", func() {
	var (
		store    *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		pool     *index.Pool
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		var err error
		pool, err = index.NewPool(&index.Config{
			VectorDriver: store,
			Embedder:     embedder,
			NumWorkers:   2,
			QueueSize:    16,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		pool.Close()
	})

	It("requires a driver and an embedder", func() {
		_, err := index.NewPool(&index.Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("stores every submitted sentence after Close drains the queue", func() {
		for _, s := range testutils.TestSentences {
			Expect(pool.Submit(ctx, index.Job{Text: s})).To(Succeed())
		}
		pool.Close()

		Expect(store.Len()).To(Equal(len(testutils.TestSentences)))
		Expect(pool.Stats()).To(Equal(index.Stats{Indexed: uint64(len(testutils.TestSentences))}))

		docs, err := store.Get(ctx, []string{index.DocumentID(testutils.TestSentences[0])})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Text).To(Equal(testutils.TestSentences[0]))
	})

	It("keeps explicit IDs", func() {
		Expect(pool.Enqueue(index.Job{ID: "pair-1-left", Text: "hello there"})).To(BeTrue())
		pool.Close()

		docs, err := store.Get(ctx, []string{"pair-1-left"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
	})

	It("deduplicates by normalized text", func() {
		Expect(index.DocumentID("  A Dog Runs ")).To(Equal(index.DocumentID("a dog runs")))

		Expect(pool.Submit(ctx, index.Job{Text: "a dog runs"})).To(Succeed())
		Expect(pool.Submit(ctx, index.Job{Text: "A dog runs"})).To(Succeed())
		pool.Close()
		Expect(store.Len()).To(Equal(1))
	})

	It("counts embedding and storage failures without stopping", func() {
		embedder.FailOn = "broken"
		Expect(pool.Submit(ctx, index.Job{Text: "broken"})).To(Succeed())
		Expect(pool.Submit(ctx, index.Job{Text: "   "})).To(Succeed())
		Expect(pool.Submit(ctx, index.Job{Text: "fine"})).To(Succeed())
		pool.Close()

		Expect(pool.Stats()).To(Equal(index.Stats{Indexed: 1, Failed: 2}))
	})

	It("counts store errors as failures", func() {
		store.FailAdd = errors.New("disk full")
		Expect(pool.Submit(ctx, index.Job{Text: "anything"})).To(Succeed())
		pool.Close()
		Expect(pool.Stats().Failed).To(Equal(uint64(1)))
	})

	It("rejects work after Close", func() {
		pool.Close()
		Expect(pool.Enqueue(index.Job{Text: "late"})).To(BeFalse())
		Expect(pool.Submit(ctx, index.Job{Text: "late"})).To(MatchError(index.ErrClosed))
	})

	It("stops waiting when the context is cancelled", func() {
		blocked, err := index.NewPool(&index.Config{
			VectorDriver: store,
			Embedder:     embedder,
			NumWorkers:   1,
			QueueSize:    1,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer blocked.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		// Submit may win the race for a free slot; a cancelled context must
		// at least not block forever.
		for range 4 {
			if err := blocked.Submit(cctx, index.Job{Text: "x"}); err != nil {
				Expect(err).To(MatchError(context.Canceled))
			}
		}
	})
})
