package encoder_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/embeddings/encoder"
	"github.com/papercomputeco/siamese/pkg/similarity"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

var _ = Describe("Embedder", func() {
	var (
		holder *artifact.Holder
		e      *encoder.Embedder
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		holder = artifact.NewHolder(testutils.NewTestBundle(similarity.Manhattan, 7))
		var err error
		e, err = encoder.NewEmbedder(holder)
		Expect(err).NotTo(HaveOccurred())
	})

	It("implements embeddings.Embedder", func() {
		var _ embeddings.Embedder = e
	})

	It("rejects a source without a model", func() {
		_, err := encoder.NewEmbedder(artifact.NewHolder(nil))
		Expect(err).To(HaveOccurred())
	})

	It("returns the model's final hidden state", func() {
		v, err := e.Embed(ctx, "a man is playing a guitar")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(int(e.Dimensions())))

		b := holder.Current()
		ids, err := b.Encode("a man is playing a guitar")
		Expect(err).NotTo(HaveOccurred())
		h, err := b.Model.Encode(ids)
		Expect(err).NotTo(HaveOccurred())
		for i := range h {
			Expect(float64(v[i])).To(BeNumerically("~", h[i], 1e-6))
		}
	})

	It("is deterministic", func() {
		a, err := e.Embed(ctx, "the dog runs across the field")
		Expect(err).NotTo(HaveOccurred())
		b, err := e.Embed(ctx, "the dog runs across the field")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("fails for text with no known words", func() {
		_, err := e.Embed(ctx, "zebra quantum")
		Expect(err).To(MatchError(encoder.ErrNoKnownWords))
	})

	It("follows the holder after a swap", func() {
		before, err := e.Embed(ctx, "a woman is slicing an onion")
		Expect(err).NotTo(HaveOccurred())

		holder.Swap(testutils.NewTestBundle(similarity.Manhattan, 99))
		after, err := e.Embed(ctx, "a woman is slicing an onion")
		Expect(err).NotTo(HaveOccurred())
		Expect(after).NotTo(Equal(before))
	})

	It("honours a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cctx, "a man is playing a guitar")
		Expect(err).To(MatchError(context.Canceled))
	})
})
