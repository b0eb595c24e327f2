package vectorutils_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/siamese/pkg/vector/utils"
)

var _ = Describe("NewVectorDriver", func() {
	It("builds a sqlite-vec driver", func() {
		d, err := vectorutils.NewVectorDriver(context.Background(), &vectorutils.NewVectorDriverOpts{
			ProviderType: vectorutils.ProviderSQLiteVec,
			TargetURL:    filepath.Join(GinkgoT().TempDir(), "vectors.db"),
			Dimensions:   8,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		Expect(d).To(BeAssignableToTypeOf(&sqlitevec.SQLiteVecDriver{}))
	})

	It("rejects unknown providers", func() {
		_, err := vectorutils.NewVectorDriver(context.Background(), &vectorutils.NewVectorDriverOpts{
			ProviderType: "chroma",
			Logger:       logger.Nop(),
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})
