package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/storage"
	"github.com/papercomputeco/siamese/pkg/storage/postgres"
	"github.com/papercomputeco/siamese/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("SIAMESE_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("SIAMESE_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DriverBehaviour(func() storage.Driver {
		ctx := context.Background()
		driver, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all runs before each test for isolation.
		_, err = driver.DB.ExecContext(ctx, "DELETE FROM epochs")
		Expect(err).NotTo(HaveOccurred())
		_, err = driver.DB.ExecContext(ctx, "DELETE FROM runs")
		Expect(err).NotTo(HaveOccurred())
		return driver
	})

	It("fails fast on an unreachable server", func() {
		_, err := postgres.NewDriver(context.Background(), "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
		Expect(err).To(HaveOccurred())
	})
})
