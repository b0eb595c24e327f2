// Package storagetest holds the behaviour every storage.Driver must share.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/storage"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

// DriverBehaviour registers specs against the driver returned by newDriver,
// which is called before every spec. The driver is closed afterwards.
func DriverBehaviour(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		t0     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		driver = newDriver()
		DeferCleanup(func() {
			Expect(driver.Close()).To(Succeed())
		})
	})

	It("round trips a run", func() {
		run := testutils.NewTestRun("run-a", t0)
		Expect(driver.CreateRun(ctx, run)).To(Succeed())

		got, err := driver.GetRun(ctx, "run-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(run))
	})

	It("rejects duplicate run ids", func() {
		Expect(driver.CreateRun(ctx, testutils.NewTestRun("dup", t0))).To(Succeed())
		Expect(driver.CreateRun(ctx, testutils.NewTestRun("dup", t0))).NotTo(Succeed())
	})

	It("returns ErrNotFound for unknown runs", func() {
		_, err := driver.GetRun(ctx, "missing")
		Expect(err).To(MatchError(storage.ErrNotFound{ID: "missing"}))

		err = driver.RecordEpoch(ctx, storage.EpochRecord{RunID: "missing", Epoch: 1})
		var nf storage.ErrNotFound
		Expect(err).To(BeAssignableToTypeOf(nf))

		err = driver.FinishRun(ctx, "missing", storage.StatusCompleted, "", t0)
		Expect(err).To(BeAssignableToTypeOf(nf))
	})

	It("records epochs in order and replaces repeats", func() {
		Expect(driver.CreateRun(ctx, testutils.NewTestRun("run-e", t0))).To(Succeed())

		for _, e := range []int{2, 1, 3} {
			Expect(driver.RecordEpoch(ctx, storage.EpochRecord{
				RunID: "run-e", Epoch: e, Loss: float64(e) / 10, Accuracy: 0.5,
				HasValidation: e != 3, Duration: time.Duration(e) * time.Second,
			})).To(Succeed())
		}
		Expect(driver.RecordEpoch(ctx, storage.EpochRecord{RunID: "run-e", Epoch: 2, Loss: 0.05})).To(Succeed())

		recs, err := driver.Epochs(ctx, "run-e")
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(3))
		Expect(recs[0].Epoch).To(Equal(1))
		Expect(recs[1].Loss).To(Equal(0.05))
		Expect(recs[1].HasValidation).To(BeFalse())
		Expect(recs[2].Duration).To(Equal(3 * time.Second))
		Expect(recs[0].HasValidation).To(BeTrue())
	})

	It("finishes a run", func() {
		Expect(driver.CreateRun(ctx, testutils.NewTestRun("run-f", t0))).To(Succeed())
		end := t0.Add(90 * time.Second)
		Expect(driver.FinishRun(ctx, "run-f", storage.StatusFailed, "embedding file missing", end)).To(Succeed())

		got, err := driver.GetRun(ctx, "run-f")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(storage.StatusFailed))
		Expect(got.Error).To(Equal("embedding file missing"))
		Expect(got.FinishedAt).To(Equal(end))
	})

	It("lists the most recent runs first", func() {
		for i, id := range []string{"old", "new", "mid"} {
			start := t0.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
			Expect(driver.CreateRun(ctx, testutils.NewTestRun(id, start))).To(Succeed())
		}

		runs, err := driver.ListRuns(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		ids := []string{}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
		Expect(ids).To(Equal([]string{"new", "mid", "old"}))

		limited, err := driver.ListRuns(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(limited).To(HaveLen(2))
	})
}
