package servecmder_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/siamese/cmd/siamese/serve"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/similarity"
	testutils "github.com/papercomputeco/siamese/pkg/utils/test"
)

func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer l.Close()
	return l.Addr().String()
}

var _ = Describe("NewServeCmd", func() {
	It("registers the serve flags with config defaults", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.DefValue).To(Equal(":8081"))
		Expect(listen.Shorthand).To(Equal("a"))

		for _, name := range []string{"model-dir", "workers", "vector-store-provider", "vector-store-target", "log-file", "no-watch"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})

var _ = Describe("Serve command execution", func() {
	var modelDir string

	BeforeEach(func() {
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())
		modelDir = filepath.Join(GinkgoT().TempDir(), "model")
	})

	It("fails without a trained model", func() {
		cmd := servecmder.NewServeCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs([]string{"-d", modelDir, "--vector-store-provider", "none"})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("loading model")))
	})

	It("fails cleanly for a model saved without a vocabulary", func() {
		b := testutils.NewTestBundle(similarity.Manhattan, 5)
		Expect(artifact.Save(modelDir, b.Model, nil)).To(Succeed())

		cmd := servecmder.NewServeCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs([]string{"-d", modelDir, "--vector-store-provider", "none", "--no-watch"})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("has no vocabulary")))
	})

	It("serves until the context is cancelled", func() {
		b := testutils.NewTestBundle(similarity.Manhattan, 5)
		Expect(artifact.Save(modelDir, b.Model, b.Vocab)).To(Succeed())

		addr := freeAddr()
		logFile := filepath.Join(GinkgoT().TempDir(), "serve.log")

		cmd := servecmder.NewServeCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs([]string{
			"-d", modelDir,
			"--listen", addr,
			"--vector-store-target", filepath.Join(GinkgoT().TempDir(), "sentences.db"),
			"--log-file", logFile,
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- cmd.ExecuteContext(ctx)
		}()

		Eventually(func() (int, error) {
			resp, err := http.Get(fmt.Sprintf("http://%s/ping", addr))
			if err != nil {
				return 0, err
			}
			resp.Body.Close()
			return resp.StatusCode, nil
		}).WithTimeout(10 * time.Second).Should(Equal(http.StatusOK))

		cancel()
		Eventually(done).WithTimeout(10 * time.Second).Should(Receive(BeNil()))

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"loaded model"`))
	})
})
