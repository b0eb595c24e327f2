package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var homeDir string

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", homeDir)
		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("SIAMESE_DB", "")
		GinkgoT().Setenv("SIAMESE_SQLITE", "")
		chdir(GinkgoT().TempDir())
	})

	It("returns the override unchanged", func() {
		path, err := ResolveSQLitePath("runs.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("runs.db"))
	})

	It("prefers SIAMESE_SQLITE when set", func() {
		GinkgoT().Setenv("SIAMESE_SQLITE", "/tmp/custom.db")

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("resolves ~/.siamese/siamese.db when present", func() {
		dbPath := filepath.Join(homeDir, ".siamese", "siamese.db")
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("errors when nothing is found", func() {
		_, err := ResolveSQLitePath("")
		Expect(err).To(MatchError(ContainSubstring("pass --sqlite")))
	})
})

var _ = Describe("ResolveOrCreate", func() {
	BeforeEach(func() {
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())
		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("SIAMESE_DB", "")
		GinkgoT().Setenv("SIAMESE_SQLITE", "")
		chdir(GinkgoT().TempDir())
	})

	It("creates the directory and returns a database path inside it", func() {
		dir := filepath.Join(GinkgoT().TempDir(), ".siamese")

		path, err := ResolveOrCreate("", dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "siamese.db")))
		Expect(dir).To(BeADirectory())
	})
})

func chdir(dir string) {
	orig, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(os.Chdir, orig)
}
