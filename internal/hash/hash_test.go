package hash_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forensys/evidence-custody/internal/hash"
)

func TestHash(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hash Suite")
}

var _ = Describe("Hash", func() {
	// sha256("abc")
	const abcDigest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	It("hashes a reader against a known vector", func() {
		digest, err := hash.Reader(strings.NewReader("abc"))
		Expect(err).To(BeNil())
		Expect(digest).To(Equal(abcDigest))
	})

	It("hashes a file identically to its content", func() {
		path := filepath.Join(GinkgoT().TempDir(), "evidence.bin")
		Expect(os.WriteFile(path, []byte("abc"), 0o600)).To(Succeed())

		digest, err := hash.File(path)
		Expect(err).To(BeNil())
		Expect(digest).To(Equal(abcDigest))
	})

	It("fails on a missing file", func() {
		_, err := hash.File(filepath.Join(GinkgoT().TempDir(), "missing"))
		Expect(err).NotTo(BeNil())
	})
})
