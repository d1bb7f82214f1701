package metadata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forensys/evidence-custody/internal/metadata"
)

func TestMetadata(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metadata Suite")
}

var _ = Describe("Extractor", func() {
	extractor := metadata.NewExtractor()

	write := func(name string, content []byte) string {
		path := filepath.Join(GinkgoT().TempDir(), name)
		Expect(os.WriteFile(path, content, 0o600)).To(Succeed())
		return path
	}

	It("detects a png by its magic bytes", func() {
		pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
		meta, err := extractor.Extract(context.TODO(), write("image.png", pngHeader))
		Expect(err).To(BeNil())
		Expect(meta.MimeType).To(Equal("image/png"))
		Expect(meta.FileSize).To(Equal(int64(len(pngHeader))))
		Expect(meta.Extension).To(Equal(".png"))
	})

	It("never fails on unrecognized content", func() {
		meta, err := extractor.Extract(context.TODO(), write("blob.xyz", []byte{0x00, 0x01, 0x02}))
		Expect(err).To(BeNil())
		Expect(meta.MimeType).NotTo(BeEmpty())
	})

	It("fails only when the file itself is unreadable", func() {
		_, err := extractor.Extract(context.TODO(), filepath.Join(GinkgoT().TempDir(), "missing"))
		Expect(err).NotTo(BeNil())
	})
})
