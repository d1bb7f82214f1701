package download_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forensys/evidence-custody/internal/download"
)

func TestDownload(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Download Suite")
}

var _ = Describe("HTTP downloader", func() {
	newDownloader := func(maxBytes int64) download.Downloader {
		d, err := download.NewHTTPDownloader(GinkgoT().TempDir(), maxBytes, 5*time.Second)
		Expect(err).To(BeNil())
		return d
	}

	It("spools the remote content to disk", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("remote evidence"))
		}))
		defer server.Close()

		path, filename, err := newDownloader(1 << 20).Fetch(context.TODO(), server.URL+"/item.mp4")
		Expect(err).To(BeNil())
		Expect(filename).To(Equal("item.mp4"))

		content, err := os.ReadFile(path)
		Expect(err).To(BeNil())
		Expect(content).To(Equal([]byte("remote evidence")))
	})

	It("prefers the content-disposition filename", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", `attachment; filename="original.mov"`)
			_, _ = w.Write([]byte("x"))
		}))
		defer server.Close()

		_, filename, err := newDownloader(1 << 20).Fetch(context.TODO(), server.URL+"/whatever")
		Expect(err).To(BeNil())
		Expect(filename).To(Equal("original.mov"))
	})

	It("rejects content above the size cap", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(make([]byte, 2048))
		}))
		defer server.Close()

		_, _, err := newDownloader(1024).Fetch(context.TODO(), server.URL+"/big.bin")
		Expect(err).To(MatchError(ContainSubstring("exceeds")))
	})

	It("fails on a non-200 response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, _, err := newDownloader(1024).Fetch(context.TODO(), server.URL+"/gone")
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})
})
