package service_test

import (
	"testing"

	"github.com/gabriel-vasile/mimetype"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/service"
)

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

var _ = Describe("Submission validator", func() {
	var validator *service.SubmissionValidator

	BeforeEach(func() {
		validator = service.NewSubmissionValidator(config.NewDefault())
	})

	urlRequest := func(rawURL, investigator string) v1alpha1.URLJobCreate {
		return v1alpha1.URLJobCreate{URL: rawURL, InvestigatorID: investigator}
	}

	Context("urls", func() {
		It("accepts an allowed domain", func() {
			Expect(validator.ValidateURL(urlRequest("https://example.com/evidence.jpg", "inv-001"))).To(Succeed())
		})

		It("accepts a subdomain of an allowed domain", func() {
			Expect(validator.ValidateURL(urlRequest("https://media.example.com/evidence.jpg", "inv-001"))).To(Succeed())
		})

		It("rejects a domain outside the allowlist", func() {
			err := validator.ValidateURL(urlRequest("https://evil.test/evidence.jpg", "inv-001"))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects non-http schemes", func() {
			err := validator.ValidateURL(urlRequest("ftp://example.com/evidence.jpg", "inv-001"))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects an empty url", func() {
			err := validator.ValidateURL(urlRequest("", "inv-001"))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects a blank investigator id", func() {
			err := validator.ValidateURL(urlRequest("https://example.com/evidence.jpg", "  "))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})
	})

	uploadForm := func(filename string, size int64) v1alpha1.UploadJobCreate {
		return v1alpha1.UploadJobCreate{
			Filename:       filename,
			SizeBytes:      size,
			InvestigatorID: "inv-001",
		}
	}

	Context("uploads", func() {
		It("accepts an allowed extension within the size limit", func() {
			Expect(validator.ValidateUpload(uploadForm("evidence.jpg", 1024))).To(Succeed())
		})

		It("rejects an oversized file", func() {
			err := validator.ValidateUpload(uploadForm("evidence.jpg", 2<<20))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrEvidenceTooLarge{}))
		})

		It("rejects a forbidden extension", func() {
			err := validator.ValidateUpload(uploadForm("evidence.exe", 1024))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects an empty file", func() {
			err := validator.ValidateUpload(uploadForm("evidence.jpg", 0))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects a missing investigator id", func() {
			form := uploadForm("evidence.jpg", 1024)
			form.InvestigatorID = ""
			err := validator.ValidateUpload(form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})
	})

	Context("content types", func() {
		It("accepts an allowed detected type", func() {
			detected := mimetype.Detect([]byte("plain text evidence"))
			Expect(validator.ValidateMime(detected)).To(Succeed())
		})

		It("rejects a detected type outside the allowlist", func() {
			detected := mimetype.Detect([]byte("%PDF-1.4\n%fake document"))
			err := validator.ValidateMime(detected)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})
	})
})
