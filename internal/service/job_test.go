package service_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/metadata"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/pipeline/jobs"
	"github.com/forensys/evidence-custody/internal/report"
	"github.com/forensys/evidence-custody/internal/service"
	"github.com/forensys/evidence-custody/internal/storage"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/internal/store/model"

	"github.com/google/uuid"
)

var _ = Describe("Job service", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		cfg        *config.Config
		backend    storage.Backend
		dispatcher *jobs.Dispatcher
		jobSrv     *service.JobService
		verifySrv  *service.VerificationService
		reportSrv  *service.ReportService
	)

	BeforeAll(func() {
		cfg = config.NewDefault()
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())

		backend, err = storage.New(cfg)
		Expect(err).To(BeNil())

		reports, err := report.NewGenerator(cfg.Limits.ReportOutputDir)
		Expect(err).To(BeNil())

		pipe := pipeline.New(s, backend, metadata.NewExtractor(), nil, reports, nil, 30*time.Second, nil)
		dispatcher = jobs.NewDispatcher(nil, pipe, true, 2)

		jobSrv = service.NewJobService(s, dispatcher, service.NewSubmissionValidator(cfg), cfg)
		verifySrv = service.NewVerificationService(s, pipeline.NewVerifier(s, backend, nil))
		reportSrv = service.NewReportService(s, reports)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM custody_entries;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	submitUpload := func(content []byte) *v1alpha1.JobStatusReply {
		reply, err := jobSrv.SubmitUpload(
			context.TODO(),
			bytes.NewReader(content),
			"evidence.txt",
			int64(len(content)),
			"inv-001",
			"CASE-42",
			nil,
		)
		Expect(err).To(BeNil())
		dispatcher.Wait()
		return reply
	}

	Context("SubmitUpload", func() {
		It("runs the pipeline to completion", func() {
			reply := submitUpload([]byte("uploaded evidence"))
			Expect(reply.Status).To(Equal(v1alpha1.JobStatusPending))

			status, err := jobSrv.GetStatus(context.TODO(), reply.JobID)
			Expect(err).To(BeNil())
			Expect(status.Status).To(Equal(v1alpha1.JobStatusCompleted))
			Expect(status.Progress).To(Equal(float64(100)))
		})

		It("rejects a forbidden extension before persisting anything", func() {
			_, err := jobSrv.SubmitUpload(
				context.TODO(),
				bytes.NewReader([]byte("content")),
				"evidence.exe",
				7,
				"inv-001",
				"CASE-42",
				nil,
			)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))

			list, err := jobSrv.List(context.TODO(), 0, 10)
			Expect(err).To(BeNil())
			Expect(list.Items).To(BeEmpty())
		})

		It("rejects content whose sniffed type is not allowed", func() {
			pdf := []byte("%PDF-1.4\n%fake document body")
			_, err := jobSrv.SubmitUpload(
				context.TODO(),
				bytes.NewReader(pdf),
				"evidence.txt",
				int64(len(pdf)),
				"inv-001",
				"CASE-42",
				nil,
			)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))

			list, err := jobSrv.List(context.TODO(), 0, 10)
			Expect(err).To(BeNil())
			Expect(list.Items).To(BeEmpty())
		})
	})

	Context("SubmitURL", func() {
		It("rejects a url outside the domain allowlist", func() {
			_, err := jobSrv.SubmitURL(context.TODO(), v1alpha1.URLJobCreate{
				URL:            "https://evil.test/evidence.jpg",
				InvestigatorID: "inv-001",
				CaseNumber:     ptr("CASE-42"),
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})

		It("rejects a submission without an investigator", func() {
			_, err := jobSrv.SubmitURL(context.TODO(), v1alpha1.URLJobCreate{
				URL:        "https://example.com/evidence.jpg",
				CaseNumber: ptr("CASE-42"),
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidSubmission{}))
		})
	})

	Context("GetDetails", func() {
		It("returns the job with its full chain of custody", func() {
			reply := submitUpload([]byte("detailed evidence"))

			details, err := jobSrv.GetDetails(context.TODO(), reply.JobID)
			Expect(err).To(BeNil())
			Expect(details.Status).To(Equal(v1alpha1.JobStatusCompleted))
			Expect(details.Source).To(Equal(v1alpha1.JobSourceLocalUpload))
			Expect(details.Metadata.SHA256Hash).NotTo(BeNil())
			Expect(details.ChainOfCustody).To(HaveLen(4))
		})

		It("returns a typed not-found error", func() {
			_, err := jobSrv.GetDetails(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})
	})

	Context("Analytics", func() {
		It("aggregates terminal and in-flight jobs", func() {
			submitUpload([]byte("first"))
			submitUpload([]byte("second"))

			reply, err := jobSrv.Analytics(context.TODO(), 24*time.Hour)
			Expect(err).To(BeNil())
			Expect(reply.TotalJobs).To(Equal(int64(2)))
			Expect(reply.CompletedJobs).To(Equal(int64(2)))
			Expect(reply.FailedJobs).To(Equal(int64(0)))
		})
	})

	Context("Verification", func() {
		It("verifies a completed job end to end", func() {
			reply := submitUpload([]byte("verified evidence"))

			verification, err := verifySrv.Verify(context.TODO(), reply.JobID, "inv-002")
			Expect(err).To(BeNil())
			Expect(verification.Matches).To(BeTrue())
			Expect(verification.VerifiedBy).To(Equal("inv-002"))

			details, err := jobSrv.GetDetails(context.TODO(), reply.JobID)
			Expect(err).To(BeNil())
			Expect(details.ChainOfCustody).To(HaveLen(5))
			Expect(details.ChainOfCustody[4].Event).To(Equal(model.EventIntegrityVerification))
		})

		It("attributes a bare verification to the job's investigator", func() {
			reply := submitUpload([]byte("attributed evidence"))

			verification, err := verifySrv.Verify(context.TODO(), reply.JobID, "")
			Expect(err).To(BeNil())
			Expect(verification.Matches).To(BeTrue())
			Expect(verification.VerifiedBy).To(Equal("inv-001"))
		})

		It("verifies a failed job whose evidence reached storage", func() {
			content := []byte("partially processed evidence")
			created, err := s.Job().Create(context.TODO(), model.Job{
				Source:         model.JobSourceLocalUpload,
				InvestigatorID: "inv-001",
			})
			Expect(err).To(BeNil())

			spool := filepath.Join(GinkgoT().TempDir(), "evidence.txt")
			Expect(os.WriteFile(spool, content, 0o600)).To(Succeed())
			stored, err := backend.Store(context.TODO(), spool, created.ID, storage.SidecarMetadata{})
			Expect(err).To(BeNil())

			sum := sha256.Sum256(content)
			digest := hex.EncodeToString(sum[:])
			failed := model.JobStatusFailed
			_, err = s.Job().Update(context.TODO(), created.ID, store.JobUpdate{
				Status:          &failed,
				SHA256Hash:      &digest,
				StoragePath:     &stored.Path,
				StorageLocation: &stored.Location,
			})
			Expect(err).To(BeNil())

			verification, err := verifySrv.Verify(context.TODO(), created.ID, "inv-002")
			Expect(err).To(BeNil())
			Expect(verification.Matches).To(BeTrue())
			Expect(verification.OriginalHash).To(Equal(digest))
		})

		It("refuses to verify a job with no stored evidence", func() {
			created, err := s.Job().Create(context.TODO(), model.Job{
				Source:         model.JobSourceLocalUpload,
				InvestigatorID: "inv-001",
			})
			Expect(err).To(BeNil())

			_, err = verifySrv.Verify(context.TODO(), created.ID, "inv-002")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrEvidenceNotReady{}))
		})
	})

	Context("Reports", func() {
		It("serves the pipeline's html report", func() {
			reply := submitUpload([]byte("reported evidence"))

			path, contentType, err := reportSrv.GetReportPath(context.TODO(), reply.JobID, report.FormatHTML)
			Expect(err).To(BeNil())
			Expect(path).NotTo(BeEmpty())
			Expect(contentType).To(ContainSubstring("text/html"))
		})

		It("renders the csv export on demand", func() {
			reply := submitUpload([]byte("exported evidence"))

			path, contentType, err := reportSrv.GetReportPath(context.TODO(), reply.JobID, report.FormatCSV)
			Expect(err).To(BeNil())
			Expect(path).NotTo(BeEmpty())
			Expect(contentType).To(Equal("text/csv"))
		})

		It("returns a typed not-found error for a job without a report", func() {
			created, err := s.Job().Create(context.TODO(), model.Job{
				Source:         model.JobSourceLocalUpload,
				InvestigatorID: "inv-001",
			})
			Expect(err).To(BeNil())

			_, _, err = reportSrv.GetReportPath(context.TODO(), created.ID, report.FormatHTML)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})
	})
})

func ptr(s string) *string {
	return &s
}
