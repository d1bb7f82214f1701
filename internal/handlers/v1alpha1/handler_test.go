package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/config"
	handlers "github.com/forensys/evidence-custody/internal/handlers/v1alpha1"
	"github.com/forensys/evidence-custody/internal/metadata"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/pipeline/jobs"
	"github.com/forensys/evidence-custody/internal/report"
	"github.com/forensys/evidence-custody/internal/service"
	"github.com/forensys/evidence-custody/internal/storage"
	"github.com/forensys/evidence-custody/internal/store"
)

func TestHandlers(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Handlers Suite")
}

var _ = Describe("Custody API", Ordered, func() {
	var (
		s          store.Store
		gormdb     *gorm.DB
		dispatcher *jobs.Dispatcher
		router     *chi.Mux
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())

		backend, err := storage.New(cfg)
		Expect(err).To(BeNil())

		reports, err := report.NewGenerator(cfg.Limits.ReportOutputDir)
		Expect(err).To(BeNil())

		pipe := pipeline.New(s, backend, metadata.NewExtractor(), nil, reports, nil, 30*time.Second, nil)
		dispatcher = jobs.NewDispatcher(nil, pipe, true, 2)

		validator := service.NewSubmissionValidator(cfg)
		handler := handlers.NewServiceHandler(
			service.NewJobService(s, dispatcher, validator, cfg),
			service.NewVerificationService(s, pipeline.NewVerifier(s, backend, nil)),
			service.NewReportService(s, reports),
		)

		router = chi.NewRouter()
		handler.RegisterRoutes(router)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM custody_entries;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	uploadEvidence := func() api.JobStatusReply {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		part, err := writer.CreateFormFile("file", "evidence.txt")
		Expect(err).To(BeNil())
		_, err = part.Write([]byte("uploaded evidence content"))
		Expect(err).To(BeNil())
		Expect(writer.WriteField("investigator_id", "inv-001")).To(Succeed())
		Expect(writer.WriteField("case_number", "CASE-42")).To(Succeed())
		Expect(writer.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs/upload", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))

		var reply api.JobStatusReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &reply)).To(Succeed())
		dispatcher.Wait()
		return reply
	}

	It("serves the health endpoint", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("accepts an upload and reports completion", func() {
		reply := uploadEvidence()
		Expect(reply.Status).To(Equal(api.JobStatusPending))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+reply.JobID.String(), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var status api.JobStatusReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &status)).To(Succeed())
		Expect(status.Status).To(Equal(api.JobStatusCompleted))
	})

	It("returns the chain of custody in the details reply", func() {
		reply := uploadEvidence()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s/details", reply.JobID), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var details api.JobDetailsReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &details)).To(Succeed())
		Expect(details.ChainOfCustody).To(HaveLen(4))
		Expect(details.Metadata.SHA256Hash).NotTo(BeNil())
	})

	It("rejects a url submission outside the allowlist", func() {
		body, err := json.Marshal(api.URLJobCreate{
			URL:            "https://evil.test/evidence.jpg",
			InvestigatorID: "inv-001",
			CaseNumber:     strPtr("CASE-42"),
		})
		Expect(err).To(BeNil())

		req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs/url", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("verifies stored evidence through the api", func() {
		reply := uploadEvidence()

		body := []byte(`{"verified_by": "inv-002"}`)
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1alpha1/jobs/%s/verify", reply.JobID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))

		var verification api.VerificationReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &verification)).To(Succeed())
		Expect(verification.Matches).To(BeTrue())
	})

	It("verifies without a request body, attributing the job's investigator", func() {
		reply := uploadEvidence()

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1alpha1/jobs/%s/verify", reply.JobID), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))

		var verification api.VerificationReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &verification)).To(Succeed())
		Expect(verification.Matches).To(BeTrue())
		Expect(verification.VerifiedBy).To(Equal("inv-001"))
	})

	It("serves the html report", func() {
		reply := uploadEvidence()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s/report", reply.JobID), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Evidence Custody Report"))
	})

	It("exposes job analytics", func() {
		uploadEvidence()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1alpha1/analytics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var analytics api.AnalyticsReply
		Expect(json.Unmarshal(rec.Body.Bytes(), &analytics)).To(Succeed())
		Expect(analytics.TotalJobs).To(Equal(int64(1)))
		Expect(analytics.CompletedJobs).To(Equal(int64(1)))
	})

	It("returns 404 for an unknown job", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/"+uuid.NewString(), nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 400 for a malformed job id", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/not-a-uuid", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})

func strPtr(s string) *string {
	return &s
}
