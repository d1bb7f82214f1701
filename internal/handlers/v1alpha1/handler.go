// Package v1alpha1 exposes the custody API over HTTP.
package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/service"
	"github.com/forensys/evidence-custody/pkg/requestid"
)

type ServiceHandler struct {
	jobSrv    *service.JobService
	verifySrv *service.VerificationService
	reportSrv *service.ReportService
}

func NewServiceHandler(jobSrv *service.JobService, verifySrv *service.VerificationService, reportSrv *service.ReportService) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:    jobSrv,
		verifySrv: verifySrv,
		reportSrv: reportSrv,
	}
}

// RegisterRoutes mounts all v1alpha1 endpoints on the router.
func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1alpha1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/url", h.SubmitURLJob)
			r.Post("/upload", h.SubmitUploadJob)
			r.Get("/", h.ListJobs)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetJobStatus)
				r.Get("/details", h.GetJobDetails)
				r.Get("/report", h.GetJobReport)
				r.Post("/verify", h.VerifyJob)
			})
		})
		r.Get("/analytics", h.GetAnalytics)
	})
	r.Get("/health", h.Health)
}

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{
		Message:   message,
		RequestID: requestid.FromContextPtr(r.Context()),
	})
}

// serviceErrorStatus maps typed service errors to HTTP status codes.
func serviceErrorStatus(err error) int {
	switch err.(type) {
	case *service.ErrResourceNotFound:
		return http.StatusNotFound
	case *service.ErrInvalidSubmission:
		return http.StatusBadRequest
	case *service.ErrEvidenceTooLarge:
		return http.StatusRequestEntityTooLarge
	case *service.ErrEvidenceNotReady:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
