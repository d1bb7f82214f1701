package service

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"github.com/forensys/evidence-custody/internal/report"
	"github.com/forensys/evidence-custody/internal/store"
)

// ReportService serves custody reports. The HTML report is the one the
// pipeline wrote; the CSV export is rendered on demand from the ledger.
type ReportService struct {
	store     store.Store
	generator *report.Generator
}

func NewReportService(s store.Store, generator *report.Generator) *ReportService {
	return &ReportService{store: s, generator: generator}
}

// GetReportPath resolves the report file for a job in the requested
// format and returns its path plus content type.
func (s *ReportService) GetReportPath(ctx context.Context, jobID uuid.UUID, format report.Format) (string, string, error) {
	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", "", NewErrJobNotFound(jobID)
		}
		return "", "", err
	}

	switch format {
	case report.FormatHTML:
		if job.ReportPath == nil || *job.ReportPath == "" {
			return "", "", NewErrReportNotFound(jobID)
		}
		if _, err := os.Stat(*job.ReportPath); err != nil {
			return "", "", NewErrReportNotFound(jobID)
		}
		return *job.ReportPath, "text/html; charset=utf-8", nil

	case report.FormatCSV:
		entries, err := s.store.Custody().List(ctx, jobID)
		if err != nil {
			return "", "", err
		}
		if len(entries) == 0 {
			return "", "", NewErrReportNotFound(jobID)
		}
		path, err := s.generator.Generate(job, entries, report.FormatCSV)
		if err != nil {
			return "", "", err
		}
		return path, "text/csv", nil

	default:
		return "", "", NewErrInvalidSubmission("unsupported report format")
	}
}
