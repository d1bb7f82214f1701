package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/config"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/pipeline/jobs"
	"github.com/forensys/evidence-custody/internal/service/mappers"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/internal/store/model"
)

const defaultListLimit = 100

// JobService owns the acquisition lifecycle: it validates submissions,
// persists the job row, and hands the run to the dispatcher.
type JobService struct {
	store      store.Store
	dispatcher *jobs.Dispatcher
	validator  *SubmissionValidator
	cfg        *config.Config
}

func NewJobService(s store.Store, dispatcher *jobs.Dispatcher, validator *SubmissionValidator, cfg *config.Config) *JobService {
	return &JobService{
		store:      s,
		dispatcher: dispatcher,
		validator:  validator,
		cfg:        cfg,
	}
}

// SubmitURL accepts a URL acquisition request. The job row is durable
// before dispatch, so a dispatch failure still leaves a queryable
// failed job rather than a lost request.
func (s *JobService) SubmitURL(ctx context.Context, request v1alpha1.URLJobCreate) (*v1alpha1.JobStatusReply, error) {
	if err := s.validator.ValidateURL(request); err != nil {
		return nil, err
	}

	job := model.Job{
		ID:             uuid.New(),
		Status:         model.JobStatusPending,
		Source:         model.JobSourceURL,
		OriginalURL:    &request.URL,
		InvestigatorID: request.InvestigatorID,
		CaseNumber:     request.CaseNumber,
		Notes:          request.Notes,
	}

	created, err := s.store.Job().Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("persisting job: %w", err)
	}

	return s.dispatch(ctx, created, pipeline.RunArgs{JobID: created.ID})
}

// SubmitUpload accepts an uploaded evidence file. The content is
// spooled to disk first; the pipeline reads it from there.
func (s *JobService) SubmitUpload(ctx context.Context, content io.Reader, filename string, size int64, investigatorID, caseNumber string, notes *string) (*v1alpha1.JobStatusReply, error) {
	form := v1alpha1.UploadJobCreate{
		Filename:       filename,
		SizeBytes:      size,
		InvestigatorID: investigatorID,
		Notes:          notes,
	}
	if err := s.validator.ValidateUpload(form); err != nil {
		return nil, err
	}

	job := model.Job{
		ID:             uuid.New(),
		Status:         model.JobStatusPending,
		Source:         model.JobSourceLocalUpload,
		Filename:       &filename,
		InvestigatorID: investigatorID,
		Notes:          notes,
	}
	if caseNumber != "" {
		job.CaseNumber = &caseNumber
	}

	spoolPath, err := s.spool(job.ID, content)
	if err != nil {
		return nil, err
	}

	detected, err := mimetype.DetectFile(spoolPath)
	if err != nil {
		_ = os.Remove(spoolPath)
		return nil, fmt.Errorf("inspecting upload: %w", err)
	}
	if err := s.validator.ValidateMime(detected); err != nil {
		_ = os.Remove(spoolPath)
		return nil, err
	}

	created, err := s.store.Job().Create(ctx, job)
	if err != nil {
		_ = os.Remove(spoolPath)
		return nil, fmt.Errorf("persisting job: %w", err)
	}

	return s.dispatch(ctx, created, pipeline.RunArgs{
		JobID:    created.ID,
		FilePath: spoolPath,
		Filename: filename,
	})
}

func (s *JobService) dispatch(ctx context.Context, job *model.Job, args pipeline.RunArgs) (*v1alpha1.JobStatusReply, error) {
	path, err := s.dispatcher.Dispatch(ctx, args)
	if err != nil {
		zap.S().Named("job_service").Errorw("dispatch failed", "job_id", job.ID, "error", err)
		reason := fmt.Sprintf("dispatch failed: %v", err)
		failed := model.JobStatusFailed
		if _, updateErr := s.store.Job().Update(ctx, job.ID, store.JobUpdate{
			Status: &failed,
			Notes:  &reason,
		}); updateErr != nil {
			zap.S().Named("job_service").Errorw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
		}
		return nil, fmt.Errorf("dispatching job %s: %w", job.ID, err)
	}

	zap.S().Named("job_service").Infow("job submitted",
		"job_id", job.ID, "source", job.Source, "dispatch_path", path)

	reply := mappers.JobStatusToApi(job)
	return &reply, nil
}

// spool writes uploaded content to the spool directory with a size cap.
func (s *JobService) spool(jobID uuid.UUID, content io.Reader) (string, error) {
	dir := s.cfg.Limits.SpoolDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "custody-spool")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating spool dir: %w", err)
	}

	path := filepath.Join(dir, jobID.String())
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating spool file: %w", err)
	}
	defer out.Close()

	limit := s.cfg.Limits.MaxUploadBytes
	written, err := io.Copy(out, io.LimitReader(content, limit+1))
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("spooling upload: %w", err)
	}
	if limit > 0 && written > limit {
		_ = os.Remove(path)
		return "", NewErrEvidenceTooLarge(limit)
	}
	if written == 0 {
		_ = os.Remove(path)
		return "", NewErrInvalidSubmission("uploaded file is empty")
	}

	return path, nil
}

// GetStatus returns the persisted status of a job. The row is the
// single source of truth; nothing is consulted in memory.
func (s *JobService) GetStatus(ctx context.Context, id uuid.UUID) (*v1alpha1.JobStatusReply, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	reply := mappers.JobStatusToApi(job)
	return &reply, nil
}

// GetDetails returns the job together with its full chain of custody.
func (s *JobService) GetDetails(ctx context.Context, id uuid.UUID) (*v1alpha1.JobDetailsReply, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	entries, err := s.store.Custody().List(ctx, id)
	if err != nil {
		return nil, err
	}

	reply := mappers.JobDetailsToApi(job, entries)
	return &reply, nil
}

func (s *JobService) List(ctx context.Context, offset, limit int) (*v1alpha1.JobList, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	jobsFound, err := s.store.Job().List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	reply := mappers.JobListToApi(jobsFound)
	return &reply, nil
}

// Analytics aggregates job counts over the given window.
func (s *JobService) Analytics(ctx context.Context, window time.Duration) (*v1alpha1.AnalyticsReply, error) {
	since := time.Time{}
	if window > 0 {
		since = time.Now().Add(-window)
	}

	counts, err := s.store.Job().CountByStatus(ctx, since)
	if err != nil {
		return nil, err
	}

	reply := &v1alpha1.AnalyticsReply{
		CompletedJobs: counts[model.JobStatusCompleted],
		FailedJobs:    counts[model.JobStatusFailed],
		PendingJobs:   counts[model.JobStatusPending] + counts[model.JobStatusProcessing],
	}
	for _, total := range counts {
		reply.TotalJobs += total
	}
	return reply, nil
}

// FlagStale logs processing jobs with no recent activity. They are
// surfaced for operator review, never restarted.
func (s *JobService) FlagStale(ctx context.Context) (model.JobList, error) {
	threshold := time.Duration(s.cfg.Limits.StaleThresholdMin) * time.Minute
	stale, err := s.store.Job().Stale(ctx, threshold)
	if err != nil {
		return nil, err
	}
	for i := range stale {
		zap.S().Named("job_service").Warnw("stale job detected",
			"job_id", stale[i].ID, "stage", stale[i].Stage, "updated_at", stale[i].UpdatedAt)
	}
	return stale, nil
}
