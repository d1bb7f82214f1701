// Package pipeline drives one evidence job through its fixed stage
// order: Validate, Hash, ExtractMetadata, Store, GenerateReport,
// Complete. Each stage appends its custody entry and advances the job
// row as one transaction, so a crash can never leave an advanced status
// without the matching audit entry. A failed stage stops the run and
// preserves everything already collected; a forensic pipeline never
// rolls back evidence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forensys/evidence-custody/internal/download"
	"github.com/forensys/evidence-custody/internal/events"
	"github.com/forensys/evidence-custody/internal/hash"
	"github.com/forensys/evidence-custody/internal/metadata"
	"github.com/forensys/evidence-custody/internal/report"
	"github.com/forensys/evidence-custody/internal/storage"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/internal/store/model"
	"github.com/forensys/evidence-custody/pkg/metrics"
)

// RunArgs identifies the work of one orchestrator run. FilePath points
// at the spooled upload; it is empty for URL jobs, which acquire their
// content during the Validate stage.
type RunArgs struct {
	JobID    uuid.UUID `json:"job_id"`
	FilePath string    `json:"file_path,omitempty"`
	Filename string    `json:"filename,omitempty"`
}

type Pipeline struct {
	store        store.Store
	backend      storage.Backend
	extractor    metadata.Extractor
	downloader   download.Downloader
	reports      *report.Generator
	producer     *events.Producer
	stageTimeout time.Duration
	allowedMimes []string
}

func New(
	s store.Store,
	backend storage.Backend,
	extractor metadata.Extractor,
	downloader download.Downloader,
	reports *report.Generator,
	producer *events.Producer,
	stageTimeout time.Duration,
	allowedMimes []string,
) *Pipeline {
	return &Pipeline{
		store:        s,
		backend:      backend,
		extractor:    extractor,
		downloader:   downloader,
		reports:      reports,
		producer:     producer,
		stageTimeout: stageTimeout,
		allowedMimes: allowedMimes,
	}
}

// Run executes the full pipeline for one job. It is the sole writer of
// the job's status, stage and progress while it runs.
func (p *Pipeline) Run(ctx context.Context, args RunArgs) error {
	logger := zap.S().Named("pipeline").With("job_id", args.JobID)

	job, err := p.store.Job().Get(ctx, args.JobID)
	if err != nil {
		return fmt.Errorf("loading job %s: %w", args.JobID, err)
	}
	if job.Status.Terminal() {
		// the job was already finished by a previous run
		logger.Warnw("job already terminal, skipping run", "status", job.Status)
		return nil
	}

	// --- Validate ---
	filePath, filename, serr := p.stageValidate(ctx, job, args)
	if serr != nil {
		return p.fail(ctx, job, serr)
	}

	// --- Hash ---
	digest, serr := p.stageHash(ctx, job, filePath)
	if serr != nil {
		return p.fail(ctx, job, serr)
	}

	// --- ExtractMetadata ---
	meta, serr := p.stageExtractMetadata(ctx, job, filePath, filename)
	if serr != nil {
		return p.fail(ctx, job, serr)
	}

	// --- Store ---
	serr = p.stageStore(ctx, job, filePath, filename, digest, meta)
	if serr != nil {
		return p.fail(ctx, job, serr)
	}

	// --- GenerateReport ---
	serr = p.stageGenerateReport(ctx, job)
	if serr != nil {
		return p.fail(ctx, job, serr)
	}

	// --- Complete ---
	if err := p.complete(ctx, job); err != nil {
		return err
	}

	logger.Infow("pipeline completed", "sha256", digest)
	return nil
}

func (p *Pipeline) stageValidate(ctx context.Context, job *model.Job, args RunArgs) (string, string, *StageError) {
	if err := p.advance(ctx, job.ID, StageValidate); err != nil {
		return "", "", newStageError(StageValidate, err)
	}

	filePath, filename := args.FilePath, args.Filename

	if job.Source == model.JobSourceURL {
		if job.OriginalURL == nil || *job.OriginalURL == "" {
			return "", "", newStageError(StageValidate, errors.New("url job has no original url"))
		}
		var err error
		filePath, filename, err = p.downloader.Fetch(ctx, *job.OriginalURL)
		if err != nil {
			return "", "", newStageError(StageValidate, err)
		}
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", "", newStageError(StageValidate, fmt.Errorf("evidence file unavailable: %w", err))
	}
	if info.Size() == 0 {
		return "", "", newStageError(StageValidate, errors.New("evidence file is empty"))
	}
	if filename == "" {
		filename = info.Name()
	}

	// uploads are type-checked at submission; fetched content is only
	// inspectable now
	if job.Source == model.JobSourceURL && len(p.allowedMimes) > 0 {
		detected, err := mimetype.DetectFile(filePath)
		if err != nil {
			return "", "", newStageError(StageValidate, err)
		}
		if !mimeAllowed(p.allowedMimes, detected) {
			return "", "", newStageError(StageValidate,
				fmt.Errorf("fetched content type %q is not accepted", detected.String()))
		}
	}

	return filePath, filename, nil
}

func mimeAllowed(allowed []string, detected *mimetype.MIME) bool {
	for _, candidate := range allowed {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && detected.Is(candidate) {
			return true
		}
	}
	return false
}

func (p *Pipeline) stageHash(ctx context.Context, job *model.Job, filePath string) (string, *StageError) {
	if err := p.advance(ctx, job.ID, StageHash); err != nil {
		return "", newStageError(StageHash, err)
	}

	digest, err := hash.File(filePath)
	if err != nil {
		return "", newStageError(StageHash, err)
	}

	err = p.recordStage(ctx, job.ID, model.CustodyEntry{
		JobID:            job.ID,
		Event:            model.EventHashCalculated,
		InvestigatorID:   job.InvestigatorID,
		Details:          model.MakeJSONField(map[string]any{"algorithm": hash.Algorithm}),
		HashVerification: &digest,
	}, store.JobUpdate{})
	if err != nil {
		return "", newStageError(StageHash, err)
	}

	return digest, nil
}

func (p *Pipeline) stageExtractMetadata(ctx context.Context, job *model.Job, filePath, filename string) (metadata.Metadata, *StageError) {
	if err := p.advance(ctx, job.ID, StageExtractMetadata); err != nil {
		return metadata.Metadata{}, newStageError(StageExtractMetadata, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	meta, err := p.extractor.Extract(callCtx, filePath)
	if err != nil {
		return metadata.Metadata{}, newStageError(StageExtractMetadata, err)
	}
	if filename != "" {
		meta.FileName = filename
	}

	err = p.recordStage(ctx, job.ID, model.CustodyEntry{
		JobID:          job.ID,
		Event:          model.EventMetadataExtracted,
		InvestigatorID: job.InvestigatorID,
		Details: model.MakeJSONField(map[string]any{
			"mime_type": meta.MimeType,
			"file_size": meta.FileSize,
			"file_name": meta.FileName,
		}),
	}, store.JobUpdate{})
	if err != nil {
		return metadata.Metadata{}, newStageError(StageExtractMetadata, err)
	}

	return meta, nil
}

func (p *Pipeline) stageStore(ctx context.Context, job *model.Job, filePath, filename, digest string, meta metadata.Metadata) *StageError {
	if err := p.advance(ctx, job.ID, StageStore); err != nil {
		return newStageError(StageStore, err)
	}

	sidecar := storage.SidecarMetadata{
		Basic: storage.BasicInfo{
			FileName: filename,
			FileSize: meta.FileSize,
			MimeType: meta.MimeType,
		},
		Processing: storage.ProcessingInfo{
			SHA256Hash:     digest,
			InvestigatorID: job.InvestigatorID,
		},
		Source: storage.SourceInfo{
			Kind: string(job.Source),
		},
	}
	if job.OriginalURL != nil {
		sidecar.Source.OriginalURL = *job.OriginalURL
	}

	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	result, err := p.backend.Store(callCtx, filePath, job.ID, sidecar)
	if err != nil {
		return newStageError(StageStore, err)
	}

	// descriptors become visible on the job row only now that the
	// evidence really is in storage
	err = p.recordStage(ctx, job.ID, model.CustodyEntry{
		JobID:          job.ID,
		Event:          model.EventEvidenceStored,
		InvestigatorID: job.InvestigatorID,
		Details: model.MakeJSONField(map[string]any{
			"location": result.Location,
			"backend":  p.backend.Kind(),
		}),
	}, store.JobUpdate{
		FileSize:        &result.Size,
		MimeType:        &meta.MimeType,
		SHA256Hash:      &digest,
		StoragePath:     &result.Path,
		StorageLocation: &result.Location,
		Filename:        &filename,
	})
	if err != nil {
		return newStageError(StageStore, err)
	}

	return nil
}

func (p *Pipeline) stageGenerateReport(ctx context.Context, job *model.Job) *StageError {
	if err := p.advance(ctx, job.ID, StageGenerateReport); err != nil {
		return newStageError(StageGenerateReport, err)
	}

	// re-read so the report reflects the descriptors written by Store
	current, err := p.store.Job().Get(ctx, job.ID)
	if err != nil {
		return newStageError(StageGenerateReport, err)
	}
	entries, err := p.store.Custody().List(ctx, job.ID)
	if err != nil {
		return newStageError(StageGenerateReport, err)
	}

	reportPath, err := p.reports.Generate(current, entries, report.FormatHTML)
	if err != nil {
		return newStageError(StageGenerateReport, err)
	}

	err = p.recordStage(ctx, job.ID, model.CustodyEntry{
		JobID:          job.ID,
		Event:          model.EventReportGenerated,
		InvestigatorID: job.InvestigatorID,
		Details:        model.MakeJSONField(map[string]any{"report_path": reportPath}),
	}, store.JobUpdate{
		ReportPath: &reportPath,
	})
	if err != nil {
		return newStageError(StageGenerateReport, err)
	}

	return nil
}

func (p *Pipeline) complete(ctx context.Context, job *model.Job) error {
	if err := p.advance(ctx, job.ID, StageComplete); err != nil {
		return err
	}

	now := time.Now().UTC()
	completed := model.JobStatusCompleted
	final, err := p.store.Job().Update(ctx, job.ID, store.JobUpdate{
		Status:      &completed,
		CompletedAt: &now,
	})
	if err != nil {
		return fmt.Errorf("completing job %s: %w", job.ID, err)
	}

	metrics.IncJobTerminal(string(model.JobStatusCompleted))
	if p.producer != nil {
		_ = p.producer.Publish(events.JobMessageKind, events.JobEvent{
			JobID:          job.ID.String(),
			Status:         string(model.JobStatusCompleted),
			InvestigatorID: job.InvestigatorID,
			SHA256Hash:     final.SHA256Hash,
		})
	}
	return nil
}

// fail converts a stage error into the terminal job state plus a single
// PIPELINE_FAILED entry and stops. Side effects of completed stages are
// deliberately left as-is: partial evidence plus its partial ledger is
// itself forensically meaningful.
func (p *Pipeline) fail(ctx context.Context, job *model.Job, serr *StageError) error {
	zap.S().Named("pipeline").Errorw("pipeline stage failed",
		"job_id", job.ID, "stage", serr.Stage, "error", serr.Err)
	metrics.IncStageFailure(string(serr.Stage))

	reason := serr.Error()
	failed := model.JobStatusFailed
	err := p.recordStage(ctx, job.ID, model.CustodyEntry{
		JobID:          job.ID,
		Event:          model.EventPipelineFailed,
		InvestigatorID: job.InvestigatorID,
		Details: model.MakeJSONField(map[string]any{
			"stage": string(serr.Stage),
			"error": serr.Err.Error(),
		}),
	}, store.JobUpdate{
		Status: &failed,
		Notes:  &reason,
	})
	if err != nil {
		zap.S().Named("pipeline").Errorw("failed to record pipeline failure", "job_id", job.ID, "error", err)
	}

	metrics.IncJobTerminal(string(model.JobStatusFailed))
	if p.producer != nil {
		_ = p.producer.Publish(events.JobMessageKind, events.JobEvent{
			JobID:          job.ID.String(),
			Status:         string(model.JobStatusFailed),
			InvestigatorID: job.InvestigatorID,
			FailureReason:  &reason,
		})
	}
	return serr
}

// advance moves the stage label and progress forward. Progress is
// monotonic; the store ignores regressions.
func (p *Pipeline) advance(ctx context.Context, jobID uuid.UUID, stage Stage) error {
	return p.store.Job().UpdateProgress(ctx, jobID, string(stage), stageProgress[stage])
}

// recordStage appends a custody entry and applies the job update as one
// transaction. The audit entry is durable before the job row ever
// reflects the stage's completion.
func (p *Pipeline) recordStage(ctx context.Context, jobID uuid.UUID, entry model.CustodyEntry, update store.JobUpdate) error {
	txCtx, err := p.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if _, err := p.store.Custody().Append(txCtx, entry); err != nil {
		_, _ = store.Rollback(txCtx)
		return err
	}

	if update != (store.JobUpdate{}) {
		if _, err := p.store.Job().Update(txCtx, jobID, update); err != nil {
			_, _ = store.Rollback(txCtx)
			return err
		}
	}

	if _, err := store.Commit(txCtx); err != nil {
		return err
	}
	return nil
}
