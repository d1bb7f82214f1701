package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forensys/evidence-custody/internal/events"
	"github.com/forensys/evidence-custody/internal/hash"
	"github.com/forensys/evidence-custody/internal/storage"
	"github.com/forensys/evidence-custody/internal/store"
	"github.com/forensys/evidence-custody/internal/store/model"
	"github.com/forensys/evidence-custody/pkg/metrics"
)

// VerificationResult is the outcome of re-hashing stored evidence
// against the hash recorded at acquisition time.
type VerificationResult struct {
	JobID        uuid.UUID
	OriginalHash string
	CurrentHash  string
	Matches      bool
	VerifiedAt   time.Time
}

// Verifier re-reads stored evidence and compares its current hash with
// the one recorded during the pipeline run. Every check, pass or fail,
// leaves an INTEGRITY_VERIFICATION entry in the ledger.
type Verifier struct {
	store    store.Store
	backend  storage.Backend
	producer *events.Producer
}

func NewVerifier(s store.Store, backend storage.Backend, producer *events.Producer) *Verifier {
	return &Verifier{store: s, backend: backend, producer: producer}
}

// Verify runs an on-demand integrity check for a job. The job must have
// completed its pipeline: without a recorded hash and stored evidence
// there is nothing to verify.
func (v *Verifier) Verify(ctx context.Context, job *model.Job, verifiedBy string) (*VerificationResult, error) {
	if job.SHA256Hash == nil || *job.SHA256Hash == "" {
		return nil, fmt.Errorf("job %s has no recorded hash", job.ID)
	}

	retrieved, err := v.backend.Retrieve(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("retrieving evidence for job %s: %w", job.ID, err)
	}
	if retrieved == nil {
		return nil, fmt.Errorf("no stored evidence for job %s", job.ID)
	}

	currentHash, err := hash.File(retrieved.Path)
	if err != nil {
		return nil, fmt.Errorf("hashing stored evidence for job %s: %w", job.ID, err)
	}

	result := &VerificationResult{
		JobID:        job.ID,
		OriginalHash: *job.SHA256Hash,
		CurrentHash:  currentHash,
		Matches:      currentHash == *job.SHA256Hash,
		VerifiedAt:   time.Now().UTC(),
	}

	entry := model.CustodyEntry{
		JobID:          job.ID,
		Timestamp:      result.VerifiedAt,
		Event:          model.EventIntegrityVerification,
		InvestigatorID: verifiedBy,
		Details: model.MakeJSONField(map[string]any{
			"original_hash": result.OriginalHash,
			"current_hash":  result.CurrentHash,
			"matches":       result.Matches,
			"verified_by":   verifiedBy,
		}),
		HashVerification: &currentHash,
	}
	if _, err := v.store.Custody().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording verification for job %s: %w", job.ID, err)
	}

	metrics.IncVerification(result.Matches)
	if !result.Matches {
		zap.S().Named("verifier").Warnw("integrity verification mismatch",
			"job_id", job.ID, "original_hash", result.OriginalHash, "current_hash", currentHash)
	}
	if v.producer != nil {
		_ = v.producer.Publish(events.VerificationMessageKind, events.VerificationEvent{
			JobID:        job.ID.String(),
			OriginalHash: result.OriginalHash,
			CurrentHash:  result.CurrentHash,
			Matches:      result.Matches,
			VerifiedAt:   result.VerifiedAt,
		})
	}

	return result, nil
}
