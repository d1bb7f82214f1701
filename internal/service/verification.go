package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/service/mappers"
	"github.com/forensys/evidence-custody/internal/store"
)

// VerificationService runs on-demand integrity checks against stored
// evidence.
type VerificationService struct {
	store    store.Store
	verifier *pipeline.Verifier
}

func NewVerificationService(s store.Store, verifier *pipeline.Verifier) *VerificationService {
	return &VerificationService{store: s, verifier: verifier}
}

// Verify re-hashes the stored evidence of a job. Failed jobs qualify
// too as long as their evidence reached storage; the check itself is
// recorded in the ledger whatever its outcome. When no investigator is
// named the check is attributed to the job's own investigator.
func (s *VerificationService) Verify(ctx context.Context, jobID uuid.UUID, verifiedBy string) (*v1alpha1.VerificationReply, error) {
	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}
	if job.SHA256Hash == nil || job.StoragePath == nil {
		return nil, NewErrEvidenceNotReady(jobID)
	}
	if verifiedBy == "" {
		verifiedBy = job.InvestigatorID
	}

	result, err := s.verifier.Verify(ctx, job, verifiedBy)
	if err != nil {
		return nil, err
	}

	reply := mappers.VerificationToApi(result, verifiedBy)
	return &reply, nil
}
