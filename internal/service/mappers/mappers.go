// Package mappers converts between persistence models and API wire
// types.
package mappers

import (
	v1alpha1 "github.com/forensys/evidence-custody/api/v1alpha1"
	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/internal/store/model"
)

func JobStatusToApi(job *model.Job) v1alpha1.JobStatusReply {
	reply := v1alpha1.JobStatusReply{
		JobID:     job.ID,
		Status:    v1alpha1.JobStatus(job.Status),
		Stage:     job.Stage,
		Progress:  job.Progress,
		CreatedAt: job.CreatedAt,
	}
	if !job.UpdatedAt.IsZero() {
		updatedAt := job.UpdatedAt
		reply.UpdatedAt = &updatedAt
	}
	return reply
}

func JobListToApi(jobs model.JobList) v1alpha1.JobList {
	items := make([]v1alpha1.JobStatusReply, 0, len(jobs))
	for i := range jobs {
		items = append(items, JobStatusToApi(&jobs[i]))
	}
	return v1alpha1.JobList{Items: items}
}

func CustodyEntryToApi(entry *model.CustodyEntry) v1alpha1.CustodyEntry {
	return v1alpha1.CustodyEntry{
		JobID:            entry.JobID,
		Timestamp:        entry.Timestamp,
		Event:            entry.Event,
		InvestigatorID:   entry.InvestigatorID,
		Details:          entry.DetailsMap(),
		HashVerification: entry.HashVerification,
	}
}

func JobDetailsToApi(job *model.Job, entries []model.CustodyEntry) v1alpha1.JobDetailsReply {
	chain := make([]v1alpha1.CustodyEntry, 0, len(entries))
	for i := range entries {
		chain = append(chain, CustodyEntryToApi(&entries[i]))
	}

	return v1alpha1.JobDetailsReply{
		JobID:          job.ID,
		Status:         v1alpha1.JobStatus(job.Status),
		Source:         v1alpha1.JobSource(job.Source),
		InvestigatorID: job.InvestigatorID,
		CaseNumber:     job.CaseNumber,
		Notes:          job.Notes,
		OriginalURL:    job.OriginalURL,
		Metadata: v1alpha1.EvidenceMetadata{
			FileName:   job.Filename,
			FileSize:   job.FileSize,
			MimeType:   job.MimeType,
			SHA256Hash: job.SHA256Hash,
		},
		ChainOfCustody:  chain,
		StorageLocation: job.StorageLocation,
		CreatedAt:       job.CreatedAt,
		CompletedAt:     job.CompletedAt,
	}
}

func VerificationToApi(result *pipeline.VerificationResult, verifiedBy string) v1alpha1.VerificationReply {
	return v1alpha1.VerificationReply{
		JobID:        result.JobID,
		OriginalHash: result.OriginalHash,
		CurrentHash:  result.CurrentHash,
		Matches:      result.Matches,
		VerifiedBy:   verifiedBy,
		VerifiedAt:   result.VerifiedAt,
	}
}
