// Package v1alpha1 contains the wire types of the custody API.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type JobSource string

const (
	JobSourceURL         JobSource = "url"
	JobSourceLocalUpload JobSource = "local_upload"
)

// URLJobCreate is the body of POST /jobs/url.
type URLJobCreate struct {
	URL            string  `json:"url" validate:"required,http_url,source_domain"`
	InvestigatorID string  `json:"investigator_id" validate:"required,investigator"`
	CaseNumber     *string `json:"case_number,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// UploadJobCreate describes an uploaded evidence submission. It is
// assembled from the multipart form rather than decoded from JSON.
type UploadJobCreate struct {
	Filename       string  `json:"filename" validate:"required,evidence_ext"`
	SizeBytes      int64   `json:"size_bytes" validate:"gt=0,upload_size"`
	InvestigatorID string  `json:"investigator_id" validate:"required,investigator"`
	CaseNumber     *string `json:"case_number,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// JobStatusReply is returned by the submit endpoints and the status query.
type JobStatusReply struct {
	JobID     uuid.UUID  `json:"job_id"`
	Status    JobStatus  `json:"status"`
	Stage     string     `json:"stage,omitempty"`
	Progress  float64    `json:"progress"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CustodyEntry is one immutable chain-of-custody event.
type CustodyEntry struct {
	JobID            uuid.UUID      `json:"job_id"`
	Timestamp        time.Time      `json:"timestamp"`
	Event            string         `json:"event"`
	InvestigatorID   string         `json:"investigator_id"`
	Details          map[string]any `json:"details,omitempty"`
	HashVerification *string        `json:"hash_verification,omitempty"`
}

// EvidenceMetadata summarizes the descriptors collected during processing.
type EvidenceMetadata struct {
	FileName   *string `json:"file_name,omitempty"`
	FileSize   *int64  `json:"file_size,omitempty"`
	MimeType   *string `json:"mime_type,omitempty"`
	SHA256Hash *string `json:"sha256_hash,omitempty"`
}

type JobDetailsReply struct {
	JobID           uuid.UUID        `json:"job_id"`
	Status          JobStatus        `json:"status"`
	Source          JobSource        `json:"source"`
	InvestigatorID  string           `json:"investigator_id"`
	CaseNumber      *string          `json:"case_number,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	OriginalURL     *string          `json:"original_url,omitempty"`
	Metadata        EvidenceMetadata `json:"metadata"`
	ChainOfCustody  []CustodyEntry   `json:"chain_of_custody"`
	StorageLocation *string          `json:"storage_location,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

type VerificationReply struct {
	JobID        uuid.UUID `json:"job_id"`
	OriginalHash string    `json:"original_hash"`
	CurrentHash  string    `json:"current_hash"`
	Matches      bool      `json:"matches"`
	VerifiedBy   string    `json:"verified_by"`
	VerifiedAt   time.Time `json:"verified_at"`
}

type AnalyticsReply struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	PendingJobs   int64 `json:"pending_jobs"`
}

type JobList struct {
	Items []JobStatusReply `json:"items"`
}

// Error is the common error body.
type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}
