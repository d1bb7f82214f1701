package model

import (
	"encoding/json"
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

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type JobSource string

const (
	JobSourceURL         JobSource = "url"
	JobSourceLocalUpload JobSource = "local_upload"
)

// Job is one unit of evidence-processing work. The persisted row is
// authoritative; nothing about a job lives only in memory.
type Job struct {
	ID       uuid.UUID `gorm:"primaryKey"`
	Status   JobStatus `gorm:"index;type:VARCHAR(20);not null"`
	Stage    string    `gorm:"type:VARCHAR(50)"`
	Progress float64

	Source      JobSource `gorm:"type:VARCHAR(20);not null"`
	OriginalURL *string
	Filename    *string

	// Evidence descriptors, populated once the pipeline collects them.
	FileSize        *int64
	MimeType        *string `gorm:"type:VARCHAR(100)"`
	SHA256Hash      *string `gorm:"index;type:VARCHAR(64)"`
	StoragePath     *string
	StorageLocation *string
	ReportPath      *string

	InvestigatorID string `gorm:"index;type:VARCHAR(255);not null"`
	CaseNumber     *string
	Notes          *string

	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
