package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Chain-of-custody event vocabulary.
const (
	EventHashCalculated        = "HASH_CALCULATED"
	EventMetadataExtracted     = "METADATA_EXTRACTED"
	EventEvidenceStored        = "EVIDENCE_STORED"
	EventReportGenerated       = "REPORT_GENERATED"
	EventIntegrityVerification = "INTEGRITY_VERIFICATION"
	EventPipelineFailed        = "PIPELINE_FAILED"
)

// CustodyEntry is one immutable audit record. Rows are appended and read,
// never updated or deleted; the store exposes no mutation beyond Append.
type CustodyEntry struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"`
	JobID            uuid.UUID `gorm:"index:custody_job_id_idx;not null"`
	Timestamp        time.Time `gorm:"not null"`
	Event            string    `gorm:"type:VARCHAR(50);not null"`
	InvestigatorID   string    `gorm:"type:VARCHAR(255)"`
	Details          *JSONField[map[string]any] `gorm:"type:jsonb"`
	HashVerification *string   `gorm:"type:VARCHAR(64)"`
}

type CustodyEntryList []CustodyEntry

func (e CustodyEntry) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}

// DetailsMap returns the structured payload, never nil.
func (e CustodyEntry) DetailsMap() map[string]any {
	if e.Details == nil {
		return map[string]any{}
	}
	return e.Details.Data
}
