package events

import "time"

// JobEvent announces a job reaching a terminal state.
type JobEvent struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	InvestigatorID string  `json:"investigator_id"`
	SHA256Hash     *string `json:"sha256_hash,omitempty"`
	FailureReason  *string `json:"failure_reason,omitempty"`
}

// VerificationEvent announces an integrity verification outcome.
type VerificationEvent struct {
	JobID        string    `json:"job_id"`
	OriginalHash string    `json:"original_hash"`
	CurrentHash  string    `json:"current_hash"`
	Matches      bool      `json:"matches"`
	VerifiedAt   time.Time `json:"verified_at"`
}
