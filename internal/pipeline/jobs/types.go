// Package jobs dispatches pipeline runs, either through the durable
// river queue or directly in-process when the queue is unavailable.
package jobs

import (
	"github.com/riverqueue/river"

	"github.com/forensys/evidence-custody/internal/pipeline"
)

const (
	DefaultQueue = "evidence"
	JobKind      = "evidence_pipeline"

	// A failed acquisition is never silently re-run; the ledger records
	// the failure and an investigator decides what happens next.
	MaxJobAttempts = 1
)

// EvidenceArgs is the payload stored in river_job.args as JSON. It
// carries only references; evidence bytes stay on the spool or at the
// source URL.
type EvidenceArgs struct {
	pipeline.RunArgs
}

func (EvidenceArgs) Kind() string {
	return JobKind
}

func (EvidenceArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobAttempts,
	}
}
