package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"

	"github.com/forensys/evidence-custody/internal/pipeline"
)

const workTimeout = 30 * time.Minute

// Runner executes one full pipeline for a job. Satisfied by
// *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, args pipeline.RunArgs) error
}

// EvidenceWorker runs queued pipeline jobs.
type EvidenceWorker struct {
	river.WorkerDefaults[EvidenceArgs]
	runner Runner
}

func NewEvidenceWorker(runner Runner) *EvidenceWorker {
	return &EvidenceWorker{runner: runner}
}

func (w *EvidenceWorker) Timeout(job *river.Job[EvidenceArgs]) time.Duration {
	return workTimeout
}

func (w *EvidenceWorker) Work(ctx context.Context, job *river.Job[EvidenceArgs]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.runner.Run(ctx, job.Args.RunArgs)
}
