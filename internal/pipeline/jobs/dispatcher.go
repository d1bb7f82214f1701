package jobs

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/forensys/evidence-custody/internal/pipeline"
	"github.com/forensys/evidence-custody/pkg/metrics"
)

const (
	DispatchPathQueue  = "queue"
	DispatchPathInline = "inline"
)

var ErrDispatchUnavailable = errors.New("no dispatch path available")

// Enqueuer hands a pipeline run to the durable queue. Satisfied by
// *Client.
type Enqueuer interface {
	InsertJob(ctx context.Context, args EvidenceArgs) (int64, error)
}

// Dispatcher hands a submitted job to exactly one execution path. The
// durable queue is preferred; when the synchronous enqueue fails, or no
// queue is configured, the pipeline runs in-process instead. A job is
// never handed to both paths: the enqueue either returned an id or an
// error, and only the error branch falls back.
type Dispatcher struct {
	client   Enqueuer
	runner   Runner
	fallback bool

	wg  sync.WaitGroup
	sem chan struct{}
}

// NewDispatcher builds the adapter. client may be nil when the queue is
// disabled; fallback controls whether in-process execution is allowed
// when the queue path fails.
func NewDispatcher(client Enqueuer, runner Runner, fallback bool, maxInline int) *Dispatcher {
	if maxInline <= 0 {
		maxInline = 4
	}
	return &Dispatcher{
		client:   client,
		runner:   runner,
		fallback: fallback,
		sem:      make(chan struct{}, maxInline),
	}
}

// Dispatch routes one pipeline run. The returned path names the branch
// that took the job.
func (d *Dispatcher) Dispatch(ctx context.Context, args pipeline.RunArgs) (string, error) {
	logger := zap.S().Named("dispatcher").With("job_id", args.JobID)

	if d.client != nil {
		jobID, err := d.client.InsertJob(ctx, EvidenceArgs{RunArgs: args})
		if err == nil {
			logger.Infow("job enqueued", "river_job_id", jobID)
			metrics.IncDispatch(DispatchPathQueue)
			return DispatchPathQueue, nil
		}
		logger.Warnw("enqueue failed", "error", err)
		if !d.fallback {
			return "", err
		}
	} else if !d.fallback {
		return "", ErrDispatchUnavailable
	}

	d.runInline(args)
	metrics.IncDispatch(DispatchPathInline)
	return DispatchPathInline, nil
}

// runInline executes the pipeline on a background goroutine detached
// from the request context. Concurrency is capped so a queue outage
// cannot fork an unbounded number of pipelines.
func (d *Dispatcher) runInline(args pipeline.RunArgs) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		if err := d.runner.Run(context.Background(), args); err != nil {
			zap.S().Named("dispatcher").Errorw("inline pipeline run failed",
				"job_id", args.JobID, "error", err)
		}
	}()
}

// Wait blocks until all inline runs have finished. Used during
// shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
