package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"logsift/internal/logger"
	"logsift/internal/models"
)

// ErrQueueFull is returned by Submit when the task buffer is at capacity.
// Callers surface it as back-pressure instead of blocking the upload path.
var ErrQueueFull = errors.New("worker queue is full")

// statusWriteTimeout bounds the final job-state write when the pool context
// is already gone.
const statusWriteTimeout = 5 * time.Second

// Task is one unit of ingest work: a raw uploaded file bound to a job.
type Task struct {
	JobID    string
	Filename string
	Content  string
}

// Processor runs the parse→score→persist pipeline over one file's content
// and reports how many records it produced.
type Processor interface {
	ProcessFile(ctx context.Context, jobID, content string) (int, error)
}

// JobStatusStore is the narrow job-state surface the pool needs. The
// repository's JobRepo satisfies it.
type JobStatusStore interface {
	SetStatus(ctx context.Context, id, status string) error
	Complete(ctx context.Context, id string, processedCount int) error
	Fail(ctx context.Context, id, reason string) error
}

// Pool is a bounded in-process job queue with a fixed set of workers. The
// pipeline itself is synchronous and stateless; all concurrency lives here.
type Pool struct {
	tasks     chan Task
	processor Processor
	jobs      JobStatusStore
	log       *logger.Logger
	wg        sync.WaitGroup
	workers   int
}

// NewPool sizes the queue and worker set. workers and queueSize below 1 are
// raised to 1.
func NewPool(processor Processor, jobs JobStatusStore, log *logger.Logger, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		tasks:     make(chan Task, queueSize),
		processor: processor,
		jobs:      jobs,
		log:       log,
		workers:   workers,
	}
}

// Start launches the workers. They exit when ctx is canceled; tasks already
// picked up run to completion, queued-but-unstarted tasks stay queued.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until every worker has returned. Call after canceling the
// Start context during shutdown.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(t Task) error {
	select {
	case p.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.tasks:
			p.process(ctx, id, t)
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, t Task) {
	started := time.Now()
	if err := p.jobs.SetStatus(ctx, t.JobID, models.JobProcessing); err != nil {
		p.log.Errorw("job_status_update_failed", "job_id", t.JobID, "err", err)
	}

	count, err := p.processor.ProcessFile(ctx, t.JobID, t.Content)

	statusCtx, cancel := p.statusCtx(ctx)
	defer cancel()

	if err != nil {
		p.log.Errorw("job_failed", "worker", workerID, "job_id", t.JobID, "filename", t.Filename, "err", err)
		if ferr := p.jobs.Fail(statusCtx, t.JobID, err.Error()); ferr != nil {
			p.log.Errorw("job_fail_record_failed", "job_id", t.JobID, "err", ferr)
		}
		return
	}

	if cerr := p.jobs.Complete(statusCtx, t.JobID, count); cerr != nil {
		p.log.Errorw("job_complete_record_failed", "job_id", t.JobID, "err", cerr)
		return
	}
	p.log.Infow("job_completed",
		"worker", workerID,
		"job_id", t.JobID,
		"filename", t.Filename,
		"processed", count,
		"took", time.Since(started),
	)
}

// statusCtx returns ctx while it is alive, or a short detached context so a
// job's final state can still be recorded during shutdown.
func (p *Pool) statusCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.Background(), statusWriteTimeout)
}
