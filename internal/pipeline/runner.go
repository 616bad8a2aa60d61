package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds one full analysis run, LLM calls included.
const DefaultJobTimeout = 5 * time.Minute

// Runner executes analysis runs in the background. Jobs are accepted
// onto a bounded queue and drained by a fixed pool of workers, so a
// submission request returns as soon as the job row exists.
type Runner struct {
	pipeline *Pipeline
	jobs     chan uuid.UUID
	timeout  time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner creates a runner with the given worker count and queue
// capacity. Zero or negative values fall back to one worker and a
// queue of 64.
func NewRunner(p *Pipeline, workers, queueSize int, timeout time.Duration, log *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	r := &Runner{
		pipeline: p,
		jobs:     make(chan uuid.UUID, queueSize),
		timeout:  timeout,
		log:      log,
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}
	return r
}

// Enqueue submits a job for background analysis. Returns false when
// the queue is full or the runner has been stopped; the job stays
// QUEUED and can be resubmitted.
func (r *Runner) Enqueue(jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.jobs <- jobID:
		return true
	default:
		r.log.Warn("job queue full, submission not scheduled",
			zap.String("jobId", jobID.String()))
		return false
	}
}

// Stop drains the queue and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) work() {
	defer r.wg.Done()
	for jobID := range r.jobs {
		// Runs are decoupled from the submitting request's lifetime.
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.pipeline.Run(ctx, jobID); err != nil {
			r.log.Error("background run failed",
				zap.String("jobId", jobID.String()), zap.Error(err))
		}
		cancel()
	}
}
