package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventhub/backend/pkg/queue"
)

// Processor executes one job of a given type.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// JobQueue is the queue surface the dispatcher consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Dispatcher routes dequeued jobs to the processor registered for their type.
type Dispatcher struct {
	queue      JobQueue
	processors map[queue.JobType]Processor
	backoff    time.Duration
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher over q.
func NewDispatcher(q JobQueue, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:      q,
		processors: make(map[queue.JobType]Processor),
		backoff:    queue.RetryBackoff,
		logger:     logger,
	}
}

// Handle registers p for jobs of type t.
func (d *Dispatcher) Handle(t queue.JobType, p Processor) {
	d.processors[t] = p
}

// Process runs job on its registered processor.
func (d *Dispatcher) Process(ctx context.Context, job *queue.Job) error {
	p, ok := d.processors[job.Type]
	if !ok {
		return fmt.Errorf("%w: %s", queue.ErrUnknownJobType, job.Type)
	}
	return p.Process(ctx, job)
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("worker stopping")
			return
		default:
		}

		job, _, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			d.logger.Warn("dequeue error", zap.Error(err))
			d.wait(ctx)
			continue
		}
		if job == nil {
			continue
		}

		d.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := d.Process(ctx, job); err != nil {
			d.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := d.queue.Retry(ctx, job); reErr != nil {
				d.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			d.wait(ctx)
			continue
		}
		d.logger.Info("job completed", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	}
}

func (d *Dispatcher) wait(ctx context.Context) {
	t := time.NewTimer(d.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
