package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/pkg/queue"
)

type chanQueue struct {
	jobs    chan *queue.Job
	mu      sync.Mutex
	retried []*queue.Job
}

func (q *chanQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	select {
	case job := <-q.jobs:
		return job, "test", nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, "", nil
	}
}

func (q *chanQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retried = append(q.retried, job)
	return nil
}

func (q *chanQueue) retries() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.retried)
}

type processorFunc func(ctx context.Context, job *queue.Job) error

func (f processorFunc) Process(ctx context.Context, job *queue.Job) error { return f(ctx, job) }

func TestDispatcher_Process(t *testing.T) {
	d := NewDispatcher(&chanQueue{}, nil)
	var got queue.JobType
	d.Handle(queue.JobTypeReportExport, processorFunc(func(_ context.Context, job *queue.Job) error {
		got = job.Type
		return nil
	}))

	require.NoError(t, d.Process(context.Background(), &queue.Job{Type: queue.JobTypeReportExport}))
	assert.Equal(t, queue.JobTypeReportExport, got)

	err := d.Process(context.Background(), &queue.Job{Type: queue.JobTypeBulkImport})
	assert.ErrorIs(t, err, queue.ErrUnknownJobType)
}

func TestDispatcher_RunRetriesFailures(t *testing.T) {
	q := &chanQueue{jobs: make(chan *queue.Job, 2)}
	d := NewDispatcher(q, nil)
	d.backoff = time.Millisecond

	done := make(chan string, 2)
	d.Handle(queue.JobTypeReportExport, processorFunc(func(_ context.Context, job *queue.Job) error {
		done <- job.ID
		return nil
	}))
	d.Handle(queue.JobTypeBulkImport, processorFunc(func(_ context.Context, job *queue.Job) error {
		done <- job.ID
		return errors.New("boom")
	}))

	q.jobs <- &queue.Job{ID: "ok", Type: queue.JobTypeReportExport}
	q.jobs <- &queue.Job{ID: "bad", Type: queue.JobTypeBulkImport}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed")
		}
	}
	assert.Eventually(t, func() bool { return q.retries() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, "bad", q.retried[0].ID)
}
