package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueReports is the Redis list key for report export jobs.
	QueueReports = "worker:reports"
	// QueueImports is the Redis list key for bulk import jobs.
	QueueImports = "worker:imports"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// PollTimeout bounds one blocking pop so the worker can observe shutdown.
	PollTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeReportExport JobType = "report_export"
	JobTypeBulkImport   JobType = "bulk_import"
)

// ErrUnknownJobType is returned for a job type with no queue.
var ErrUnknownJobType = errors.New("unknown job type")

// ReportExportPayload is the payload for report export jobs.
type ReportExportPayload struct {
	ReportID uuid.UUID `json:"report_id"`
	EventID  uuid.UUID `json:"event_id"`
}

// BulkImportPayload is the payload for bulk import jobs.
type BulkImportPayload struct {
	RequestedBy uuid.UUID       `json:"requested_by"`
	Document    json.RawMessage `json:"document"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

// QueueFor returns the list key a job type is pushed to.
func QueueFor(t JobType) (string, error) {
	switch t {
	case JobTypeReportExport:
		return QueueReports, nil
	case JobTypeBulkImport:
		return QueueImports, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJobType, t)
	}
}

// NewJob wraps payload in a fresh envelope.
func NewJob(t JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now(),
	}, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client redis.Cmdable, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// Enqueue pushes a job of type t onto its queue.
func (q *Queue) Enqueue(ctx context.Context, t JobType, payload any) (*Job, error) {
	key, err := QueueFor(t)
	if err != nil {
		return nil, err
	}
	job, err := NewJob(t, payload)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return nil, fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(t)))
	return job, nil
}

// EnqueueReportExport enqueues a report export job.
func (q *Queue) EnqueueReportExport(ctx context.Context, payload ReportExportPayload) (*Job, error) {
	return q.Enqueue(ctx, JobTypeReportExport, payload)
}

// EnqueueBulkImport enqueues a bulk import job.
func (q *Queue) EnqueueBulkImport(ctx context.Context, payload BulkImportPayload) (*Job, error) {
	return q.Enqueue(ctx, JobTypeBulkImport, payload)
}

// Dequeue blocks up to PollTimeout for a job on any work queue. It returns a nil job
// when nothing arrived or the entry could not be decoded.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, PollTimeout, QueueReports, QueueImports).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	key, err := QueueFor(job.Type)
	if err != nil || job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
