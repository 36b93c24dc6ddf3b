//go:build integration

package queue

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestQueue_EnqueueDequeueRetry(t *testing.T) {
	ctx := context.Background()
	client := newRedis(t)
	q := NewQueue(client, nil)

	sent, err := q.EnqueueReportExport(ctx, ReportExportPayload{ReportID: uuid.New(), EventID: uuid.New()})
	require.NoError(t, err)

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueReports, key)
	assert.Equal(t, sent.ID, job.ID)

	for attempt := 1; attempt < MaxRetries; attempt++ {
		require.NoError(t, q.Retry(ctx, job))
		job, key, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, QueueReports, key)
		assert.Equal(t, attempt, job.Attempt)
	}

	require.NoError(t, q.Retry(ctx, job))
	n, err := client.LLen(ctx, QueueDLQ).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = client.LLen(ctx, QueueReports).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
