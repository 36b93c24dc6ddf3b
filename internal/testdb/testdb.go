//go:build integration

// Package testdb starts a throwaway PostgreSQL for integration tests.
package testdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/eventhub/backend/pkg/database"
)

var (
	mu  sync.Mutex
	dsn string
)

// New returns a pool on a migrated database with every table emptied.
// The container is shared by all tests of the package.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	mu.Lock()
	if dsn == "" {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("eventhub_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			mu.Unlock()
			require.NoError(t, err, "start postgres container")
		}
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			mu.Unlock()
			require.NoError(t, err, "container connection string")
		}
	}
	mu.Unlock()

	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 20}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE report_exports, registrations, activities, events, user_groups, groups, profiles, users CASCADE`)
	require.NoError(t, err)
	return pool
}
