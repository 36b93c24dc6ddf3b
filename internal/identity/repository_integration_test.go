//go:build integration

package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/testdb"
)

func TestRepository_CreateAndUpdate(t *testing.T) {
	pool := testdb.New(t)
	ctx := context.Background()
	repo := identity.NewRepository(pool)

	u := &models.User{Username: " ana ", Email: "ana@example.com", FirstName: "Ana"}
	require.NoError(t, repo.Create(ctx, u, "s3cret!"))
	assert.Equal(t, "ana", u.Username)
	assert.True(t, u.IsActive)
	assert.True(t, identity.CheckPassword("s3cret!", u.Password))

	err := repo.Create(ctx, &models.User{Username: "ana"}, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	u.Username = "ana.souza"
	u.LastName = "Souza"
	require.NoError(t, repo.Update(ctx, u))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana.souza", got.Username)
	assert.Equal(t, "Souza", got.LastName)
	assert.Equal(t, "ana@example.com", got.Email)

	other := &models.User{Username: "bia"}
	require.NoError(t, repo.Create(ctx, other, ""))
	assert.Empty(t, other.Password)
	other.Username = "ana.souza"
	assert.ErrorIs(t, repo.Update(ctx, other), models.ErrValidation)

	missing := &models.User{ID: uuid.New(), Username: "ghost"}
	assert.ErrorIs(t, repo.Update(ctx, missing), models.ErrNotFound)
}
