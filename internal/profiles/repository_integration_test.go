//go:build integration

package profiles_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/profiles"
	"github.com/eventhub/backend/internal/testdb"
)

type failingHook struct{}

func (failingHook) AfterSave(context.Context, pgx.Tx, *models.Profile) error {
	return errors.New("hook exploded")
}

func TestSave_SyncsGroupsInTransaction(t *testing.T) {
	pool := testdb.New(t)
	ctx := context.Background()
	users := identity.NewRepository(pool)
	groups := identity.NewGroupStore(pool)
	repo := profiles.NewRepository(pool, profiles.NewGroupSync("participants", "organizers", nil))

	u, _, err := users.GetOrCreate(ctx, "ana", models.UserDefaults{})
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, &models.Profile{UserID: u.ID, Role: models.RoleGuest}))
	names, err := groups.GroupsOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"participants"}, names)

	require.NoError(t, repo.Save(ctx, &models.Profile{UserID: u.ID, Role: models.RoleOrganizer}))
	names, err = groups.GroupsOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"organizers"}, names)
	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStaff)

	// Saving twice changes nothing.
	require.NoError(t, repo.Save(ctx, &models.Profile{UserID: u.ID, Role: models.RoleOrganizer}))
	names, err = groups.GroupsOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"organizers"}, names)
}

func TestSave_HookFailureRollsBack(t *testing.T) {
	pool := testdb.New(t)
	ctx := context.Background()
	users := identity.NewRepository(pool)
	groups := identity.NewGroupStore(pool)
	repo := profiles.NewRepository(pool, profiles.NewGroupSync("participants", "organizers", nil), failingHook{})

	u, _, err := users.GetOrCreate(ctx, "ana", models.UserDefaults{})
	require.NoError(t, err)

	err = repo.Save(ctx, &models.Profile{UserID: u.ID, Role: models.RoleOrganizer})
	assert.ErrorIs(t, err, models.ErrDependencyUnavailable)

	_, err = repo.Get(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	names, err := groups.GroupsOf(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsStaff)
}

func TestSave_UnknownUser(t *testing.T) {
	pool := testdb.New(t)
	repo := profiles.NewRepository(pool, profiles.NewGroupSync("participants", "organizers", nil))

	err := repo.Save(context.Background(), &models.Profile{UserID: uuid.New(), Role: models.RoleGuest})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
