package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/models"
)

type membership struct {
	userID  uuid.UUID
	groupID int64
}

// fakeGroups is an in-memory MembershipStore.
type fakeGroups struct {
	groups  map[string]int64
	members map[membership]bool
	staff   map[uuid.UUID]bool
	failAdd error
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{
		groups:  map[string]int64{},
		members: map[membership]bool{},
		staff:   map[uuid.UUID]bool{},
	}
}

func (f *fakeGroups) EnsureGroup(_ context.Context, name string) (int64, error) {
	if id, ok := f.groups[name]; ok {
		return id, nil
	}
	id := int64(len(f.groups) + 1)
	f.groups[name] = id
	return id, nil
}

func (f *fakeGroups) AddMember(_ context.Context, userID uuid.UUID, groupID int64) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.members[membership{userID, groupID}] = true
	return nil
}

func (f *fakeGroups) RemoveMember(_ context.Context, userID uuid.UUID, groupID int64) error {
	delete(f.members, membership{userID, groupID})
	return nil
}

func (f *fakeGroups) SetStaff(_ context.Context, userID uuid.UUID, staff bool) error {
	f.staff[userID] = staff
	return nil
}

func (f *fakeGroups) in(userID uuid.UUID, name string) bool {
	id, ok := f.groups[name]
	return ok && f.members[membership{userID, id}]
}

func TestGroupSync_Partitions(t *testing.T) {
	tests := []struct {
		role      models.Role
		general   bool
		staff     bool
		staffFlag bool
	}{
		{models.RoleParticipant, true, false, false},
		{models.RoleGuest, true, false, false},
		{models.RoleOther, true, false, false},
		{models.RoleOrganizer, false, true, true},
		{models.Role("sponsor"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			store := newFakeGroups()
			sync := NewGroupSync("participants", "organizers", nil)
			userID := uuid.New()

			require.NoError(t, sync.Apply(context.Background(), store, &models.Profile{UserID: userID, Role: tt.role}))

			assert.Equal(t, tt.general, store.in(userID, "participants"))
			assert.Equal(t, tt.staff, store.in(userID, "organizers"))
			assert.Equal(t, tt.staffFlag, store.staff[userID])
			assert.Len(t, store.groups, 2, "both groups exist after any sync")
		})
	}
}

func TestGroupSync_RoleChangeMovesUser(t *testing.T) {
	store := newFakeGroups()
	sync := NewGroupSync("participants", "organizers", nil)
	userID := uuid.New()
	ctx := context.Background()

	require.NoError(t, sync.Apply(ctx, store, &models.Profile{UserID: userID, Role: models.RoleParticipant}))
	require.NoError(t, sync.Apply(ctx, store, &models.Profile{UserID: userID, Role: models.RoleOrganizer}))
	assert.False(t, store.in(userID, "participants"))
	assert.True(t, store.in(userID, "organizers"))

	// Moving back to general leaves the staff flag as it was.
	require.NoError(t, sync.Apply(ctx, store, &models.Profile{UserID: userID, Role: models.RoleGuest}))
	assert.True(t, store.in(userID, "participants"))
	assert.False(t, store.in(userID, "organizers"))
	assert.True(t, store.staff[userID])
}

func TestGroupSync_Idempotent(t *testing.T) {
	store := newFakeGroups()
	sync := NewGroupSync("participants", "organizers", nil)
	p := &models.Profile{UserID: uuid.New(), Role: models.RoleOrganizer}
	ctx := context.Background()

	require.NoError(t, sync.Apply(ctx, store, p))
	groups, members := len(store.groups), len(store.members)
	require.NoError(t, sync.Apply(ctx, store, p))

	assert.Equal(t, groups, len(store.groups))
	assert.Equal(t, members, len(store.members))
	assert.True(t, store.in(p.UserID, "organizers"))
}

func TestGroupSync_NeverInBoth(t *testing.T) {
	store := newFakeGroups()
	sync := NewGroupSync("participants", "organizers", nil)
	userID := uuid.New()
	roles := []models.Role{
		models.RoleOrganizer, models.RoleParticipant, models.RoleOrganizer,
		models.Role("unknown"), models.RoleGuest, models.RoleOther, models.RoleOrganizer,
	}
	for _, r := range roles {
		require.NoError(t, sync.Apply(context.Background(), store, &models.Profile{UserID: userID, Role: r}))
		assert.False(t, store.in(userID, "participants") && store.in(userID, "organizers"), "role %s", r)
	}
}

func TestGroupSync_StoreFailure(t *testing.T) {
	store := newFakeGroups()
	store.failAdd = models.Unavailable("add group member", errors.New("connection reset"))
	sync := NewGroupSync("participants", "organizers", nil)

	err := sync.Apply(context.Background(), store, &models.Profile{UserID: uuid.New(), Role: models.RoleGuest})
	assert.ErrorIs(t, err, models.ErrDependencyUnavailable)
}

func TestSaveError(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, saveError(id, nil))
	assert.ErrorIs(t, saveError(id, models.NewNotFoundError("user", id.String())), models.ErrNotFound)
	assert.ErrorIs(t, saveError(id, errors.New("tx aborted")), models.ErrDependencyUnavailable)
}
