//go:build integration

package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/analytics"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/registrations"
	"github.com/eventhub/backend/internal/testdb"
)

func TestDashboard(t *testing.T) {
	pool := testdb.New(t)
	ctx := context.Background()
	users := identity.NewRepository(pool)
	evs := events.NewRepository(pool)
	regs := registrations.NewRepository(pool)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Eight events: two past and six upcoming, one more than the limit admits.
	var list []*models.Event
	for i, offset := range []int{-48, -24, 24, 48, 72, 96, 120, 144} {
		start := now.Add(time.Duration(offset) * time.Hour)
		e := &models.Event{Name: fmt.Sprintf("event-%d", i), StartsAt: start, EndsAt: start.Add(time.Hour)}
		require.NoError(t, evs.Create(ctx, e))
		list = append(list, e)
	}

	var ids []models.User
	for i := 0; i < 3; i++ {
		u, _, err := users.GetOrCreate(ctx, fmt.Sprintf("user-%d", i), models.UserDefaults{})
		require.NoError(t, err)
		ids = append(ids, *u)
	}
	// event-0: 3 registrations (one pending), event-5: 2, event-7: 1.
	register := func(u models.User, e *models.Event, s models.RegistrationStatus) {
		require.NoError(t, regs.Create(ctx, &models.Registration{UserID: u.ID, EventID: e.ID, Status: s}))
	}
	register(ids[0], list[0], models.StatusConfirmed)
	register(ids[1], list[0], models.StatusConfirmed)
	register(ids[2], list[0], models.StatusPending)
	register(ids[0], list[5], models.StatusConfirmed)
	register(ids[1], list[5], models.StatusOther)
	register(ids[2], list[7], models.StatusConfirmed)

	stats, err := analytics.NewRepository(pool).Dashboard(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.EventCount)
	assert.Equal(t, 4, stats.ConfirmedRegistrationCount)
	assert.Equal(t, 3, stats.IdentityCount)

	require.Len(t, stats.UpcomingEvents, models.DashboardLimit)
	for i, e := range stats.UpcomingEvents {
		assert.Equal(t, list[i+2].ID, e.ID)
	}

	require.Len(t, stats.TopEventsByRegistration, models.DashboardLimit)
	assert.Equal(t, list[0].ID, stats.TopEventsByRegistration[0].ID)
	assert.Equal(t, 3, stats.TopEventsByRegistration[0].Registrations)
	assert.Equal(t, list[5].ID, stats.TopEventsByRegistration[1].ID)
	assert.Equal(t, list[7].ID, stats.TopEventsByRegistration[2].ID)
	for i := 3; i < len(stats.TopEventsByRegistration); i++ {
		assert.Zero(t, stats.TopEventsByRegistration[i].Registrations)
		if i > 3 {
			assert.Less(t, stats.TopEventsByRegistration[i-1].ID.String(), stats.TopEventsByRegistration[i].ID.String())
		}
	}
	assert.Equal(t, []int{3, 2, 1, 0, 0}, stats.ChartData)
}
