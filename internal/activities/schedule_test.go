package activities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventhub/backend/internal/models"
)

var base = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func timed(startH, endH float64) models.Activity {
	s := base.Add(time.Duration(startH * float64(time.Hour)))
	e := base.Add(time.Duration(endH * float64(time.Hour)))
	return models.Activity{StartsAt: &s, EndsAt: &e}
}

func TestScheduledDuration(t *testing.T) {
	start := base
	tests := []struct {
		name string
		list []models.Activity
		want time.Duration
	}{
		{"empty", nil, 0},
		{"single", []models.Activity{timed(0, 1.5)}, 90 * time.Minute},
		{"overlaps are summed", []models.Activity{timed(0, 2), timed(1, 3)}, 4 * time.Hour},
		{"missing end is skipped", []models.Activity{timed(0, 1), {StartsAt: &start}}, time.Hour},
		{"missing both is skipped", []models.Activity{{}, timed(2, 3)}, time.Hour},
		{"inverted range contributes nothing", []models.Activity{timed(3, 1), timed(0, 1)}, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScheduledDuration(tt.list))
		})
	}
}

func TestSummarize(t *testing.T) {
	eventID := uuid.New()
	start := base
	list := []models.Activity{timed(0, 1), timed(1, 2.5), {StartsAt: &start}}

	s := Summarize(eventID, list)
	assert.Equal(t, eventID, s.EventID)
	assert.Equal(t, 3, s.Activities)
	assert.Equal(t, 2, s.Counted)
	assert.Equal(t, int64(9000), s.TotalSeconds)
	assert.InDelta(t, 2.5, s.Hours, 1e-9)
	assert.Equal(t, int64(3), s.RoundedHours)
}

func TestSummarize_RoundsToNearestHour(t *testing.T) {
	s := Summarize(uuid.Nil, []models.Activity{timed(0, 1.4)})
	assert.Equal(t, int64(1), s.RoundedHours)

	s = Summarize(uuid.Nil, nil)
	assert.Zero(t, s.TotalSeconds)
	assert.Zero(t, s.RoundedHours)
}
