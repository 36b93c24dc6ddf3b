package activities

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/backend/internal/models"
)

// span is the scheduled length of a; zero when a time is missing or the range is inverted.
func span(a models.Activity) time.Duration {
	if a.StartsAt == nil || a.EndsAt == nil {
		return 0
	}
	d := a.EndsAt.Sub(*a.StartsAt)
	if d < 0 {
		return 0
	}
	return d
}

// ScheduledDuration sums the length of every fully timed activity.
// Overlapping activities are counted in full.
func ScheduledDuration(list []models.Activity) time.Duration {
	var total time.Duration
	for _, a := range list {
		total += span(a)
	}
	return total
}

// Summarize reports the scheduled time of an event's activities.
func Summarize(eventID uuid.UUID, list []models.Activity) models.ScheduleSummary {
	s := models.ScheduleSummary{EventID: eventID, Activities: len(list)}
	for _, a := range list {
		if a.StartsAt != nil && a.EndsAt != nil {
			s.Counted++
		}
	}
	total := ScheduledDuration(list)
	s.TotalSeconds = int64(total / time.Second)
	s.Hours = total.Hours()
	s.RoundedHours = int64(math.Round(s.Hours))
	return s
}
