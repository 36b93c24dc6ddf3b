package models

import (
	"time"

	"github.com/google/uuid"
)

// DashboardLimit bounds both event lists on the dashboard.
const DashboardLimit = 5

// EventCount is an event with its number of registrations, any status.
type EventCount struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	StartsAt      time.Time `json:"starts_at"`
	Registrations int       `json:"registrations"`
}

// DashboardStats is the platform-wide administrative summary.
type DashboardStats struct {
	EventCount                 int          `json:"event_count"`
	ConfirmedRegistrationCount int          `json:"confirmed_registration_count"`
	IdentityCount              int          `json:"identity_count"`
	UpcomingEvents             []Event      `json:"upcoming_events"`
	TopEventsByRegistration    []EventCount `json:"top_events_by_registration"`
	ChartLabels                []string     `json:"chart_labels"`
	ChartData                  []int        `json:"chart_data"`
}

// EventSummary is the per-event analytics view.
type EventSummary struct {
	EventID                uuid.UUID       `json:"event_id"`
	TotalRegistrations     int             `json:"total_registrations"`
	ConfirmedRegistrations int             `json:"confirmed_registrations"`
	PendingRegistrations   int             `json:"pending_registrations"`
	Schedule               ScheduleSummary `json:"schedule"`
}
