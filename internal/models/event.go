package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled happening with a date range and location.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at" validate:"gtefield=StartsAt"`
	Location    string    `json:"location" validate:"max=255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventFilter narrows event listings. Zero values mean no filter.
type EventFilter struct {
	Location   string
	StartsFrom *time.Time
	StartsTo   *time.Time
}

// EventDashboard is an event with everything attached to it.
type EventDashboard struct {
	Event
	Activities    []Activity     `json:"activities"`
	Registrations []Registration `json:"registrations"`
}
