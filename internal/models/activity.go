package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies an activity.
type ActivityType string

const (
	ActivityWorkshop ActivityType = "workshop"
	ActivityTalk     ActivityType = "talk"
	ActivitySession  ActivityType = "session"
	ActivityOther    ActivityType = "other"
)

var legacyActivityCodes = map[string]ActivityType{
	"W": ActivityWorkshop,
	"P": ActivityTalk,
	"O": ActivitySession,
	"X": ActivityOther,
}

// ParseActivityType accepts a type name (case-insensitive) or a legacy code.
func ParseActivityType(s string) (ActivityType, error) {
	s = strings.TrimSpace(s)
	if t, ok := legacyActivityCodes[s]; ok {
		return t, nil
	}
	t := ActivityType(strings.ToLower(s))
	if !t.Valid() {
		return "", NewValidationError("type", "must be one of workshop, talk, session, other")
	}
	return t, nil
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityWorkshop, ActivityTalk, ActivitySession, ActivityOther:
		return true
	}
	return false
}

// Activity is a timed sub-session within an event.
type Activity struct {
	ID            uuid.UUID    `json:"id"`
	EventID       uuid.UUID    `json:"event_id"`
	EventName     string       `json:"event_name,omitempty"`
	ResponsibleID *uuid.UUID   `json:"responsible_id,omitempty"`
	Responsible   string       `json:"responsible_username,omitempty"`
	Title         string       `json:"title" validate:"required,max=255"`
	Description   string       `json:"description"`
	StartsAt      *time.Time   `json:"starts_at,omitempty"`
	EndsAt        *time.Time   `json:"ends_at,omitempty"`
	Type          ActivityType `json:"type"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	EventID       *uuid.UUID
	Type          ActivityType
	ResponsibleID *uuid.UUID
}

// ScheduleSummary is the derived total of an event's scheduled activity time.
type ScheduleSummary struct {
	EventID      uuid.UUID `json:"event_id"`
	Activities   int       `json:"activities"`
	Counted      int       `json:"counted"`
	TotalSeconds int64     `json:"total_seconds"`
	Hours        float64   `json:"hours"`
	RoundedHours int64     `json:"rounded_hours"`
}
