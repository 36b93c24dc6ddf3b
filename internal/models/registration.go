package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of an enrolment.
type RegistrationStatus string

const (
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusPending   RegistrationStatus = "pending"
	StatusOther     RegistrationStatus = "other"
)

// legacyStatusCodes maps the codes and labels found in older data files.
var legacyStatusCodes = map[string]RegistrationStatus{
	"c":          StatusConfirmed,
	"confirmado": StatusConfirmed,
	"p":          StatusPending,
	"pendente":   StatusPending,
	"o":          StatusOther,
	"outro":      StatusOther,
}

// ParseRegistrationStatus accepts a status name or legacy code (case-insensitive);
// empty means confirmed.
func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusConfirmed, nil
	}
	if st, ok := legacyStatusCodes[s]; ok {
		return st, nil
	}
	st := RegistrationStatus(s)
	if !st.Valid() {
		return "", NewValidationError("status", "must be one of confirmed, pending, other")
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusOther:
		return true
	}
	return false
}

// Registration is the record that a user is enrolled in an event.
type Registration struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	Username     string             `json:"username,omitempty"`
	EventID      uuid.UUID          `json:"event_id"`
	EventName    string             `json:"event_name,omitempty"`
	RegisteredAt time.Time          `json:"registered_at"`
	Status       RegistrationStatus `json:"status"`
}

// RegistrationFilter narrows registration listings.
type RegistrationFilter struct {
	Status         RegistrationStatus
	EventID        *uuid.UUID
	UserID         *uuid.UUID
	RegisteredFrom *time.Time
	RegisteredTo   *time.Time
}
