package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role classifies a profile.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleGuest       Role = "guest"
	RoleOrganizer   Role = "organizer"
	RoleOther       Role = "other"
)

// Partition is the group family a role maps to.
type Partition int

const (
	PartitionNone Partition = iota
	PartitionGeneral
	PartitionStaff
)

func (p Partition) String() string {
	switch p {
	case PartitionGeneral:
		return "general"
	case PartitionStaff:
		return "staff"
	default:
		return "none"
	}
}

// legacyRoleCodes maps the single-letter codes used by older data files.
var legacyRoleCodes = map[string]Role{
	"P": RoleParticipant,
	"C": RoleGuest,
	"O": RoleOrganizer,
	"X": RoleOther,
}

// ParseRole accepts a role name (case-insensitive) or a legacy code.
// An empty string yields the default role.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleParticipant, nil
	}
	if r, ok := legacyRoleCodes[s]; ok {
		return r, nil
	}
	r := Role(strings.ToLower(s))
	if !r.Valid() {
		return "", NewValidationError("role", "must be one of participant, guest, organizer, other")
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleGuest, RoleOrganizer, RoleOther:
		return true
	}
	return false
}

// PartitionFor maps a role to its group partition.
func PartitionFor(r Role) Partition {
	switch r {
	case RoleParticipant, RoleGuest, RoleOther:
		return PartitionGeneral
	case RoleOrganizer:
		return PartitionStaff
	default:
		return PartitionNone
	}
}

// Profile extends a user with contact data and a role.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	Phone     *string   `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileWithUser is a profile joined with its owner's handle, for listings.
type ProfileWithUser struct {
	Profile
	Username string `json:"username"`
	Email    string `json:"email"`
}
