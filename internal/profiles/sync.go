package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/models"
)

// MembershipStore is what group reconciliation needs from the identity store.
type MembershipStore interface {
	EnsureGroup(ctx context.Context, name string) (int64, error)
	AddMember(ctx context.Context, userID uuid.UUID, groupID int64) error
	RemoveMember(ctx context.Context, userID uuid.UUID, groupID int64) error
	SetStaff(ctx context.Context, userID uuid.UUID, staff bool) error
}

// GroupSync keeps group membership in line with the profile role.
// It runs as a post-save hook inside the profile transaction.
type GroupSync struct {
	general string
	staff   string
	logger  *zap.Logger
}

// NewGroupSync creates the hook for the given general and staff group names.
func NewGroupSync(general, staff string, logger *zap.Logger) *GroupSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupSync{general: general, staff: staff, logger: logger}
}

// AfterSave implements SaveHook.
func (s *GroupSync) AfterSave(ctx context.Context, tx pgx.Tx, p *models.Profile) error {
	return s.Apply(ctx, identity.NewGroupStore(tx), p)
}

// Apply reconciles membership for p on store. Calling it twice yields the same state.
func (s *GroupSync) Apply(ctx context.Context, store MembershipStore, p *models.Profile) error {
	generalID, err := store.EnsureGroup(ctx, s.general)
	if err != nil {
		return err
	}
	staffID, err := store.EnsureGroup(ctx, s.staff)
	if err != nil {
		return err
	}

	partition := models.PartitionFor(p.Role)
	switch partition {
	case models.PartitionGeneral:
		if err := store.AddMember(ctx, p.UserID, generalID); err != nil {
			return err
		}
		err = store.RemoveMember(ctx, p.UserID, staffID)
	case models.PartitionStaff:
		if err := store.AddMember(ctx, p.UserID, staffID); err != nil {
			return err
		}
		if err := store.RemoveMember(ctx, p.UserID, generalID); err != nil {
			return err
		}
		err = store.SetStaff(ctx, p.UserID, true)
	default:
		// Unknown roles leave both groups; the staff flag is not touched.
		err = errors.Join(
			store.RemoveMember(ctx, p.UserID, generalID),
			store.RemoveMember(ctx, p.UserID, staffID),
		)
	}
	if err != nil {
		return err
	}
	s.logger.Debug("groups synced",
		zap.String("user_id", p.UserID.String()),
		zap.String("role", string(p.Role)),
		zap.Stringer("partition", partition),
	)
	return nil
}
