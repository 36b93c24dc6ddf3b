package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

// GroupStore mutates group membership and the staff flag. It runs on a pool or inside a tx.
type GroupStore struct {
	db database.DBTX
}

// NewGroupStore creates a group store over db.
func NewGroupStore(db database.DBTX) *GroupStore {
	return &GroupStore{db: db}
}

// EnsureGroup returns the id of the named group, creating it if needed.
func (s *GroupStore) EnsureGroup(ctx context.Context, name string) (int64, error) {
	const q = `INSERT INTO groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	var id int64
	if err := s.db.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return 0, models.Unavailable("ensure group "+name, err)
	}
	return id, nil
}

// AddMember puts the user in the group. Existing membership is kept.
func (s *GroupStore) AddMember(ctx context.Context, userID uuid.UUID, groupID int64) error {
	const q = `INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.db.Exec(ctx, q, userID, groupID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.NewNotFoundError("user", userID.String())
		}
		return models.Unavailable("add group member", err)
	}
	return nil
}

// RemoveMember takes the user out of the group, if present.
func (s *GroupStore) RemoveMember(ctx context.Context, userID uuid.UUID, groupID int64) error {
	const q = `DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2`
	if _, err := s.db.Exec(ctx, q, userID, groupID); err != nil {
		return models.Unavailable("remove group member", err)
	}
	return nil
}

// SetStaff sets the administrative-access flag.
func (s *GroupStore) SetStaff(ctx context.Context, userID uuid.UUID, staff bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET is_staff = $1, updated_at = NOW() WHERE id = $2`, staff, userID)
	if err != nil {
		return models.Unavailable("set staff flag", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("user", userID.String())
	}
	return nil
}

// GroupsOf returns the names of the user's groups, sorted.
func (s *GroupStore) GroupsOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `SELECT g.name FROM user_groups ug JOIN groups g ON g.id = ug.group_id
		WHERE ug.user_id = $1 ORDER BY g.name`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, models.Unavailable("list groups", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, models.Unavailable("list groups", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list groups", err)
	}
	return names, nil
}
