package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

// SaveHook runs after the profile row is written, in the same transaction.
// An error aborts the whole save.
type SaveHook interface {
	AfterSave(ctx context.Context, tx pgx.Tx, p *models.Profile) error
}

// Repository handles profile persistence.
type Repository struct {
	pool  *pgxpool.Pool
	hooks []SaveHook
}

// NewRepository creates a profiles repository with post-save hooks.
func NewRepository(pool *pgxpool.Pool, hooks ...SaveHook) *Repository {
	return &Repository{pool: pool, hooks: hooks}
}

// Save creates or updates the profile and runs every hook. The write and the hooks
// commit together or not at all.
func (r *Repository) Save(ctx context.Context, p *models.Profile) error {
	if p.Role == "" {
		p.Role = models.RoleParticipant
	}
	if !p.Role.Valid() {
		return models.NewValidationError("role", "must be one of participant, guest, organizer, other")
	}
	const q = `INSERT INTO profiles (user_id, phone, role) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone, role = EXCLUDED.role, updated_at = NOW()
		RETURNING updated_at`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, q, p.UserID, p.Phone, string(p.Role)).Scan(&p.UpdatedAt); err != nil {
			return err
		}
		for _, h := range r.hooks {
			if err := h.AfterSave(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	return saveError(p.UserID, err)
}

func saveError(userID uuid.UUID, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDependencyUnavailable):
		return err
	case database.IsForeignKeyViolation(err):
		return models.NewNotFoundError("user", userID.String())
	case database.IsCheckViolation(err):
		return models.NewValidationError("role", "must be one of participant, guest, organizer, other")
	default:
		return models.Unavailable("save profile", err)
	}
}

// Get returns the profile of a user.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	const q = `SELECT user_id, phone, role, updated_at FROM profiles WHERE user_id = $1`
	var p models.Profile
	var role string
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.Phone, &role, &p.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("profile", userID.String())
		}
		return nil, models.Unavailable("get profile", err)
	}
	p.Role = models.Role(role)
	return &p, nil
}

// List returns profiles with their usernames, optionally filtered by role.
func (r *Repository) List(ctx context.Context, role models.Role) ([]models.ProfileWithUser, error) {
	const q = `SELECT p.user_id, p.phone, p.role, p.updated_at, u.username, u.email
		FROM profiles p JOIN users u ON u.id = p.user_id
		WHERE ($1 = '' OR p.role = $1)
		ORDER BY u.username`
	rows, err := r.pool.Query(ctx, q, string(role))
	if err != nil {
		return nil, models.Unavailable("list profiles", err)
	}
	defer rows.Close()
	list := []models.ProfileWithUser{}
	for rows.Next() {
		var p models.ProfileWithUser
		var role string
		if err := rows.Scan(&p.UserID, &p.Phone, &role, &p.UpdatedAt, &p.Username, &p.Email); err != nil {
			return nil, models.Unavailable("list profiles", err)
		}
		p.Role = models.Role(role)
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list profiles", err)
	}
	return list, nil
}
