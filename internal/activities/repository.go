package activities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

const selectActivities = `SELECT a.id, a.event_id, e.name, a.responsible_id, COALESCE(u.username, ''),
		a.title, a.description, a.starts_at, a.ends_at, a.type, a.created_at, a.updated_at
	FROM activities a
	JOIN events e ON e.id = a.event_id
	LEFT JOIN users u ON u.id = a.responsible_id`

// Repository handles activity persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	var typ string
	err := row.Scan(&a.ID, &a.EventID, &a.EventName, &a.ResponsibleID, &a.Responsible,
		&a.Title, &a.Description, &a.StartsAt, &a.EndsAt, &typ, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = models.ActivityType(typ)
	return &a, nil
}

// writeError translates constraint violations on insert/update.
func writeError(op string, a *models.Activity, err error) error {
	switch {
	case database.IsForeignKeyViolation(err):
		if database.ConstraintName(err) == "activities_responsible_id_fkey" && a.ResponsibleID != nil {
			return models.NewNotFoundError("user", a.ResponsibleID.String())
		}
		return models.NewNotFoundError("event", a.EventID.String())
	case database.IsCheckViolation(err):
		return models.NewValidationError("type", "must be one of workshop, talk, session, other")
	default:
		return models.Unavailable(op, err)
	}
}

// Create inserts a new activity.
func (r *Repository) Create(ctx context.Context, a *models.Activity) error {
	const q = `INSERT INTO activities (event_id, responsible_id, title, description, starts_at, ends_at, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, a.EventID, a.ResponsibleID, a.Title, a.Description, a.StartsAt, a.EndsAt, string(a.Type)).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return writeError("create activity", a, err)
	}
	return nil
}

// GetByID returns an activity with its event name and responsible username.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a, err := scanActivity(r.pool.QueryRow(ctx, selectActivities+` WHERE a.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("activity", id.String())
		}
		return nil, models.Unavailable("get activity", err)
	}
	return a, nil
}

// List returns activities matching f, ordered by start time (untimed last).
func (r *Repository) List(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	var w database.Where
	if f.EventID != nil {
		w.Add("a.event_id = ?", *f.EventID)
	}
	if f.Type != "" {
		w.Add("a.type = ?", string(f.Type))
	}
	if f.ResponsibleID != nil {
		w.Add("a.responsible_id = ?", *f.ResponsibleID)
	}
	rows, err := r.pool.Query(ctx, selectActivities+w.SQL()+` ORDER BY a.starts_at NULLS LAST, a.id`, w.Args()...)
	if err != nil {
		return nil, models.Unavailable("list activities", err)
	}
	defer rows.Close()

	list := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, models.Unavailable("list activities", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list activities", err)
	}
	return list, nil
}

// ListByEvent returns the activities of one event.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Activity, error) {
	return r.List(ctx, models.ActivityFilter{EventID: &eventID})
}

// Update writes all mutable fields of a.
func (r *Repository) Update(ctx context.Context, a *models.Activity) error {
	const q = `UPDATE activities SET event_id = $1, responsible_id = $2, title = $3, description = $4,
			starts_at = $5, ends_at = $6, type = $7, updated_at = NOW()
		WHERE id = $8 RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, a.EventID, a.ResponsibleID, a.Title, a.Description, a.StartsAt, a.EndsAt, string(a.Type), a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return models.NewNotFoundError("activity", a.ID.String())
		}
		return writeError("update activity", a, err)
	}
	return nil
}

// SetResponsible assigns the identity responsible for an activity.
func (r *Repository) SetResponsible(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE activities SET responsible_id = $1, updated_at = NOW() WHERE id = $2`, userID, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.NewNotFoundError("user", userID.String())
		}
		return models.Unavailable("set responsible", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("activity", id.String())
	}
	return nil
}

// Delete removes an activity.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return models.Unavailable("delete activity", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("activity", id.String())
	}
	return nil
}

// CreateIfAbsent returns the activity titled a.Title, creating it from a when none exists.
func (r *Repository) CreateIfAbsent(ctx context.Context, a *models.Activity) (*models.Activity, bool, error) {
	const q = `SELECT id FROM activities WHERE title = $1 ORDER BY created_at, id LIMIT 1`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, a.Title).Scan(&id)
	if err == nil {
		existing, err := r.GetByID(ctx, id)
		return existing, false, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, models.Unavailable("find activity", err)
	}
	if err := r.Create(ctx, a); err != nil {
		return nil, false, err
	}
	return a, true, nil
}
