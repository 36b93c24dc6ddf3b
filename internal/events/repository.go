package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

const eventColumns = `id, name, description, starts_at, ends_at, location, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (name, description, starts_at, ends_at, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.Name, e.Description, e.StartsAt, e.EndsAt, e.Location).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Unavailable("create event", err)
	}
	return nil
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("event", id.String())
		}
		return nil, models.Unavailable("get event", err)
	}
	return e, nil
}

// GetByName returns the oldest event with the given name.
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE name = $1 ORDER BY created_at, id LIMIT 1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, name))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("event", name)
		}
		return nil, models.Unavailable("get event by name", err)
	}
	return e, nil
}

// List returns events matching f, ordered by start.
func (r *Repository) List(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	var w database.Where
	if f.Location != "" {
		w.Add("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.StartsFrom != nil {
		w.Add("starts_at >= ?", *f.StartsFrom)
	}
	if f.StartsTo != nil {
		w.Add("starts_at <= ?", *f.StartsTo)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events`+w.SQL()+` ORDER BY starts_at, id`, w.Args()...)
	if err != nil {
		return nil, models.Unavailable("list events", err)
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, models.Unavailable("list events", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list events", err)
	}
	return list, nil
}

// Update writes all mutable fields of e.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET name = $1, description = $2, starts_at = $3, ends_at = $4, location = $5, updated_at = NOW()
		WHERE id = $6 RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.Name, e.Description, e.StartsAt, e.EndsAt, e.Location, e.ID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return models.NewNotFoundError("event", e.ID.String())
		}
		return models.Unavailable("update event", err)
	}
	return nil
}

// Delete removes an event; its activities and registrations go with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return models.Unavailable("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("event", id.String())
	}
	return nil
}

// CreateIfAbsent returns the event named e.Name, creating it from e when none exists.
// The bool reports whether a row was created. Names are not unique in storage, so
// concurrent callers serialize on a transaction-scoped advisory lock keyed by the name.
func (r *Repository) CreateIfAbsent(ctx context.Context, e *models.Event) (*models.Event, bool, error) {
	const byName = `SELECT ` + eventColumns + ` FROM events WHERE name = $1 ORDER BY created_at, id LIMIT 1`
	const insert = `INSERT INTO events (name, description, starts_at, ends_at, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	var existing *models.Event
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('events:' || $1))`, e.Name); err != nil {
			return err
		}
		found, err := scanEvent(tx.QueryRow(ctx, byName, e.Name))
		if err == nil {
			existing = found
			return nil
		}
		if !database.IsNoRows(err) {
			return err
		}
		return tx.QueryRow(ctx, insert, e.Name, e.Description, e.StartsAt, e.EndsAt, e.Location).
			Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	})
	if err != nil {
		return nil, false, models.Unavailable("create event", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	return e, true, nil
}
