package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

// UniqueConstraint is the storage-level guard on one registration per (user, event).
const UniqueConstraint = "registrations_user_event_key"

const selectRegistrations = `SELECT r.id, r.user_id, u.username, r.event_id, e.name, r.registered_at, r.status
	FROM registrations r
	JOIN users u ON u.id = r.user_id
	JOIN events e ON e.id = r.event_id`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var status string
	if err := row.Scan(&reg.ID, &reg.UserID, &reg.Username, &reg.EventID, &reg.EventName, &reg.RegisteredAt, &status); err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}

// insertError translates constraint violations raised by an insert.
func insertError(reg *models.Registration, err error) error {
	switch {
	case database.IsUniqueViolation(err, UniqueConstraint):
		return models.ErrDuplicateRegistration
	case database.IsForeignKeyViolation(err):
		if database.ConstraintName(err) == "registrations_user_id_fkey" {
			return models.NewNotFoundError("user", reg.UserID.String())
		}
		return models.NewNotFoundError("event", reg.EventID.String())
	case database.IsCheckViolation(err):
		return models.NewValidationError("status", "must be one of confirmed, pending, other")
	default:
		return models.Unavailable("create registration", err)
	}
}

// Exists reports whether the user is registered for the event.
func (r *Repository) Exists(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(&ok); err != nil {
		return false, models.Unavailable("check registration", err)
	}
	return ok, nil
}

// insertReturning wraps an INSERT so the new row comes back
// joined to its user and event names.
func insertReturning(insert string) string {
	return `WITH ins AS (` + insert + ` RETURNING id, user_id, event_id, registered_at, status)
		SELECT ins.id, ins.user_id, u.username, ins.event_id, e.name, ins.registered_at, ins.status
		FROM ins
		JOIN users u ON u.id = ins.user_id
		JOIN events e ON e.id = ins.event_id`
}

// Create inserts a registration. registered_at is stamped by the database.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	q := insertReturning(`INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, $3)`)
	created, err := scanRegistration(r.pool.QueryRow(ctx, q, reg.UserID, reg.EventID, string(reg.Status)))
	if err != nil {
		return insertError(reg, err)
	}
	*reg = *created
	return nil
}

// CreateIfAbsent registers the pair unless a registration already exists, in which
// case the existing row is returned untouched.
func (r *Repository) CreateIfAbsent(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	q := insertReturning(`INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT ` + UniqueConstraint + ` DO NOTHING`)
	created, err := scanRegistration(r.pool.QueryRow(ctx, q, reg.UserID, reg.EventID, string(reg.Status)))
	if err == nil {
		*reg = *created
		return reg, true, nil
	}
	if !database.IsNoRows(err) {
		return nil, false, insertError(reg, err)
	}
	existing, err := scanRegistration(r.pool.QueryRow(ctx,
		selectRegistrations+` WHERE r.user_id = $1 AND r.event_id = $2`, reg.UserID, reg.EventID))
	if err != nil {
		return nil, false, models.Unavailable("get registration", err)
	}
	return existing, false, nil
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx, selectRegistrations+` WHERE r.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("registration", id.String())
		}
		return nil, models.Unavailable("get registration", err)
	}
	return reg, nil
}

// List returns registrations matching f, oldest first.
func (r *Repository) List(ctx context.Context, f models.RegistrationFilter) ([]models.Registration, error) {
	var w database.Where
	if f.Status != "" {
		w.Add("r.status = ?", string(f.Status))
	}
	if f.EventID != nil {
		w.Add("r.event_id = ?", *f.EventID)
	}
	if f.UserID != nil {
		w.Add("r.user_id = ?", *f.UserID)
	}
	if f.RegisteredFrom != nil {
		w.Add("r.registered_at >= ?", *f.RegisteredFrom)
	}
	if f.RegisteredTo != nil {
		w.Add("r.registered_at <= ?", *f.RegisteredTo)
	}
	rows, err := r.pool.Query(ctx, selectRegistrations+w.SQL()+` ORDER BY r.registered_at, r.id`, w.Args()...)
	if err != nil {
		return nil, models.Unavailable("list registrations", err)
	}
	defer rows.Close()

	list := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, models.Unavailable("list registrations", err)
		}
		list = append(list, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list registrations", err)
	}
	return list, nil
}

// ListByEvent returns every registration of an event.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	return r.List(ctx, models.RegistrationFilter{EventID: &eventID})
}

// ListByUser returns every registration of a user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return r.List(ctx, models.RegistrationFilter{UserID: &userID})
}

// UpdateStatus changes the status only; registered_at keeps its insert value.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE registrations SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		if database.IsCheckViolation(err) {
			return models.NewValidationError("status", "must be one of confirmed, pending, other")
		}
		return models.Unavailable("update registration", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("registration", id.String())
	}
	return nil
}

// Delete removes a registration.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return models.Unavailable("delete registration", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("registration", id.String())
	}
	return nil
}

// CountByEvent returns total, confirmed and pending registrations of an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (total, confirmed, pending int, err error) {
	const q = `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM registrations WHERE event_id = $1`
	if err = r.pool.QueryRow(ctx, q, eventID).Scan(&total, &confirmed, &pending); err != nil {
		return 0, 0, 0, models.Unavailable("count registrations", err)
	}
	return total, confirmed, pending, nil
}
