package reports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

const reportColumns = `id, event_id, requested_by, status, COALESCE(s3_key, ''), row_count,
	COALESCE(error_message, ''), created_at, completed_at`

// Repository handles report export persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanReport(row pgx.Row) (*models.ReportExport, error) {
	var rep models.ReportExport
	err := row.Scan(&rep.ID, &rep.EventID, &rep.RequestedBy, &rep.Status, &rep.S3Key, &rep.RowCount,
		&rep.ErrorMessage, &rep.CreatedAt, &rep.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// Create inserts a pending export.
func (r *Repository) Create(ctx context.Context, rep *models.ReportExport) error {
	const q = `INSERT INTO report_exports (event_id, requested_by, status) VALUES ($1, $2, $3)
		RETURNING id, created_at`
	rep.Status = models.ReportStatusPending
	if err := r.pool.QueryRow(ctx, q, rep.EventID, rep.RequestedBy, rep.Status).Scan(&rep.ID, &rep.CreatedAt); err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.NewNotFoundError("event", rep.EventID.String())
		}
		return models.Unavailable("create report", err)
	}
	return nil
}

// GetByID returns an export by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportExport, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM report_exports WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("report", id.String())
		}
		return nil, models.Unavailable("get report", err)
	}
	return rep, nil
}

// ListByEvent returns the exports of an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.ReportExport, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reportColumns+` FROM report_exports WHERE event_id = $1 ORDER BY created_at DESC, id`, eventID)
	if err != nil {
		return nil, models.Unavailable("list reports", err)
	}
	defer rows.Close()
	list := []models.ReportExport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, models.Unavailable("list reports", err)
		}
		list = append(list, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list reports", err)
	}
	return list, nil
}

// MarkProcessing flags an export as picked up by a worker.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE report_exports SET status = $1, error_message = NULL WHERE id = $2`
	return r.exec(ctx, "mark report processing", q, models.ReportStatusProcessing, id)
}

// MarkCompleted records the uploaded object and its row count.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, key string, rows int) error {
	const q = `UPDATE report_exports SET status = $1, s3_key = $2, row_count = $3, error_message = NULL, completed_at = NOW()
		WHERE id = $4`
	return r.exec(ctx, "mark report completed", q, models.ReportStatusCompleted, key, rows, id)
}

// MarkFailed records why an export attempt failed.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE report_exports SET status = $1, error_message = $2 WHERE id = $3`
	return r.exec(ctx, "mark report failed", q, models.ReportStatusFailed, reason, id)
}

// Delete removes an export row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "delete report", `DELETE FROM report_exports WHERE id = $1`, id)
}

func (r *Repository) exec(ctx context.Context, op, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return models.Unavailable(op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("report", "")
	}
	return nil
}
