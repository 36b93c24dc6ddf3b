package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/eventhub/backend/internal/models"
)

// Repository computes platform-wide aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Dashboard loads the administrative summary as of now. The three queries run concurrently.
func (r *Repository) Dashboard(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		const q = `SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM registrations WHERE status = 'confirmed'),
			(SELECT COUNT(*) FROM users)`
		return r.pool.QueryRow(ctx, q).Scan(&stats.EventCount, &stats.ConfirmedRegistrationCount, &stats.IdentityCount)
	})

	g.Go(func() error {
		list, err := r.upcoming(ctx, now)
		stats.UpcomingEvents = list
		return err
	})

	g.Go(func() error {
		list, err := r.topByRegistration(ctx)
		stats.TopEventsByRegistration = list
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, models.Unavailable("load dashboard", err)
	}
	stats.ChartLabels, stats.ChartData = chartSeries(stats.TopEventsByRegistration)
	return stats, nil
}

func (r *Repository) upcoming(ctx context.Context, now time.Time) ([]models.Event, error) {
	const q = `SELECT id, name, description, starts_at, ends_at, location, created_at, updated_at
		FROM events WHERE starts_at >= $1
		ORDER BY starts_at, id LIMIT $2`
	rows, err := r.pool.Query(ctx, q, now, models.DashboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// topByRegistration counts registrations of any status; events without any count as zero.
func (r *Repository) topByRegistration(ctx context.Context) ([]models.EventCount, error) {
	const q = `SELECT e.id, e.name, e.starts_at, COUNT(r.id) AS registrations
		FROM events e LEFT JOIN registrations r ON r.event_id = e.id
		GROUP BY e.id
		ORDER BY registrations DESC, e.id
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, models.DashboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.EventCount{}
	for rows.Next() {
		var ec models.EventCount
		if err := rows.Scan(&ec.ID, &ec.Name, &ec.StartsAt, &ec.Registrations); err != nil {
			return nil, err
		}
		list = append(list, ec)
	}
	return list, rows.Err()
}

// chartSeries splits the top list into parallel label and value series.
func chartSeries(top []models.EventCount) ([]string, []int) {
	labels := make([]string, 0, len(top))
	data := make([]int, 0, len(top))
	for _, ec := range top {
		labels = append(labels, ec.Name)
		data = append(data, ec.Registrations)
	}
	return labels, data
}
