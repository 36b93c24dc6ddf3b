package analytics

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// DashboardSource loads the platform summary.
type DashboardSource interface {
	Dashboard(ctx context.Context, now time.Time) (*models.DashboardStats, error)
}

// EventGetter loads one event.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// RegistrationCounter counts an event's registrations by status.
type RegistrationCounter interface {
	CountByEvent(ctx context.Context, eventID uuid.UUID) (total, confirmed, pending int, err error)
}

// ActivityLister lists an event's activities.
type ActivityLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Activity, error)
}

// Handler serves GET /dashboard and GET /events/:id/analytics.
type Handler struct {
	dashboard     DashboardSource
	events        EventGetter
	registrations RegistrationCounter
	activities    ActivityLister
	now           func() time.Time
	logger        *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(dashboard DashboardSource, events EventGetter, registrations RegistrationCounter, activities ActivityLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dashboard:     dashboard,
		events:        events,
		registrations: registrations,
		activities:    activities,
		now:           time.Now,
		logger:        logger,
	}
}

// Dashboard handles GET /dashboard (staff).
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Dashboard(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("dashboard failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, stats)
}

// GetByEvent handles GET /events/:id/analytics.
func (h *Handler) GetByEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ctx := c.Request.Context()

	if _, err := h.events.GetByID(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	total, confirmed, pending, err := h.registrations.CountByEvent(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.activities.ListByEvent(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, models.EventSummary{
		EventID:                id,
		TotalRegistrations:     total,
		ConfirmedRegistrations: confirmed,
		PendingRegistrations:   pending,
		Schedule:               activities.Summarize(id, list),
	})
}
