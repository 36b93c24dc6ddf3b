package events

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/validation"
	"github.com/eventhub/backend/pkg/response"
)

// Store is the event persistence the handler needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityLister lists the activities of an event.
type ActivityLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Activity, error)
}

// RegistrationLister lists the registrations of an event.
type RegistrationLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
}

// Validate checks an event before it is written.
func Validate(e *models.Event) error {
	if e.StartsAt.IsZero() {
		return models.NewValidationError("starts_at", "is required")
	}
	if e.EndsAt.IsZero() {
		return models.NewValidationError("ends_at", "is required")
	}
	return validation.Struct(e)
}

// Request is the body for POST /events and PATCH /events/:id.
// On PATCH, absent fields keep their current value.
type Request struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    *string    `json:"location"`
}

func (req *Request) apply(e *models.Event) error {
	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	return Validate(e)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	events        Store
	activities    ActivityLister
	registrations RegistrationLister
	logger        *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(events Store, activities ActivityLister, registrations RegistrationLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{events: events, activities: activities, registrations: registrations, logger: logger}
}

// List handles GET /events?location=&starts_from=&starts_to=.
func (h *Handler) List(c *gin.Context) {
	f := models.EventFilter{Location: c.Query("location")}
	var err error
	if f.StartsFrom, err = validation.ParseTime("starts_from", c.Query("starts_from")); err != nil {
		response.FromError(c, err)
		return
	}
	if f.StartsTo, err = validation.ParseTime("starts_to", c.Query("starts_to")); err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.events.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /events (staff).
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e := &models.Event{}
	if err := req.apply(e); err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.events.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	h.logger.Info("event created", zap.String("event_id", e.ID.String()), zap.String("name", e.Name))
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id (staff).
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	e, err := h.events.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := req.apply(e); err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.events.Update(ctx, e); err != nil {
		h.logger.Warn("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.FromError(c, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id (staff). Activities and registrations are removed with it.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	h.logger.Info("event deleted", zap.String("event_id", id.String()))
	response.NoContent(c)
}

// Activities handles GET /events/:id/activities.
func (h *Handler) Activities(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.events.GetByID(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.activities.ListByEvent(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Dashboard handles GET /events/:id/dashboard: the event with its activities and registrations.
func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	e, err := h.events.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	d := models.EventDashboard{Event: *e}
	if d.Activities, err = h.activities.ListByEvent(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	if d.Registrations, err = h.registrations.ListByEvent(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, d)
}

// Schedule handles GET /events/:id/schedule.
func (h *Handler) Schedule(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.events.GetByID(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.activities.ListByEvent(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, activities.Summarize(id, list))
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}
