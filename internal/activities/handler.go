package activities

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/validation"
	"github.com/eventhub/backend/pkg/response"
)

// Store is the persistence the handler needs.
type Store interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	List(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error)
	Update(ctx context.Context, a *models.Activity) error
	SetResponsible(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Validate checks an activity before it is written.
func Validate(a *models.Activity) error {
	if err := validation.Struct(a); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return models.NewValidationError("type", "must be one of workshop, talk, session, other")
	}
	if a.StartsAt != nil && a.EndsAt != nil && a.EndsAt.Before(*a.StartsAt) {
		return models.NewValidationError("ends_at", "must not be before the start")
	}
	return nil
}

// Request is the body for POST /activities and PATCH /activities/:id.
// On PATCH, absent fields keep their current value.
type Request struct {
	EventID       *uuid.UUID `json:"event_id"`
	ResponsibleID *uuid.UUID `json:"responsible_id"`
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	Type          *string    `json:"type"`
}

func (req *Request) apply(a *models.Activity) error {
	if req.EventID != nil {
		a.EventID = *req.EventID
	}
	if req.ResponsibleID != nil {
		a.ResponsibleID = req.ResponsibleID
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.StartsAt != nil {
		a.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		a.EndsAt = req.EndsAt
	}
	if req.Type != nil {
		t, err := models.ParseActivityType(*req.Type)
		if err != nil {
			return err
		}
		a.Type = t
	}
	return Validate(a)
}

// ResponsibleRequest is the body for PATCH /activities/:id/responsible.
type ResponsibleRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Handler handles activity HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an activity handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /activities?event=&type=&responsible=.
func (h *Handler) List(c *gin.Context) {
	var f models.ActivityFilter
	if raw := c.Query("event"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid event id")
			return
		}
		f.EventID = &id
	}
	if raw := c.Query("type"); raw != "" {
		t, err := models.ParseActivityType(raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		f.Type = t
	}
	if raw := c.Query("responsible"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid responsible id")
			return
		}
		f.ResponsibleID = &id
	}
	list, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list activities failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /activities/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	a, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, a)
}

// Create handles POST /activities (staff).
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.EventID == nil {
		response.FromError(c, models.NewValidationError("event_id", "is required"))
		return
	}
	if req.Type == nil {
		response.FromError(c, models.NewValidationError("type", "is required"))
		return
	}
	a := &models.Activity{}
	if err := req.apply(a); err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.store.Create(c.Request.Context(), a); err != nil {
		h.logger.Warn("create activity failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	h.logger.Info("activity created", zap.String("activity_id", a.ID.String()), zap.String("event_id", a.EventID.String()))
	response.Created(c, a)
}

// Update handles PATCH /activities/:id (staff).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	a, err := h.store.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := req.apply(a); err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.store.Update(ctx, a); err != nil {
		h.logger.Warn("update activity failed", zap.Error(err), zap.String("activity_id", id.String()))
		response.FromError(c, err)
		return
	}
	response.OK(c, a)
}

// SetResponsible handles PATCH /activities/:id/responsible (staff).
func (h *Handler) SetResponsible(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var req ResponsibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id is required")
		return
	}
	userID := uuid.MustParse(req.UserID)
	ctx := c.Request.Context()
	if err := h.store.SetResponsible(ctx, id, userID); err != nil {
		response.FromError(c, err)
		return
	}
	a, err := h.store.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.logger.Info("responsible set", zap.String("activity_id", id.String()), zap.String("user_id", userID.String()))
	response.OK(c, a)
}

// Delete handles DELETE /activities/:id (staff).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
