package registrations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/validation"
	"github.com/eventhub/backend/pkg/response"
)

// Reader lists and loads registrations.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	List(ctx context.Context, f models.RegistrationFilter) ([]models.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
}

// Registrar is the write side.
type Registrar interface {
	Register(ctx context.Context, userID, eventID uuid.UUID, status models.RegistrationStatus) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) (*models.Registration, error)
	Cancel(ctx context.Context, reg *models.Registration) error
}

// RegisterRequest is the optional body for POST /events/:id/registrations.
// user_id and status are honoured for staff only.
type RegisterRequest struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
	Status string `json:"status"`
}

// StatusRequest is the body for PATCH /registrations/:id.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	reader    Reader
	registrar Registrar
	logger    *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(reader Reader, registrar Registrar, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, registrar: registrar, logger: logger}
}

// Register handles POST /events/:id/registrations: enrols the current user.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	userID := claims.UserID
	var status models.RegistrationStatus
	if claims.IsAdmin() {
		if req.UserID != "" {
			userID = uuid.MustParse(req.UserID)
		}
		if status, err = models.ParseRegistrationStatus(req.Status); err != nil {
			response.FromError(c, err)
			return
		}
	} else if req.UserID != "" && req.UserID != claims.UserID.String() {
		response.Forbidden(c, "cannot register another user")
		return
	}

	reg, err := h.registrar.Register(c.Request.Context(), userID, eventID, status)
	if err != nil {
		h.logger.Info("register failed", zap.Error(err),
			zap.String("user_id", userID.String()), zap.String("event_id", eventID.String()))
		response.FromError(c, err)
		return
	}
	h.logger.Info("registered", zap.String("registration_id", reg.ID.String()),
		zap.String("user_id", userID.String()), zap.String("event_id", eventID.String()))
	response.Created(c, reg)
}

// ListByEvent handles GET /events/:id/registrations.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.reader.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// List handles GET /registrations?status=&event=&user=&registered_from=&registered_to=.
func (h *Handler) List(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.reader.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

func parseFilter(c *gin.Context) (models.RegistrationFilter, error) {
	var f models.RegistrationFilter
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseRegistrationStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if raw := c.Query("event"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, models.NewValidationError("event", "must be a uuid")
		}
		f.EventID = &id
	}
	if raw := c.Query("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, models.NewValidationError("user", "must be a uuid")
		}
		f.UserID = &id
	}
	var err error
	if f.RegisteredFrom, err = validation.ParseTime("registered_from", c.Query("registered_from")); err != nil {
		return f, err
	}
	if f.RegisteredTo, err = validation.ParseTime("registered_to", c.Query("registered_to")); err != nil {
		return f, err
	}
	return f, nil
}

// GetByID handles GET /registrations/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.reader.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reg)
}

// UpdateStatus handles PATCH /registrations/:id (staff). registered_at is never changed.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}
	status, err := models.ParseRegistrationStatus(req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	reg, err := h.registrar.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reg)
}

// Cancel handles DELETE /registrations/:id (owner or staff).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	ctx := c.Request.Context()
	reg, err := h.reader.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if reg.UserID != claims.UserID && !claims.IsAdmin() {
		response.Forbidden(c, "cannot cancel another user's registration")
		return
	}
	if err := h.registrar.Cancel(ctx, reg); err != nil {
		response.FromError(c, err)
		return
	}
	h.logger.Info("registration cancelled", zap.String("registration_id", id.String()))
	response.NoContent(c)
}
