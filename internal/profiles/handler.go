package profiles

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// Store persists profiles.
type Store interface {
	Save(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	List(ctx context.Context, role models.Role) ([]models.ProfileWithUser, error)
}

// UserGetter loads identities.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RegistrationLister lists a user's registrations.
type RegistrationLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
}

// ActivityLister lists activities matching a filter.
type ActivityLister interface {
	List(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error)
}

// Handler serves profile and user detail endpoints.
type Handler struct {
	profiles      Store
	users         UserGetter
	registrations RegistrationLister
	activities    ActivityLister
	logger        *zap.Logger
}

// NewHandler creates a profiles handler.
func NewHandler(profiles Store, users UserGetter, registrations RegistrationLister, activities ActivityLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		profiles:      profiles,
		users:         users,
		registrations: registrations,
		activities:    activities,
		logger:        logger,
	}
}

// UpdateRequest is the body of PUT /users/:id/profile.
type UpdateRequest struct {
	Phone *string `json:"phone" binding:"omitempty,max=20"`
	Role  string  `json:"role"`
}

// List handles GET /profiles?role=.
func (h *Handler) List(c *gin.Context) {
	var role models.Role
	if raw := c.Query("role"); raw != "" {
		r, err := models.ParseRole(raw)
		if err != nil {
			response.FromError(c, err)
			return
		}
		role = r
	}
	list, err := h.profiles.List(c.Request.Context(), role)
	if err != nil {
		h.logger.Error("list profiles failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /users/:id/profile.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, p)
}

// Update handles PUT /users/:id/profile. Users may edit their own phone;
// changing a role requires staff.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	if claims.UserID != id && !claims.IsAdmin() {
		response.Forbidden(c, "cannot edit another user's profile")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	current, err := h.profiles.Get(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		response.FromError(c, err)
		return
	}
	role := models.RoleParticipant
	if current != nil {
		role = current.Role
	}
	if req.Role != "" {
		requested, err := models.ParseRole(req.Role)
		if err != nil {
			response.FromError(c, err)
			return
		}
		if requested != role && !claims.IsAdmin() {
			response.Forbidden(c, "only staff can change roles")
			return
		}
		role = requested
	}

	phone := req.Phone
	if phone == nil && current != nil {
		phone = current.Phone
	}

	p := &models.Profile{UserID: id, Phone: phone, Role: role}
	if err := h.profiles.Save(ctx, p); err != nil {
		h.logger.Warn("save profile failed", zap.Error(err), zap.String("user_id", id.String()))
		response.FromError(c, err)
		return
	}
	h.logger.Info("profile saved", zap.String("user_id", id.String()), zap.String("role", string(p.Role)))
	response.OK(c, p)
}

// UserDetail handles GET /users/:id: the user with profile, registrations and led activities.
func (h *Handler) UserDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	detail := models.UserDetail{UserPublic: u.ToPublic()}

	p, err := h.profiles.Get(ctx, id)
	switch {
	case err == nil:
		detail.Profile = p
	case !errors.Is(err, models.ErrNotFound):
		response.FromError(c, err)
		return
	}
	if detail.Registrations, err = h.registrations.ListByUser(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	if detail.LedActivities, err = h.activities.List(ctx, models.ActivityFilter{ResponsibleID: &id}); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, detail)
}
