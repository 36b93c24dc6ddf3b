package identity

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// UserStore is the part of the repository the handler needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, u *models.User, password string) error
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.UserPublic, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileSaver stores a profile and syncs the owner's group membership.
type ProfileSaver interface {
	Save(ctx context.Context, p *models.Profile) error
}

// GroupLister lists a user's group names.
type GroupLister interface {
	GroupsOf(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Handler handles identity HTTP endpoints.
type Handler struct {
	users    UserStore
	groups   GroupLister
	profiles ProfileSaver
	logger   *zap.Logger
}

// NewHandler creates an identity handler.
func NewHandler(users UserStore, groups GroupLister, profiles ProfileSaver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, groups: groups, profiles: profiles, logger: logger}
}

// ProfileRequest is the nested profile of POST /users.
type ProfileRequest struct {
	Phone *string `json:"phone" binding:"omitempty,max=20"`
	Role  string  `json:"role"`
}

// CreateRequest is the body of POST /users.
type CreateRequest struct {
	Username  string          `json:"username" binding:"required,max=150"`
	Password  string          `json:"password" binding:"omitempty,min=6"`
	Email     string          `json:"email" binding:"omitempty,email,max=254"`
	FirstName string          `json:"first_name" binding:"max=150"`
	LastName  string          `json:"last_name" binding:"max=150"`
	Profile   *ProfileRequest `json:"profile"`
}

// UpdateRequest is the body of PATCH /users/:id. Omitted fields keep their value.
type UpdateRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=1,max=150"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
}

// Create handles POST /users (staff only): the user and its profile.
// The user is removed again when the profile cannot be stored.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var profileReq ProfileRequest
	if req.Profile != nil {
		profileReq = *req.Profile
	}
	role, err := models.ParseRole(profileReq.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	ctx := c.Request.Context()
	u := &models.User{Username: req.Username, Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
	if err := h.users.Create(ctx, u, req.Password); err != nil {
		h.logger.Warn("create user failed", zap.Error(err), zap.String("username", req.Username))
		response.FromError(c, err)
		return
	}

	p := &models.Profile{UserID: u.ID, Phone: profileReq.Phone, Role: role}
	if err := h.profiles.Save(ctx, p); err != nil {
		h.logger.Warn("save profile failed", zap.Error(err), zap.String("user_id", u.ID.String()))
		if derr := h.users.Delete(ctx, u.ID); derr != nil {
			h.logger.Error("remove user without profile", zap.Error(derr), zap.String("user_id", u.ID.String()))
		}
		response.FromError(c, err)
		return
	}

	// Group sync may have flipped is_staff.
	if fresh, err := h.users.GetByID(ctx, u.ID); err == nil {
		u = fresh
	}
	h.logger.Info("user created", zap.String("user_id", u.ID.String()), zap.String("role", string(role)))
	response.Created(c, models.UserDetail{
		UserPublic:    u.ToPublic(),
		Profile:       p,
		Registrations: []models.Registration{},
		LedActivities: []models.Activity{},
	})
}

// Update handles PATCH /users/:id. Users may edit themselves; staff may edit anyone.
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
		response.Forbidden(c, "cannot edit another user")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if err := h.users.Update(ctx, u); err != nil {
		h.logger.Warn("update user failed", zap.Error(err), zap.String("user_id", id.String()))
		response.FromError(c, err)
		return
	}
	h.logger.Info("user updated", zap.String("user_id", id.String()))
	response.OK(c, u.ToPublic())
}

// List handles GET /users (staff only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /users/:id (staff only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.logger.Warn("delete user failed", zap.Error(err), zap.String("user_id", id.String()))
		response.FromError(c, err)
		return
	}
	h.logger.Info("user deleted", zap.String("user_id", id.String()))
	response.NoContent(c)
}

// Groups handles GET /users/:id/groups.
func (h *Handler) Groups(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	names, err := h.groups.GroupsOf(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": id, "groups": names})
}
