package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) List(ctx context.Context) ([]models.UserPublic, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserPublic), args.Error(1)
}

func (m *mockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, u *models.User, password string) error {
	return m.Called(ctx, u, password).Error(0)
}

func (m *mockUsers) Update(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Save(ctx context.Context, p *models.Profile) error {
	return m.Called(ctx, p).Error(0)
}

type mockGroups struct {
	mock.Mock
}

func (m *mockGroups) GroupsOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func newTestRouter(users UserStore, groups GroupLister) *gin.Engine {
	return buildRouter(NewHandler(users, groups, nil, nil), nil)
}

func newWriteRouter(users UserStore, profiles ProfileSaver, claims *auth.Claims) *gin.Engine {
	return buildRouter(NewHandler(users, new(mockGroups), profiles, nil), claims)
}

func buildRouter(h *Handler, claims *auth.Claims) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextClaims, claims)
		}
		c.Next()
	})
	r.GET("/users", h.List)
	r.POST("/users", h.Create)
	r.PATCH("/users/:id", h.Update)
	r.DELETE("/users/:id", h.Delete)
	r.GET("/users/:id/groups", h.Groups)
	return r
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestHandler_List(t *testing.T) {
	users := new(mockUsers)
	users.On("List", mock.Anything).Return([]models.UserPublic{{Username: "alice"}}, nil)

	w := httptest.NewRecorder()
	newTestRouter(users, new(mockGroups)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool                `json:"success"`
		Data    []models.UserPublic `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "alice", body.Data[0].Username)
}

func TestHandler_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		id := uuid.New()
		users := new(mockUsers)
		users.On("Delete", mock.Anything, id).Return(nil)

		w := httptest.NewRecorder()
		newTestRouter(users, new(mockGroups)).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		id := uuid.New()
		users := new(mockUsers)
		users.On("Delete", mock.Anything, id).Return(models.NewNotFoundError("user", id.String()))

		w := httptest.NewRecorder()
		newTestRouter(users, new(mockGroups)).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(new(mockUsers), new(mockGroups)).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/xyz", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store down", func(t *testing.T) {
		id := uuid.New()
		users := new(mockUsers)
		users.On("Delete", mock.Anything, id).Return(models.Unavailable("delete user", errors.New("conn refused")))

		w := httptest.NewRecorder()
		newTestRouter(users, new(mockGroups)).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandler_Groups(t *testing.T) {
	id := uuid.New()
	groups := new(mockGroups)
	groups.On("GroupsOf", mock.Anything, id).Return([]string{"organizers"}, nil)

	w := httptest.NewRecorder()
	newTestRouter(new(mockUsers), groups).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+id.String()+"/groups", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "organizers")
}

func TestHandler_Create(t *testing.T) {
	newID := uuid.New()
	staff := &auth.Claims{UserID: uuid.New(), IsStaff: true}

	t.Run("user with profile", func(t *testing.T) {
		users := new(mockUsers)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "olga" && u.Email == "olga@example.com"
		}), "s3cret!").Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = newID
		}).Return(nil)
		users.On("GetByID", mock.Anything, newID).Return(&models.User{ID: newID, Username: "olga", IsStaff: true}, nil)
		profiles := new(mockProfiles)
		profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
			return p.UserID == newID && p.Role == models.RoleOrganizer && p.Phone != nil && *p.Phone == "555-0100"
		})).Return(nil)

		body := `{"username":"olga","password":"s3cret!","email":"olga@example.com",
			"profile":{"phone":"555-0100","role":"organizer"}}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		newWriteRouter(users, profiles, staff).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Data models.UserDetail `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, newID, resp.Data.ID)
		assert.True(t, resp.Data.IsStaff)
		require.NotNil(t, resp.Data.Profile)
		assert.Equal(t, models.RoleOrganizer, resp.Data.Profile.Role)
		assert.NotContains(t, w.Body.String(), "s3cret")
		users.AssertExpectations(t)
		profiles.AssertExpectations(t)
	})

	t.Run("profile defaults to participant", func(t *testing.T) {
		users := new(mockUsers)
		users.On("Create", mock.Anything, mock.Anything, "").Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = newID
		}).Return(nil)
		users.On("GetByID", mock.Anything, newID).Return(&models.User{ID: newID, Username: "ana"}, nil)
		profiles := new(mockProfiles)
		profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
			return p.Role == models.RoleParticipant && p.Phone == nil
		})).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"ana"}`))
		newWriteRouter(users, profiles, staff).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		profiles.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		users := new(mockUsers)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"ana","profile":{"role":"admin"}}`))
		newWriteRouter(users, new(mockProfiles), staff).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("username taken", func(t *testing.T) {
		users := new(mockUsers)
		users.On("Create", mock.Anything, mock.Anything, "").
			Return(models.NewValidationError("username", "a user with that username already exists"))
		profiles := new(mockProfiles)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"ana"}`))
		newWriteRouter(users, profiles, staff).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("profile failure removes user", func(t *testing.T) {
		users := new(mockUsers)
		users.On("Create", mock.Anything, mock.Anything, "").Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = newID
		}).Return(nil)
		users.On("Delete", mock.Anything, newID).Return(nil)
		profiles := new(mockProfiles)
		profiles.On("Save", mock.Anything, mock.Anything).Return(models.Unavailable("ensure group", errors.New("conn refused")))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"ana"}`))
		newWriteRouter(users, profiles, staff).ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("missing username", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"x@example.com"}`))
		newWriteRouter(new(mockUsers), new(mockProfiles), staff).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Update(t *testing.T) {
	self := uuid.New()
	url := "/users/" + self.String()
	current := func() *models.User {
		return &models.User{ID: self, Username: "ana", Email: "ana@example.com", FirstName: "Ana", Password: "hash"}
	}

	t.Run("self edits names", func(t *testing.T) {
		users := new(mockUsers)
		users.On("GetByID", mock.Anything, self).Return(current(), nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "ana" && u.Email == "ana@example.com" && u.FirstName == "Ana" && u.LastName == "Souza"
		})).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"last_name":"Souza"}`))
		newWriteRouter(users, nil, &auth.Claims{UserID: self}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Souza")
		assert.NotContains(t, w.Body.String(), "hash")
		users.AssertExpectations(t)
	})

	t.Run("staff renames another user", func(t *testing.T) {
		users := new(mockUsers)
		users.On("GetByID", mock.Anything, self).Return(current(), nil)
		users.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "ana.souza"
		})).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"username":"ana.souza"}`))
		newWriteRouter(users, nil, &auth.Claims{UserID: uuid.New(), IsStaff: true}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		users := new(mockUsers)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"first_name":"X"}`))
		newWriteRouter(users, nil, &auth.Claims{UserID: uuid.New()}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("no token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{}`))
		newWriteRouter(new(mockUsers), nil, nil).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUsers)
		users.On("GetByID", mock.Anything, self).Return(nil, models.NewNotFoundError("user", self.String()))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"first_name":"X"}`))
		newWriteRouter(users, nil, &auth.Claims{UserID: self}).ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
