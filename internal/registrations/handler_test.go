package registrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *mockReader) List(ctx context.Context, f models.RegistrationFilter) ([]models.Registration, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *mockReader) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) Register(ctx context.Context, userID, eventID uuid.UUID, status models.RegistrationStatus) (*models.Registration, error) {
	args := m.Called(ctx, userID, eventID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *mockRegistrar) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) (*models.Registration, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *mockRegistrar) Cancel(ctx context.Context, reg *models.Registration) error {
	return m.Called(ctx, reg).Error(0)
}

func newTestRouter(h *Handler, claims *auth.Claims) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextClaims, claims)
		}
		c.Next()
	})
	r.POST("/events/:id/registrations", h.Register)
	r.GET("/events/:id/registrations", h.ListByEvent)
	r.GET("/registrations", h.List)
	r.GET("/registrations/:id", h.GetByID)
	r.PATCH("/registrations/:id", h.UpdateStatus)
	r.DELETE("/registrations/:id", h.Cancel)
	return r
}

func do(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Register(t *testing.T) {
	eventID, userID := uuid.New(), uuid.New()
	url := "/events/" + eventID.String() + "/registrations"

	t.Run("current user", func(t *testing.T) {
		reg := new(mockRegistrar)
		reg.On("Register", mock.Anything, userID, eventID, models.RegistrationStatus("")).
			Return(&models.Registration{ID: uuid.New(), UserID: userID, EventID: eventID, Status: models.StatusConfirmed}, nil)
		h := NewHandler(new(mockReader), reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: userID}), http.MethodPost, url, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	})

	t.Run("duplicate", func(t *testing.T) {
		reg := new(mockRegistrar)
		reg.On("Register", mock.Anything, userID, eventID, mock.Anything).Return(nil, models.ErrDuplicateRegistration)
		h := NewHandler(new(mockReader), reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: userID}), http.MethodPost, url, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("status ignored for non-staff", func(t *testing.T) {
		reg := new(mockRegistrar)
		reg.On("Register", mock.Anything, userID, eventID, models.RegistrationStatus("")).
			Return(&models.Registration{}, nil)
		h := NewHandler(new(mockReader), reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: userID}), http.MethodPost, url, `{"status":"pending"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("non-staff cannot register others", func(t *testing.T) {
		h := NewHandler(new(mockReader), new(mockRegistrar), nil)
		w := do(newTestRouter(h, &auth.Claims{UserID: userID}), http.MethodPost, url, `{"user_id":"`+uuid.NewString()+`"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff registers another user as pending", func(t *testing.T) {
		other := uuid.New()
		reg := new(mockRegistrar)
		reg.On("Register", mock.Anything, other, eventID, models.StatusPending).Return(&models.Registration{}, nil)
		h := NewHandler(new(mockReader), reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: userID, IsStaff: true}), http.MethodPost, url,
			`{"user_id":"`+other.String()+`","status":"pending"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("staff with bad status", func(t *testing.T) {
		h := NewHandler(new(mockReader), new(mockRegistrar), nil)
		w := do(newTestRouter(h, &auth.Claims{UserID: userID, IsStaff: true}), http.MethodPost, url, `{"status":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewHandler(new(mockReader), new(mockRegistrar), nil)
		assert.Equal(t, http.StatusUnauthorized, do(newTestRouter(h, nil), http.MethodPost, url, "").Code)
	})
}

func TestHandler_List_Filters(t *testing.T) {
	eventID := uuid.New()
	reader := new(mockReader)
	reader.On("List", mock.Anything, mock.MatchedBy(func(f models.RegistrationFilter) bool {
		return f.Status == models.StatusPending && f.EventID != nil && *f.EventID == eventID &&
			f.RegisteredFrom != nil && f.RegisteredTo == nil && f.UserID == nil
	})).Return([]models.Registration{}, nil)
	h := NewHandler(reader, nil, nil)

	w := do(newTestRouter(h, nil), http.MethodGet,
		"/registrations?status=pending&event="+eventID.String()+"&registered_from=2024-01-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
	reader.AssertExpectations(t)

	w = do(newTestRouter(h, nil), http.MethodGet, "/registrations?user=nobody", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UpdateStatus(t *testing.T) {
	id := uuid.New()
	reg := new(mockRegistrar)
	reg.On("UpdateStatus", mock.Anything, id, models.StatusOther).Return(&models.Registration{ID: id, Status: models.StatusOther}, nil)
	h := NewHandler(new(mockReader), reg, nil)

	w := do(newTestRouter(h, &auth.Claims{IsStaff: true}), http.MethodPatch, "/registrations/"+id.String(), `{"status":"OTHER"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newTestRouter(h, &auth.Claims{IsStaff: true}), http.MethodPatch, "/registrations/"+id.String(), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Cancel(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	stored := &models.Registration{ID: id, UserID: owner}

	t.Run("owner", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetByID", mock.Anything, id).Return(stored, nil)
		reg := new(mockRegistrar)
		reg.On("Cancel", mock.Anything, stored).Return(nil)
		h := NewHandler(reader, reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: owner}), http.MethodDelete, "/registrations/"+id.String(), "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("stranger", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetByID", mock.Anything, id).Return(stored, nil)
		reg := new(mockRegistrar)
		h := NewHandler(reader, reg, nil)

		w := do(newTestRouter(h, &auth.Claims{UserID: uuid.New()}), http.MethodDelete, "/registrations/"+id.String(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		reg.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	})
}
