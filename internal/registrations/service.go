package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/models"
)

// Kinds of change published to event subscribers.
const (
	KindCreated = "registration_created"
	KindUpdated = "registration_updated"
	KindDeleted = "registration_deleted"
)

// Store is the persistence the service writes through.
type Store interface {
	Exists(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier publishes registration changes of an event.
type Notifier interface {
	Notify(ctx context.Context, eventID uuid.UUID, kind string, payload any) error
}

// Service enforces the registration rules.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a registration service. notifier may be nil.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Register enrols the user in the event. An empty status means confirmed.
// A second registration for the same pair fails with models.ErrDuplicateRegistration,
// whether caught by the lookup or by the unique constraint.
func (s *Service) Register(ctx context.Context, userID, eventID uuid.UUID, status models.RegistrationStatus) (*models.Registration, error) {
	if status == "" {
		status = models.StatusConfirmed
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status", "must be one of confirmed, pending, other")
	}
	exists, err := s.store.Exists(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicateRegistration
	}
	reg := &models.Registration{UserID: userID, EventID: eventID, Status: status}
	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, models.ErrDuplicateRegistration) {
			s.logger.Info("concurrent duplicate registration rejected",
				zap.String("user_id", userID.String()), zap.String("event_id", eventID.String()))
		}
		return nil, err
	}
	s.notify(ctx, reg.EventID, KindCreated, reg)
	return reg, nil
}

// UpdateStatus changes a registration's status and returns the stored row.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) (*models.Registration, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("status", "must be one of confirmed, pending, other")
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, reg.EventID, KindUpdated, reg)
	return reg, nil
}

// Cancel deletes a registration.
func (s *Service) Cancel(ctx context.Context, reg *models.Registration) error {
	if err := s.store.Delete(ctx, reg.ID); err != nil {
		return err
	}
	s.notify(ctx, reg.EventID, KindDeleted, reg)
	return nil
}

func (s *Service) notify(ctx context.Context, eventID uuid.UUID, kind string, reg *models.Registration) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, eventID, kind, reg); err != nil {
		s.logger.Warn("registration notify failed", zap.Error(err), zap.String("kind", kind))
	}
}
