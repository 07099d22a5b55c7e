package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	CountRegistrations(ctx context.Context) ([]models.EventRegistrationCount, error)
	CountForEvent(ctx context.Context, eventID string) (int, error)
	IsRegistered(ctx context.Context, eventID, userID string) (bool, error)
	ListUserRegistrations(ctx context.Context, userID string) ([]string, error)
	CreateRegistration(ctx context.Context, registration *models.EventRegistration) error
}

// EventView is an event decorated with its derived lifecycle state and
// registration figures.
type EventView struct {
	models.Event
	Status       string `json:"status"`
	Registered   int    `json:"registered"`
	UserAttends  bool   `json:"user_attends"`
	SeatsLeft    int    `json:"seats_left"`
	AcceptingNew bool   `json:"accepting_new"`
}

// RegisterEventRequest enrolls a user into an event.
type RegisterEventRequest struct {
	EventID          string `json:"event_id" validate:"required"`
	UserID           string `json:"user_id" validate:"required"`
	RegistrationType string `json:"registration_type"`
}

// EventService manages conference listings and registrations.
type EventService struct {
	repo   eventRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, logger: logger, now: time.Now}
}

// List returns all events with their lifecycle state, attendance counts and,
// when userID is set, the caller's registration flag.
func (s *EventService) List(ctx context.Context, userID string) ([]EventView, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	counts, err := s.repo.CountRegistrations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	countByEvent := make(map[string]int, len(counts))
	for _, c := range counts {
		countByEvent[c.EventID] = c.Count
	}
	attended := map[string]struct{}{}
	if userID != "" {
		ids, err := s.repo.ListUserRegistrations(ctx, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
		}
		for _, id := range ids {
			attended[id] = struct{}{}
		}
	}

	now := s.now().UTC()
	views := make([]EventView, 0, len(events))
	for _, event := range events {
		registered := countByEvent[event.ID]
		seatsLeft := event.MaxAttendees - registered
		if event.MaxAttendees <= 0 {
			seatsLeft = -1
		}
		_, attends := attended[event.ID]
		status := event.StatusAt(now)
		views = append(views, EventView{
			Event:        event,
			Status:       status,
			Registered:   registered,
			UserAttends:  attends,
			SeatsLeft:    seatsLeft,
			AcceptingNew: status != models.EventEnded && (seatsLeft != 0),
		})
	}
	return views, nil
}

// Register enrolls a user into an event. A user can register at most once
// per event, ended events reject new registrations, and full events are
// closed.
func (s *EventService) Register(ctx context.Context, req RegisterEventRequest) (*models.EventRegistration, error) {
	if req.EventID == "" || req.UserID == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "event id and user id are required")
	}
	event, err := s.repo.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.StatusAt(s.now().UTC()) == models.EventEnded {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "event has already ended")
	}
	already, err := s.repo.IsRegistered(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if already {
		return nil, appErrors.ErrAlreadyRegistered
	}
	if event.MaxAttendees > 0 {
		count, err := s.repo.CountForEvent(ctx, req.EventID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
		}
		if count >= event.MaxAttendees {
			return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "event is at capacity")
		}
	}

	registrationType := req.RegistrationType
	if registrationType == "" {
		registrationType = "attendee"
	}
	paymentStatus := "paid"
	if event.RegistrationFee > 0 {
		paymentStatus = "pending"
	}
	registration := &models.EventRegistration{
		ID:               uuid.NewString(),
		EventID:          req.EventID,
		UserID:           req.UserID,
		RegistrationType: registrationType,
		PaymentStatus:    paymentStatus,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.CreateRegistration(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register")
	}
	s.logger.Info("event registration created", zap.String("event_id", req.EventID), zap.String("user_id", req.UserID))
	return registration, nil
}
