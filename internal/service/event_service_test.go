package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
)

type fakeEventRepo struct {
	events        []models.Event
	counts        []models.EventRegistrationCount
	registered    map[string]bool
	userEvents    []string
	registrations []models.EventRegistration
}

func (f *fakeEventRepo) List(context.Context) ([]models.Event, error) {
	return f.events, nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id string) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) CountRegistrations(context.Context) ([]models.EventRegistrationCount, error) {
	return f.counts, nil
}

func (f *fakeEventRepo) CountForEvent(_ context.Context, eventID string) (int, error) {
	for _, c := range f.counts {
		if c.EventID == eventID {
			return c.Count, nil
		}
	}
	return 0, nil
}

func (f *fakeEventRepo) IsRegistered(_ context.Context, eventID, userID string) (bool, error) {
	return f.registered[eventID+":"+userID], nil
}

func (f *fakeEventRepo) ListUserRegistrations(context.Context, string) ([]string, error) {
	return f.userEvents, nil
}

func (f *fakeEventRepo) CreateRegistration(_ context.Context, registration *models.EventRegistration) error {
	f.registrations = append(f.registrations, *registration)
	return nil
}

func fixedEventService(repo *fakeEventRepo, now time.Time) *EventService {
	svc := NewEventService(repo, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestEventServiceListDerivesStatus(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events: []models.Event{
			{ID: "upcoming", StartDate: now.Add(24 * time.Hour), EndDate: now.Add(48 * time.Hour), MaxAttendees: 100},
			{ID: "live", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), MaxAttendees: 2},
			{ID: "ended", StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour)},
		},
		counts:     []models.EventRegistrationCount{{EventID: "live", Count: 2}},
		userEvents: []string{"live"},
	}
	svc := fixedEventService(repo, now)

	views, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, models.EventUpcoming, views[0].Status)
	assert.True(t, views[0].AcceptingNew)

	assert.Equal(t, models.EventLive, views[1].Status)
	assert.True(t, views[1].UserAttends)
	assert.Equal(t, 0, views[1].SeatsLeft)
	assert.False(t, views[1].AcceptingNew)

	assert.Equal(t, models.EventEnded, views[2].Status)
	assert.False(t, views[2].AcceptingNew)
}

func TestEventServiceRegisterDuplicate(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events:     []models.Event{{ID: "e1", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)}},
		registered: map[string]bool{"e1:u1": true},
	}
	svc := fixedEventService(repo, now)

	_, err := svc.Register(context.Background(), RegisterEventRequest{EventID: "e1", UserID: "u1"})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyRegistered)
	assert.Empty(t, repo.registrations)
}

func TestEventServiceRegisterEndedEvent(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events: []models.Event{{ID: "e1", StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour)}},
	}
	svc := fixedEventService(repo, now)

	_, err := svc.Register(context.Background(), RegisterEventRequest{EventID: "e1", UserID: "u1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEventServiceRegisterAtCapacity(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events: []models.Event{{ID: "e1", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour), MaxAttendees: 3}},
		counts: []models.EventRegistrationCount{{EventID: "e1", Count: 3}},
	}
	svc := fixedEventService(repo, now)

	_, err := svc.Register(context.Background(), RegisterEventRequest{EventID: "e1", UserID: "u1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEventServiceRegisterPaidEvent(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events: []models.Event{{ID: "e1", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour), RegistrationFee: 99.0}},
	}
	svc := fixedEventService(repo, now)

	registration, err := svc.Register(context.Background(), RegisterEventRequest{EventID: "e1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "pending", registration.PaymentStatus)
	assert.Equal(t, "attendee", registration.RegistrationType)
	assert.Len(t, repo.registrations, 1)
}

func TestEventServiceRegisterUnknownEvent(t *testing.T) {
	svc := fixedEventService(&fakeEventRepo{}, time.Now())

	_, err := svc.Register(context.Background(), RegisterEventRequest{EventID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
