package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/middleware"
	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/internal/service"
)

type fakeEventRepo struct {
	events     []models.Event
	counts     []models.EventRegistrationCount
	registered map[string]bool
	created    int
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
	return nil, nil
}

func (f *fakeEventRepo) CreateRegistration(context.Context, *models.EventRegistration) error {
	f.created++
	return nil
}

func TestEventHandlerListAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "e1", Name: "GopherCon Research Track", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)},
	}}
	handler := NewEventHandler(service.NewEventService(repo, zap.NewNop()))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GopherCon Research Track")
	assert.Contains(t, rec.Body.String(), models.EventUpcoming)
}

func TestEventHandlerRegisterRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEventHandler(service.NewEventService(&fakeEventRepo{}, zap.NewNop()))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/events/e1/register", nil)

	handler.Register(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	repo := &fakeEventRepo{events: []models.Event{
		{ID: "e1", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)},
	}}
	handler := NewEventHandler(service.NewEventService(repo, zap.NewNop()))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/events/e1/register", strings.NewReader(`{"registration_type":"speaker"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	c.Set(middleware.ContextUserKey, &models.AccessClaims{UserID: "u1", Role: models.RoleAuthor})

	handler.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, repo.created)
	assert.Contains(t, rec.Body.String(), "speaker")
}
