package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academiapress/platform-api/internal/models"
)

// EventRepository manages conference events and registrations.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns all events ordered by start date ascending.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	const query = `SELECT id, name, description, start_date, end_date, location, registration_fee, max_attendees, created_at
        FROM events ORDER BY start_date ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindByID fetches a single event.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, name, description, start_date, end_date, location, registration_fee, max_attendees, created_at
        FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// CountRegistrations aggregates registration counts per event.
func (r *EventRepository) CountRegistrations(ctx context.Context) ([]models.EventRegistrationCount, error) {
	const query = `SELECT event_id, COUNT(*) AS count FROM event_registrations GROUP BY event_id`
	var counts []models.EventRegistrationCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return counts, nil
}

// CountForEvent returns the registration count for a single event.
func (r *EventRepository) CountForEvent(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID); err != nil {
		return 0, fmt.Errorf("count event registrations: %w", err)
	}
	return count, nil
}

// IsRegistered reports whether the user already holds a registration for the
// event.
func (r *EventRepository) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	const query = `SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// ListUserRegistrations returns the event IDs the user is registered for.
func (r *EventRepository) ListUserRegistrations(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT event_id FROM event_registrations WHERE user_id = $1`
	var eventIDs []string
	if err := r.db.SelectContext(ctx, &eventIDs, query, userID); err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return eventIDs, nil
}

// CreateRegistration inserts a new registration row.
func (r *EventRepository) CreateRegistration(ctx context.Context, registration *models.EventRegistration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO event_registrations (id, event_id, user_id, registration_type, payment_status, created_at)
        VALUES (:id, :event_id, :user_id, :registration_type, :payment_status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}
