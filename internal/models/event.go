package models

import "time"

// Event lifecycle states derived from the current time.
const (
	EventUpcoming = "Upcoming"
	EventLive     = "Live"
	EventEnded    = "Ended"
)

// Event is a conference or workshop open for registration.
type Event struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
	Location        string    `db:"location" json:"location"`
	RegistrationFee float64   `db:"registration_fee" json:"registration_fee"`
	MaxAttendees    int       `db:"max_attendees" json:"max_attendees"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// StatusAt derives the lifecycle state for the given reference time.
func (e Event) StatusAt(now time.Time) string {
	if now.Before(e.StartDate) {
		return EventUpcoming
	}
	if !now.After(e.EndDate) {
		return EventLive
	}
	return EventEnded
}

// EventRegistration links a user to an event.
type EventRegistration struct {
	ID               string    `db:"id" json:"id"`
	EventID          string    `db:"event_id" json:"event_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	RegistrationType string    `db:"registration_type" json:"registration_type"`
	PaymentStatus    string    `db:"payment_status" json:"payment_status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// EventRegistrationCount aggregates registrations per event.
type EventRegistrationCount struct {
	EventID string `db:"event_id" json:"event_id"`
	Count   int    `db:"count" json:"count"`
}
