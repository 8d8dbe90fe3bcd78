package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCodeSent EventType = "account.code_sent"
	EventVerified EventType = "account.verified"
	EventLoggedIn EventType = "account.logged_in"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, userID int64, email string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// CodeSentPayload payload.
type CodeSentPayload struct {
	TTLSeconds int `json:"ttl_seconds"`
}

// LoggedInPayload payload.
type LoggedInPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}
