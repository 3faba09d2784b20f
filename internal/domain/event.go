package domain

import (
	"context"
	"time"

	"eventcheckin/internal/geo"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusFull      EventStatus = "full"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Terminal reports whether the status is frozen against capacity changes.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCancelled || s == EventStatusCompleted
}

// Event represents a live event. Events are created elsewhere; this service only
// maintains ParticipantCount and the open/full status.
// swagger:model Event
type Event struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Status           EventStatus `json:"status"`
	StartTime        time.Time   `json:"start_time"`
	StartLocation    geo.Point   `json:"start_location"`
	ParticipantLimit *int        `json:"participant_limit,omitempty"`
	ParticipantCount int         `json:"participant_count"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// EventRepository defines the event storage operations used by registration.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate reads the event and holds an exclusive row lock until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	CountActiveParticipants(ctx context.Context, eventID string) (int, error)
	UpdateCapacity(ctx context.Context, eventID string, count int, status EventStatus, updatedAt time.Time) error
}
