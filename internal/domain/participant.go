package domain

import (
	"context"
	"time"

	"eventcheckin/internal/geo"
)

// ParticipantStatus is the state of one user's registration for one event.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantCheckedIn  ParticipantStatus = "checked_in"
	ParticipantCancelled  ParticipantStatus = "cancelled"
	// ParticipantNoShow is a valid persisted state. Nothing in this service moves a
	// participant into it.
	ParticipantNoShow ParticipantStatus = "no_show"
)

// Active reports whether the status counts toward the event's capacity.
func (s ParticipantStatus) Active() bool {
	return s == ParticipantRegistered || s == ParticipantCheckedIn
}

// EventParticipant is the single row tying a user to an event. The row is reused
// across leave and re-join; it is never deleted.
// swagger:model EventParticipant
type EventParticipant struct {
	ID              string            `json:"id"`
	EventID         string            `json:"event_id"`
	UserID          string            `json:"user_id"`
	Status          ParticipantStatus `json:"status"`
	CheckedInAt     *time.Time        `json:"checked_in_at,omitempty"`
	CheckInLocation *geo.Point        `json:"check_in_location,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewEventParticipant returns a freshly registered participant.
func NewEventParticipant(id, eventID, userID string, now time.Time) *EventParticipant {
	return &EventParticipant{
		ID:        id,
		EventID:   eventID,
		UserID:    userID,
		Status:    ParticipantRegistered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanJoin checks the join transition. A nil participant means no row exists yet.
func CanJoin(p *EventParticipant) error {
	if p != nil && p.Status.Active() {
		return ErrAlreadyRegistered
	}
	return nil
}

// CanCheckIn checks the registered → checked_in transition.
func CanCheckIn(p *EventParticipant) error {
	if p == nil {
		return ErrNotRegistered
	}
	switch p.Status {
	case ParticipantRegistered:
		return nil
	case ParticipantCheckedIn:
		return ErrAlreadyCheckedIn
	default:
		return ErrRegistrationCancelled
	}
}

// CanLeave checks the transition into cancelled.
func CanLeave(p *EventParticipant) error {
	if p == nil {
		return ErrNotRegistered
	}
	if !p.Status.Active() {
		return ErrAlreadyCancelled
	}
	return nil
}

// Reregister flips an inactive row back to registered, keeping ID and CreatedAt.
func (p *EventParticipant) Reregister(now time.Time) {
	p.Status = ParticipantRegistered
	p.UpdatedAt = now
}

// CheckIn stamps the check-in time and location.
func (p *EventParticipant) CheckIn(now time.Time, at geo.Point) {
	p.Status = ParticipantCheckedIn
	p.CheckedInAt = &now
	p.CheckInLocation = &at
	p.UpdatedAt = now
}

// Cancel moves the participant to cancelled.
func (p *EventParticipant) Cancel(now time.Time) {
	p.Status = ParticipantCancelled
	p.UpdatedAt = now
}

// ParticipantRepository defines participant storage operations.
type ParticipantRepository interface {
	// GetByEventAndUserForUpdate reads the participant row and locks it until the
	// surrounding transaction ends. Returns ErrNotFound when no row exists.
	GetByEventAndUserForUpdate(ctx context.Context, eventID, userID string) (*EventParticipant, error)
	Create(ctx context.Context, p *EventParticipant) error
	Update(ctx context.Context, p *EventParticipant) error
	ListActiveByEventID(ctx context.Context, eventID string) ([]*EventParticipant, error)
}
