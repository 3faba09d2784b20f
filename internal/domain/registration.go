package domain

import (
	"context"

	"eventcheckin/internal/geo"
)

// RegistrationStore exposes the repositories bound to one transaction.
type RegistrationStore interface {
	Events() EventRepository
	Participants() ParticipantRepository
}

// Transactor runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise; row locks taken through
// the store are held until then.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store RegistrationStore) error) error
}

// RegistrationService defines the participant-facing operations on an event.
type RegistrationService interface {
	Join(ctx context.Context, eventID, userID string) (*EventParticipant, error)
	CheckIn(ctx context.Context, eventID, userID string, location geo.Point) (*EventParticipant, error)
	Leave(ctx context.Context, eventID, userID string) (*EventParticipant, error)
	ListParticipants(ctx context.Context, eventID string) ([]*EventParticipant, error)
}

// TokenVerifier verifies a bearer token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
