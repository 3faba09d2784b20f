package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/geo"
)

type registrationService struct {
	tx             domain.Transactor
	policy         geo.Policy
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
	retry          retryPolicy
	contextTimeout time.Duration
}

// RegistrationOption customises a RegistrationService.
type RegistrationOption func(*registrationService)

// WithClock overrides the wall clock used for check-in windows and timestamps.
func WithClock(now func() time.Time) RegistrationOption {
	return func(s *registrationService) { s.now = now }
}

// WithIDGenerator overrides how new participant IDs are minted.
func WithIDGenerator(newID func() string) RegistrationOption {
	return func(s *registrationService) { s.newID = newID }
}

// WithRetry sets how many times a transaction that failed with a retryable
// infrastructure error is attempted, and the initial backoff delay.
func WithRetry(attempts int, baseDelay time.Duration) RegistrationOption {
	return func(s *registrationService) {
		s.retry.attempts = attempts
		s.retry.baseDelay = baseDelay
	}
}

// WithTimeout bounds each operation, retries included.
func WithTimeout(d time.Duration) RegistrationOption {
	return func(s *registrationService) { s.contextTimeout = d }
}

// NewRegistrationService creates a RegistrationService that runs every operation in
// one transaction obtained from tx.
func NewRegistrationService(tx domain.Transactor, policy geo.Policy, logger *slog.Logger, opts ...RegistrationOption) domain.RegistrationService {
	s := &registrationService{
		tx:     tx,
		policy: policy,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		retry: retryPolicy{
			attempts:  defaultRetryAttempts,
			baseDelay: defaultRetryDelay,
			jitter:    defaultRetryJitter,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *registrationService) Join(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	var joined *domain.EventParticipant
	err := s.run(ctx, "join", eventID, userID, func(ctx context.Context, store domain.RegistrationStore) error {
		now := s.now()

		// The event row lock serialises every Join and Leave on this event, so the
		// count read below cannot go stale before commit.
		event, err := store.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEventNotFound
			}
			return err
		}
		// A full event is left to the capacity check below, which reports event_full
		// from the fresh count rather than trusting the stored status. Rejecting it
		// here as event_not_open would leave event_full with no caller.
		if event.Status != domain.EventStatusOpen && event.Status != domain.EventStatusFull {
			return domain.NewEventNotOpenError(event.Status)
		}

		existing, err := store.Participants().GetByEventAndUserForUpdate(ctx, eventID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := domain.CanJoin(existing); err != nil {
			return err
		}

		count, err := store.Events().CountActiveParticipants(ctx, eventID)
		if err != nil {
			return err
		}
		if !domain.HasCapacity(event.ParticipantLimit, count) {
			return domain.ErrEventFull
		}

		if existing == nil {
			joined = domain.NewEventParticipant(s.newID(), eventID, userID, now)
			if err := store.Participants().Create(ctx, joined); err != nil {
				return err
			}
		} else {
			existing.Reregister(now)
			if err := store.Participants().Update(ctx, existing); err != nil {
				return err
			}
			joined = existing
		}

		return s.syncCapacity(ctx, store, event, now)
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

func (s *registrationService) CheckIn(ctx context.Context, eventID, userID string, location geo.Point) (*domain.EventParticipant, error) {
	var checkedIn *domain.EventParticipant
	err := s.run(ctx, "check_in", eventID, userID, func(ctx context.Context, store domain.RegistrationStore) error {
		now := s.now()

		// Check-in never changes the active count, so the event row is read without a lock.
		event, err := store.Events().GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEventNotFound
			}
			return err
		}

		decision := s.policy.Evaluate(event.StartTime, event.StartLocation, now, location)
		if decision.Outcome != geo.Accepted {
			s.logger.DebugContext(ctx, "check-in outside policy",
				"event_id", eventID,
				"outcome", decision.Outcome.String(),
				"window_opens_at", decision.WindowOpensAt,
			)
		}
		switch decision.Outcome {
		case geo.TooEarly:
			return domain.NewCheckInTooEarlyError(decision.WindowOpensAt, decision.WindowClosesAt)
		case geo.TooLate:
			return domain.NewCheckInTooLateError(decision.WindowOpensAt, decision.WindowClosesAt)
		case geo.TooFar:
			return domain.NewCheckInTooFarError(decision.RoundedDistance(), decision.MaxDistanceMeters)
		}

		p, err := s.lockParticipant(ctx, store, eventID, userID)
		if err != nil {
			return err
		}
		if err := domain.CanCheckIn(p); err != nil {
			return err
		}

		p.CheckIn(now, location)
		if err := store.Participants().Update(ctx, p); err != nil {
			return err
		}
		checkedIn = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkedIn, nil
}

func (s *registrationService) Leave(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	var left *domain.EventParticipant
	err := s.run(ctx, "leave", eventID, userID, func(ctx context.Context, store domain.RegistrationStore) error {
		now := s.now()

		// Same lock order as Join: event row first, then the participant row.
		event, err := store.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotRegistered
			}
			return err
		}

		p, err := s.lockParticipant(ctx, store, eventID, userID)
		if err != nil {
			return err
		}
		if err := domain.CanLeave(p); err != nil {
			return err
		}

		p.Cancel(now)
		if err := store.Participants().Update(ctx, p); err != nil {
			return err
		}
		left = p

		return s.syncCapacity(ctx, store, event, now)
	})
	if err != nil {
		return nil, err
	}
	return left, nil
}

func (s *registrationService) ListParticipants(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	var participants []*domain.EventParticipant
	err := s.run(ctx, "list_participants", eventID, "", func(ctx context.Context, store domain.RegistrationStore) error {
		if _, err := store.Events().GetByID(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEventNotFound
			}
			return err
		}
		list, err := store.Participants().ListActiveByEventID(ctx, eventID)
		if err != nil {
			return err
		}
		participants = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []*domain.EventParticipant{}
	}
	return participants, nil
}

// lockParticipant returns the locked participant row, or nil when none exists.
func (s *registrationService) lockParticipant(ctx context.Context, store domain.RegistrationStore, eventID, userID string) (*domain.EventParticipant, error) {
	p, err := store.Participants().GetByEventAndUserForUpdate(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// syncCapacity recounts active participants and derives the event status. It must
// run under the event row lock taken by the caller's transaction.
func (s *registrationService) syncCapacity(ctx context.Context, store domain.RegistrationStore, event *domain.Event, now time.Time) error {
	count, err := store.Events().CountActiveParticipants(ctx, event.ID)
	if err != nil {
		return err
	}
	status := domain.DeriveEventStatus(event.Status, event.ParticipantLimit, count)
	if err := store.Events().UpdateCapacity(ctx, event.ID, count, status, now); err != nil {
		return err
	}
	if status != event.Status {
		s.logger.InfoContext(ctx, "event status changed",
			"event_id", event.ID,
			"from", string(event.Status),
			"to", string(status),
			"participant_count", count,
		)
	}
	event.Status = status
	event.ParticipantCount = count
	event.UpdatedAt = now
	return nil
}

// run executes fn in a transaction, retrying transient infrastructure failures,
// and logs the outcome.
func (s *registrationService) run(ctx context.Context, op, eventID, userID string, fn func(ctx context.Context, store domain.RegistrationStore) error) error {
	if s.contextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.contextTimeout)
		defer cancel()
	}

	err := retryTransient(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, fn)
	})

	switch re, isBusiness := domain.AsRegistrationError(err); {
	case err == nil:
		s.logger.InfoContext(ctx, "registration operation succeeded", "op", op, "event_id", eventID, "user_id", userID)
	case isBusiness:
		s.logger.DebugContext(ctx, "registration operation rejected", "op", op, "event_id", eventID, "user_id", userID, "code", string(re.Code))
	default:
		s.logger.ErrorContext(ctx, "registration operation failed", "op", op, "event_id", eventID, "user_id", userID, "retryable", domain.IsRetryable(err), "err", err)
	}
	return err
}
