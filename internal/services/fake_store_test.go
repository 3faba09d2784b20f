package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventcheckin/internal/domain"
)

// fakeTransactor is an in-memory domain.Transactor. Transactions run one at a time
// and are rolled back by restoring a snapshot.
//
// Because of that serialisation the concurrency tests cannot by themselves catch a
// missing row lock. Each store therefore remembers which event rows it locked, and
// counting participants or writing the event's capacity fails unless that event
// was read with GetByIDForUpdate in the same transaction.
type fakeTransactor struct {
	mu           sync.Mutex
	events       map[string]*domain.Event
	participants map[string]*domain.EventParticipant // keyed by eventID + ":" + userID

	txErrs    []error // returned by the next WithinTx calls before running fn
	updateErr error   // returned by participant Update when set
	txCount   int
	locked    []string // event IDs read with GetByIDForUpdate
}

func newFakeTransactor(events ...*domain.Event) *fakeTransactor {
	f := &fakeTransactor{
		events:       make(map[string]*domain.Event),
		participants: make(map[string]*domain.EventParticipant),
	}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store domain.RegistrationStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txCount++
	if len(f.txErrs) > 0 {
		err := f.txErrs[0]
		f.txErrs = f.txErrs[1:]
		return err
	}

	events, participants := f.snapshot()
	if err := fn(ctx, &fakeStore{f: f, lockedEvents: make(map[string]bool)}); err != nil {
		f.events, f.participants = events, participants
		return err
	}
	return nil
}

func (f *fakeTransactor) snapshot() (map[string]*domain.Event, map[string]*domain.EventParticipant) {
	events := make(map[string]*domain.Event, len(f.events))
	for k, v := range f.events {
		events[k] = copyEvent(v)
	}
	participants := make(map[string]*domain.EventParticipant, len(f.participants))
	for k, v := range f.participants {
		participants[k] = copyParticipant(v)
	}
	return events, participants
}

func (f *fakeTransactor) event(id string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyEvent(f.events[id])
}

func (f *fakeTransactor) participant(eventID, userID string) *domain.EventParticipant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyParticipant(f.participants[eventID+":"+userID])
}

func (f *fakeTransactor) activeCount(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countActive(eventID)
}

func (f *fakeTransactor) countActive(eventID string) int {
	n := 0
	for _, p := range f.participants {
		if p.EventID == eventID && p.Status.Active() {
			n++
		}
	}
	return n
}

type fakeStore struct {
	f            *fakeTransactor
	lockedEvents map[string]bool
}

func (s *fakeStore) Events() domain.EventRepository             { return fakeEvents{f: s.f, s: s} }
func (s *fakeStore) Participants() domain.ParticipantRepository { return fakeParticipants{s.f} }

// requireLock fails like a broken invariant would: a capacity read or write on
// an event row the transaction never locked.
func (s *fakeStore) requireLock(eventID string) error {
	if !s.lockedEvents[eventID] {
		return fmt.Errorf("event %s used for capacity without FOR UPDATE", eventID)
	}
	return nil
}

type fakeEvents struct {
	f *fakeTransactor
	s *fakeStore
}

func (r fakeEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := r.f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r fakeEvents) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	r.f.locked = append(r.f.locked, id)
	e, err := r.GetByID(ctx, id)
	if err == nil {
		r.s.lockedEvents[id] = true
	}
	return e, err
}

func (r fakeEvents) CountActiveParticipants(ctx context.Context, eventID string) (int, error) {
	if err := r.s.requireLock(eventID); err != nil {
		return 0, err
	}
	return r.f.countActive(eventID), nil
}

func (r fakeEvents) UpdateCapacity(ctx context.Context, eventID string, count int, status domain.EventStatus, updatedAt time.Time) error {
	if err := r.s.requireLock(eventID); err != nil {
		return err
	}
	e, ok := r.f.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	e.ParticipantCount = count
	e.Status = status
	e.UpdatedAt = updatedAt
	return nil
}

type fakeParticipants struct{ f *fakeTransactor }

func (r fakeParticipants) GetByEventAndUserForUpdate(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	p, ok := r.f.participants[eventID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyParticipant(p), nil
}

func (r fakeParticipants) Create(ctx context.Context, p *domain.EventParticipant) error {
	key := p.EventID + ":" + p.UserID
	if _, ok := r.f.participants[key]; ok {
		return domain.ErrAlreadyRegistered
	}
	r.f.participants[key] = copyParticipant(p)
	return nil
}

func (r fakeParticipants) Update(ctx context.Context, p *domain.EventParticipant) error {
	if r.f.updateErr != nil {
		return r.f.updateErr
	}
	key := p.EventID + ":" + p.UserID
	if _, ok := r.f.participants[key]; !ok {
		return domain.ErrNotFound
	}
	r.f.participants[key] = copyParticipant(p)
	return nil
}

func (r fakeParticipants) ListActiveByEventID(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	var list []*domain.EventParticipant
	for _, p := range r.f.participants {
		if p.EventID == eventID && p.Status.Active() {
			list = append(list, copyParticipant(p))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func copyEvent(e *domain.Event) *domain.Event {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func copyParticipant(p *domain.EventParticipant) *domain.EventParticipant {
	if p == nil {
		return nil
	}
	c := *p
	if p.CheckedInAt != nil {
		t := *p.CheckedInAt
		c.CheckedInAt = &t
	}
	if p.CheckInLocation != nil {
		l := *p.CheckInLocation
		c.CheckInLocation = &l
	}
	return &c
}
