package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventcheckin/internal/domain"
)

type registrationStore struct {
	events       domain.EventRepository
	participants domain.ParticipantRepository
}

func (s *registrationStore) Events() domain.EventRepository             { return s.events }
func (s *registrationStore) Participants() domain.ParticipantRepository { return s.participants }

type transactor struct {
	DB          *sql.DB
	lockTimeout time.Duration
}

// NewTransactor returns a domain.Transactor backed by db. When lockTimeout is
// positive each transaction sets a local lock_timeout so a blocked row lock fails
// with a retryable error instead of waiting indefinitely.
func NewTransactor(db *sql.DB, lockTimeout time.Duration) domain.Transactor {
	return &transactor{DB: db, lockTimeout: lockTimeout}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store domain.RegistrationStore) error) (err error) {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if t.lockTimeout > 0 {
		// SET LOCAL does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return wrapDBError("set lock timeout", err)
		}
	}

	store := &registrationStore{
		events:       NewEventRepository(tx),
		participants: NewParticipantRepository(tx),
	}
	if err = fn(ctx, store); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return wrapDBError("commit transaction", err)
	}
	return nil
}
