package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventcheckin/internal/domain"
)

const eventColumns = `id, name, status, start_date_time, start_longitude, start_latitude, participant_limit, participant_count, updated_at`

type eventRepository struct {
	DB querier
}

func NewEventRepository(db querier) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return r.get(ctx, "get event", query, id)
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	return r.get(ctx, "lock event", query, id)
}

func (r *eventRepository) get(ctx context.Context, op, query, id string) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapDBError(op, err)
	}
	return e, nil
}

func (r *eventRepository) CountActiveParticipants(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM event_participants
		WHERE event_id = $1 AND status IN ('registered', 'checked_in')
	`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&n); err != nil {
		return 0, wrapDBError("count active participants", err)
	}
	return n, nil
}

func (r *eventRepository) UpdateCapacity(ctx context.Context, eventID string, count int, status domain.EventStatus, updatedAt time.Time) error {
	query := `
		UPDATE events
		SET participant_count = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.DB.ExecContext(ctx, query, count, string(status), updatedAt, eventID)
	if err != nil {
		return wrapDBError("update event capacity", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	var limitNull sql.NullInt64
	err := row.Scan(
		&e.ID, &e.Name, &status, &e.StartTime,
		&e.StartLocation.Longitude, &e.StartLocation.Latitude,
		&limitNull, &e.ParticipantCount, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	if limitNull.Valid {
		limit := int(limitNull.Int64)
		e.ParticipantLimit = &limit
	}
	return e, nil
}
