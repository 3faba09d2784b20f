package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventcheckin/internal/domain"
	"eventcheckin/internal/geo"
)

const participantColumns = `id, event_id, user_id, status, checked_in_at, check_in_longitude, check_in_latitude, created_at, updated_at`

type participantRepository struct {
	DB querier
}

func NewParticipantRepository(db querier) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) GetByEventAndUserForUpdate(ctx context.Context, eventID, userID string) (*domain.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1 AND user_id = $2
		FOR UPDATE
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapDBError("lock participant", err)
	}
	return p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.EventParticipant) error {
	query := `
		INSERT INTO event_participants (id, event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.EventID, p.UserID, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return wrapDBError("insert participant", err)
	}
	return nil
}

func (r *participantRepository) Update(ctx context.Context, p *domain.EventParticipant) error {
	query := `
		UPDATE event_participants
		SET status = $1, checked_in_at = $2, check_in_longitude = $3, check_in_latitude = $4, updated_at = $5
		WHERE id = $6
	`
	var checkedInAt sql.NullTime
	if p.CheckedInAt != nil {
		checkedInAt = sql.NullTime{Time: *p.CheckedInAt, Valid: true}
	}
	var lng, lat sql.NullFloat64
	if p.CheckInLocation != nil {
		lng = sql.NullFloat64{Float64: p.CheckInLocation.Longitude, Valid: true}
		lat = sql.NullFloat64{Float64: p.CheckInLocation.Latitude, Valid: true}
	}
	result, err := r.DB.ExecContext(ctx, query, string(p.Status), checkedInAt, lng, lat, p.UpdatedAt, p.ID)
	if err != nil {
		return wrapDBError("update participant", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) ListActiveByEventID(ctx context.Context, eventID string) ([]*domain.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1 AND status IN ('registered', 'checked_in')
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, wrapDBError("list participants", err)
	}
	defer rows.Close()

	participants := make([]*domain.EventParticipant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, wrapDBError("scan participant", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("list participants", err)
	}
	return participants, nil
}

func scanParticipant(row rowScanner) (*domain.EventParticipant, error) {
	p := &domain.EventParticipant{}
	var status string
	var checkedInAt sql.NullTime
	var lng, lat sql.NullFloat64
	err := row.Scan(&p.ID, &p.EventID, &p.UserID, &status, &checkedInAt, &lng, &lat, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ParticipantStatus(status)
	if checkedInAt.Valid {
		p.CheckedInAt = &checkedInAt.Time
	}
	if lng.Valid && lat.Valid {
		p.CheckInLocation = &geo.Point{Longitude: lng.Float64, Latitude: lat.Float64}
	}
	return p, nil
}
