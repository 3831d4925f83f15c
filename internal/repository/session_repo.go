package repository

import (
	"context"
	"database/sql"
	"time"

	"bluettimon/internal/models"
)

// SessionRepository handles persistence of closed charging sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession stores a closed session.
func (r *SessionRepository) InsertSession(ctx context.Context, s *models.ChargeSession) error {
	const query = `
		INSERT INTO charge_sessions (start_time, end_time, start_percent, end_percent, duration_minutes, charge_type, avg_input_power)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.StartTime,
		s.EndTime,
		s.StartPercent,
		s.EndPercent,
		s.DurationMinutes,
		s.ChargeType,
		s.AvgInputPower,
	).Scan(&s.ID)
}

// ListSessions returns sessions started after since, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, since time.Time, limit int) ([]models.ChargeSession, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, start_time, end_time, start_percent, end_percent, duration_minutes, charge_type, avg_input_power
		FROM charge_sessions
		WHERE start_time >= $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChargeSession
	for rows.Next() {
		var s models.ChargeSession
		if err := rows.Scan(
			&s.ID,
			&s.StartTime,
			&s.EndTime,
			&s.StartPercent,
			&s.EndPercent,
			&s.DurationMinutes,
			&s.ChargeType,
			&s.AvgInputPower,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
