package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bluettimon/internal/discharge"
	"bluettimon/internal/models"
)

// DischargeRepository handles the append-only discharge log.
type DischargeRepository struct {
	db *sql.DB
}

// NewDischargeRepository returns repository.
func NewDischargeRepository(db *sql.DB) *DischargeRepository {
	return &DischargeRepository{db: db}
}

// InsertSample appends one discharge row.
func (r *DischargeRepository) InsertSample(ctx context.Context, s *models.DischargeSample) error {
	const query = `
		INSERT INTO discharge_samples
			(timestamp, battery_percent, battery_voltage, total_output_power,
			 discharge_rate_percent_per_hour, estimated_hours_remaining,
			 estimated_days_remaining, avg_power_consumption, session_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.Timestamp,
		s.BatteryPercent,
		s.BatteryVoltage,
		s.TotalOutputPower,
		s.DischargeRate,
		s.EstimatedHoursLeft,
		s.EstimatedDaysLeft,
		s.AvgPowerConsumption,
		s.SessionType,
	).Scan(&s.ID)
}

// LastSampleTime returns the newest sample timestamp. The boolean is false
// when the log is empty.
func (r *DischargeRepository) LastSampleTime(ctx context.Context) (time.Time, bool, error) {
	const query = `
		SELECT timestamp
		FROM discharge_samples
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var ts time.Time
	err := r.db.QueryRowContext(ctx, query).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

// Window returns samples at or after since, oldest first, for the rate
// estimator. Manual and test rows are included deliberately.
func (r *DischargeRepository) Window(ctx context.Context, since time.Time) ([]discharge.WindowSample, error) {
	const query = `
		SELECT timestamp, battery_percent, total_output_power
		FROM discharge_samples
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var window []discharge.WindowSample
	for rows.Next() {
		var s discharge.WindowSample
		if err := rows.Scan(&s.Timestamp, &s.BatteryPercent, &s.TotalOutputPower); err != nil {
			return nil, err
		}
		window = append(window, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return window, nil
}

// ListSamples returns samples at or after since, newest first.
func (r *DischargeRepository) ListSamples(ctx context.Context, since time.Time, limit int) ([]models.DischargeSample, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, timestamp, battery_percent, battery_voltage, total_output_power,
		       discharge_rate_percent_per_hour, estimated_hours_remaining,
		       estimated_days_remaining, avg_power_consumption, session_type
		FROM discharge_samples
		WHERE timestamp >= $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.DischargeSample
	for rows.Next() {
		var s models.DischargeSample
		if err := rows.Scan(
			&s.ID,
			&s.Timestamp,
			&s.BatteryPercent,
			&s.BatteryVoltage,
			&s.TotalOutputPower,
			&s.DischargeRate,
			&s.EstimatedHoursLeft,
			&s.EstimatedDaysLeft,
			&s.AvgPowerConsumption,
			&s.SessionType,
		); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
