package repository

import (
	"context"
	"database/sql"
	"time"

	"bluettimon/internal/models"
)

// SnapshotRepository handles the battery snapshot history.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository returns repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// InsertSnapshot appends one snapshot row.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, s *models.BatterySnapshot) error {
	const query = `
		INSERT INTO battery_snapshots
			(timestamp, battery_percent, battery_voltage, ac_output_power, dc_output_power,
			 total_output_power, ac_input_power, dc_input_power, time_remaining_hours,
			 pack1_voltage, pack2_voltage, pack3_voltage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.Timestamp,
		s.BatteryPercent,
		s.BatteryVoltage,
		s.ACOutputPower,
		s.DCOutputPower,
		s.TotalOutputPower,
		s.ACInputPower,
		s.DCInputPower,
		s.TimeRemainingHours,
		s.Pack1Voltage,
		s.Pack2Voltage,
		s.Pack3Voltage,
	).Scan(&s.ID)
}

// ListSnapshots returns snapshots at or after since, newest first.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, since time.Time, limit int) ([]models.BatterySnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, timestamp, battery_percent, battery_voltage, ac_output_power, dc_output_power,
		       total_output_power, ac_input_power, dc_input_power, time_remaining_hours,
		       pack1_voltage, pack2_voltage, pack3_voltage
		FROM battery_snapshots
		WHERE timestamp >= $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.BatterySnapshot
	for rows.Next() {
		var s models.BatterySnapshot
		if err := rows.Scan(
			&s.ID,
			&s.Timestamp,
			&s.BatteryPercent,
			&s.BatteryVoltage,
			&s.ACOutputPower,
			&s.DCOutputPower,
			&s.TotalOutputPower,
			&s.ACInputPower,
			&s.DCInputPower,
			&s.TimeRemainingHours,
			&s.Pack1Voltage,
			&s.Pack2Voltage,
			&s.Pack3Voltage,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
