package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS battery_snapshots (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		battery_percent DOUBLE PRECISION,
		battery_voltage DOUBLE PRECISION,
		ac_output_power DOUBLE PRECISION,
		dc_output_power DOUBLE PRECISION,
		total_output_power DOUBLE PRECISION,
		ac_input_power DOUBLE PRECISION,
		dc_input_power DOUBLE PRECISION,
		time_remaining_hours DOUBLE PRECISION,
		pack1_voltage DOUBLE PRECISION,
		pack2_voltage DOUBLE PRECISION,
		pack3_voltage DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS charge_sessions (
		id BIGSERIAL PRIMARY KEY,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		start_percent DOUBLE PRECISION NOT NULL,
		end_percent DOUBLE PRECISION NOT NULL,
		duration_minutes INTEGER NOT NULL,
		charge_type TEXT NOT NULL,
		avg_input_power DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS discharge_samples (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		battery_percent DOUBLE PRECISION NOT NULL,
		battery_voltage DOUBLE PRECISION NOT NULL,
		total_output_power DOUBLE PRECISION NOT NULL,
		discharge_rate_percent_per_hour DOUBLE PRECISION NOT NULL,
		estimated_hours_remaining DOUBLE PRECISION NOT NULL,
		estimated_days_remaining DOUBLE PRECISION NOT NULL,
		avg_power_consumption DOUBLE PRECISION NOT NULL,
		session_type TEXT NOT NULL DEFAULT 'discharge'
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON battery_snapshots(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON charge_sessions(start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_discharge_timestamp ON discharge_samples(timestamp)`,
}

// InitSchema applies the monitor DDL. All statements are idempotent, so it is
// safe to run on every startup.
func InitSchema(ctx context.Context, pool *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: apply schema: %w", err)
		}
	}
	return nil
}
