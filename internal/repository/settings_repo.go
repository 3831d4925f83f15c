package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"bluettimon/internal/discharge"
)

const settingDischargeInterval = "discharge_interval_minutes"

// ErrInvalidInterval is returned for interval values outside [1, 1440] minutes.
var ErrInvalidInterval = fmt.Errorf("interval must be between %d and %d minutes",
	discharge.MinIntervalMinutes, discharge.MaxIntervalMinutes)

// SettingsRepository stores process-wide configuration values.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository returns repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// IntervalMinutes returns the discharge sampling cadence, falling back to the
// default when the setting has never been written or holds garbage.
func (r *SettingsRepository) IntervalMinutes(ctx context.Context) (int, error) {
	const query = `SELECT value FROM settings WHERE name = $1`
	var raw string
	err := r.db.QueryRowContext(ctx, query, settingDischargeInterval).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return discharge.DefaultIntervalMinutes, nil
	}
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < discharge.MinIntervalMinutes || minutes > discharge.MaxIntervalMinutes {
		return discharge.DefaultIntervalMinutes, nil
	}
	return minutes, nil
}

// SetIntervalMinutes validates and upserts the sampling cadence. Invalid
// values are rejected without mutation.
func (r *SettingsRepository) SetIntervalMinutes(ctx context.Context, minutes int) error {
	if minutes < discharge.MinIntervalMinutes || minutes > discharge.MaxIntervalMinutes {
		return ErrInvalidInterval
	}
	const query = `
		INSERT INTO settings (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, settingDischargeInterval, strconv.Itoa(minutes))
	return err
}
