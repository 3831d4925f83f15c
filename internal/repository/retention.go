package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Retention purges history rows older than the configured horizon. Purging is
// deterministic and idempotent, so re-invoking it is always safe.
type Retention struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRetention returns the purger.
func NewRetention(db *sql.DB, logger *zap.Logger) *Retention {
	return &Retention{db: db, logger: logger}
}

// Purge deletes snapshots, charge sessions, and discharge samples older than
// cutoff and logs the deleted counts.
func (r *Retention) Purge(ctx context.Context, cutoff time.Time) error {
	snapshots, err := r.deleteBefore(ctx, `DELETE FROM battery_snapshots WHERE timestamp < $1`, cutoff)
	if err != nil {
		return err
	}
	sessions, err := r.deleteBefore(ctx, `DELETE FROM charge_sessions WHERE start_time < $1`, cutoff)
	if err != nil {
		return err
	}
	samples, err := r.deleteBefore(ctx, `DELETE FROM discharge_samples WHERE timestamp < $1`, cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("retention cleanup completed",
		zap.Int64("snapshots_deleted", snapshots),
		zap.Int64("sessions_deleted", sessions),
		zap.Int64("discharge_deleted", samples))
	return nil
}

func (r *Retention) deleteBefore(ctx context.Context, query string, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
