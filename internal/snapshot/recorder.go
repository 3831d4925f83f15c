package snapshot

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/models"
	"bluettimon/internal/telemetry"
)

// Store persists battery snapshots.
type Store interface {
	InsertSnapshot(ctx context.Context, s *models.BatterySnapshot) error
}

// Recorder captures the full telemetry state on a fixed interval for
// historical reporting.
type Recorder struct {
	store           Store
	snapshot        *telemetry.Snapshot
	totalCapacityWh float64
	logger          *zap.Logger
}

// NewRecorder builds the recorder. totalCapacityWh is the pack's nameplate
// capacity used for the simple capacity-based runtime estimate.
func NewRecorder(store Store, snapshot *telemetry.Snapshot, totalCapacityWh float64, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:           store,
		snapshot:        snapshot,
		totalCapacityWh: totalCapacityWh,
		logger:          logger,
	}
}

// Tick writes one snapshot row. A tick with no telemetry yet is a no-op, and
// any failure is logged and dropped; the next tick retries naturally.
func (r *Recorder) Tick(ctx context.Context, now time.Time) {
	if r.snapshot.Empty() {
		return
	}

	row := r.Capture(now)
	if err := r.store.InsertSnapshot(ctx, row); err != nil {
		r.logger.Error("failed to persist battery snapshot", zap.Error(err))
		return
	}

	r.logger.Debug("snapshot saved",
		zap.Float64("battery_percent", row.BatteryPercent),
		zap.Float64("time_remaining_hours", float64(row.TimeRemainingHours)))
}

// Capture builds a snapshot row from the current telemetry without persisting
// it. Time remaining is +Inf when nothing is drawing power.
func (r *Recorder) Capture(now time.Time) *models.BatterySnapshot {
	percent := r.snapshot.Float(telemetry.KeyBatteryPercent)
	acOutput := r.snapshot.Float(telemetry.KeyACOutputPower)
	dcOutput := r.snapshot.Float(telemetry.KeyDCOutputPower)
	totalOutput := acOutput + dcOutput

	return &models.BatterySnapshot{
		Timestamp:          now,
		BatteryPercent:     percent,
		BatteryVoltage:     r.snapshot.Float(telemetry.KeyBatteryVoltage),
		ACOutputPower:      acOutput,
		DCOutputPower:      dcOutput,
		TotalOutputPower:   totalOutput,
		ACInputPower:       r.snapshot.Float(telemetry.KeyACInputPower),
		DCInputPower:       r.snapshot.Float(telemetry.KeyDCInputPower),
		TimeRemainingHours: models.Hours(TimeRemaining(percent, r.totalCapacityWh, totalOutput)),
		Pack1Voltage:       r.snapshot.Float(telemetry.KeyPack1Voltage),
		Pack2Voltage:       r.snapshot.Float(telemetry.KeyPack2Voltage),
		Pack3Voltage:       r.snapshot.Float(telemetry.KeyPack3Voltage),
	}
}

// TimeRemaining estimates runtime hours from remaining capacity and the
// current draw. Zero draw reads as infinite runtime.
func TimeRemaining(batteryPercent, totalCapacityWh, totalOutputWatts float64) float64 {
	if totalOutputWatts <= 0 {
		return math.Inf(1)
	}
	remainingWh := (batteryPercent / 100) * totalCapacityWh
	return remainingWh / totalOutputWatts
}
