package session

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/models"
	"bluettimon/internal/telemetry"
)

// Detection thresholds. Input power below 10 W is treated as sensor noise,
// and a battery at or above 99.5 % is considered full.
const (
	chargeMinInputWatts = 10.0
	fullBatteryPercent  = 99.5
	chargeGracePeriod   = 120 * time.Second
	minSessionDuration  = 5 * time.Minute
	minPercentGain      = 1.0
)

// Store persists closed charging sessions.
type Store interface {
	InsertSession(ctx context.Context, s *models.ChargeSession) error
}

// activeSession accumulates state for the single open session. The tracker
// holds at most one, so two concurrently open sessions cannot exist.
type activeSession struct {
	startTime    time.Time
	startPercent float64
	chargeType   string
	inputPowers  []float64
	lastActive   time.Time
}

// View is a read-only description of the open session for the status surface.
type View struct {
	StartedAt       time.Time `json:"started_at"`
	StartPercent    float64   `json:"start_percent"`
	DurationMinutes int       `json:"duration_minutes"`
	ChargeType      string    `json:"charge_type"`
}

// Tracker is the two-state (idle/charging) session detector. Every entry
// point is serialized by one mutex since both the ingest callback and the
// shutdown path touch the open session.
type Tracker struct {
	mu       sync.Mutex
	store    Store
	snapshot *telemetry.Snapshot
	logger   *zap.Logger
	charging *activeSession
}

// NewTracker builds the detector.
func NewTracker(store Store, snapshot *telemetry.Snapshot, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, snapshot: snapshot, logger: logger}
}

// Tick evaluates the state machine against the current snapshot. now is
// explicit so transitions are deterministic under test.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acInput := t.snapshot.Float(telemetry.KeyACInputPower)
	dcInput := t.snapshot.Float(telemetry.KeyDCInputPower)
	percent := t.snapshot.Float(telemetry.KeyBatteryPercent)

	isCharging := (acInput > chargeMinInputWatts || dcInput > chargeMinInputWatts) && percent < fullBatteryPercent
	isFull := percent >= fullBatteryPercent

	switch {
	case isCharging && t.charging == nil:
		chargeType := models.ChargeTypeDC
		if acInput > dcInput {
			chargeType = models.ChargeTypeAC
		}
		t.charging = &activeSession{
			startTime:    now,
			startPercent: percent,
			chargeType:   chargeType,
			inputPowers:  []float64{math.Max(acInput, dcInput)},
			lastActive:   now,
		}
		t.logger.Info("charging session started",
			zap.Float64("start_percent", percent),
			zap.String("charge_type", chargeType))

	case isCharging:
		t.charging.inputPowers = append(t.charging.inputPowers, math.Max(acInput, dcInput))
		t.charging.lastActive = now

	case t.charging != nil:
		// Transient dips shorter than the grace period keep the session open.
		if isFull || now.Sub(t.charging.lastActive) > chargeGracePeriod {
			t.close(ctx, now, percent)
		}
	}
}

// Finalize closes an open session with the last known battery percent. Called
// on shutdown; a no-op when idle.
func (t *Tracker) Finalize(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.charging == nil {
		return
	}
	t.close(ctx, now, t.snapshot.Float(telemetry.KeyBatteryPercent))
}

// Active returns a view of the open session, or nil while idle.
func (t *Tracker) Active(now time.Time) *View {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.charging == nil {
		return nil
	}
	return &View{
		StartedAt:       t.charging.startTime,
		StartPercent:    t.charging.startPercent,
		DurationMinutes: int(now.Sub(t.charging.startTime).Minutes()),
		ChargeType:      t.charging.chargeType,
	}
}

// close ends the open session. Sessions shorter than minSessionDuration that
// also gained less than minPercentGain are noise and are dropped unpersisted.
// A failed insert keeps the session open so the next tick retries.
func (t *Tracker) close(ctx context.Context, now time.Time, endPercent float64) {
	s := t.charging
	duration := now.Sub(s.startTime)
	gained := endPercent - s.startPercent

	if duration < minSessionDuration && gained < minPercentGain {
		t.logger.Info("ignored short charging session",
			zap.Float64("start_percent", s.startPercent),
			zap.Float64("end_percent", endPercent),
			zap.Duration("duration", duration))
		t.charging = nil
		return
	}

	closed := &models.ChargeSession{
		StartTime:       s.startTime,
		EndTime:         now,
		StartPercent:    s.startPercent,
		EndPercent:      endPercent,
		DurationMinutes: int(math.Round(duration.Minutes())),
		ChargeType:      s.chargeType,
		AvgInputPower:   mean(s.inputPowers),
	}

	if err := t.store.InsertSession(ctx, closed); err != nil {
		t.logger.Error("failed to persist charging session", zap.Error(err))
		return
	}

	t.logger.Info("charging session ended",
		zap.Float64("start_percent", s.startPercent),
		zap.Float64("end_percent", endPercent),
		zap.Int("duration_minutes", closed.DurationMinutes))
	t.charging = nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
