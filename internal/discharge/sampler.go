package discharge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/models"
	"bluettimon/internal/telemetry"
)

// Interval bounds for the sampling cadence setting.
const (
	DefaultIntervalMinutes = 10
	MinIntervalMinutes     = 1
	MaxIntervalMinutes     = 1440
)

const (
	rateWindow    = 4 * time.Hour
	fetchAttempts = 3
	fetchBackoff  = 2 * time.Second
	fetchTimeout  = 5 * time.Second
)

// Store persists discharge samples and answers window queries.
type Store interface {
	LastSampleTime(ctx context.Context) (time.Time, bool, error)
	Window(ctx context.Context, since time.Time) ([]WindowSample, error)
	InsertSample(ctx context.Context, s *models.DischargeSample) error
}

// Settings supplies the sampling cadence.
type Settings interface {
	IntervalMinutes(ctx context.Context) (int, error)
}

// Source is the authoritative latest-telemetry copy, re-fetched on every
// sample rather than trusting the local cache.
type Source interface {
	Fetch(ctx context.Context) (map[string]any, error)
}

// Sampler records one discharge data point per configured interval and
// recomputes the rolling rate estimate. The decide-then-insert sequence is
// mutex-guarded so a concurrent manual injection cannot interleave with it.
type Sampler struct {
	mu       sync.Mutex
	store    Store
	settings Settings
	source   Source
	snapshot *telemetry.Snapshot
	backoff  time.Duration
	logger   *zap.Logger
}

// NewSampler builds the sampler. snapshot is the local fallback used when the
// authoritative source is unreachable.
func NewSampler(store Store, settings Settings, source Source, snapshot *telemetry.Snapshot, logger *zap.Logger) *Sampler {
	return &Sampler{
		store:    store,
		settings: settings,
		source:   source,
		snapshot: snapshot,
		backoff:  fetchBackoff,
		logger:   logger,
	}
}

// Tick is called on every wake. It samples only when no sample exists yet or
// the configured interval has elapsed since the newest one; otherwise it is a
// no-op. Errors skip the tick, never escalate.
func (s *Sampler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	interval, err := s.settings.IntervalMinutes(ctx)
	if err != nil {
		s.logger.Warn("failed to read discharge interval, using default", zap.Error(err))
		interval = DefaultIntervalMinutes
	}

	last, ok, err := s.store.LastSampleTime(ctx)
	if err != nil {
		s.logger.Error("failed to read last discharge sample time", zap.Error(err))
		return
	}
	if ok && now.Sub(last) < time.Duration(interval)*time.Minute {
		return
	}

	s.sample(ctx, now)
}

func (s *Sampler) sample(ctx context.Context, now time.Time) {
	data := s.fetchLatest(ctx)
	if data == nil {
		// Stale local cache is the last resort.
		data = s.snapshot.All()
	}
	if len(data) == 0 {
		s.logger.Warn("no telemetry available, skipping discharge sample")
		return
	}

	percent := telemetry.FloatFrom(data, telemetry.KeyBatteryPercent)
	voltage := telemetry.FloatFrom(data, telemetry.KeyBatteryVoltage)
	totalOutput := telemetry.FloatFrom(data, telemetry.KeyACOutputPower) +
		telemetry.FloatFrom(data, telemetry.KeyDCOutputPower)

	window, err := s.store.Window(ctx, now.Add(-rateWindow))
	if err != nil {
		s.logger.Error("failed to query discharge window", zap.Error(err))
		return
	}

	est := EstimateRate(window, percent, totalOutput)

	row := &models.DischargeSample{
		Timestamp:           now,
		BatteryPercent:      percent,
		BatteryVoltage:      voltage,
		TotalOutputPower:    totalOutput,
		DischargeRate:       est.RatePercentPerHour,
		EstimatedHoursLeft:  est.HoursRemaining,
		EstimatedDaysLeft:   est.DaysRemaining,
		AvgPowerConsumption: est.AvgPowerWatts,
		SessionType:         models.SampleTypeDischarge,
	}
	if err := s.store.InsertSample(ctx, row); err != nil {
		s.logger.Error("failed to persist discharge sample", zap.Error(err))
		return
	}

	s.logger.Info("recorded discharge sample",
		zap.Float64("battery_percent", percent),
		zap.Float64("rate_percent_per_hour", est.RatePercentPerHour),
		zap.Float64("estimated_days", est.DaysRemaining))
}

// fetchLatest pulls the authoritative telemetry copy with bounded retries.
// Returns nil when every attempt failed.
func (s *Sampler) fetchLatest(ctx context.Context) map[string]any {
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		data, err := s.source.Fetch(fetchCtx)
		cancel()
		if err == nil {
			s.snapshot.Replace(data)
			return data
		}

		if attempt < fetchAttempts {
			s.logger.Debug("telemetry fetch attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.backoff):
			}
			continue
		}
		s.logger.Error("telemetry fetch failed after retries", zap.Error(err))
	}
	return nil
}
