package app

import (
	"context"
	"database/sql"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bluettimon/internal/config"
	"bluettimon/internal/db"
	"bluettimon/internal/discharge"
	httpserver "bluettimon/internal/http"
	"bluettimon/internal/http/handlers"
	"bluettimon/internal/mqtt"
	"bluettimon/internal/notify"
	"bluettimon/internal/redis"
	"bluettimon/internal/repository"
	"bluettimon/internal/session"
	"bluettimon/internal/snapshot"
	"bluettimon/internal/telemetry"
	"bluettimon/internal/ws"
)

const liveTTL = 10 * time.Minute

// liveUpdate is the payload broadcast to websocket clients per metric.
type liveUpdate struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// App wires the battery monitor's components.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	pool        *sql.DB
	redisClient *goredis.Client

	snap      *telemetry.Snapshot
	liveStore *telemetry.LiveStore
	tracker   *session.Tracker
	sampler   *discharge.Sampler
	recorder  *snapshot.Recorder
	retention *repository.Retention
	notifier  *notify.Notifier
	hub       *ws.Hub
	mqtt      *mqtt.Client
	server    *httpserver.Server

	deviceMu sync.Mutex
	deviceID string

	wg sync.WaitGroup
}

// New constructs application components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.InitSchema(initCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		pool.Close()
		return nil, err
	}

	snap := telemetry.NewSnapshot()
	liveStore := telemetry.NewLiveStore(redisClient, liveTTL)

	sessionRepo := repository.NewSessionRepository(pool)
	dischargeRepo := repository.NewDischargeRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	a := &App{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redisClient: redisClient,
		snap:        snap,
		liveStore:   liveStore,
		tracker:     session.NewTracker(sessionRepo, snap, logger),
		sampler:     discharge.NewSampler(dischargeRepo, settingsRepo, liveStore, snap, logger),
		recorder:    snapshot.NewRecorder(snapshotRepo, snap, cfg.Battery.TotalCapacityWh, logger),
		retention:   repository.NewRetention(pool, logger),
		notifier:    notify.NewNotifier(logger, buildSenders(cfg, logger)...),
		hub:         ws.NewHub(logger),
	}

	a.mqtt = mqtt.NewClient(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix, a.onMetric, logger)

	retentionHours := cfg.Workers.RetentionDays * 24
	routes := httpserver.Routes{
		Telemetry:        handlers.NewTelemetryHandler(snap, a.DeviceID),
		Battery:          handlers.NewBatteryHandler(snap, a.tracker, cfg.Battery.TotalCapacityWh),
		Power:            handlers.NewPowerHandler(snap),
		HistorySnapshots: handlers.NewSnapshotHistoryHandler(snapshotRepo, retentionHours),
		Sessions:         handlers.NewSessionsHandler(sessionRepo, retentionHours),
		Discharge:        handlers.NewDischargeHandler(dischargeRepo, retentionHours),
		DischargeInject:  handlers.NewInjectHandler(dischargeRepo),
		IntervalGet:      handlers.NewIntervalGetHandler(settingsRepo),
		IntervalPut:      handlers.NewIntervalPutHandler(settingsRepo),
		NotifyTest:       handlers.NewNotifyTestHandler(a.notifier),
		Live:             a.hub.Handler(),
		Health:           handlers.NewHealthHandler(),
	}
	a.server = httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(routes), logger)

	return a, nil
}

// Run purges old data, connects to the broker, starts the periodic workers,
// and serves HTTP until ctx is cancelled. An open charging session is
// finalized before returning.
func (a *App) Run(ctx context.Context) error {
	if err := a.retention.Purge(ctx, time.Now().Add(-a.cfg.Retention())); err != nil {
		// Retention is best-effort; stale rows only cost disk.
		a.logger.Error("retention cleanup failed", zap.Error(err))
	}

	if err := a.mqtt.Connect(); err != nil {
		return err
	}

	a.wg.Add(2)
	go a.worker(ctx, a.cfg.Workers.SnapshotInterval, a.recorder.Tick)
	go a.worker(ctx, a.cfg.Workers.DischargeWake, a.sampler.Tick)

	err := a.server.Run(ctx)

	a.wg.Wait()
	a.shutdown()
	return err
}

// worker drives one periodic tick function until ctx is cancelled.
func (a *App) worker(ctx context.Context, interval time.Duration, tick func(context.Context, time.Time)) {
	defer a.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick(ctx, now)
		}
	}
}

// onMetric is the MQTT ingest callback: update the local snapshot, mirror to
// redis, and drive the consumers that react per-update.
func (a *App) onMetric(deviceID, key string, value any) {
	a.setDeviceID(deviceID)
	a.snap.Set(key, value)

	pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := a.liveStore.Publish(pubCtx, key, value); err != nil {
		a.logger.Debug("failed to mirror telemetry to redis", zap.String("key", key), zap.Error(err))
	}
	cancel()

	now := time.Now()
	a.tracker.Tick(context.Background(), now)
	a.notifier.ObserveMetric(key, value, now)
	a.hub.Broadcast(liveUpdate{Key: key, Value: value, Timestamp: now})
}

// DeviceID returns the discovered power station id, empty until the first
// message arrives.
func (a *App) DeviceID() string {
	a.deviceMu.Lock()
	defer a.deviceMu.Unlock()
	return a.deviceID
}

func (a *App) setDeviceID(id string) {
	a.deviceMu.Lock()
	if a.deviceID == "" && id != "" {
		a.deviceID = id
		a.logger.Info("discovered power station", zap.String("device_id", id))
	}
	a.deviceMu.Unlock()
}

func (a *App) shutdown() {
	finalizeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.tracker.Finalize(finalizeCtx, time.Now())

	a.mqtt.Disconnect()
	a.hub.Close()
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}

// buildSenders assembles the enabled notification channels.
func buildSenders(cfg *config.Config, logger *zap.Logger) []notify.Sender {
	var senders []notify.Sender
	if cfg.Email.Enabled {
		senders = append(senders, notify.NewEmailSender(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.Username, cfg.Email.Password,
			cfg.Email.From, cfg.Email.To, logger))
	}
	if cfg.SMS.Enabled {
		switch {
		case cfg.SMS.Provider == "twilio" && cfg.SMS.TwilioAccountSID != "":
			senders = append(senders, notify.NewTwilioSender(
				cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken,
				cfg.SMS.TwilioFrom, cfg.SMS.To, logger))
		case cfg.SMS.GatewayAddress != "":
			senders = append(senders, notify.NewSMSGatewaySender(
				cfg.Email.SMTPHost, cfg.Email.SMTPPort,
				cfg.Email.Username, cfg.Email.Password,
				cfg.Email.From, cfg.SMS.GatewayAddress, logger))
		default:
			logger.Warn("sms enabled but no usable provider configured")
		}
	}
	return senders
}
