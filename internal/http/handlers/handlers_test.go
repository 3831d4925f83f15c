package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/models"
	"bluettimon/internal/repository"
	"bluettimon/internal/session"
	"bluettimon/internal/telemetry"
)

type nopSessionStore struct{}

func (nopSessionStore) InsertSession(ctx context.Context, s *models.ChargeSession) error {
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestBatteryHandlerWithoutTelemetry(t *testing.T) {
	snap := telemetry.NewSnapshot()
	tracker := session.NewTracker(nopSessionStore{}, snap, zap.NewNop())
	handler := NewBatteryHandler(snap, tracker, 6144)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/battery", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 before first telemetry", rec.Code)
	}
}

func TestBatteryHandlerStatus(t *testing.T) {
	snap := telemetry.NewSnapshot()
	snap.Set(telemetry.KeyBatteryPercent, 50.0)
	snap.Set(telemetry.KeyBatteryVoltage, 53.0)
	snap.Set(telemetry.KeyDCOutputPower, 20.0)
	tracker := session.NewTracker(nopSessionStore{}, snap, zap.NewNop())
	handler := NewBatteryHandler(snap, tracker, 6144)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/battery", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got batteryStatus
	decodeBody(t, rec, &got)
	if got.BatteryPercent != 50.0 {
		t.Errorf("battery_percent = %v, want 50.0", got.BatteryPercent)
	}
	if got.RemainingCapacityWh != 3072 {
		t.Errorf("remaining_capacity_wh = %v, want 3072", got.RemainingCapacityWh)
	}
	if float64(got.TimeRemaining.Hours) != 153.6 {
		t.Errorf("time_remaining.hours = %v, want 153.6", got.TimeRemaining.Hours)
	}
	if got.IsCharging {
		t.Error("is_charging = true with zero input power")
	}
	if got.CurrentSession != nil {
		t.Error("current_session should be absent while idle")
	}
}

func TestBatteryHandlerInfiniteRuntime(t *testing.T) {
	snap := telemetry.NewSnapshot()
	snap.Set(telemetry.KeyBatteryPercent, 100.0)
	tracker := session.NewTracker(nopSessionStore{}, snap, zap.NewNop())
	handler := NewBatteryHandler(snap, tracker, 6144)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/battery", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		TimeRemaining struct {
			Hours     *float64 `json:"hours"`
			Formatted string   `json:"formatted"`
		} `json:"time_remaining"`
	}
	decodeBody(t, rec, &got)
	if got.TimeRemaining.Hours != nil {
		t.Errorf("infinite hours must serialize as null, got %v", *got.TimeRemaining.Hours)
	}
	if got.TimeRemaining.Formatted != "∞" {
		t.Errorf("formatted = %q, want ∞", got.TimeRemaining.Formatted)
	}
}

func TestFormatHours(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{153.6, "6d 9h 36m"},
		{2.5, "2h 30m"},
		{0.25, "15m"},
		{0, "0m"},
		{1.9999, "2h 0m"},
		{23.999, "1d 0h 0m"},
	}
	for _, c := range cases {
		if got := FormatHours(c.hours); got != c.want {
			t.Errorf("FormatHours(%v) = %q, want %q", c.hours, got, c.want)
		}
	}
}

func TestPowerHandler(t *testing.T) {
	snap := telemetry.NewSnapshot()
	snap.Set(telemetry.KeyACOutputPower, 30.0)
	snap.Set(telemetry.KeyDCOutputPower, 12.0)
	handler := NewPowerHandler(snap)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/power", nil))

	var got powerStatus
	decodeBody(t, rec, &got)
	if got.TotalOutputPower != 42.0 {
		t.Errorf("total_output_power = %v, want 42.0", got.TotalOutputPower)
	}
}

func TestTelemetryHandler(t *testing.T) {
	snap := telemetry.NewSnapshot()
	snap.Set(telemetry.KeyBatteryPercent, 77.0)
	handler := NewTelemetryHandler(snap, func() string { return "AC200M1234" })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/telemetry", nil))

	var got telemetryResponse
	decodeBody(t, rec, &got)
	if got.DeviceID != "AC200M1234" {
		t.Errorf("device_id = %q, want AC200M1234", got.DeviceID)
	}
	if got.Data[telemetry.KeyBatteryPercent] != 77.0 {
		t.Errorf("data percent = %v, want 77.0", got.Data[telemetry.KeyBatteryPercent])
	}
}

type fakeSnapshotLister struct {
	mu    sync.Mutex
	since time.Time
	limit int
	rows  []models.BatterySnapshot
}

func (f *fakeSnapshotLister) ListSnapshots(ctx context.Context, since time.Time, limit int) ([]models.BatterySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	f.limit = limit
	return f.rows, nil
}

func TestSnapshotHistoryParams(t *testing.T) {
	lister := &fakeSnapshotLister{}
	handler := NewSnapshotHistoryHandler(lister, 168)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/history/snapshots?hours=48&limit=5000", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if lister.limit != maxLimit {
		t.Errorf("limit = %d, want capped at %d", lister.limit, maxLimit)
	}
	age := time.Since(lister.since)
	if age < 47*time.Hour || age > 49*time.Hour {
		t.Errorf("since should be about 48h back, was %v", age)
	}

	var got struct {
		Snapshots []models.BatterySnapshot `json:"snapshots"`
	}
	decodeBody(t, rec, &got)
	if got.Snapshots == nil {
		t.Error("snapshots must be an empty array, not null")
	}
}

func TestSnapshotHistoryCapsAtRetention(t *testing.T) {
	lister := &fakeSnapshotLister{}
	handler := NewSnapshotHistoryHandler(lister, 168)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/history/snapshots?hours=9999", nil))

	age := time.Since(lister.since)
	if age > 169*time.Hour {
		t.Errorf("lookback must not exceed the retention horizon, was %v", age)
	}
}

type fakeSettings struct {
	mu      sync.Mutex
	minutes int
}

func (f *fakeSettings) IntervalMinutes(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minutes, nil
}

func (f *fakeSettings) SetIntervalMinutes(ctx context.Context, minutes int) error {
	if minutes < 1 || minutes > 1440 {
		return repository.ErrInvalidInterval
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minutes = minutes
	return nil
}

func TestIntervalGet(t *testing.T) {
	handler := NewIntervalGetHandler(&fakeSettings{minutes: 10})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/settings/discharge-interval", nil))

	var got intervalPayload
	decodeBody(t, rec, &got)
	if got.IntervalMinutes != 10 {
		t.Errorf("interval_minutes = %d, want 10", got.IntervalMinutes)
	}
}

func TestIntervalPutValidation(t *testing.T) {
	cases := []struct {
		minutes    int
		wantStatus int
	}{
		{0, http.StatusBadRequest},
		{1441, http.StatusBadRequest},
		{1, http.StatusOK},
		{1440, http.StatusOK},
		{30, http.StatusOK},
	}
	for _, c := range cases {
		settings := &fakeSettings{minutes: 10}
		handler := NewIntervalPutHandler(settings)

		body, _ := json.Marshal(intervalPayload{IntervalMinutes: c.minutes})
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPut, "/api/settings/discharge-interval", strings.NewReader(string(body))))

		if rec.Code != c.wantStatus {
			t.Errorf("PUT interval=%d: status = %d, want %d", c.minutes, rec.Code, c.wantStatus)
		}
		if c.wantStatus == http.StatusBadRequest && settings.minutes != 10 {
			t.Errorf("rejected value %d must not mutate the setting", c.minutes)
		}
	}
}

type fakeSampleWriter struct {
	mu   sync.Mutex
	rows []*models.DischargeSample
}

func (f *fakeSampleWriter) InsertSample(ctx context.Context, s *models.DischargeSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, s)
	return nil
}

func TestInjectHandlerAcceptsManual(t *testing.T) {
	writer := &fakeSampleWriter{}
	handler := NewInjectHandler(writer)

	body := `{"battery_percent": 61.5, "total_output_power": 40, "session_type": "manual"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/discharge/inject", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(writer.rows) != 1 {
		t.Fatalf("expected one inserted row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.SessionType != models.SampleTypeManual {
		t.Errorf("session_type = %q, want manual", row.SessionType)
	}
	if row.AvgPowerConsumption != 40 {
		t.Errorf("avg power = %v, want the injected output", row.AvgPowerConsumption)
	}
}

func TestInjectHandlerRejectsDischargeType(t *testing.T) {
	writer := &fakeSampleWriter{}
	handler := NewInjectHandler(writer)

	body := `{"battery_percent": 61.5, "session_type": "discharge"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/discharge/inject", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for reserved type", rec.Code)
	}
	if len(writer.rows) != 0 {
		t.Error("rejected payload must not be inserted")
	}
}

func TestInjectHandlerHonorsTimestamp(t *testing.T) {
	writer := &fakeSampleWriter{}
	handler := NewInjectHandler(writer)

	body := `{"battery_percent": 61.5, "session_type": "test", "timestamp": "2026-03-01T10:00:00Z"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/discharge/inject", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	want := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	if !writer.rows[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", writer.rows[0].Timestamp, want)
	}
}

func TestInjectHandlerRejectsBadTimestamp(t *testing.T) {
	handler := NewInjectHandler(&fakeSampleWriter{})

	body := `{"battery_percent": 61.5, "session_type": "test", "timestamp": "yesterday"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/discharge/inject", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed timestamp", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]string
	decodeBody(t, rec, &got)
	if got["status"] != "ok" {
		t.Errorf("status field = %q, want ok", got["status"])
	}
}
