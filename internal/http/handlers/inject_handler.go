package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bluettimon/internal/models"
)

// SampleWriter appends discharge rows.
type SampleWriter interface {
	InsertSample(ctx context.Context, s *models.DischargeSample) error
}

type injectPayload struct {
	BatteryPercent   float64 `json:"battery_percent"`
	BatteryVoltage   float64 `json:"battery_voltage"`
	TotalOutputPower float64 `json:"total_output_power"`
	SessionType      string  `json:"session_type"`
	Timestamp        string  `json:"timestamp,omitempty"`
}

// NewInjectHandler returns POST /api/discharge/inject: direct insertion of a
// manual or test sample, bypassing the estimator. Injected rows still land in
// the estimator's 4-hour window on subsequent ticks.
func NewInjectHandler(repo SampleWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload injectPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if payload.SessionType != models.SampleTypeManual && payload.SessionType != models.SampleTypeTest {
			writeError(w, http.StatusBadRequest, "session_type must be 'manual' or 'test'")
			return
		}

		ts := time.Now()
		if payload.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, payload.Timestamp)
			if err != nil {
				writeError(w, http.StatusBadRequest, "timestamp must be RFC3339")
				return
			}
			ts = parsed
		}

		row := &models.DischargeSample{
			Timestamp:           ts,
			BatteryPercent:      payload.BatteryPercent,
			BatteryVoltage:      payload.BatteryVoltage,
			TotalOutputPower:    payload.TotalOutputPower,
			AvgPowerConsumption: payload.TotalOutputPower,
			SessionType:         payload.SessionType,
		}
		if err := repo.InsertSample(r.Context(), row); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to insert sample")
			return
		}
		writeJSON(w, http.StatusCreated, row)
	}
}
