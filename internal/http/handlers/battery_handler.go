package handlers

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"bluettimon/internal/models"
	"bluettimon/internal/session"
	"bluettimon/internal/snapshot"
	"bluettimon/internal/telemetry"
)

type timeRemaining struct {
	Hours     models.Hours `json:"hours"`
	Days      models.Hours `json:"days"`
	Formatted string       `json:"formatted"`
}

type batteryStatus struct {
	BatteryPercent      float64       `json:"battery_percent"`
	BatteryVoltage      float64       `json:"battery_voltage"`
	TotalCapacityWh     float64       `json:"total_capacity_wh"`
	RemainingCapacityWh float64       `json:"remaining_capacity_wh"`
	CurrentOutputWatts  float64       `json:"current_output_watts"`
	TimeRemaining       timeRemaining `json:"time_remaining"`
	IsCharging          bool          `json:"is_charging"`
	CurrentSession      *session.View `json:"current_session,omitempty"`
	Timestamp           string        `json:"timestamp"`
}

// NewBatteryHandler returns GET /api/battery: the live battery status with
// the capacity-based runtime estimate and the open charging session, if any.
func NewBatteryHandler(snap *telemetry.Snapshot, tracker *session.Tracker, totalCapacityWh float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if snap.Empty() {
			writeError(w, http.StatusServiceUnavailable, "no telemetry available yet")
			return
		}

		percent := snap.Float(telemetry.KeyBatteryPercent)
		acInput := snap.Float(telemetry.KeyACInputPower)
		dcInput := snap.Float(telemetry.KeyDCInputPower)
		totalOutput := snap.Float(telemetry.KeyACOutputPower) + snap.Float(telemetry.KeyDCOutputPower)

		hours := snapshot.TimeRemaining(percent, totalCapacityWh, totalOutput)
		now := time.Now()

		writeJSON(w, http.StatusOK, batteryStatus{
			BatteryPercent:      percent,
			BatteryVoltage:      snap.Float(telemetry.KeyBatteryVoltage),
			TotalCapacityWh:     totalCapacityWh,
			RemainingCapacityWh: (percent / 100) * totalCapacityWh,
			CurrentOutputWatts:  totalOutput,
			TimeRemaining: timeRemaining{
				Hours:     models.Hours(hours),
				Days:      models.Hours(hours / 24),
				Formatted: FormatHours(hours),
			},
			IsCharging:     acInput > 0 || dcInput > 0,
			CurrentSession: tracker.Active(now),
			Timestamp:      now.Format(time.RFC3339),
		})
	}
}

// FormatHours renders an hour count as a short human string, with infinity
// shown as the lemniscate like the dashboard expects.
func FormatHours(hours float64) string {
	if math.IsInf(hours, 1) {
		return "∞"
	}
	// Round to whole minutes first so 0.6h reads as 36m, not 35m.
	totalMinutes := int(math.Round(hours * 60))
	days := totalMinutes / (24 * 60)
	h := totalMinutes / 60 % 24
	m := totalMinutes % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, h, m)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
