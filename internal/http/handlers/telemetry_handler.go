package handlers

import (
	"net/http"

	"bluettimon/internal/telemetry"
)

type telemetryResponse struct {
	DeviceID string         `json:"device_id,omitempty"`
	Data     map[string]any `json:"data"`
}

// NewTelemetryHandler returns GET /api/telemetry: the raw latest-value map.
// deviceID resolves lazily since the id is only known after the first message.
func NewTelemetryHandler(snap *telemetry.Snapshot, deviceID func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, telemetryResponse{
			DeviceID: deviceID(),
			Data:     snap.All(),
		})
	}
}

type powerStatus struct {
	ACInputPower     float64 `json:"ac_input_power"`
	DCInputPower     float64 `json:"dc_input_power"`
	ACOutputPower    float64 `json:"ac_output_power"`
	DCOutputPower    float64 `json:"dc_output_power"`
	TotalOutputPower float64 `json:"total_output_power"`
	Pack1Voltage     float64 `json:"pack1_voltage"`
	Pack2Voltage     float64 `json:"pack2_voltage"`
	Pack3Voltage     float64 `json:"pack3_voltage"`
}

// NewPowerHandler returns GET /api/power: the input/output rails and pack voltages.
func NewPowerHandler(snap *telemetry.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if snap.Empty() {
			writeError(w, http.StatusServiceUnavailable, "no telemetry available yet")
			return
		}
		acOutput := snap.Float(telemetry.KeyACOutputPower)
		dcOutput := snap.Float(telemetry.KeyDCOutputPower)
		writeJSON(w, http.StatusOK, powerStatus{
			ACInputPower:     snap.Float(telemetry.KeyACInputPower),
			DCInputPower:     snap.Float(telemetry.KeyDCInputPower),
			ACOutputPower:    acOutput,
			DCOutputPower:    dcOutput,
			TotalOutputPower: acOutput + dcOutput,
			Pack1Voltage:     snap.Float(telemetry.KeyPack1Voltage),
			Pack2Voltage:     snap.Float(telemetry.KeyPack2Voltage),
			Pack3Voltage:     snap.Float(telemetry.KeyPack3Voltage),
		})
	}
}
