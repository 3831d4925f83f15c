package models

import (
	"encoding/json"
	"math"
	"time"
)

// Hours is a duration-in-hours float that renders infinity (no load, battery
// never drains) as JSON null instead of failing to marshal.
type Hours float64

// MarshalJSON implements json.Marshaler.
func (h Hours) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(h), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(h))
}

// Charge types.
const (
	ChargeTypeAC = "AC"
	ChargeTypeDC = "DC"
)

// Discharge sample session types.
const (
	SampleTypeDischarge = "discharge"
	SampleTypeManual    = "manual"
	SampleTypeTest      = "test"
)

// ChargeSession is a completed charging session. Open sessions live only in
// memory inside the tracker; a row is written when the session closes.
type ChargeSession struct {
	ID              int64     `db:"id" json:"id"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	StartPercent    float64   `db:"start_percent" json:"start_percent"`
	EndPercent      float64   `db:"end_percent" json:"end_percent"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	ChargeType      string    `db:"charge_type" json:"charge_type"`
	AvgInputPower   float64   `db:"avg_input_power" json:"avg_input_power"`
}

// DischargeSample is one append-only row of the discharge log.
type DischargeSample struct {
	ID                  int64     `db:"id" json:"id"`
	Timestamp           time.Time `db:"timestamp" json:"timestamp"`
	BatteryPercent      float64   `db:"battery_percent" json:"battery_percent"`
	BatteryVoltage      float64   `db:"battery_voltage" json:"battery_voltage"`
	TotalOutputPower    float64   `db:"total_output_power" json:"total_output_power"`
	DischargeRate       float64   `db:"discharge_rate_percent_per_hour" json:"discharge_rate_percent_per_hour"`
	EstimatedHoursLeft  float64   `db:"estimated_hours_remaining" json:"estimated_hours_remaining"`
	EstimatedDaysLeft   float64   `db:"estimated_days_remaining" json:"estimated_days_remaining"`
	AvgPowerConsumption float64   `db:"avg_power_consumption" json:"avg_power_consumption"`
	SessionType         string    `db:"session_type" json:"session_type"`
}

// BatterySnapshot is one fixed-interval capture of the full telemetry state.
type BatterySnapshot struct {
	ID                 int64     `db:"id" json:"id"`
	Timestamp          time.Time `db:"timestamp" json:"timestamp"`
	BatteryPercent     float64   `db:"battery_percent" json:"battery_percent"`
	BatteryVoltage     float64   `db:"battery_voltage" json:"battery_voltage"`
	ACOutputPower      float64   `db:"ac_output_power" json:"ac_output_power"`
	DCOutputPower      float64   `db:"dc_output_power" json:"dc_output_power"`
	TotalOutputPower   float64   `db:"total_output_power" json:"total_output_power"`
	ACInputPower       float64   `db:"ac_input_power" json:"ac_input_power"`
	DCInputPower       float64   `db:"dc_input_power" json:"dc_input_power"`
	TimeRemainingHours Hours     `db:"time_remaining_hours" json:"time_remaining_hours"`
	Pack1Voltage       float64   `db:"pack1_voltage" json:"pack1_voltage"`
	Pack2Voltage       float64   `db:"pack2_voltage" json:"pack2_voltage"`
	Pack3Voltage       float64   `db:"pack3_voltage" json:"pack3_voltage"`
}

// ValidSampleType reports whether t is a known discharge sample tag.
func ValidSampleType(t string) bool {
	switch t {
	case SampleTypeDischarge, SampleTypeManual, SampleTypeTest:
		return true
	}
	return false
}
