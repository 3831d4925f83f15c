package telemetry

import (
	"strconv"
	"sync"
)

// Metric keys published by the power station.
const (
	KeyBatteryPercent = "total_battery_percent"
	KeyBatteryVoltage = "total_battery_voltage"
	KeyACOutputPower  = "ac_output_power"
	KeyDCOutputPower  = "dc_output_power"
	KeyACInputPower   = "ac_input_power"
	KeyDCInputPower   = "dc_input_power"
	KeyPack1Voltage   = "pack1_voltage"
	KeyPack2Voltage   = "pack2_voltage"
	KeyPack3Voltage   = "pack3_voltage"
)

// Snapshot holds the most recently observed value per metric key. Values are
// overwritten in place as telemetry arrives; no history is kept. Absent or
// non-numeric keys read as zero so downstream consumers never branch on
// missing data.
type Snapshot struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSnapshot returns an empty snapshot store.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[string]any)}
}

// Set stores the latest value for key.
func (s *Snapshot) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Float returns the value for key coerced to float64, or 0 when the key is
// absent or not numeric.
func (s *Snapshot) Float(key string) float64 {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return coerceFloat(v)
}

// Len returns the number of known metric keys.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Empty reports whether no telemetry has arrived yet.
func (s *Snapshot) Empty() bool {
	return s.Len() == 0
}

// All returns a copy of the current values.
func (s *Snapshot) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Replace swaps the whole content for a copy of the given map. Used when a
// fresher authoritative copy has been fetched from the live store.
func (s *Snapshot) Replace(values map[string]any) {
	if values == nil {
		return
	}
	fresh := make(map[string]any, len(values))
	for k, v := range values {
		fresh[k] = v
	}
	s.mu.Lock()
	s.values = fresh
	s.mu.Unlock()
}

func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// AsFloat coerces a raw telemetry value to float64, defaulting to 0.
func AsFloat(v any) float64 {
	return coerceFloat(v)
}

// FloatFrom applies the same get-with-default read policy to a plain map, so
// fetched copies and the live snapshot behave identically.
func FloatFrom(values map[string]any, key string) float64 {
	v, ok := values[key]
	if !ok {
		return 0
	}
	return coerceFloat(v)
}
