package telemetry

import "testing"

func TestSnapshotFloatCoercion(t *testing.T) {
	s := NewSnapshot()
	s.Set("f64", 42.5)
	s.Set("f32", float32(1.5))
	s.Set("int", 7)
	s.Set("int64", int64(9))
	s.Set("numeric_string", "12.25")
	s.Set("junk_string", "on")
	s.Set("bool", true)

	cases := []struct {
		key  string
		want float64
	}{
		{"f64", 42.5},
		{"f32", 1.5},
		{"int", 7},
		{"int64", 9},
		{"numeric_string", 12.25},
		{"junk_string", 0},
		{"bool", 0},
		{"missing", 0},
	}
	for _, c := range cases {
		if got := s.Float(c.key); got != c.want {
			t.Errorf("Float(%q) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewSnapshot()
	if !s.Empty() {
		t.Error("fresh snapshot should be empty")
	}
	s.Set(KeyBatteryPercent, 55.0)
	if s.Empty() {
		t.Error("snapshot with one key should not be empty")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSnapshotAllReturnsCopy(t *testing.T) {
	s := NewSnapshot()
	s.Set(KeyBatteryPercent, 55.0)

	got := s.All()
	got[KeyBatteryPercent] = 0.0

	if s.Float(KeyBatteryPercent) != 55.0 {
		t.Error("mutating the All() result must not affect the snapshot")
	}
}

func TestSnapshotReplaceCopies(t *testing.T) {
	s := NewSnapshot()
	s.Set("stale", 1.0)

	src := map[string]any{KeyBatteryPercent: 70.0}
	s.Replace(src)
	src[KeyBatteryPercent] = 0.0

	if s.Float(KeyBatteryPercent) != 70.0 {
		t.Error("mutating the source map must not affect the snapshot")
	}
	if s.Len() != 1 {
		t.Errorf("Replace should drop stale keys, Len() = %d", s.Len())
	}
}

func TestSnapshotReplaceNilIsNoop(t *testing.T) {
	s := NewSnapshot()
	s.Set(KeyBatteryPercent, 70.0)
	s.Replace(nil)
	if s.Float(KeyBatteryPercent) != 70.0 {
		t.Error("Replace(nil) must keep existing values")
	}
}

func TestFloatFrom(t *testing.T) {
	m := map[string]any{"a": "3.5", "b": 2}
	if got := FloatFrom(m, "a"); got != 3.5 {
		t.Errorf("FloatFrom(a) = %v, want 3.5", got)
	}
	if got := FloatFrom(m, "b"); got != 2 {
		t.Errorf("FloatFrom(b) = %v, want 2", got)
	}
	if got := FloatFrom(m, "missing"); got != 0 {
		t.Errorf("FloatFrom(missing) = %v, want 0", got)
	}
}
