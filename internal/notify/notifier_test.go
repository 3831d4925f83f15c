package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/telemetry"
)

var alertBase = time.Date(2026, time.March, 1, 22, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu       sync.Mutex
	name     string
	err      error
	subjects []string
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}

func TestNotifierFiresAtAlertLevel(t *testing.T) {
	sender := &fakeSender{name: "email"}
	n := NewNotifier(zap.NewNop(), sender)

	if !n.ObserveBattery(30, alertBase) {
		t.Fatal("expected alert at 30%")
	}
	got := sender.sent()
	if len(got) != 1 {
		t.Fatalf("expected one alert, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "30% - ") {
		t.Errorf("subject = %q, want 30%% prefix", got[0])
	}
}

func TestNotifierIgnoresNonAlertLevel(t *testing.T) {
	sender := &fakeSender{name: "email"}
	n := NewNotifier(zap.NewNop(), sender)

	if n.ObserveBattery(42, alertBase) {
		t.Error("42% is not an alert level")
	}
	if len(sender.sent()) != 0 {
		t.Error("no alert expected at 42%")
	}
}

func TestNotifierCooldownPerLevel(t *testing.T) {
	sender := &fakeSender{name: "email"}
	n := NewNotifier(zap.NewNop(), sender)

	if !n.ObserveBattery(40, alertBase) {
		t.Fatal("first 40% alert should fire")
	}
	if n.ObserveBattery(40, alertBase.Add(2*time.Minute)) {
		t.Error("repeat within cooldown should be suppressed")
	}
	// A different level has its own cooldown clock.
	if !n.ObserveBattery(39, alertBase.Add(2*time.Minute)) {
		t.Error("39% should fire despite 40% cooldown")
	}
	if !n.ObserveBattery(40, alertBase.Add(6*time.Minute)) {
		t.Error("40% should fire again after cooldown lapses")
	}
}

func TestNotifierFansOutToAllChannels(t *testing.T) {
	email := &fakeSender{name: "email"}
	sms := &fakeSender{name: "sms"}
	n := NewNotifier(zap.NewNop(), email, sms)

	n.ObserveBattery(15, alertBase)

	if len(email.sent()) != 1 || len(sms.sent()) != 1 {
		t.Errorf("expected both channels to receive the alert, got email=%d sms=%d",
			len(email.sent()), len(sms.sent()))
	}
}

func TestNotifierObserveMetric(t *testing.T) {
	sender := &fakeSender{name: "email"}
	n := NewNotifier(zap.NewNop(), sender)

	n.ObserveMetric(telemetry.KeyACOutputPower, 30.0, alertBase)
	if len(sender.sent()) != 0 {
		t.Error("non-battery metric must not alert")
	}

	n.ObserveMetric(telemetry.KeyBatteryPercent, 10.0, alertBase)
	if len(sender.sent()) != 1 {
		t.Errorf("battery metric at alert level should alert, got %d", len(sender.sent()))
	}
}

func TestNotifierSendTestReturnsFirstFailure(t *testing.T) {
	bad := &fakeSender{name: "email", err: errors.New("smtp refused")}
	good := &fakeSender{name: "sms"}
	n := NewNotifier(zap.NewNop(), bad, good)

	if err := n.SendTest(context.Background()); err == nil {
		t.Fatal("expected error from failing channel")
	}
	if len(good.sent()) != 1 {
		t.Error("remaining channels should still be attempted")
	}
}

func TestNotifierEnabled(t *testing.T) {
	if NewNotifier(zap.NewNop()).Enabled() {
		t.Error("no channels means disabled")
	}
	if !NewNotifier(zap.NewNop(), &fakeSender{name: "email"}).Enabled() {
		t.Error("one channel means enabled")
	}
}

func TestStatusWord(t *testing.T) {
	cases := []struct {
		percent int
		want    string
	}{
		{100, "Good"},
		{50, "Good"},
		{40, "Low"},
		{30, "Low"},
		{15, "Critical"},
		{10, "Very Critical"},
		{5, "Very Critical"},
	}
	for _, c := range cases {
		if got := statusWord(c.percent); got != c.want {
			t.Errorf("statusWord(%d) = %q, want %q", c.percent, got, c.want)
		}
	}
}
