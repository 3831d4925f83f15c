package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bluettimon/internal/telemetry"
)

// Battery levels that trigger an alert, mirroring the device's configured
// thresholds.
var alertLevels = []int{100, 50, 40, 39, 38, 37, 30, 15, 10, 5}

const (
	alertCooldown = 5 * time.Minute
	sendTimeout   = 15 * time.Second
)

// Sender delivers a composed alert over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

// Notifier watches battery-percent updates and fans alerts out to the
// configured channels with a per-level cooldown.
type Notifier struct {
	mu       sync.Mutex
	senders  []Sender
	lastSent map[int]time.Time
	logger   *zap.Logger
}

// NewNotifier builds a notifier over zero or more channels.
func NewNotifier(logger *zap.Logger, senders ...Sender) *Notifier {
	return &Notifier{
		senders:  senders,
		lastSent: make(map[int]time.Time),
		logger:   logger,
	}
}

// ObserveMetric is the ingest hook. Only total_battery_percent is inspected.
func (n *Notifier) ObserveMetric(key string, value any, now time.Time) {
	if key != telemetry.KeyBatteryPercent {
		return
	}
	n.ObserveBattery(int(telemetry.AsFloat(value)), now)
}

// ObserveBattery fires an alert when percent matches a configured level and
// that level's cooldown has lapsed. Returns whether an alert was sent.
func (n *Notifier) ObserveBattery(percent int, now time.Time) bool {
	if !isAlertLevel(percent) {
		return false
	}

	n.mu.Lock()
	if last, ok := n.lastSent[percent]; ok && now.Sub(last) < alertCooldown {
		n.mu.Unlock()
		n.logger.Debug("battery alert suppressed by cooldown", zap.Int("percent", percent))
		return false
	}
	n.lastSent[percent] = now
	n.mu.Unlock()

	subject, body := composeAlert(percent, now)
	n.dispatch(subject, body)
	return true
}

// SendTest pushes a test alert through every channel and returns the first
// failure.
func (n *Notifier) SendTest(ctx context.Context) error {
	subject := "Test - Bluetti AC200M Battery Alert"
	body := fmt.Sprintf("This is a test notification from the battery monitor.\n\nTime: %s\n",
		time.Now().Format("2006-01-02 15:04:05"))

	var firstErr error
	for _, s := range n.senders {
		if err := s.Send(ctx, subject, body); err != nil {
			n.logger.Error("test notification failed", zap.String("channel", s.Name()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Enabled reports whether at least one channel is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

func (n *Notifier) dispatch(subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	for _, s := range n.senders {
		if err := s.Send(ctx, subject, body); err != nil {
			n.logger.Error("failed to send battery alert",
				zap.String("channel", s.Name()), zap.Error(err))
			continue
		}
		n.logger.Info("battery alert sent", zap.String("channel", s.Name()))
	}
}

func isAlertLevel(percent int) bool {
	for _, lvl := range alertLevels {
		if percent == lvl {
			return true
		}
	}
	return false
}

func composeAlert(percent int, now time.Time) (subject, body string) {
	subject = fmt.Sprintf("%d%% - Bluetti AC200M Battery Alert", percent)
	body = fmt.Sprintf(`Bluetti AC200M Battery Alert

Battery Level: %d%%
Status: %s

This is an automated alert about your Bluetti AC200M battery level.

Time: %s

Please check the device and consider charging if necessary.
`, percent, statusWord(percent), now.Format("2006-01-02 15:04:05"))
	return subject, body
}

func statusWord(percent int) string {
	switch {
	case percent >= 50:
		return "Good"
	case percent >= 30:
		return "Low"
	case percent >= 15:
		return "Critical"
	default:
		return "Very Critical"
	}
}
