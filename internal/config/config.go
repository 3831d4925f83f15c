package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bluettimon/internal/configload"
)

// Config defines battery monitor configuration.
type Config struct {
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL"`

	HTTP struct {
		Port string `yaml:"port" env:"MONITOR_HTTP_PORT"`
	} `yaml:"http"`

	Database struct {
		DSN string `yaml:"dsn" env:"MONITOR_POSTGRES_DSN"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"MONITOR_REDIS_ADDR"`
		Password string `yaml:"password" env:"MONITOR_REDIS_PASSWORD"`
	} `yaml:"redis"`

	MQTT struct {
		BrokerURL   string `yaml:"brokerUrl" env:"MONITOR_MQTT_BROKER_URL"`
		ClientID    string `yaml:"clientId" env:"MONITOR_MQTT_CLIENT_ID"`
		TopicPrefix string `yaml:"topicPrefix" env:"MONITOR_MQTT_TOPIC_PREFIX"`
	} `yaml:"mqtt"`

	Battery struct {
		TotalCapacityWh float64 `yaml:"totalCapacityWh" env:"MONITOR_TOTAL_CAPACITY_WH"`
	} `yaml:"battery"`

	Workers struct {
		SnapshotInterval time.Duration `yaml:"snapshotInterval" env:"MONITOR_SNAPSHOT_INTERVAL"`
		DischargeWake    time.Duration `yaml:"dischargeWake" env:"MONITOR_DISCHARGE_WAKE"`
		RetentionDays    int           `yaml:"retentionDays" env:"MONITOR_RETENTION_DAYS"`
	} `yaml:"workers"`

	Email struct {
		Enabled  bool   `yaml:"enabled" env:"EMAIL_ENABLED"`
		SMTPHost string `yaml:"smtpHost" env:"SMTP_SERVER"`
		SMTPPort int    `yaml:"smtpPort" env:"SMTP_PORT"`
		Username string `yaml:"username" env:"EMAIL_USERNAME"`
		Password string `yaml:"password" env:"EMAIL_PASSWORD"`
		From     string `yaml:"from" env:"EMAIL_FROM"`
		To       string `yaml:"to" env:"EMAIL_TO"`
	} `yaml:"email"`

	SMS struct {
		Enabled          bool   `yaml:"enabled" env:"SMS_ENABLED"`
		Provider         string `yaml:"provider" env:"SMS_PROVIDER"`
		TwilioAccountSID string `yaml:"twilioAccountSid" env:"TWILIO_ACCOUNT_SID"`
		TwilioAuthToken  string `yaml:"twilioAuthToken" env:"TWILIO_AUTH_TOKEN"`
		TwilioFrom       string `yaml:"twilioFrom" env:"TWILIO_PHONE_NUMBER"`
		To               string `yaml:"to" env:"TO_PHONE_NUMBER"`
		GatewayAddress   string `yaml:"gatewayAddress" env:"SMS_GATEWAY_ADDRESS"`
	} `yaml:"sms"`
}

// Load reads configuration via the shared loader and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8083"
	cfg.Redis.Addr = "localhost:6379"
	cfg.MQTT.BrokerURL = "tcp://127.0.0.1:1883"
	cfg.MQTT.ClientID = "battery-monitor"
	cfg.MQTT.TopicPrefix = "bluetti"
	cfg.Battery.TotalCapacityWh = 6144 // AC200MAX (2048) + 2x B230 (2048 each)
	cfg.Workers.SnapshotInterval = 30 * time.Second
	cfg.Workers.DischargeWake = time.Minute
	cfg.Workers.RetentionDays = 7
	cfg.Email.SMTPHost = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.SMS.Provider = "email_sms"

	if err := configload.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if cfg.Battery.TotalCapacityWh <= 0 {
		return nil, errors.New("config: total capacity must be positive")
	}
	if cfg.Workers.RetentionDays <= 0 {
		return nil, errors.New("config: retention days must be positive")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8083"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// Retention returns the purge horizon as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Workers.RetentionDays) * 24 * time.Hour
}
