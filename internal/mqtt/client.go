package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// MetricFunc receives one normalized telemetry update.
type MetricFunc func(deviceID, key string, value any)

// Client subscribes to the power station's state topics and forwards each
// update as a (key, value) pair.
type Client struct {
	client      paho.Client
	topicPrefix string
	onMetric    MetricFunc
	logger      *zap.Logger
}

// NewClient builds an MQTT subscriber. onMetric is invoked from paho's
// callback goroutine for every state update.
func NewClient(brokerURL, clientID, topicPrefix string, onMetric MetricFunc, logger *zap.Logger) *Client {
	c := &Client{
		topicPrefix: topicPrefix,
		onMetric:    onMetric,
		logger:      logger,
	}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})

	c.client = paho.NewClient(opts)
	return c
}

// Connect dials the broker and blocks until connected or the timeout expires.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt: connect timeout after %s", connectTimeout)
	}
	return token.Error()
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

func (c *Client) onConnect(client paho.Client) {
	topic := fmt.Sprintf("%s/state/#", c.topicPrefix)
	token := client.Subscribe(topic, 0, c.handleMessage)
	if token.Wait() && token.Error() != nil {
		c.logger.Error("mqtt subscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
		return
	}
	c.logger.Info("mqtt connected", zap.String("topic", topic))
}

func (c *Client) handleMessage(_ paho.Client, msg paho.Message) {
	deviceID, key, ok := ParseStateTopic(c.topicPrefix, msg.Topic())
	if !ok {
		return
	}
	c.onMetric(deviceID, key, ParsePayload(msg.Payload()))
}

// ParseStateTopic extracts the device id and metric key from a state topic of
// the form <prefix>/state/<device>/<metric>. Topics outside the state category
// or with fewer than four segments are rejected.
func ParseStateTopic(prefix, topic string) (deviceID, key string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[0] != prefix || parts[1] != "state" {
		return "", "", false
	}
	return parts[2], parts[len(parts)-1], true
}

// ParsePayload decodes the payload as JSON when possible, otherwise keeps it
// as an opaque string. Range validation happens downstream via the
// get-with-default read policy.
func ParsePayload(payload []byte) any {
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return string(payload)
	}
	return value
}
