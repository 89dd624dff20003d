// Package telemetry publishes session notifications to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/events"
)

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// message is the JSON body of every notification.
type message struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message,omitempty"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// Publisher sends each notification as JSON to <prefix>/<kind>.
// It implements events.Notifier.
type Publisher struct {
	client  client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewPublisher creates a publisher for the configured broker. Nothing is
// dialed until Connect or Run.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		slog.Info("MQTT connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT connection lost", "error", err)
	})
	return newPublisher(mqtt.NewClient(opts), cfg)
}

func newPublisher(c client, cfg config.MQTTConfig) *Publisher {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{client: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, timeout: timeout}
}

// Connect dials the broker and waits for the handshake.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.timeout):
		return fmt.Errorf("MQTT connect: timeout after %v", p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT connect failed: %w", err)
	}
	return nil
}

// Run connects and stays connected until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Close()
	return nil
}

// Close disconnects, giving in-flight messages a moment to go out.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	slog.Info("MQTT disconnected")
}

// Topic returns where notifications of a kind are published.
func (p *Publisher) Topic(k events.Kind) string {
	return p.prefix + "/" + k.String()
}

// Notify publishes n. Failures are logged; the relay never waits on them.
func (p *Publisher) Notify(n events.Notification) {
	if !p.client.IsConnected() {
		slog.Debug("MQTT not connected, notification skipped", "kind", n.Kind.String())
		return
	}

	data, err := json.Marshal(message{
		Kind:      n.Kind.String(),
		Message:   n.Message,
		SessionID: n.SessionID.String(),
		At:        n.At.UTC(),
	})
	if err != nil {
		slog.Warn("failed to marshal MQTT message", "error", err)
		return
	}

	topic := p.Topic(n.Kind)
	token := p.client.Publish(topic, p.qos, false, data)
	if !token.WaitTimeout(p.timeout) {
		slog.Warn("MQTT publish timed out", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		slog.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}
