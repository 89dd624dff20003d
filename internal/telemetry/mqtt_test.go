package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/testutil"
)

// fakeToken is an already completed token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	connectErr   error
	publishErr   error
	published    []published
	disconnected bool
}

func (c *fakeClient) Connect() mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = c.connectErr == nil
	return newToken(c.connectErr)
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newToken(c.publishErr)
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

var _ events.Notifier = (*Publisher)(nil)

func testConfig() config.MQTTConfig {
	cfg := config.DefaultRelay().MQTT
	cfg.QoS = 1
	return cfg
}

func TestPublisher_Notify(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, testConfig())
	require.NoError(t, p.Connect(context.Background()))

	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Notify(events.Notification{Kind: events.BadLogin, Message: "wrong password", SessionID: id, At: at})

	require.Len(t, fc.published, 1)
	got := fc.published[0]
	assert.Equal(t, "tibiarelay/session/bad_login", got.topic)
	assert.Equal(t, byte(1), got.qos)

	var m message
	require.NoError(t, json.Unmarshal(got.payload, &m))
	assert.Equal(t, "bad_login", m.Kind)
	assert.Equal(t, "wrong password", m.Message)
	assert.Equal(t, id.String(), m.SessionID)
	assert.True(t, at.Equal(m.At))
}

func TestPublisher_SkipsWhenDisconnected(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, testConfig())

	p.Notify(events.Notification{Kind: events.LogIn})
	assert.Empty(t, fc.published)
}

func TestPublisher_PublishErrorIsLogged(t *testing.T) {
	fc := &fakeClient{publishErr: testutil.ErrSimulated}
	p := newPublisher(fc, testConfig())
	require.NoError(t, p.Connect(context.Background()))

	assert.NotPanics(t, func() { p.Notify(events.Notification{Kind: events.Crash}) })
	assert.Len(t, fc.published, 1)
}

func TestPublisher_ConnectError(t *testing.T) {
	fc := &fakeClient{connectErr: testutil.ErrSimulated}
	p := newPublisher(fc, testConfig())

	err := p.Connect(context.Background())
	assert.ErrorIs(t, err, testutil.ErrSimulated)
	assert.ErrorIs(t, p.Run(context.Background()), testutil.ErrSimulated)
}

func TestPublisher_Run(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	testutil.WaitFor(t, fc.IsConnected, 5*time.Second)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, fc.disconnected)
}

func TestPublisher_Topic(t *testing.T) {
	p := newPublisher(&fakeClient{}, config.MQTTConfig{TopicPrefix: "relay"})
	assert.Equal(t, "relay/death_accept", p.Topic(events.PlayerDeathAccept))
	assert.Equal(t, "relay/logout", p.Topic(events.LogOut))
}
