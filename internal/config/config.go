package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/model"
)

// Relay holds all configuration for the relay.
type Relay struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	LocalHost   string `yaml:"local_host"` // written into the character list
	Port        int    `yaml:"port"`       // first port probed for the listener

	// Protocol
	Checksum     bool     `yaml:"checksum"`
	LoginServers []string `yaml:"login_servers"` // host:port, defaults when empty

	// Timing
	ServerWriteInterval time.Duration `yaml:"server_write_interval"`
	LoginNotifyDelay    time.Duration `yaml:"login_notify_delay"`
	RestartDelay        time.Duration `yaml:"restart_delay"`
	DialTimeout         time.Duration `yaml:"dial_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	SendQueueSize       int           `yaml:"send_queue_size"`

	LogLevel string `yaml:"log_level"`

	Client  ClientConfig  `yaml:"client"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ClientConfig seeds the in-process client state used when no memory
// accessor is attached.
type ClientConfig struct {
	CipherKey         string `yaml:"cipher_key"` // 32 hex chars
	SelectedCharacter int    `yaml:"selected_character"`
	Health            int    `yaml:"health"`

	// Item ids followed by a count byte on the wire (stackables, fluids).
	CountableItems []uint16 `yaml:"countable_items"`
}

// Key decodes CipherKey.
func (c ClientConfig) Key() (crypto.Key, error) {
	var k crypto.Key
	raw, err := hex.DecodeString(c.CipherKey)
	if err != nil {
		return k, fmt.Errorf("decoding cipher key: %w", err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("cipher key is %d bytes, want %d", len(raw), len(k))
	}
	copy(k[:], raw)
	return k, nil
}

// AuditConfig selects where packet audit records go.
type AuditConfig struct {
	Enabled       bool           `yaml:"enabled"`
	Driver        string         `yaml:"driver"` // "sqlite" or "postgres"
	Path          string         `yaml:"path"`   // sqlite file
	Database      DatabaseConfig `yaml:"database"`
	QueueSize     int            `yaml:"queue_size"`
	BatchSize     int            `yaml:"batch_size"`
	FlushInterval time.Duration  `yaml:"flush_interval"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// MQTTConfig controls publishing session notifications.
type MQTTConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Broker         string        `yaml:"broker"` // tcp://host:1883
	ClientID       string        `yaml:"client_id"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DefaultLoginServers are the official login servers, tried in order.
func DefaultLoginServers() []model.Endpoint {
	hosts := []string{
		"login01.tibia.com", "login02.tibia.com", "login03.tibia.com", "login04.tibia.com", "login05.tibia.com",
		"tibia01.cipsoft.com", "tibia02.cipsoft.com", "tibia03.cipsoft.com", "tibia04.cipsoft.com", "tibia05.cipsoft.com",
	}
	out := make([]model.Endpoint, len(hosts))
	for i, h := range hosts {
		out[i] = model.NewEndpoint(h, constants.DefaultPort)
	}
	return out
}

// DefaultRelay returns Relay config with sensible defaults.
func DefaultRelay() Relay {
	return Relay{
		BindAddress:         "0.0.0.0",
		LocalHost:           constants.DefaultLocalHost,
		Port:                constants.DefaultPort,
		Checksum:            true,
		ServerWriteInterval: constants.ServerWriteInterval,
		LoginNotifyDelay:    constants.LoginNotifyDelay,
		RestartDelay:        constants.RestartDelay,
		DialTimeout:         constants.DefaultDialTimeout,
		WriteTimeout:        constants.DefaultWriteTimeout,
		SendQueueSize:       constants.DefaultSendQueueSize,
		LogLevel:            "info",
		Client: ClientConfig{
			Health: 100,
		},
		Audit: AuditConfig{
			Driver:        "sqlite",
			Path:          "data/audit.db",
			QueueSize:     4096,
			BatchSize:     128,
			FlushInterval: time.Second,
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "tibiarelay",
				Password: "tibiarelay",
				DBName:   "tibiarelay",
				SSLMode:  "disable",
			},
		},
		Metrics: MetricsConfig{
			Address: "127.0.0.1:9171",
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://127.0.0.1:1883",
			ClientID:       "tibiarelay",
			TopicPrefix:    "tibiarelay/session",
			ConnectTimeout: 5 * time.Second,
		},
	}
}

// LoginEndpoints parses LoginServers, falling back to DefaultLoginServers.
func (c Relay) LoginEndpoints() ([]model.Endpoint, error) {
	if len(c.LoginServers) == 0 {
		return DefaultLoginServers(), nil
	}
	out := make([]model.Endpoint, 0, len(c.LoginServers))
	for _, s := range c.LoginServers {
		ep, err := model.ParseEndpoint(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

// Validate reports the first setting the relay cannot run with.
func (c Relay) Validate() error {
	if c.Port <= 0 || c.Port > 0xFFFF {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := model.NewEndpoint(c.LocalHost, c.Port).IPv4(); err != nil {
		return fmt.Errorf("local_host: %w", err)
	}
	if c.SendQueueSize <= 0 {
		return errors.New("send_queue_size must be positive")
	}
	if _, err := c.LoginEndpoints(); err != nil {
		return fmt.Errorf("login_servers: %w", err)
	}
	if c.Audit.Enabled && c.Audit.Driver != "sqlite" && c.Audit.Driver != "postgres" {
		return fmt.Errorf("audit driver %q: want sqlite or postgres", c.Audit.Driver)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos %d: want 0, 1 or 2", c.MQTT.QoS)
	}
	return nil
}

// LoadRelay loads relay config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadRelay(path string) (Relay, error) {
	cfg := DefaultRelay()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
