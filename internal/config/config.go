package config

import (
	"time"
)

type Config struct {
	Broker     BrokerConfig     `mapstructure:"broker"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Validation ValidationConfig `mapstructure:"validation"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type BrokerConfig struct {
	Endpoint string   `mapstructure:"endpoint"`
	Topics   []string `mapstructure:"topics"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`

	// Transport is either "tcp" (MQTT over TLS, default port 8883) or
	// "websocket" (MQTT over WSS, default port 443).
	Transport string `mapstructure:"transport"`

	// Port overrides the transport's default port when non-zero.
	Port int `mapstructure:"port"`

	ClientID string `mapstructure:"client_id"`

	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`

	// ReconnectAttempts is the session-scoped retry budget after the first
	// failure. Negative means unlimited; zero means any failure is fatal.
	ReconnectAttempts int `mapstructure:"reconnect_attempts"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ValidationConfig struct {
	// Strict treats schema non-conformance as fatal instead of a skippable
	// warning. Malformed bytes and malformed JSON are skipped either way.
	Strict bool `mapstructure:"strict"`
}

type MetricsConfig struct {
	// Port of the Prometheus endpoint; zero disables the listener.
	Port int `mapstructure:"port"`
}
