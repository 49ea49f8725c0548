package config

import "time"

// Config is the root configuration for an orderd instance.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Stream   StreamConfig   `yaml:"stream"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"admin_token"` // bearer token for admin-scoped endpoints
	// PushEnabled controls whether the push endpoints are offered at all.
	// When false they answer 501 and clients fall back to polling.
	PushEnabled   *bool  `yaml:"push_enabled"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

// DatabaseConfig holds the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// AMQPConfig holds the optional cross-instance event bridge.
type AMQPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// StreamConfig holds the server-side push stream settings.
type StreamConfig struct {
	ClientBuffer      int           `yaml:"client_buffer"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// WatcherConfig holds the client-side connection manager settings.
type WatcherConfig struct {
	ProbeTimeout         time.Duration `yaml:"probe_timeout"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	LivenessInterval     time.Duration `yaml:"liveness_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// PushEnabled reports whether push delivery is offered (default true).
func (s ServerConfig) PushOffered() bool {
	return s.PushEnabled == nil || *s.PushEnabled
}
