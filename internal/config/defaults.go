package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr                 = ":3000"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultAMQPExchange         = "order_updates"
	DefaultClientBuffer         = 16
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultProbeTimeout         = 5 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 3
	DefaultPollInterval         = 15 * time.Second
	DefaultLivenessInterval     = 60 * time.Second
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = DefaultAMQPExchange
	}

	// Stream defaults
	if c.Stream.ClientBuffer == 0 {
		c.Stream.ClientBuffer = DefaultClientBuffer
	}
	if c.Stream.HeartbeatInterval == 0 {
		c.Stream.HeartbeatInterval = DefaultHeartbeatInterval
	}

	// Watcher defaults
	if c.Watcher.ProbeTimeout == 0 {
		c.Watcher.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Watcher.ReconnectBaseDelay == 0 {
		c.Watcher.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Watcher.ReconnectMaxDelay == 0 {
		c.Watcher.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Watcher.MaxReconnectAttempts == 0 {
		c.Watcher.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Watcher.PollInterval == 0 {
		c.Watcher.PollInterval = DefaultPollInterval
	}
	if c.Watcher.LivenessInterval == 0 {
		c.Watcher.LivenessInterval = DefaultLivenessInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
