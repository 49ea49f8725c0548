package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are within
// their contractual bounds.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}

	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return errors.New("amqp.url is required when amqp.enabled")
	}

	if c.Stream.ClientBuffer < 1 {
		return errors.New("stream.client_buffer must be >= 1")
	}

	if err := within("watcher.probe_timeout", c.Watcher.ProbeTimeout, 5*time.Second, 10*time.Second); err != nil {
		return err
	}
	if err := within("watcher.poll_interval", c.Watcher.PollInterval, 5*time.Second, 30*time.Second); err != nil {
		return err
	}
	if c.Watcher.MaxReconnectAttempts < 3 || c.Watcher.MaxReconnectAttempts > 5 {
		return errors.New("watcher.max_reconnect_attempts must be between 3 and 5")
	}
	if c.Watcher.ReconnectBaseDelay <= 0 {
		return errors.New("watcher.reconnect_base_delay must be positive")
	}
	if c.Watcher.ReconnectMaxDelay < c.Watcher.ReconnectBaseDelay {
		return errors.New("watcher.reconnect_max_delay must be >= reconnect_base_delay")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return errors.New("metrics.port must be a valid port")
	}

	return nil
}

func within(name string, d, lo, hi time.Duration) error {
	if d < lo || d > hi {
		return fmt.Errorf("%s must be between %s and %s", name, lo, hi)
	}
	return nil
}
