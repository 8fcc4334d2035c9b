package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Transport {
	case "tcp", "websocket":
	default:
		return fmt.Errorf("server.transport must be tcp or websocket, got %q", c.Server.Transport)
	}

	if c.Credentials.Login == "" {
		return errors.New("credentials.login is required")
	}
	if strings.Contains(c.Credentials.Login, "@") {
		return errors.New("credentials.login must not contain '@'")
	}
	if c.Credentials.Password == "" {
		return errors.New("credentials.password is required")
	}

	if err := c.Connection.validate("connection"); err != nil {
		return err
	}

	if c.Relay.InitialCapacity < 1 {
		return errors.New("relay.initial_capacity must be >= 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	return nil
}

func (cc *ConnectionConfig) validate(prefix string) error {
	if cc.ReconnectWindow <= 0 {
		return fmt.Errorf("%s.reconnect_window must be > 0", prefix)
	}
	if cc.IdleTick <= 0 {
		return fmt.Errorf("%s.idle_tick must be > 0", prefix)
	}
	if cc.WatchTick <= 0 {
		return fmt.Errorf("%s.watch_tick must be > 0", prefix)
	}
	if cc.IdleTick > cc.WatchTick {
		return fmt.Errorf("%s.idle_tick (%v) cannot exceed watch_tick (%v)", prefix, cc.IdleTick, cc.WatchTick)
	}
	if cc.KeepAliveCount < 1 {
		return fmt.Errorf("%s.keepalive_count must be >= 1", prefix)
	}
	if cc.ReadBufferSize < 1 {
		return fmt.Errorf("%s.read_buffer_size must be >= 1", prefix)
	}
	return nil
}
