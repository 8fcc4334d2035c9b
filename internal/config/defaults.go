package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort              = 5000
	DefaultTransport         = "tcp"
	DefaultWSPath            = "/game"
	DefaultReconnectWindow   = 10 * time.Second
	DefaultIdleTick          = 1 * time.Second
	DefaultWatchTick         = 10 * time.Second
	DefaultKeepAliveIdle     = 5 * time.Second
	DefaultKeepAliveInterval = 5 * time.Second
	DefaultKeepAliveCount    = 3
	DefaultNoDelay           = true
	DefaultReadBufferSize    = 4096
	DefaultRelayCapacity     = 64
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 50
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 28
	DefaultMetricsPath       = "/metrics"
)

func (c *ClientConfig) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Transport == "" {
		c.Server.Transport = DefaultTransport
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}

	// Connection defaults
	if c.Connection.ReconnectWindow == 0 {
		c.Connection.ReconnectWindow = DefaultReconnectWindow
	}
	if c.Connection.IdleTick == 0 {
		c.Connection.IdleTick = DefaultIdleTick
	}
	if c.Connection.WatchTick == 0 {
		c.Connection.WatchTick = DefaultWatchTick
	}
	if c.Connection.KeepAliveIdle == 0 {
		c.Connection.KeepAliveIdle = DefaultKeepAliveIdle
	}
	if c.Connection.KeepAliveInterval == 0 {
		c.Connection.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.Connection.KeepAliveCount == 0 {
		c.Connection.KeepAliveCount = DefaultKeepAliveCount
	}
	if c.Connection.NoDelay == nil {
		noDelay := DefaultNoDelay
		c.Connection.NoDelay = &noDelay
	}
	if c.Connection.ReadBufferSize == 0 {
		c.Connection.ReadBufferSize = DefaultReadBufferSize
	}

	// Relay defaults
	if c.Relay.InitialCapacity == 0 {
		c.Relay.InitialCapacity = DefaultRelayCapacity
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
