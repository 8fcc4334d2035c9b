package connection

import (
	"fmt"
	"log/slog"
	"net"
)

// socketOptions is the part of *net.TCPConn the socket policy touches.
type socketOptions interface {
	SetKeepAliveConfig(net.KeepAliveConfig) error
	SetNoDelay(bool) error
}

// applySocketPolicy turns on TCP keep-alive and sets Nagle per cfg.
// Failures are logged and ignored.
func applySocketPolicy(c net.Conn, cfg Config, logger *slog.Logger) {
	so := socketConn(c)
	if so == nil {
		logger.Debug("socket policy skipped", "conn_type", fmt.Sprintf("%T", c))
		return
	}

	ka := net.KeepAliveConfig{
		Enable:   true,
		Idle:     cfg.KeepAliveIdle,
		Interval: cfg.KeepAliveInterval,
		Count:    cfg.KeepAliveCount,
	}
	if err := so.SetKeepAliveConfig(ka); err != nil {
		logger.Warn("failed to set keep-alive", "error", err)
	}
	if err := so.SetNoDelay(cfg.NoDelay); err != nil {
		logger.Warn("failed to set no-delay", "error", err)
	}
}

// socketConn finds the TCP socket under c, unwrapping tunnelled transports.
func socketConn(c net.Conn) socketOptions {
	switch v := c.(type) {
	case socketOptions:
		return v
	case interface{ NetConn() net.Conn }:
		return socketConn(v.NetConn())
	default:
		return nil
	}
}
