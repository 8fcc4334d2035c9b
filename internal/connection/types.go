package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/bizsim-client/internal/model"
	"github.com/rickgao/bizsim-client/internal/protocol"
	"github.com/rickgao/bizsim-client/internal/relay"
)

// Errors
var (
	ErrNotStarted     = errors.New("not started")
	ErrAlreadyStarted = errors.New("already started")
	ErrNotConnected   = errors.New("not connected")
	ErrClosed         = errors.New("manager closed")
)

// DefaultPort is the game server's TCP port.
const DefaultPort = 5000

// Config configures the Connection Manager.
type Config struct {
	ReconnectWindow time.Duration // Time an attempt gets to reach auth-ok before a restart
	IdleTick        time.Duration // Timer period while no deadline is armed
	WatchTick       time.Duration // Timer period while a deadline is armed

	KeepAliveIdle     time.Duration // TCP keep-alive idle time
	KeepAliveInterval time.Duration // TCP keep-alive probe interval
	KeepAliveCount    int           // TCP keep-alive probes before the socket is dropped
	NoDelay           bool          // Disable Nagle

	ReadBufferSize int // Bytes per socket read
	RelayCapacity  int // Initial event relay capacity

	Now func() time.Time // Clock; nil means time.Now
}

// DefaultConfig returns the timings used by the desktop client.
func DefaultConfig() Config {
	return Config{
		ReconnectWindow:   10 * time.Second,
		IdleTick:          1 * time.Second,
		WatchTick:         10 * time.Second,
		KeepAliveIdle:     5 * time.Second,
		KeepAliveInterval: 5 * time.Second,
		KeepAliveCount:    3,
		NoDelay:           true,
		ReadBufferSize:    4096,
		RelayCapacity:     relay.DefaultCapacity,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReconnectWindow <= 0 {
		c.ReconnectWindow = d.ReconnectWindow
	}
	if c.IdleTick <= 0 {
		c.IdleTick = d.IdleTick
	}
	if c.WatchTick <= 0 {
		c.WatchTick = d.WatchTick
	}
	if c.KeepAliveIdle <= 0 {
		c.KeepAliveIdle = d.KeepAliveIdle
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = d.KeepAliveInterval
	}
	if c.KeepAliveCount <= 0 {
		c.KeepAliveCount = d.KeepAliveCount
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.RelayCapacity <= 0 {
		c.RelayCapacity = d.RelayCapacity
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Stats is a snapshot of the manager for health checks and tests.
type Stats struct {
	State         model.State
	Authenticated bool
	SessionID     uuid.UUID // uuid.Nil when not started
	Reconnects    int64     // attempts started after the first one of the session
	FramesIn      int64
	FramesOut     int64
	QueueDepth    int
	Router        relay.RouterStats // frame routing, across sessions
}

// outbound is one encoded frame waiting in the queue.
type outbound struct {
	cmd  protocol.Command
	data []byte
}
