package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rickgao/bizsim-client/internal/auth"
	"github.com/rickgao/bizsim-client/internal/metrics"
	"github.com/rickgao/bizsim-client/internal/model"
	"github.com/rickgao/bizsim-client/internal/protocol"
	"github.com/rickgao/bizsim-client/internal/relay"
	"github.com/rickgao/bizsim-client/internal/transport"
)

// Manager owns the connection to the game server.
type Manager interface {
	// Start begins a session: resolve, connect, authenticate, and keep
	// reconnecting until Stop. It fails with ErrAlreadyStarted while a
	// session is active.
	Start(ctx context.Context, host string, port int, creds auth.Credentials) error

	// Stop ends the session and waits until every goroutine has exited and
	// the socket is closed. No-op when not started.
	Stop()

	// Send encodes a frame and queues it for the live connection.
	// It never blocks on the network.
	Send(cmd protocol.Command, payload []byte) error

	// Events returns the relay. It outlives sessions.
	Events() *relay.Relay

	// Stats returns a snapshot of the current session.
	Stats() Stats

	// Close stops any session and closes the relay.
	Close()
}

// manager implements the Manager interface.
type manager struct {
	cfg     Config
	tr      transport.Transport
	metrics *metrics.Metrics
	logger  *slog.Logger

	relay  *relay.Relay
	router *relay.Router

	mu     sync.Mutex // serializes Start/Stop/Close
	closed bool
	sess   atomic.Pointer[session]
}

// NewManager creates a Connection Manager. m and logger may be nil.
func NewManager(cfg Config, tr transport.Transport, m *metrics.Metrics, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tr == nil {
		tr = transport.NewTCP()
	}
	cfg = cfg.withDefaults()

	r := relay.New(cfg.RelayCapacity)
	return &manager{
		cfg:     cfg,
		tr:      tr,
		metrics: m,
		logger:  logger,
		relay:   r,
		router:  relay.NewRouter(r, logger.With("component", "router")),
	}
}

// Start begins a session.
func (m *manager) Start(ctx context.Context, host string, port int, creds auth.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.sess.Load() != nil {
		return ErrAlreadyStarted
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if port == 0 {
		port = DefaultPort
	}

	s := newSession(ctx, m.cfg, m.tr, host, port, creds, m.relay, m.router, m.metrics, m.logger)
	m.sess.Store(s)
	go s.run()

	return nil
}

// Stop ends the session.
func (m *manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *manager) stopLocked() {
	s := m.sess.Load()
	if s == nil {
		return
	}
	s.stop()
	m.sess.Store(nil)
}

// Send queues a frame on the live connection.
func (m *manager) Send(cmd protocol.Command, payload []byte) error {
	s := m.sess.Load()
	if s == nil {
		return ErrNotStarted
	}
	if err := s.send(cmd, payload); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	return nil
}

// Events returns the relay.
func (m *manager) Events() *relay.Relay {
	return m.relay
}

// Stats returns a snapshot of the current session.
func (m *manager) Stats() Stats {
	st := Stats{State: model.StateDisconnected}
	if s := m.sess.Load(); s != nil {
		st = s.stats()
	}
	st.Router = m.router.Stats()
	return st
}

// Close stops any session and closes the relay.
func (m *manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.stopLocked()
	m.closed = true
	m.relay.Close()
}
