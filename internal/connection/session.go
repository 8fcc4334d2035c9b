package connection

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/bizsim-client/internal/auth"
	"github.com/rickgao/bizsim-client/internal/metrics"
	"github.com/rickgao/bizsim-client/internal/model"
	"github.com/rickgao/bizsim-client/internal/protocol"
	"github.com/rickgao/bizsim-client/internal/relay"
	"github.com/rickgao/bizsim-client/internal/transport"
)

type resolveResult struct {
	gen   uint64
	addrs []string
	err   error
}

type dialResult struct {
	gen  uint64
	conn net.Conn
	addr string
	err  error
}

// session is one Start..Stop span. The run goroutine owns the state machine:
// state, deadline, timer, current link and attempt. Other goroutines only
// read the snapshot under mu.
type session struct {
	id     uuid.UUID
	cfg    Config
	tr     transport.Transport
	host   string
	port   int
	creds  auth.Credentials
	relay  *relay.Relay
	router *relay.Router

	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup // attempt goroutines

	resolved   chan resolveResult
	dialed     chan dialResult
	linkEvents chan linkEvent

	// Owned by run.
	gen           uint64
	state         model.State
	authenticated bool
	deadline      time.Time // zero: not armed
	autoReconnect bool
	attempts      int
	timer         *time.Timer
	attemptCtx    context.Context
	attemptCancel context.CancelFunc
	current       *link

	// Snapshot for Send and Stats.
	mu         sync.Mutex
	snapState  model.State
	snapAuthed bool
	live       *link

	reconnects atomic.Int64
	framesIn   atomic.Int64
	framesOut  atomic.Int64
}

func newSession(ctx context.Context, cfg Config, tr transport.Transport, host string, port int,
	creds auth.Credentials, r *relay.Relay, rt *relay.Router, m *metrics.Metrics, logger *slog.Logger) *session {

	id := uuid.New()
	ctx, cancel := context.WithCancel(ctx)

	return &session{
		id:            id,
		cfg:           cfg,
		tr:            tr,
		host:          host,
		port:          port,
		creds:         creds,
		relay:         r,
		router:        rt,
		metrics:       m,
		logger:        logger.With("session", id.String()),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		resolved:      make(chan resolveResult),
		dialed:        make(chan dialResult),
		linkEvents:    make(chan linkEvent),
		state:         model.StateDisconnected,
		autoReconnect: true,
	}
}

// run drives the session until its context is cancelled.
func (s *session) run() {
	defer close(s.done)

	s.timer = time.NewTimer(s.cfg.IdleTick)
	defer s.timer.Stop()

	s.logger.Info("session started", "host", s.host, "port", s.port, "login", s.creds.Login)
	s.beginAttempt()

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-s.timer.C:
			s.onTick()

		case r := <-s.resolved:
			s.onResolved(r)

		case r := <-s.dialed:
			s.onDialed(r)

		case ev := <-s.linkEvents:
			s.onLinkEvent(ev)
		}
	}
}

// stop cancels the session and waits for run to return.
func (s *session) stop() {
	s.cancel()
	<-s.done
}

func (s *session) now() time.Time {
	return s.cfg.Now()
}

// -----------------------------------------------------------------------------
// Timer and deadline
// -----------------------------------------------------------------------------

func (s *session) armed() bool {
	return !s.deadline.IsZero()
}

func (s *session) tickInterval() time.Duration {
	if s.armed() {
		return s.cfg.WatchTick
	}
	return s.cfg.IdleTick
}

// setDeadline arms (or with a zero t, clears) the reconnect deadline.
// Arming keeps the pending tick, so a link lost while idle is retried on the
// next idle tick. Clearing drops the timer back to the idle period.
func (s *session) setDeadline(t time.Time) {
	wasArmed := s.armed()
	s.deadline = t
	if wasArmed && !s.armed() {
		s.timer.Reset(s.cfg.IdleTick)
	}
}

func (s *session) onTick() {
	if s.autoReconnect && s.armed() && !s.now().Before(s.deadline) {
		s.logger.Info("reconnect deadline passed", "state", s.state.String())
		s.beginAttempt()
		return
	}
	s.timer.Reset(s.tickInterval())
}

// -----------------------------------------------------------------------------
// Attempt: resolve, connect, authenticate
// -----------------------------------------------------------------------------

// beginAttempt tears down whatever is live and starts resolve→connect→auth.
func (s *session) beginAttempt() {
	s.closeLink()
	s.cancelAttempt()

	s.gen++
	s.attempts++
	if s.attempts > 1 {
		s.reconnects.Add(1)
		s.metrics.Reconnect()
	}

	s.deadline = s.now().Add(s.cfg.ReconnectWindow)
	s.timer.Reset(s.cfg.WatchTick)
	s.setState(model.StateResolving, false, true)

	ctx, cancel := context.WithCancel(s.ctx)
	s.attemptCtx, s.attemptCancel = ctx, cancel
	gen := s.gen

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		addrs, err := s.tr.Resolve(ctx, s.host, s.port)
		select {
		case s.resolved <- resolveResult{gen: gen, addrs: addrs, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *session) cancelAttempt() {
	if s.attemptCancel != nil {
		s.attemptCancel()
		s.attemptCtx, s.attemptCancel = nil, nil
	}
}

func (s *session) onResolved(r resolveResult) {
	if r.gen != s.gen {
		return
	}
	if r.err != nil {
		s.logger.Warn("resolve failed", "host", s.host, "error", r.err)
		s.cancelAttempt()
		// Deadline stays armed; the next tick past it retries.
		s.setState(model.StateDisconnected, true, true)
		return
	}

	s.logger.Debug("resolved", "host", s.host, "addrs", r.addrs)
	s.setState(model.StateConnecting, false, true)

	ctx := s.attemptCtx
	gen := s.gen
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := s.dial(ctx, r.addrs)
		res.gen = gen
		select {
		case s.dialed <- res:
		case <-ctx.Done():
			if res.conn != nil {
				res.conn.Close()
			}
		}
	}()
}

// dial tries each address in order and returns the first connection.
func (s *session) dial(ctx context.Context, addrs []string) dialResult {
	var firstErr error
	for _, addr := range addrs {
		conn, err := s.tr.Dial(ctx, addr)
		if err == nil {
			return dialResult{conn: conn, addr: addr}
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	if firstErr == nil {
		firstErr = transport.ErrNoAddresses
	}
	return dialResult{err: firstErr}
}

func (s *session) onDialed(r dialResult) {
	if r.gen != s.gen {
		if r.conn != nil {
			r.conn.Close()
		}
		return
	}
	s.cancelAttempt()

	if r.err != nil {
		s.logger.Warn("connect failed", "error", r.err)
		s.setState(model.StateDisconnected, true, true)
		s.setDeadline(s.now())
		return
	}

	logger := s.logger.With("addr", r.addr)
	applySocketPolicy(r.conn, s.cfg, logger)

	l := newLink(s.gen, r.conn, r.addr, s.metrics, &s.framesOut, logger)
	data, err := protocol.Encode(protocol.CmdAuth, s.creds.Payload())
	if err != nil {
		// Unreachable for any credentials that passed validation.
		logger.Error("encode auth frame", "error", err)
		r.conn.Close()
		s.setState(model.StateDisconnected, true, true)
		s.setDeadline(s.now())
		return
	}
	l.enqueue(protocol.CmdAuth, data)

	s.current = l
	s.authenticated = false
	s.mu.Lock()
	s.live = l
	s.mu.Unlock()

	// Connected, pending auth: not published until auth-ok.
	s.setState(model.StateConnected, false, false)
	l.start(s.linkEvents, s.cfg.ReadBufferSize)

	logger.Info("connected, awaiting auth")
}

// -----------------------------------------------------------------------------
// Live link
// -----------------------------------------------------------------------------

func (s *session) onLinkEvent(ev linkEvent) {
	if s.current == nil || ev.gen != s.current.gen {
		return
	}

	if ev.err != nil {
		s.onLinkFailed(ev)
		return
	}

	now := s.now()
	for _, f := range ev.frames {
		s.framesIn.Add(1)
		s.metrics.FrameReceived(f.Command.String(), protocol.HeaderSize+len(f.Payload))

		switch s.router.Route(s.id, now, f) {
		case relay.HandshakeAccepted:
			if !s.authenticated {
				s.authenticated = true
				s.setDeadline(time.Time{})
				s.setState(model.StateConnected, false, true)
				s.logger.Info("authenticated")
			}

		case relay.HandshakeUnauthorized:
			s.logger.Warn("login rejected by server")
			s.metrics.AuthFailure()
			s.closeLink()
			s.setDeadline(time.Time{})
			s.autoReconnect = false
			s.setState(model.StateInvalidLogin, false, true)
			// Frames after the rejection are dropped with the link.
			return
		}
	}
}

func (s *session) onLinkFailed(ev linkEvent) {
	switch {
	case errors.Is(ev.err, protocol.ErrProtocol):
		s.logger.Warn("protocol error, dropping connection", "error", ev.err)
		s.metrics.ProtocolError()
	case ev.write:
		s.logger.Warn("write failed", "error", ev.err)
	default:
		s.logger.Info("connection lost", "error", ev.err)
	}

	s.closeLink()
	s.setState(model.StateDisconnected, false, true)
	s.setDeadline(s.now())
}

// closeLink tears down the current link, if any.
func (s *session) closeLink() {
	if s.current == nil {
		return
	}
	s.mu.Lock()
	s.live = nil
	s.mu.Unlock()

	s.current.close()
	s.current = nil
	s.authenticated = false
}

func (s *session) shutdown() {
	s.cancelAttempt()
	s.closeLink()
	s.wg.Wait()
	s.deadline = time.Time{}
	s.setState(model.StateDisconnected, true, true)
	s.logger.Info("session stopped",
		"reconnects", s.reconnects.Load(),
		"frames_in", s.framesIn.Load(),
		"frames_out", s.framesOut.Load(),
	)
}

// setState records a transition and optionally publishes it to the relay.
func (s *session) setState(state model.State, forced, publish bool) {
	s.state = state

	s.mu.Lock()
	s.snapState = state
	s.snapAuthed = s.authenticated
	s.mu.Unlock()

	if !publish {
		return
	}
	s.metrics.StateChanged(int(state), state.String())
	s.relay.Notify(model.StateEvent(s.id, s.now(), state, forced))
}

// -----------------------------------------------------------------------------
// Consumer side
// -----------------------------------------------------------------------------

// send encodes and queues a frame on the live link.
func (s *session) send(cmd protocol.Command, payload []byte) error {
	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	l := s.live
	s.mu.Unlock()

	if l == nil || !l.enqueue(cmd, data) {
		return ErrNotConnected
	}
	return nil
}

func (s *session) stats() Stats {
	s.mu.Lock()
	st := Stats{
		State:         s.snapState,
		Authenticated: s.snapAuthed,
		SessionID:     s.id,
	}
	if s.live != nil {
		st.QueueDepth = s.live.out.Len()
	}
	s.mu.Unlock()

	st.Reconnects = s.reconnects.Load()
	st.FramesIn = s.framesIn.Load()
	st.FramesOut = s.framesOut.Load()
	return st
}
