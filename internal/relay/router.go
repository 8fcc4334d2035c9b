package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/bizsim-client/internal/model"
	"github.com/rickgao/bizsim-client/internal/protocol"
)

// Handshake is what a frame means for the authentication exchange.
type Handshake int

const (
	HandshakeNone Handshake = iota
	HandshakeAccepted
	HandshakeUnauthorized
)

// Router turns decoded frames into relay events.
type Router struct {
	relay  *Relay
	logger *slog.Logger

	mu    sync.Mutex
	stats RouterStats
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	FramesReceived int64
	EventsRouted   int64
	Ignored        int64 // known commands with no consumer-facing event
	Unknown        int64 // codes outside the enumeration
}

// NewRouter creates a router publishing to r.
func NewRouter(r *Relay, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		relay:  r,
		logger: logger,
	}
}

// Route publishes the event for f, if any, and returns its handshake meaning.
func (rt *Router) Route(session uuid.UUID, at time.Time, f protocol.Frame) Handshake {
	rt.count(func(s *RouterStats) { s.FramesReceived++ })

	ev := model.Event{SessionID: session, At: at, Command: f.Command}

	switch f.Command {
	case protocol.CmdAuthOK:
		return HandshakeAccepted

	case protocol.CmdGetUserList:
		ev.Kind = model.KindUserList
		ev.Text = f.Text()

	case protocol.CmdFormClosedOK:
		ev.Kind = model.KindFormClosed

	case protocol.CmdGetContractOK, protocol.CmdMarketClosed:
		ev.Kind = model.KindContractInfo
		ev.Text = f.Text()

	case protocol.CmdError:
		if f.Text() == protocol.UnauthorizedMessage {
			return HandshakeUnauthorized
		}
		ev.Kind = model.KindServerError
		ev.Text = f.Text()

	default:
		if f.Command.Known() {
			rt.logger.Debug("ignoring frame", "command", f.Command.String(), "len", f.Len())
			rt.count(func(s *RouterStats) { s.Ignored++ })
		} else {
			rt.logger.Debug("skipping unknown command", "command", uint8(f.Command), "len", f.Len())
			rt.count(func(s *RouterStats) { s.Unknown++ })
		}
		return HandshakeNone
	}

	if rt.relay.Notify(ev) {
		rt.mu.Lock()
		rt.stats.EventsRouted++
		rt.mu.Unlock()
	}
	return HandshakeNone
}

// Stats returns current statistics.
func (rt *Router) Stats() RouterStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.stats
}

func (rt *Router) count(fn func(*RouterStats)) {
	rt.mu.Lock()
	fn(&rt.stats)
	rt.mu.Unlock()
}
