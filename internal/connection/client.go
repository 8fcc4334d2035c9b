package connection

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rickgao/bizsim-client/internal/buffer"
	"github.com/rickgao/bizsim-client/internal/metrics"
	"github.com/rickgao/bizsim-client/internal/protocol"
)

// link is one live transport connection with its read and write loops.
// Frames and failures are reported to the session runner tagged with gen so
// that reports from a torn down link are recognised as stale.
type link struct {
	gen    uint64
	conn   net.Conn
	addr   string
	out    *buffer.Queue[outbound]
	logger *slog.Logger

	metrics   *metrics.Metrics
	framesOut *atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// linkEvent is a read loop or write loop report.
type linkEvent struct {
	gen    uint64
	frames []protocol.Frame
	err    error // non-nil: the link failed
	write  bool  // err came from the write loop
}

func newLink(gen uint64, conn net.Conn, addr string, m *metrics.Metrics, framesOut *atomic.Int64, logger *slog.Logger) *link {
	return &link{
		gen:       gen,
		conn:      conn,
		addr:      addr,
		out:       buffer.New[outbound](16),
		logger:    logger,
		metrics:   m,
		framesOut: framesOut,
		done:      make(chan struct{}),
	}
}

// start launches the read and write loops.
func (l *link) start(events chan<- linkEvent, readBufferSize int) {
	l.wg.Add(2)
	go l.readLoop(events, readBufferSize)
	go l.writeLoop(events)
}

// enqueue adds a frame to the outbound queue. It returns false once the link
// is closed.
func (l *link) enqueue(cmd protocol.Command, data []byte) bool {
	if !l.out.Push(outbound{cmd: cmd, data: data}) {
		return false
	}
	l.metrics.SetQueueDepth(l.out.Len())
	return true
}

// close tears the link down and waits for both loops to exit.
// Safe to call more than once.
func (l *link) close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.conn.Close()
		l.out.Close()
		if n := l.out.Discard(); n > 0 {
			l.logger.Debug("discarded queued frames", "count", n)
			l.metrics.Dropped(n)
		}
		l.metrics.SetQueueDepth(0)
	})
	l.wg.Wait()
}

// report delivers ev unless the link has been torn down.
func (l *link) report(events chan<- linkEvent, ev linkEvent) bool {
	ev.gen = l.gen
	select {
	case events <- ev:
		return true
	case <-l.done:
		return false
	}
}

// readLoop reads the socket, decodes frames and forwards them in order.
func (l *link) readLoop(events chan<- linkEvent, bufSize int) {
	defer l.wg.Done()

	dec := protocol.NewDecoder()
	buf := make([]byte, bufSize)

	for {
		n, err := l.conn.Read(buf)
		if n > 0 {
			frames, ferr := dec.Feed(buf[:n])
			if len(frames) > 0 {
				if !l.report(events, linkEvent{frames: frames}) {
					return
				}
			}
			if ferr != nil {
				l.report(events, linkEvent{err: ferr})
				return
			}
		}
		if err != nil {
			if n := dec.Buffered(); n > 0 {
				l.logger.Debug("partial frame lost with connection", "bytes", n)
			}
			l.report(events, linkEvent{err: err})
			return
		}
	}
}

// writeLoop writes queued frames one at a time until the queue is closed.
func (l *link) writeLoop(events chan<- linkEvent) {
	defer l.wg.Done()

	for {
		item, ok := l.out.Receive()
		if !ok {
			return
		}

		if _, err := l.conn.Write(item.data); err != nil {
			// Nothing behind a failed write is delivered.
			if n := l.out.Discard(); n > 0 {
				l.metrics.Dropped(n)
			}
			l.report(events, linkEvent{err: err, write: true})
			return
		}

		l.framesOut.Add(1)
		l.metrics.FrameSent(item.cmd.String(), len(item.data))
		l.metrics.SetQueueDepth(l.out.Len())
	}
}
