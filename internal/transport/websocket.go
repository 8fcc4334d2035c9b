package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWSPath is the upgrade path used when none is configured.
const DefaultWSPath = "/game"

// WebSocket tunnels the game byte stream through binary WebSocket messages.
// Message boundaries carry no meaning; the frame codec reassembles frames.
type WebSocket struct {
	Path     string
	Resolver *net.Resolver // nil uses net.DefaultResolver
	Dialer   *websocket.Dialer
}

// NewWebSocket returns a WebSocket transport upgrading at path.
func NewWebSocket(path string) *WebSocket {
	if path == "" {
		path = DefaultWSPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &WebSocket{
		Path: path,
		Dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Resolve implements Transport.
func (w *WebSocket) Resolve(ctx context.Context, host string, port int) ([]string, error) {
	return resolve(ctx, w.Resolver, host, port)
}

// Dial implements Transport.
func (w *WebSocket) Dial(ctx context.Context, addr string) (net.Conn, error) {
	d := w.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}

	url := "ws://" + addr + w.Path
	ws, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return newWSConn(ws), nil
}

// wsConn adapts a WebSocket connection to net.Conn.
type wsConn struct {
	ws *websocket.Conn
	r  io.Reader // current message

	writeMu sync.Mutex
}

// newWSConn wraps ws.
func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Read reads from consecutive binary messages as one stream.
// Text messages are skipped.
func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as one binary message.
func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the underlying connection.
func (c *wsConn) Close() error {
	// Best effort; the peer may already be gone.
	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

// NetConn returns the underlying socket, for socket options.
func (c *wsConn) NetConn() net.Conn {
	return c.ws.NetConn()
}
