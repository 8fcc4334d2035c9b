package transport

import (
	"context"
	"net"
)

// TCP dials plain TCP sockets.
type TCP struct {
	Resolver *net.Resolver // nil uses net.DefaultResolver
	Dialer   net.Dialer
}

// NewTCP returns a TCP transport with default resolver and dialer.
func NewTCP() *TCP {
	return &TCP{}
}

// Resolve implements Transport.
func (t *TCP) Resolve(ctx context.Context, host string, port int) ([]string, error) {
	return resolve(ctx, t.Resolver, host, port)
}

// Dial implements Transport.
func (t *TCP) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return t.Dialer.DialContext(ctx, "tcp", addr)
}
