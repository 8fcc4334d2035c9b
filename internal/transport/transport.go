package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Kinds accepted by New.
const (
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
)

// Errors
var (
	ErrNoAddresses    = errors.New("host resolved to no addresses")
	ErrUnknownKind    = errors.New("unknown transport")
	ErrEmptyHost      = errors.New("host is required")
	ErrPortOutOfRange = errors.New("port out of range")
)

// Transport resolves hosts and dials connections.
type Transport interface {
	// Resolve returns dialable "ip:port" addresses for host, in preference order.
	Resolve(ctx context.Context, host string, port int) ([]string, error)

	// Dial opens a byte stream to one resolved address.
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// New builds the transport named by kind. wsPath is used by the WebSocket
// transport only.
func New(kind, wsPath string) (Transport, error) {
	switch kind {
	case "", KindTCP:
		return NewTCP(), nil
	case KindWebSocket:
		return NewWebSocket(wsPath), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// resolve is shared by both transports.
func resolve(ctx context.Context, r *net.Resolver, host string, port int) ([]string, error) {
	if host == "" {
		return nil, ErrEmptyHost
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrPortOutOfRange, port)
	}
	p := strconv.Itoa(port)

	if ip := net.ParseIP(host); ip != nil {
		return []string{net.JoinHostPort(ip.String(), p)}, nil
	}

	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", host, ErrNoAddresses)
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip, p))
	}
	return addrs, nil
}
