// Package transport resolves a game server host and dials a byte stream to it.
//
// Two transports are provided:
//   - TCP: the native game protocol over a plain TCP socket
//   - WebSocket: the same byte stream tunnelled through binary WebSocket
//     messages, for servers sitting behind an HTTP proxy
//
// Both return net.Conn so callers can apply socket options uniformly.
package transport
