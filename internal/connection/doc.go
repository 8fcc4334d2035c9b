// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Resolves the game server, connects and authenticates
//   - Tracks the connection state machine and publishes transitions to the relay
//   - Runs a keepalive timer that restarts the session once the reconnect deadline passes
//   - Serializes outbound frames through a per-connection queue (one write in flight)
//   - Decodes inbound frames and routes them to the relay
package connection
