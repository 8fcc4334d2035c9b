// Package model defines the types shared between the connection manager,
// the event relay and consumers.
//
// Conventions:
//   - Connection state is written only by the connection manager and read
//     only from the relay's event stream.
//   - Every event carries the session ID (uuid.UUID) of the Start call that
//     produced it, so consumers can ignore stragglers from an old session.
package model
