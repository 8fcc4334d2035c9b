// Package relay carries events from the connection's I/O goroutines to the
// consumer (UI) goroutine.
//
// The relay is an ordered, unbounded queue: Notify never blocks the I/O side
// and never drops, Receive yields events strictly in Notify order. State
// events are coalesced the way the UI expects:
//   - a state equal to the last published state is suppressed;
//   - an unforced Disconnected never replaces InvalidLogin.
//
// Router maps decoded frames to payload events and reports handshake
// outcomes (auth-ok, Unauthorized) back to the connection manager.
package relay
