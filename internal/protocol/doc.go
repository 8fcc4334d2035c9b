// Package protocol implements the game server wire format.
//
// Every message is a frame:
//
//	byte 0-1 : magic 0x0D 0x25
//	byte 2-5 : payload length, uint32 little-endian (header not included)
//	byte 6   : command code
//	byte 7.. : payload
//
// The codec is pure: no I/O and no shared state. Decoder owns the
// append-only decode buffer for a single connection.
package protocol
