package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	// HeaderSize is magic(2) + length(4) + command(1).
	HeaderSize = 7

	magic0 = 0x0D
	magic1 = 0x25
)

// ErrProtocol is returned when the stream does not start with the magic bytes.
// The connection cannot be resynchronised and must be closed.
var ErrProtocol = errors.New("protocol: bad frame magic")

// ErrPayloadTooLarge is returned by Encode for payloads that do not fit uint32.
var ErrPayloadTooLarge = errors.New("protocol: payload exceeds uint32 length")

// Frame is one decoded protocol message. Payload is owned by the frame.
type Frame struct {
	Command Command
	Payload []byte
}

// Len returns the payload length as carried in the header.
func (f Frame) Len() uint32 {
	return uint32(len(f.Payload))
}

// Text returns the payload as a string.
func (f Frame) Text() string {
	return string(f.Payload)
}

// Status describes why Decode stopped.
type Status int

const (
	// NeedMoreData means the remaining bytes are an incomplete frame (or none).
	NeedMoreData Status = iota
	// ProtocolError means the buffer head is not a frame; the stream is corrupt.
	ProtocolError
)

func (s Status) String() string {
	switch s {
	case NeedMoreData:
		return "need-more-data"
	case ProtocolError:
		return "protocol-error"
	default:
		return "unknown"
	}
}

// Encode builds the wire bytes for one frame.
func Encode(cmd Command, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, ErrPayloadTooLarge
	}
	out := make([]byte, HeaderSize+len(payload))
	out[0] = magic0
	out[1] = magic1
	binary.LittleEndian.PutUint32(out[2:6], uint32(len(payload)))
	out[6] = byte(cmd)
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Decode extracts every complete frame at the head of buf.
// consumed is the number of bytes covered by the returned frames; the caller
// keeps buf[consumed:] for the next read. On ProtocolError the frames decoded
// before the corrupt point are still returned.
func Decode(buf []byte) (frames []Frame, consumed int, status Status) {
	for {
		rest := buf[consumed:]
		if len(rest) < HeaderSize {
			return frames, consumed, NeedMoreData
		}
		if rest[0] != magic0 || rest[1] != magic1 {
			return frames, consumed, ProtocolError
		}
		n := binary.LittleEndian.Uint32(rest[2:6])
		if uint64(HeaderSize)+uint64(n) > uint64(len(rest)) {
			return frames, consumed, NeedMoreData
		}
		end := HeaderSize + int(n)
		payload := make([]byte, n)
		copy(payload, rest[HeaderSize:end])
		frames = append(frames, Frame{Command: Command(rest[6]), Payload: payload})
		consumed += end
	}
}

// Decoder accumulates stream bytes for one connection and yields whole frames.
// It is not safe for concurrent use; the connection's read loop owns it.
type Decoder struct {
	buf []byte
}

// NewDecoder returns a decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends p and returns the frames it completed.
// After ErrProtocol the decoder must be discarded with its connection.
func (d *Decoder) Feed(p []byte) ([]Frame, error) {
	d.buf = append(d.buf, p...)
	frames, consumed, status := Decode(d.buf)
	if consumed > 0 {
		// Shift the tail down so the backing array does not grow without bound.
		n := copy(d.buf, d.buf[consumed:])
		d.buf = d.buf[:n]
	}
	if status == ProtocolError {
		return frames, ErrProtocol
	}
	return frames, nil
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
