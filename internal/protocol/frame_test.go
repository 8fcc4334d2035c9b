package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func mustEncode(t *testing.T, cmd Command, payload []byte) []byte {
	t.Helper()
	data, err := Encode(cmd, payload)
	if err != nil {
		t.Fatalf("Encode(%v) failed: %v", cmd, err)
	}
	return data
}

func TestEncode_AuthScenario(t *testing.T) {
	got := mustEncode(t, CmdAuth, []byte("LG=="))
	want := []byte{0x0D, 0x25, 0x04, 0x00, 0x00, 0x00, 0x00, 'L', 'G', '=', '='}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % x, want % x", got, want)
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	got := mustEncode(t, CmdAuthOK, nil)
	want := []byte{0x0D, 0x25, 0, 0, 0, 0, byte(CmdAuthOK)}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % x, want % x", got, want)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		payload []byte
	}{
		{"auth", CmdAuth, []byte("YWxpY2VAc2VjcmV0")},
		{"empty", CmdFormClosedOK, []byte{}},
		{"binary", CmdReport, []byte{0x00, 0x0D, 0x25, 0xFF}},
		{"unknown command", Command(200), []byte("future")},
		{"large", CmdGetContractOK, bytes.Repeat([]byte("x"), 70000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustEncode(t, tt.cmd, tt.payload)
			frames, consumed, status := Decode(data)
			if status != NeedMoreData {
				t.Fatalf("status = %v, want %v", status, NeedMoreData)
			}
			if consumed != len(data) {
				t.Errorf("consumed = %d, want %d", consumed, len(data))
			}
			if len(frames) != 1 {
				t.Fatalf("got %d frames, want 1", len(frames))
			}
			if frames[0].Command != tt.cmd {
				t.Errorf("Command = %v, want %v", frames[0].Command, tt.cmd)
			}
			if !bytes.Equal(frames[0].Payload, tt.payload) {
				t.Errorf("Payload mismatch (len %d vs %d)", len(frames[0].Payload), len(tt.payload))
			}
			if frames[0].Len() != uint32(len(tt.payload)) {
				t.Errorf("Len() = %d, want %d", frames[0].Len(), len(tt.payload))
			}
		})
	}
}

func TestDecode_UserListScenario(t *testing.T) {
	data := mustEncode(t, CmdGetUserList, []byte("alice,bob"))
	frames, _, _ := Decode(data)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Command != CmdGetUserList || frames[0].Text() != "alice,bob" {
		t.Errorf("frame = %v %q, want get-user-list \"alice,bob\"", frames[0].Command, frames[0].Text())
	}
}

func TestDecode_MultipleFrames(t *testing.T) {
	var stream []byte
	want := []Frame{
		{CmdAuthOK, []byte{}},
		{CmdGetUserList, []byte("alice,bob")},
		{CmdGetContractOK, []byte("A:1:2/B:3:4/")},
		{CmdFormClosedOK, []byte{}},
	}
	for _, f := range want {
		stream = append(stream, mustEncode(t, f.Command, f.Payload)...)
	}

	frames, consumed, status := Decode(stream)
	if status != NeedMoreData || consumed != len(stream) {
		t.Fatalf("status = %v consumed = %d, want NeedMoreData %d", status, consumed, len(stream))
	}
	assertFrames(t, frames, want)
}

func TestDecode_Incomplete(t *testing.T) {
	data := mustEncode(t, CmdGetContractOK, []byte("contract"))

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"partial header", data[:5]},
		{"header only", data[:HeaderSize]},
		{"partial payload", data[:len(data)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, consumed, status := Decode(tt.buf)
			if len(frames) != 0 || consumed != 0 || status != NeedMoreData {
				t.Errorf("Decode = %d frames, consumed %d, %v; want 0, 0, NeedMoreData", len(frames), consumed, status)
			}
		})
	}
}

func TestDecode_BadMagic(t *testing.T) {
	good := mustEncode(t, CmdGetUserList, []byte("alice"))

	for _, idx := range []int{0, 1} {
		bad := append([]byte(nil), good...)
		bad[idx] ^= 0xFF

		frames, consumed, status := Decode(bad)
		if status != ProtocolError {
			t.Errorf("flip byte %d: status = %v, want ProtocolError", idx, status)
		}
		if len(frames) != 0 || consumed != 0 {
			t.Errorf("flip byte %d: got %d frames consumed %d, want none", idx, len(frames), consumed)
		}
	}
}

func TestDecode_BadMagicAfterValidFrame(t *testing.T) {
	first := mustEncode(t, CmdFormClosedOK, nil)
	stream := append(append([]byte(nil), first...), 0x00, 0x00, 0, 0, 0, 0, 0)

	frames, consumed, status := Decode(stream)
	if status != ProtocolError {
		t.Fatalf("status = %v, want ProtocolError", status)
	}
	if len(frames) != 1 || consumed != len(first) {
		t.Errorf("got %d frames consumed %d, want 1 frame consumed %d", len(frames), consumed, len(first))
	}
}

func TestDecoder_FragmentationInvariance(t *testing.T) {
	want := []Frame{
		{CmdAuthOK, []byte{}},
		{CmdGetUserList, []byte("alice,bob,carol")},
		{CmdMarketClosed, []byte("north/south/")},
		{CmdError, []byte("market busy")},
	}
	var stream []byte
	for _, f := range want {
		stream = append(stream, mustEncode(t, f.Command, f.Payload)...)
	}

	for chunk := 1; chunk <= len(stream); chunk++ {
		d := NewDecoder()
		var got []Frame
		for off := 0; off < len(stream); off += chunk {
			end := off + chunk
			if end > len(stream) {
				end = len(stream)
			}
			frames, err := d.Feed(stream[off:end])
			if err != nil {
				t.Fatalf("chunk %d: Feed failed: %v", chunk, err)
			}
			got = append(got, frames...)
		}
		if d.Buffered() != 0 {
			t.Errorf("chunk %d: %d bytes left buffered", chunk, d.Buffered())
		}
		assertFrames(t, got, want)
	}
}

func TestDecoder_ProtocolError(t *testing.T) {
	d := NewDecoder()
	_, err := d.Feed([]byte{0x0D, 0x26, 0, 0, 0, 0, 1})
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("Feed error = %v, want ErrProtocol", err)
	}
}

func TestDecoder_FramesDoNotAliasBuffer(t *testing.T) {
	d := NewDecoder()
	frames, err := d.Feed(mustEncode(t, CmdGetUserList, []byte("alice")))
	if err != nil || len(frames) != 1 {
		t.Fatalf("Feed = %d frames, %v", len(frames), err)
	}
	if _, err := d.Feed(mustEncode(t, CmdGetUserList, []byte("zzzzz"))); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if frames[0].Text() != "alice" {
		t.Errorf("first payload changed to %q", frames[0].Text())
	}
}

func assertFrames(t *testing.T, got, want []Frame) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Command != want[i].Command || !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Errorf("frame %d = %v %q, want %v %q", i, got[i].Command, got[i].Payload, want[i].Command, want[i].Payload)
		}
	}
}
