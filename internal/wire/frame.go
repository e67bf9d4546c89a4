// Package wire implements the stdio transport framing described in
// spec §6.1: a single multiplexed byte stream carrying one record per
// client channel plus a reserved control channel, and the
// messages.Encoder this framing backs for the engine's outgoing
// queue. Grounded on internal/network/tcp_channel.go's length-prefixed
// read/write loop shape (a 4-byte size prefix around a protobuf
// payload), narrowed here to the fixed 2+2-byte header spec §6.1 names
// and widened with the wire_id multiplexing tag TCPChannel never
// needed (TCP already gives one channel per connection).
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxPayloadLength is the largest payload a single frame can carry
// (spec §6.1: "payload capped at u16::MAX").
const MaxPayloadLength = 0xFFFF

// ControlWireID is the reserved wire_id naming the control channel
// (spec §6.1: "wire_id == 0 is the control channel").
const ControlWireID uint16 = 0

// Frame is one decoded stdio record: u16 wire_id || u16 length ||
// length bytes payload.
type Frame struct {
	WireID  uint16
	Payload []byte
}

// ErrPayloadTooLarge is returned by WriteFrame when a payload would
// overflow the u16 length field.
var ErrPayloadTooLarge = fmt.Errorf("wire: payload exceeds %d bytes", MaxPayloadLength)

// ReadFrame reads one framed record from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}
	wireID := binary.LittleEndian.Uint16(header[0:2])
	length := binary.LittleEndian.Uint16(header[2:4])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{WireID: wireID, Payload: payload}, nil
}

// WriteFrame writes one framed record to w.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxPayloadLength {
		return ErrPayloadTooLarge
	}
	var header [4]byte
	binary.LittleEndian.PutUint16(header[0:2], f.WireID)
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(f.Payload)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}
