// Package terraingen implements the wire protocol and in-process worker
// adapter for the terrain generation subprocess (spec §4.4). Framing is
// grounded on internal/network/tcp_channel.go's u32-length-prefix style,
// generalized from protobuf game messages to raw bundle payloads.
package terraingen

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// Opcode identifies a command sent down the generator's stdin pipe.
type Opcode uint8

const (
	OpInitPlane Opcode = iota
	OpForgetPlane
	OpGenPlane
	OpGenChunk
	OpShutdown
)

func (o Opcode) String() string {
	switch o {
	case OpInitPlane:
		return "INIT_PLANE"
	case OpForgetPlane:
		return "FORGET_PLANE"
	case OpGenPlane:
		return "GEN_PLANE"
	case OpGenChunk:
		return "GEN_CHUNK"
	case OpShutdown:
		return "SHUTDOWN"
	default:
		return fmt.Sprintf("opcode(%d)", o)
	}
}

// Command is one outbound frame: opcode + the plane it concerns, plus a
// chunk position for GEN_CHUNK and generation flags for INIT_PLANE.
type Command struct {
	Op          Opcode
	StablePlane idmap.StableID
	Pos         vec.Vec2
	Flags       uint32
}

// WriteCommand frames and writes a single command: opcode(1) +
// stable_plane(8) + pos_x(4) + pos_y(4) + flags(4), all little-endian.
// A fixed-size header keeps the subprocess's read loop branch-free.
func WriteCommand(w io.Writer, cmd Command) error {
	var buf [21]byte
	buf[0] = byte(cmd.Op)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(cmd.StablePlane))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(cmd.Pos.X))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(cmd.Pos.Y))
	binary.LittleEndian.PutUint32(buf[17:21], cmd.Flags)
	_, err := w.Write(buf[:])
	return err
}

// ReadCommand is the generator subprocess's half of WriteCommand.
func ReadCommand(r io.Reader) (Command, error) {
	var buf [21]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Command{}, err
	}
	return Command{
		Op:          Opcode(buf[0]),
		StablePlane: idmap.StableID(binary.LittleEndian.Uint64(buf[1:9])),
		Pos:         vec.Vec2{X: int(int32(binary.LittleEndian.Uint32(buf[9:13]))), Y: int(int32(binary.LittleEndian.Uint32(buf[13:17])))},
		Flags:       binary.LittleEndian.Uint32(buf[17:21]),
	}, nil
}

const maxResponseSize = 64 << 20 // 64MiB, generous bound on one chunk bundle

// WriteResponse frames a GEN_* response: u32 length followed by the
// bundle bytes (spec §4.4).
func WriteResponse(w io.Writer, data []byte) error {
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(data)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// ReadResponse reads one length-prefixed response frame.
func ReadResponse(r io.Reader) ([]byte, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size > maxResponseSize {
		return nil, fmt.Errorf("terraingen: response too large: %d bytes", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
