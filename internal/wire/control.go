package wire

import (
	"encoding/binary"
	"fmt"
)

// ControlOp tags a control-channel (wire_id == 0) record's opcode
// (spec §6.3: "separate opcode space for operator use").
type ControlOp uint16

const (
	OpAddClient ControlOp = iota
	OpRemoveClient
	OpReplCommand
	OpShutdown
	OpRestartServer
	OpRestartClient
	OpRestartBoth

	OpClientRemoved
	OpReplResult
)

// AddClient registers a newly accepted connection's wire_id with the
// engine, under the flags/name the operator front-end supplied.
type AddClient struct {
	Wire  uint16
	Flags uint32
	Name  string
}

// RemoveClient tears down a connected client's channel.
type RemoveClient struct {
	Wire uint16
}

// ReplCommand is an operator REPL invocation, tagged with a cookie so
// its ReplResult can be correlated back to the request.
type ReplCommand struct {
	Cookie uint32
	Cmd    string
}

// ClientRemoved acknowledges a RemoveClient (or an engine-initiated
// disconnect) back to the front-end.
type ClientRemoved struct {
	Wire uint16
}

// ReplResult carries a REPL command's output back to the operator.
type ReplResult struct {
	Cookie uint32
	Msg    string
}

func putString(buf []byte, s string) []byte {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func getString(payload []byte, off int) (string, int, error) {
	if off+2 > len(payload) {
		return "", off, fmt.Errorf("wire: control payload truncated reading string length")
	}
	n := int(binary.LittleEndian.Uint16(payload[off : off+2]))
	off += 2
	if off+n > len(payload) {
		return "", off, fmt.Errorf("wire: control payload truncated reading string body")
	}
	return string(payload[off : off+n]), off + n, nil
}

// EncodeControl renders a control-channel message into its
// opcode-prefixed payload, ready to carry as a Frame with
// WireID == ControlWireID.
func EncodeControl(op ControlOp, msg interface{}) ([]byte, error) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(op))

	switch op {
	case OpAddClient:
		m, ok := msg.(AddClient)
		if !ok {
			return nil, fmt.Errorf("wire: OpAddClient requires an AddClient message, got %T", msg)
		}
		var wf [2]byte
		binary.LittleEndian.PutUint16(wf[:], m.Wire)
		buf = append(buf, wf[:]...)
		var flags [4]byte
		binary.LittleEndian.PutUint32(flags[:], m.Flags)
		buf = append(buf, flags[:]...)
		buf = putString(buf, m.Name)
	case OpRemoveClient:
		m, ok := msg.(RemoveClient)
		if !ok {
			return nil, fmt.Errorf("wire: OpRemoveClient requires a RemoveClient message, got %T", msg)
		}
		var wf [2]byte
		binary.LittleEndian.PutUint16(wf[:], m.Wire)
		buf = append(buf, wf[:]...)
	case OpReplCommand:
		m, ok := msg.(ReplCommand)
		if !ok {
			return nil, fmt.Errorf("wire: OpReplCommand requires a ReplCommand message, got %T", msg)
		}
		var cookie [4]byte
		binary.LittleEndian.PutUint32(cookie[:], m.Cookie)
		buf = append(buf, cookie[:]...)
		buf = putString(buf, m.Cmd)
	case OpClientRemoved:
		m, ok := msg.(ClientRemoved)
		if !ok {
			return nil, fmt.Errorf("wire: OpClientRemoved requires a ClientRemoved message, got %T", msg)
		}
		var wf [2]byte
		binary.LittleEndian.PutUint16(wf[:], m.Wire)
		buf = append(buf, wf[:]...)
	case OpReplResult:
		m, ok := msg.(ReplResult)
		if !ok {
			return nil, fmt.Errorf("wire: OpReplResult requires a ReplResult message, got %T", msg)
		}
		var cookie [4]byte
		binary.LittleEndian.PutUint32(cookie[:], m.Cookie)
		buf = append(buf, cookie[:]...)
		buf = putString(buf, m.Msg)
	case OpShutdown, OpRestartServer, OpRestartClient, OpRestartBoth:
		if msg != nil {
			return nil, fmt.Errorf("wire: opcode %d carries no body, got %T", op, msg)
		}
	default:
		return nil, fmt.Errorf("wire: unknown control opcode %d", op)
	}
	return buf, nil
}

// DecodeControl parses a control-channel payload into its opcode and,
// for ops that carry one, the decoded message value.
func DecodeControl(payload []byte) (ControlOp, interface{}, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("wire: control payload shorter than an opcode")
	}
	op := ControlOp(binary.LittleEndian.Uint16(payload[0:2]))
	body := payload[2:]

	switch op {
	case OpAddClient:
		if len(body) < 6 {
			return op, nil, fmt.Errorf("wire: AddClient payload truncated")
		}
		wire := binary.LittleEndian.Uint16(body[0:2])
		flags := binary.LittleEndian.Uint32(body[2:6])
		name, _, err := getString(body, 6)
		if err != nil {
			return op, nil, err
		}
		return op, AddClient{Wire: wire, Flags: flags, Name: name}, nil
	case OpRemoveClient:
		if len(body) < 2 {
			return op, nil, fmt.Errorf("wire: RemoveClient payload truncated")
		}
		return op, RemoveClient{Wire: binary.LittleEndian.Uint16(body[0:2])}, nil
	case OpReplCommand:
		if len(body) < 4 {
			return op, nil, fmt.Errorf("wire: ReplCommand payload truncated")
		}
		cookie := binary.LittleEndian.Uint32(body[0:4])
		cmd, _, err := getString(body, 4)
		if err != nil {
			return op, nil, err
		}
		return op, ReplCommand{Cookie: cookie, Cmd: cmd}, nil
	case OpShutdown, OpRestartServer, OpRestartClient, OpRestartBoth:
		return op, nil, nil
	case OpClientRemoved:
		if len(body) < 2 {
			return op, nil, fmt.Errorf("wire: ClientRemoved payload truncated")
		}
		return op, ClientRemoved{Wire: binary.LittleEndian.Uint16(body[0:2])}, nil
	case OpReplResult:
		if len(body) < 4 {
			return op, nil, fmt.Errorf("wire: ReplResult payload truncated")
		}
		cookie := binary.LittleEndian.Uint32(body[0:4])
		msg, _, err := getString(body, 4)
		if err != nil {
			return op, nil, err
		}
		return op, ReplResult{Cookie: cookie, Msg: msg}, nil
	default:
		return op, nil, fmt.Errorf("wire: unknown control opcode %d", op)
	}
}
