package wire

import (
	"encoding/binary"
	"fmt"
)

// GameOp is a client request opcode from the game-session opcode space
// (spec §6.2), carried as the first u16 of a non-control wire_id's
// payload. Only the handful of requests this tree's engine currently
// has a registered handler for are named here; spec §6.2 lists the
// full request/response surface ("see the tables in the source, which
// is part of the wire compatibility surface") and the remainder is
// unimplemented rather than guessed at.
type GameOp uint16

const (
	OpPing GameOp = iota
	OpChat
	OpReady
)

// PingRequest carries a client-chosen cookie a Pong response should
// echo back, letting the client pair requests with responses without
// a sequence number.
type PingRequest struct {
	Cookie uint32
}

// ChatRequest is one chat line submitted by a client.
type ChatRequest struct {
	Msg string
}

// ReadyRequest signals that a client has finished loading and should
// start receiving world updates. It carries no fields.
type ReadyRequest struct{}

// DecodeRequest reads the opcode tag and parses the remaining bytes
// into the matching request struct, mirroring DecodeControl's
// switch-on-tag-first shape in control.go.
func DecodeRequest(payload []byte) (GameOp, interface{}, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("wire: request payload too short: %d bytes", len(payload))
	}
	op := GameOp(binary.LittleEndian.Uint16(payload[:2]))
	body := payload[2:]

	switch op {
	case OpPing:
		if len(body) < 4 {
			return 0, nil, fmt.Errorf("wire: Ping payload too short")
		}
		return op, PingRequest{Cookie: binary.LittleEndian.Uint32(body)}, nil

	case OpChat:
		s, _, err := getString(body, 0)
		if err != nil {
			return 0, nil, fmt.Errorf("wire: Chat payload: %w", err)
		}
		return op, ChatRequest{Msg: s}, nil

	case OpReady:
		return op, ReadyRequest{}, nil

	default:
		return 0, nil, fmt.Errorf("wire: unknown game opcode %d", op)
	}
}
