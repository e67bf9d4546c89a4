package wire

import (
	"fmt"

	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// PayloadEncoder renders one outgoing protocol message into its
// opcode-prefixed game-channel payload (spec §6.2's response opcodes,
// "0x8000-or-higher; see the source for the exact numbering"). Kept
// as an interface so internal/wire stays ignorant of the concrete
// opcode table; the server binary supplies the real implementation
// over internal/protocol's generated types.
type PayloadEncoder interface {
	EncodePayload(msg messages.Message) ([]byte, error)
}

// ClientEncoder implements messages.Encoder over the stdio Transport:
// it resolves a worldstore.ClientID to its wire_id through the shared
// IDMap (spec §4.8) and writes the resulting frame on the client's
// multiplexed channel.
type ClientEncoder struct {
	ids       *messages.IDMap
	transport *Transport
	payload   PayloadEncoder
}

// NewClientEncoder builds a messages.Encoder over transport, addressed
// through ids and rendered through payload.
func NewClientEncoder(ids *messages.IDMap, transport *Transport, payload PayloadEncoder) *ClientEncoder {
	return &ClientEncoder{ids: ids, transport: transport, payload: payload}
}

// EncodeMessage renders msg's wire body; addressing happens separately
// in Send, once the caller has the encoded bytes.
func (c *ClientEncoder) EncodeMessage(client worldstore.ClientID, msg messages.Message) ([]byte, error) {
	return c.payload.EncodePayload(msg)
}

// Send frames body on client's wire_id channel. A client with no
// current wire_id (disconnected between Enqueue and Drain) is silently
// skipped: the message no longer has anywhere to go, which is not the
// transport/decode failure spec §7 asks callers to log and recover
// from — it is simply stale.
func (c *ClientEncoder) Send(client worldstore.ClientID, body []byte) error {
	wireID, ok := c.ids.WireID(client)
	if !ok {
		return nil
	}
	if wireID > MaxWireID {
		return fmt.Errorf("wire: client %d's wire id %d exceeds u16 range", client, wireID)
	}
	return c.transport.WriteFrame(Frame{WireID: uint16(wireID), Payload: body})
}

// MaxWireID is the largest wire_id a stdio frame header can carry.
const MaxWireID = 0xFFFF
