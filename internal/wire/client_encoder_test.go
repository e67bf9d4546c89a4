package wire

import (
	"bytes"
	"testing"

	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

type stubPayloadEncoder struct{}

func (stubPayloadEncoder) EncodePayload(msg messages.Message) ([]byte, error) {
	return []byte("payload"), nil
}

func TestClientEncoderSendAddressesTheClientsWireID(t *testing.T) {
	ids := messages.NewIDMap()
	client := worldstore.ClientID(1)
	ids.Connect(client, messages.WireID(9))

	var out bytes.Buffer
	transport := NewTransport(bytes.NewReader(nil), &out, nil)
	enc := NewClientEncoder(ids, transport, stubPayloadEncoder{})

	body, err := enc.EncodeMessage(client, messages.Message{Kind: messages.KindChat})
	require.NoError(t, err)
	require.NoError(t, enc.Send(client, body))

	f, err := ReadFrame(&out)
	require.NoError(t, err)
	require.Equal(t, uint16(9), f.WireID)
	require.Equal(t, []byte("payload"), f.Payload)
}

func TestClientEncoderSendOnDisconnectedClientIsANoOp(t *testing.T) {
	ids := messages.NewIDMap()
	var out bytes.Buffer
	transport := NewTransport(bytes.NewReader(nil), &out, nil)
	enc := NewClientEncoder(ids, transport, stubPayloadEncoder{})

	require.NoError(t, enc.Send(worldstore.ClientID(404), []byte("payload")))
	require.Zero(t, out.Len(), "nothing should be written for a client with no current wire id")
}
