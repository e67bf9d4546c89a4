package protocol

import (
	"encoding/json"
	"testing"

	"github.com/annel0/mmo-game/internal/messages"
	"github.com/stretchr/testify/require"
)

type chatArgs struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func TestCodecRoundTripsMessageArgs(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	defer c.Close()

	msg := messages.Message{Kind: messages.KindChat, Args: chatArgs{From: "a", Text: "hello"}}
	raw, err := c.EncodePayload(msg)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	kind, data, err := c.DecodePayload(raw)
	require.NoError(t, err)
	require.Equal(t, messages.KindChat, kind)

	var got chatArgs
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, chatArgs{From: "a", Text: "hello"}, got)
}

func TestCodecRejectsGarbageEnvelope(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)
	defer c.Close()

	_, _, err = c.DecodePayload([]byte("not json"))
	require.Error(t, err)
}
