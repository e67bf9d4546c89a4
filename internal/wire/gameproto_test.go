package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeOp(op GameOp, body []byte) []byte {
	buf := make([]byte, 2, 2+len(body))
	binary.LittleEndian.PutUint16(buf, uint16(op))
	return append(buf, body...)
}

func TestDecodeRequestPing(t *testing.T) {
	var cookie [4]byte
	binary.LittleEndian.PutUint32(cookie[:], 42)

	op, req, err := DecodeRequest(encodeOp(OpPing, cookie[:]))
	require.NoError(t, err)
	require.Equal(t, OpPing, op)
	require.Equal(t, PingRequest{Cookie: 42}, req)
}

func TestDecodeRequestChat(t *testing.T) {
	body := putString(nil, "hello")
	op, req, err := DecodeRequest(encodeOp(OpChat, body))
	require.NoError(t, err)
	require.Equal(t, OpChat, op)
	require.Equal(t, ChatRequest{Msg: "hello"}, req)
}

func TestDecodeRequestReady(t *testing.T) {
	op, req, err := DecodeRequest(encodeOp(OpReady, nil))
	require.NoError(t, err)
	require.Equal(t, OpReady, op)
	require.Equal(t, ReadyRequest{}, req)
}

func TestDecodeRequestRejectsShortPayload(t *testing.T) {
	_, _, err := DecodeRequest([]byte{0})
	require.Error(t, err)
}

func TestDecodeRequestRejectsUnknownOp(t *testing.T) {
	_, _, err := DecodeRequest(encodeOp(GameOp(999), nil))
	require.Error(t, err)
}
