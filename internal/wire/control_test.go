package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeAddClient(t *testing.T) {
	payload, err := EncodeControl(OpAddClient, AddClient{Wire: 3, Flags: 0x1, Name: "alice"})
	require.NoError(t, err)

	op, msg, err := DecodeControl(payload)
	require.NoError(t, err)
	require.Equal(t, OpAddClient, op)
	require.Equal(t, AddClient{Wire: 3, Flags: 0x1, Name: "alice"}, msg)
}

func TestEncodeDecodeRemoveClient(t *testing.T) {
	payload, err := EncodeControl(OpRemoveClient, RemoveClient{Wire: 9})
	require.NoError(t, err)

	op, msg, err := DecodeControl(payload)
	require.NoError(t, err)
	require.Equal(t, OpRemoveClient, op)
	require.Equal(t, RemoveClient{Wire: 9}, msg)
}

func TestEncodeDecodeReplCommandAndResult(t *testing.T) {
	payload, err := EncodeControl(OpReplCommand, ReplCommand{Cookie: 42, Cmd: "status"})
	require.NoError(t, err)
	op, msg, err := DecodeControl(payload)
	require.NoError(t, err)
	require.Equal(t, OpReplCommand, op)
	require.Equal(t, ReplCommand{Cookie: 42, Cmd: "status"}, msg)

	resultPayload, err := EncodeControl(OpReplResult, ReplResult{Cookie: 42, Msg: "ok"})
	require.NoError(t, err)
	op, msg, err = DecodeControl(resultPayload)
	require.NoError(t, err)
	require.Equal(t, OpReplResult, op)
	require.Equal(t, ReplResult{Cookie: 42, Msg: "ok"}, msg)
}

func TestEncodeDecodeBareOpsCarryNoBody(t *testing.T) {
	for _, op := range []ControlOp{OpShutdown, OpRestartServer, OpRestartClient, OpRestartBoth} {
		payload, err := EncodeControl(op, nil)
		require.NoError(t, err)
		decoded, msg, err := DecodeControl(payload)
		require.NoError(t, err)
		require.Equal(t, op, decoded)
		require.Nil(t, msg)
	}
}

func TestDecodeControlUnknownOpcodeIsAnError(t *testing.T) {
	_, _, err := DecodeControl([]byte{0xFF, 0xFF})
	require.Error(t, err)
}

func TestDecodeControlTruncatedPayloadIsAnError(t *testing.T) {
	_, _, err := DecodeControl([]byte{byte(OpAddClient), 0})
	require.Error(t, err)
}

func TestEncodeControlRejectsMismatchedType(t *testing.T) {
	_, err := EncodeControl(OpAddClient, ReplCommand{})
	require.Error(t, err)
}
