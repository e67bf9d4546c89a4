package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFrameThenReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{WireID: 7, Payload: []byte("hello")}))

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, uint16(7), f.WireID)
	require.Equal(t, []byte("hello"), f.Payload)
}

func TestWriteFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{WireID: ControlWireID}))
	require.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, ControlWireID, f.WireID)
	require.Empty(t, f.Payload)
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, Frame{WireID: 1, Payload: make([]byte, MaxPayloadLength+1)})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	require.Zero(t, buf.Len(), "no partial header should be written on a rejected frame")
}

func TestReadFrameMultipleRecordsInSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{WireID: 1, Payload: []byte("a")}))
	require.NoError(t, WriteFrame(&buf, Frame{WireID: 2, Payload: []byte("bb")}))

	first, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, uint16(1), first.WireID)

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, uint16(2), second.WireID)
	require.Equal(t, []byte("bb"), second.Payload)
}

func TestReadFrameShortReadIsAnError(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 0, 5, 0, 'h', 'i'})
	_, err := ReadFrame(buf)
	require.Error(t, err)
}
