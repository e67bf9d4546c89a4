package wire

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransportRunDecodesFramesOntoChannel(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, WriteFrame(&in, Frame{WireID: 1, Payload: []byte("a")}))
	require.NoError(t, WriteFrame(&in, Frame{WireID: 2, Payload: []byte("b")}))

	var out bytes.Buffer
	transport := NewTransport(&in, &out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Run(ctx)

	first := <-transport.Frames()
	require.Equal(t, uint16(1), first.WireID)
	second := <-transport.Frames()
	require.Equal(t, uint16(2), second.WireID)

	select {
	case _, ok := <-transport.Frames():
		require.False(t, ok, "channel should close once the stream is exhausted")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Frames() to close")
	}
	require.ErrorIs(t, transport.Err(), io.EOF)
}

func TestTransportWriteFrameWritesToUnderlyingWriter(t *testing.T) {
	var out bytes.Buffer
	transport := NewTransport(bytes.NewReader(nil), &out, nil)
	require.NoError(t, transport.WriteFrame(Frame{WireID: 5, Payload: []byte("hi")}))

	f, err := ReadFrame(&out)
	require.NoError(t, err)
	require.Equal(t, uint16(5), f.WireID)
	require.Equal(t, []byte("hi"), f.Payload)
}

func TestTransportRunStopsOnContextCancel(t *testing.T) {
	blocked, writer := io.Pipe()
	defer writer.Close()
	defer blocked.Close()

	transport := NewTransport(blocked, io.Discard, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	transport.Run(ctx)

	select {
	case <-transport.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on an already-canceled context")
	}
	require.NoError(t, transport.Err(), "canceling before any read should not surface as a stream error")
}
