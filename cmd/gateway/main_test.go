package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-game/internal/wire"
)

// serverPipe wires a gateway's wire.Transport to an in-process pair of
// io.Pipes standing in for cmd/server's stdin/stdout, so these tests
// never spawn a real subprocess.
func serverPipe(t *testing.T) (*wire.Transport, io.Reader, io.Writer) {
	t.Helper()
	serverReads, gatewayWrites := io.Pipe()
	gatewayReads, serverWrites := io.Pipe()
	transport := wire.NewTransport(gatewayReads, gatewayWrites, nil)
	return transport, serverReads, serverWrites
}

func TestPayloadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePayload(&buf, []byte("hello")))

	got, err := readPayload(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestPayloadRoundTripEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePayload(&buf, nil))

	got, err := readPayload(&buf)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReadPayloadRejectsShortStream(t *testing.T) {
	_, err := readPayload(bytes.NewReader([]byte{0x05, 0x00, 0x01, 0x02}))
	require.Error(t, err)
}

// TestServeClientSendsAddAndRemoveClient confirms a connecting socket
// produces an AddClient control frame on the stdio transport, and a
// closing one produces RemoveClient, both carrying the wire_id
// serveClient assigned.
func TestServeClientSendsAddAndRemoveClient(t *testing.T) {
	transport, serverReads, _ := serverPipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Run(ctx)

	g := newGateway(transport, nil)

	clientConn, gatewayConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		g.serveClient(ctx, gatewayConn)
		close(done)
	}()

	addFrame, err := wire.ReadFrame(serverReads)
	require.NoError(t, err)
	require.Equal(t, wire.ControlWireID, addFrame.WireID)
	op, msg, err := wire.DecodeControl(addFrame.Payload)
	require.NoError(t, err)
	require.Equal(t, wire.OpAddClient, op)
	add := msg.(wire.AddClient)
	require.NotZero(t, add.Wire)

	clientConn.Close()

	removeFrame, err := wire.ReadFrame(serverReads)
	require.NoError(t, err)
	require.Equal(t, wire.ControlWireID, removeFrame.WireID)
	op, msg, err = wire.DecodeControl(removeFrame.Payload)
	require.NoError(t, err)
	require.Equal(t, wire.OpRemoveClient, op)
	require.Equal(t, add.Wire, msg.(wire.RemoveClient).Wire)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serveClient did not return after its connection closed")
	}
}

// TestServeClientForwardsClientPayload confirms a length-prefixed
// request written to the client socket arrives on the stdio transport
// tagged with that client's wire_id.
func TestServeClientForwardsClientPayload(t *testing.T) {
	transport, serverReads, _ := serverPipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Run(ctx)

	g := newGateway(transport, nil)

	clientConn, gatewayConn := net.Pipe()
	go g.serveClient(ctx, gatewayConn)

	addFrame, err := wire.ReadFrame(serverReads)
	require.NoError(t, err)
	add := mustAddClient(t, addFrame)

	require.NoError(t, writePayload(clientConn, []byte("ping")))

	reqFrame, err := wire.ReadFrame(serverReads)
	require.NoError(t, err)
	require.Equal(t, add.Wire, reqFrame.WireID)
	require.Equal(t, []byte("ping"), reqFrame.Payload)

	clientConn.Close()
}

// TestPumpServerFramesRelaysToClient confirms a frame the stdio
// transport receives for a known wire_id is written back onto that
// client's socket, length-prefixed.
func TestPumpServerFramesRelaysToClient(t *testing.T) {
	transport, serverReads, serverWrites := serverPipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Run(ctx)

	g := newGateway(transport, nil)
	go g.pumpServerFrames(ctx)

	clientConn, gatewayConn := net.Pipe()
	go g.serveClient(ctx, gatewayConn)

	addFrame, err := wire.ReadFrame(serverReads)
	require.NoError(t, err)
	add := mustAddClient(t, addFrame)

	require.NoError(t, wire.WriteFrame(serverWrites, wire.Frame{WireID: add.Wire, Payload: []byte("pong")}))

	got, err := readPayload(clientConn)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), got)

	clientConn.Close()
}

// TestPumpServerFramesIgnoresControlFrames confirms control-channel
// traffic (acks the gateway doesn't yet act on) never gets relayed to
// a client socket, which has no wire_id 0 to match it against.
func TestPumpServerFramesIgnoresControlFrames(t *testing.T) {
	transport, _, serverWrites := serverPipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Run(ctx)

	g := newGateway(transport, nil)
	go g.pumpServerFrames(ctx)

	body, err := wire.EncodeControl(wire.OpClientRemoved, wire.ClientRemoved{Wire: 1})
	require.NoError(t, err)
	require.NoError(t, wire.WriteFrame(serverWrites, wire.Frame{WireID: wire.ControlWireID, Payload: body}))

	// Give pumpServerFrames a moment to process and confirm it didn't
	// panic or register a bogus client entry.
	time.Sleep(50 * time.Millisecond)
	g.mu.Lock()
	defer g.mu.Unlock()
	require.Empty(t, g.clients)
}

func mustAddClient(t *testing.T, f wire.Frame) wire.AddClient {
	t.Helper()
	require.Equal(t, wire.ControlWireID, f.WireID)
	op, msg, err := wire.DecodeControl(f.Payload)
	require.NoError(t, err)
	require.Equal(t, wire.OpAddClient, op)
	return msg.(wire.AddClient)
}
