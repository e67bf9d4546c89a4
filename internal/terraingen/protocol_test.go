package terraingen

import (
	"bytes"
	"testing"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/require"
)

func TestCommandRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Command{Op: OpGenChunk, StablePlane: idmap.StableID(42), Pos: vec.Vec2{X: -3, Y: 7}, Flags: 1}
	require.NoError(t, WriteCommand(&buf, want))

	got, err := ReadCommand(&buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("a bundle's worth of bytes")
	require.NoError(t, WriteResponse(&buf, payload))

	got, err := ReadResponse(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "GEN_CHUNK", OpGenChunk.String())
	require.Equal(t, "SHUTDOWN", OpShutdown.String())
}
