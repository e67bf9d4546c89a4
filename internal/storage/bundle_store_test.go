package storage

import (
	"os"
	"testing"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/stretchr/testify/require"
)

func setupBundleStore(t *testing.T) (*BundleStore, string) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "bundle-store-test")
	require.NoError(t, err)

	bs, err := NewBundleStore(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("could not open bundle store: %v", err)
	}
	return bs, tempDir
}

func cleanupBundleStore(bs *BundleStore, tempDir string) {
	if bs != nil {
		bs.Close()
	}
	if tempDir != "" {
		os.RemoveAll(tempDir)
	}
}

func TestBundleStoreChunkRoundTrip(t *testing.T) {
	bs, tempDir := setupBundleStore(t)
	defer cleanupBundleStore(bs, tempDir)

	_, found, err := bs.LoadChunk(idmap.StableID(5))
	require.NoError(t, err)
	require.False(t, found)

	payload := []byte{1, 2, 3, 4}
	require.NoError(t, bs.SaveChunk(idmap.StableID(5), payload))

	got, found, err := bs.LoadChunk(idmap.StableID(5))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload, got)

	require.NoError(t, bs.DeleteChunk(idmap.StableID(5)))
	_, found, err = bs.LoadChunk(idmap.StableID(5))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBundleStorePlaneAndClientRoundTrip(t *testing.T) {
	bs, tempDir := setupBundleStore(t)
	defer cleanupBundleStore(bs, tempDir)

	require.NoError(t, bs.SavePlane(idmap.StableID(9), []byte("plane-data")))
	data, found, err := bs.LoadPlane(idmap.StableID(9))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("plane-data"), data)

	require.NoError(t, bs.SaveClient("alice", []byte("client-data")))
	data, found, err = bs.LoadClient("alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("client-data"), data)
}

func TestBundleStoreSummaryRoundTrip(t *testing.T) {
	bs, tempDir := setupBundleStore(t)
	defer cleanupBundleStore(bs, tempDir)

	key := "summary/height-map/9/1,2"
	require.NoError(t, bs.SaveSummary(key, []byte{7}))
	data, found, err := bs.LoadSummary(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{7}, data)
}
