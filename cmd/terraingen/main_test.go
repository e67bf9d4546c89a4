package main

import (
	"testing"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/storage"
	"github.com/annel0/mmo-game/internal/terraingen"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) *generator {
	t.Helper()
	store, err := storage.NewBundleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newGenerator(store, nil)
}

func TestGenHeightMapIsDeterministicForSameSeed(t *testing.T) {
	g := newTestGenerator(t)
	g.initPlane(idmap.StableID(1), 7)

	key := terraingen.SummaryKey{Plane: idmap.StableID(1), Pos: vec.Vec2{}, Pass: terraingen.PassHeightMap}
	a, err := g.cache.Get(key)
	require.NoError(t, err)

	g2 := newTestGenerator(t)
	g2.initPlane(idmap.StableID(1), 7)
	b, err := g2.cache.Get(key)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestGenHeightDetailBuildsOnHeightMap(t *testing.T) {
	g := newTestGenerator(t)
	g.initPlane(idmap.StableID(2), 3)

	key := terraingen.SummaryKey{Plane: idmap.StableID(2), Pos: vec.Vec2{X: 1, Y: -1}, Pass: terraingen.PassHeightDetail}
	data, err := g.cache.Get(key)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestBuildChunkProducesNonEmptyBundle(t *testing.T) {
	g := newTestGenerator(t)
	g.initPlane(idmap.StableID(5), 42)

	data, err := g.buildChunk(idmap.StableID(5), vec.Vec2{X: 0, Y: 0})
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestColumnBlockPicksSurfaceMaterialByHeight(t *testing.T) {
	require.Equal(t, blockGrass, columnBlock(0, 60))
	require.Equal(t, blockSand, columnBlock(0, 30))
	require.Equal(t, blockDirt, columnBlock(2, 60))
	require.Equal(t, blockStone, columnBlock(10, 60))
	require.Equal(t, blockAir, columnBlock(-1, 60))
}

func TestSeedForFallsBackWithoutInitPlane(t *testing.T) {
	g := newTestGenerator(t)
	require.Equal(t, int64(9), g.seedFor(idmap.StableID(9)))
}

func TestForgetPlaneDropsSeed(t *testing.T) {
	g := newTestGenerator(t)
	g.initPlane(idmap.StableID(4), 1)
	g.forgetPlane(idmap.StableID(4))
	require.Equal(t, int64(4), g.seedFor(idmap.StableID(4)))
}
