package chunklifecycle

import (
	"sync"
	"testing"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

type memLoader struct {
	mu     sync.Mutex
	chunks map[idmap.StableID][]byte
	planes map[idmap.StableID][]byte
}

func newMemLoader() *memLoader {
	return &memLoader{chunks: make(map[idmap.StableID][]byte), planes: make(map[idmap.StableID][]byte)}
}

func (l *memLoader) LoadChunk(stable idmap.StableID) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.chunks[stable]
	return d, ok, nil
}

func (l *memLoader) SaveChunk(stable idmap.StableID, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[stable] = data
	return nil
}

func (l *memLoader) DeleteChunk(stable idmap.StableID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.chunks, stable)
	return nil
}

func (l *memLoader) LoadPlane(stable idmap.StableID) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.planes[stable]
	return d, ok, nil
}

func (l *memLoader) SavePlane(stable idmap.StableID, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.planes[stable] = data
	return nil
}

type recordingGenerator struct {
	mu       sync.Mutex
	requests []vec.Vec2
}

func (g *recordingGenerator) RequestChunkGeneration(stablePlane idmap.StableID, pos vec.Vec2) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, pos)
}

type fakeResolver struct{}

func (fakeResolver) TemplateID(name string) (uint32, bool) { return 1, true }
func (fakeResolver) ItemID(name string) (uint32, bool)      { return 1, true }
func (fakeResolver) AnimID(name string) (uint16, bool)      { return 1, true }

func newTestManager() (*Manager, *memLoader, *recordingGenerator, *worldstore.Store) {
	store := worldstore.NewStore()
	loader := newMemLoader()
	gen := &recordingGenerator{}
	return NewManager(store, loader, gen, fakeResolver{}), loader, gen, store
}

func TestLoadChunkWithoutSaveRequestsGeneration(t *testing.T) {
	m, _, gen, store := newTestManager()
	plane, err := m.LoadPlane(1, "forest")
	require.NoError(t, err)

	pos := vec.Vec2{X: 0, Y: 0}
	id, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)
	require.Equal(t, 1, m.ChunkRefCount(1, pos))

	c := store.Chunk(id)
	require.NotNil(t, c)
	require.True(t, c.Flags&worldstore.ChunkFlagGenerationPending != 0)
	require.Len(t, gen.requests, 1)
	require.Equal(t, pos, gen.requests[0])
}

func TestLoadChunkRefcountingSharesOneInstance(t *testing.T) {
	m, _, _, _ := newTestManager()
	plane, err := m.LoadPlane(1, "forest")
	require.NoError(t, err)
	pos := vec.Vec2{X: 0, Y: 0}

	id1, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)
	id2, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Equal(t, 2, m.ChunkRefCount(1, pos))

	require.NoError(t, m.UnloadChunk(plane, pos))
	require.Equal(t, 1, m.ChunkRefCount(1, pos))
}

func TestUnloadChunkToZeroSavesAndDestroys(t *testing.T) {
	m, loader, _, store := newTestManager()
	plane, err := m.LoadPlane(1, "forest")
	require.NoError(t, err)
	pos := vec.Vec2{X: 5, Y: 5}

	id, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)

	// Finish "generation" so the chunk isn't GENERATION_PENDING at unload.
	done := bundle.ExportChunk(store, id)
	done.Graph.Chunks[0].Flags = 0
	_, _, err = bundle.ImportGeneratedChunk(store, plane, pos, done, fakeResolver{})
	require.NoError(t, err)

	require.NoError(t, m.UnloadChunk(plane, pos))
	require.Equal(t, 0, m.ChunkRefCount(1, pos))

	p := store.Plane(plane)
	stable, ok := p.SavedChunks[pos]
	require.True(t, ok)
	require.Contains(t, loader.chunks, stable)
}

func TestOnGenerationResultInstallsChunk(t *testing.T) {
	m, _, _, store := newTestManager()
	plane, err := m.LoadPlane(2, "tundra")
	require.NoError(t, err)
	pos := vec.Vec2{X: 1, Y: 1}

	id, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)

	b := bundle.ExportChunk(store, id)
	b.Graph.Chunks[0].Flags = 0
	require.NoError(t, store.SetBlock(id, vec.Vec3{X: 0, Y: 0, Z: 0}, worldstore.BlockID(9)))
	b = bundle.ExportChunk(store, id)
	b.Graph.Chunks[0].Flags = 0
	data, err := bundle.Serialize(b)
	require.NoError(t, err)

	require.NoError(t, m.OnGenerationResult(2, pos, data))

	p := store.Plane(plane)
	newID := p.LoadedChunks[pos]
	c := store.Chunk(newID)
	require.NotNil(t, c)
	require.False(t, c.Flags&worldstore.ChunkFlagGenerationPending != 0)
	require.Equal(t, worldstore.BlockID(9), c.Blocks[0][0][0])
	require.Empty(t, worldstore.CheckInvariants(store))
}

func TestOnGenerationResultDiscardedAfterUnload(t *testing.T) {
	m, _, _, store := newTestManager()
	plane, err := m.LoadPlane(3, "marsh")
	require.NoError(t, err)
	pos := vec.Vec2{X: 2, Y: 2}

	id, err := m.LoadChunk(plane, pos)
	require.NoError(t, err)
	b := bundle.ExportChunk(store, id)
	b.Graph.Chunks[0].Flags = 0
	data, err := bundle.Serialize(b)
	require.NoError(t, err)

	require.NoError(t, m.UnloadChunk(plane, pos))

	// The generator's response arrives after the chunk was already
	// unloaded; it must be discarded rather than reinstalling a chunk.
	require.NoError(t, m.OnGenerationResult(3, pos, data))
	p := store.Plane(plane)
	_, stillLoaded := p.LoadedChunks[pos]
	require.False(t, stillLoaded)
}

func TestLoadPlaneSharedAndUnloadRequiresChunksGone(t *testing.T) {
	m, _, _, store := newTestManager()
	plane, err := m.LoadPlane(9, "home")
	require.NoError(t, err)
	_, err = m.LoadPlane(9, "home")
	require.NoError(t, err)
	require.Equal(t, 2, m.PlaneRefCount(9))

	require.NoError(t, m.UnloadPlane(9))
	require.Equal(t, 1, m.PlaneRefCount(9))
	_, ok := store.PlaneByStable(9)
	require.True(t, ok)

	require.NoError(t, m.UnloadPlane(9))
	_, ok = store.PlaneByStable(9)
	require.False(t, ok)
}
