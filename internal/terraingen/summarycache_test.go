package terraingen

import (
	"sync"
	"testing"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/require"
)

type memPassStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemPassStore() *memPassStore {
	return &memPassStore{data: make(map[string][]byte)}
}

func (s *memPassStore) LoadSummary(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[key]
	return d, ok, nil
}

func (s *memPassStore) SaveSummary(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func TestSummaryCacheGeneratesOnMiss(t *testing.T) {
	store := newMemPassStore()
	c := NewSummaryCache(store)
	calls := 0
	c.RegisterPass(PassHeightMap, func(key SummaryKey, cache *SummaryCache) ([]byte, error) {
		calls++
		return []byte{byte(key.Pos.X), byte(key.Pos.Y)}, nil
	})

	key := SummaryKey{Plane: idmap.StableID(1), Pos: vec.Vec2{X: 2, Y: 3}, Pass: PassHeightMap}
	data, err := c.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, data)

	// Second Get must hit the in-memory LRU, not regenerate.
	_, err = c.Get(key)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestSummaryCacheEvictionWritesBackDirtyOnly(t *testing.T) {
	store := newMemPassStore()
	c := NewSummaryCache(store)
	c.cap = 2
	c.RegisterPass(PassTrees, func(key SummaryKey, cache *SummaryCache) ([]byte, error) {
		return []byte{byte(key.Pos.X)}, nil
	})

	k1 := SummaryKey{Plane: 1, Pos: vec.Vec2{X: 1, Y: 0}, Pass: PassTrees}
	k2 := SummaryKey{Plane: 1, Pos: vec.Vec2{X: 2, Y: 0}, Pass: PassTrees}
	k3 := SummaryKey{Plane: 1, Pos: vec.Vec2{X: 3, Y: 0}, Pass: PassTrees}

	_, err := c.Get(k1) // dirty, generated
	require.NoError(t, err)
	require.NoError(t, c.store.SaveSummary(k2.diskKey(), []byte{2})) // pre-seed as "clean" via load
	_, err = c.Get(k2)                                               // clean, loaded from store
	require.NoError(t, err)
	_, err = c.Get(k3) // evicts k1 (dirty -> written back)
	require.NoError(t, err)

	_, ok, _ := store.LoadSummary(k1.diskKey())
	require.True(t, ok, "dirty entry must be written back on eviction")
}

func TestSummaryCacheFlush(t *testing.T) {
	store := newMemPassStore()
	c := NewSummaryCache(store)
	c.Put(SummaryKey{Plane: 1, Pos: vec.Vec2{}, Pass: PassCaveJunk}, []byte{9})

	require.NoError(t, c.Flush())
	_, ok, _ := store.LoadSummary(SummaryKey{Plane: 1, Pos: vec.Vec2{}, Pass: PassCaveJunk}.diskKey())
	require.True(t, ok)
}
