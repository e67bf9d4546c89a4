package terraingen

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// Pass names one layer of the terrain generation DAG (spec §4.4): each
// later pass consults earlier passes across a 3×3 neighborhood of grid
// cells through the summary cache.
type Pass string

const (
	PassHeightMap    Pass = "height-map"
	PassHeightDetail Pass = "height-detail"
	PassCaveRamps    Pass = "cave-ramps"
	PassCaveDetail   Pass = "cave-detail"
	PassCaveJunk     Pass = "cave-junk"
	PassTrees        Pass = "trees"
)

// SummaryKey identifies one cached pass result: a grid cell of a
// particular plane, for a particular pass.
type SummaryKey struct {
	Plane idmap.StableID
	Pos   vec.Vec2
	Pass  Pass
}

func (k SummaryKey) diskKey() string {
	return fmt.Sprintf("summary/%s/%d/%d,%d", k.Pass, k.Plane, k.Pos.X, k.Pos.Y)
}

// PassStore persists summary-pass results keyed the way spec §6.4 lays
// out the storage root (summary/<pass>/<plane>/<x>,<y>).
type PassStore interface {
	LoadSummary(key string) ([]byte, bool, error)
	SaveSummary(key string, data []byte) error
}

// Generate computes a pass result for a key, consulting the
// neighborhood the pass depends on to stay reproducible regardless of
// visit order.
type Generate func(key SummaryKey, cache *SummaryCache) ([]byte, error)

type entry struct {
	key   SummaryKey
	value []byte
	dirty bool
}

// SummaryCache is the fixed-capacity LRU described in spec §4.4: on
// eviction, dirty entries are written back through the PassStore;
// clean entries are simply dropped. Grounded on the teacher's
// internal/cache package's capacity-bounded map idiom, specialized
// here to an explicit container/list LRU since eviction order (not
// just expiry) matters for write-back correctness.
type SummaryCache struct {
	mu sync.Mutex

	store    PassStore
	cap      int
	ll       *list.List
	index    map[SummaryKey]*list.Element
	generate map[Pass]Generate
}

// NewSummaryCache builds a cache with the spec-mandated 1024-entry cap.
func NewSummaryCache(store PassStore) *SummaryCache {
	return &SummaryCache{
		store:    store,
		cap:      1024,
		ll:       list.New(),
		index:    make(map[SummaryKey]*list.Element),
		generate: make(map[Pass]Generate),
	}
}

// RegisterPass wires the function used to produce a pass's result on a
// cache miss that also misses the backing store. The engine's generator
// binary registers one per entry in the pass DAG at startup.
func (c *SummaryCache) RegisterPass(pass Pass, fn Generate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generate[pass] = fn
}

// Get implements the uniform get_result<Pass>(key) accessor: it
// auto-loads from disk or auto-generates on demand, memoizing the
// result in the LRU.
func (c *SummaryCache) Get(key SummaryKey) ([]byte, error) {
	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.ll.MoveToFront(el)
		v := el.Value.(*entry).value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	if data, found, err := c.store.LoadSummary(key.diskKey()); err != nil {
		return nil, err
	} else if found {
		c.insert(key, data, false)
		return data, nil
	}

	c.mu.Lock()
	gen, ok := c.generate[key.Pass]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("terraingen: no generator registered for pass %q", key.Pass)
	}
	data, err := gen(key, c)
	if err != nil {
		return nil, err
	}
	c.insert(key, data, true)
	return data, nil
}

// Put seeds or overwrites a cache entry directly (used when a pass
// produces several neighboring keys' results in one call and wants to
// memoize all of them, not just the one originally requested).
func (c *SummaryCache) Put(key SummaryKey, data []byte) {
	c.insert(key, data, true)
}

func (c *SummaryCache) insert(key SummaryKey, data []byte, dirty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry)
		e.value = data
		e.dirty = e.dirty || dirty
		c.ll.MoveToFront(el)
		return
	}

	e := &entry{key: key, value: data, dirty: dirty}
	el := c.ll.PushFront(e)
	c.index[key] = el

	if c.ll.Len() > c.cap {
		c.evictLocked()
	}
}

func (c *SummaryCache) evictLocked() {
	back := c.ll.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.ll.Remove(back)
	delete(c.index, e.key)

	if e.dirty {
		if err := c.store.SaveSummary(e.key.diskKey(), e.value); err != nil {
			// Eviction is not on any caller's critical path; the next Get
			// for this key regenerates rather than losing correctness.
			fmt.Printf("terraingen: summary cache eviction write-back failed for %s: %v\n", e.key.diskKey(), err)
		}
	}
}

// Flush writes back every dirty entry without evicting them, for use
// at generator shutdown.
func (c *SummaryCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !e.dirty {
			continue
		}
		if err := c.store.SaveSummary(e.key.diskKey(), e.value); err != nil {
			return err
		}
		e.dirty = false
	}
	return nil
}
