// Package chunklifecycle implements the reference-counted demand
// loading/unloading of planes and terrain chunks that sits between the
// world store and disk (spec §4.3). It is grounded on the teacher's
// internal/world/region_manager.go — a map-plus-mutex registry guarded
// by its own lock, generalized here from entity regions to chunk
// refcounts.
package chunklifecycle

import (
	"fmt"
	"sync"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Loader persists and restores bundle-encoded objects, keyed the way
// spec §6.4 lays out the storage root (terrain_chunks/<stable>.terrain_chunk,
// planes/<stable>.plane, clients/<user_id>.client).
type Loader interface {
	LoadChunk(stable idmap.StableID) ([]byte, bool, error)
	SaveChunk(stable idmap.StableID, data []byte) error
	DeleteChunk(stable idmap.StableID) error

	LoadPlane(stable idmap.StableID) ([]byte, bool, error)
	SavePlane(stable idmap.StableID, data []byte) error
}

// Generator dispatches an asynchronous terrain generation request (spec
// §4.4). It never blocks; the eventual response reaches the lifecycle
// layer through OnGenerationResult, called by whatever drains the
// terrain-gen subprocess's response channel (the engine's select loop).
type Generator interface {
	RequestChunkGeneration(stablePlane idmap.StableID, pos vec.Vec2)
}

type chunkKey struct {
	plane idmap.StableID
	pos   vec.Vec2
}

// Manager is the chunk/plane lifecycle layer. One Manager exists per
// running server.
type Manager struct {
	mu sync.Mutex

	store    *worldstore.Store
	loader   Loader
	gen      Generator
	resolver bundle.Resolver

	chunkRefs map[chunkKey]int
	planeRefs map[idmap.StableID]int
	planeName map[idmap.StableID]string
}

// NewManager wires a lifecycle layer over an already-created world
// store. resolver may be nil until internal/gamedata finishes loading,
// in which case imported item/template/anim IDs default to zero.
func NewManager(store *worldstore.Store, loader Loader, gen Generator, resolver bundle.Resolver) *Manager {
	return &Manager{
		store:     store,
		loader:    loader,
		gen:       gen,
		resolver:  resolver,
		chunkRefs: make(map[chunkKey]int),
		planeRefs: make(map[idmap.StableID]int),
		planeName: make(map[idmap.StableID]string),
	}
}

// LoadPlane increments the plane's refcount, loading it from disk (or
// creating it fresh, for a never-before-seen name) on the 0→1
// transition.
func (m *Manager) LoadPlane(stable idmap.StableID, name string) (worldstore.PlaneID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.store.PlaneByStable(stable); ok {
		m.planeRefs[stable]++
		return id, nil
	}

	var id worldstore.PlaneID
	data, found, err := m.loader.LoadPlane(stable)
	if err != nil {
		return 0, fmt.Errorf("chunklifecycle: load plane %d: %w", stable, err)
	}
	if found {
		b, err := bundle.Deserialize(data)
		if err != nil {
			return 0, fmt.Errorf("chunklifecycle: decode plane %d: %w", stable, err)
		}
		res, err := bundle.Import(m.store, b, m.resolver)
		if err != nil {
			return 0, fmt.Errorf("chunklifecycle: import plane %d: %w", stable, err)
		}
		id = res.RootPlane
	} else {
		id = m.store.CreatePlane(name)
		if !m.store.AdoptPlaneStable(id, stable) {
			return 0, worldstore.Err(worldstore.DuplicateStableID, "plane")
		}
	}

	m.planeRefs[stable] = 1
	m.planeName[stable] = name
	return id, nil
}

// UnloadPlane decrements the plane's refcount. On 1→0 it writes the
// plane's metadata to disk and unloads it from the store (which
// requires every chunk on it to already be unloaded).
func (m *Manager) UnloadPlane(stable idmap.StableID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.planeRefs[stable]
	if !ok || n <= 0 {
		return fmt.Errorf("chunklifecycle: plane %d is not loaded", stable)
	}
	n--
	if n > 0 {
		m.planeRefs[stable] = n
		return nil
	}

	id, ok := m.store.PlaneByStable(stable)
	if !ok {
		delete(m.planeRefs, stable)
		return nil
	}

	b := bundle.ExportPlane(m.store, id)
	data, err := bundle.Serialize(b)
	if err != nil {
		return fmt.Errorf("chunklifecycle: serialize plane %d: %w", stable, err)
	}
	if err := m.loader.SavePlane(stable, data); err != nil {
		return fmt.Errorf("chunklifecycle: save plane %d: %w", stable, err)
	}
	if err := m.store.DestroyPlane(id); err != nil {
		return fmt.Errorf("chunklifecycle: destroy plane %d: %w", stable, err)
	}

	delete(m.planeRefs, stable)
	delete(m.planeName, stable)
	return nil
}

// LoadChunk increments the chunk's refcount at (plane, pos). On 0→1 it
// either imports a saved bundle (if plane.SavedChunks names one) or
// installs a GENERATION_PENDING placeholder and kicks off async
// generation (spec §4.3).
func (m *Manager) LoadChunk(plane worldstore.PlaneID, pos vec.Vec2) (worldstore.TerrainChunkID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.store.Plane(plane)
	if p == nil {
		return 0, worldstore.Err(worldstore.NoSuchID, "plane")
	}
	planeStable := m.store.PlaneStable(plane)
	key := chunkKey{plane: planeStable, pos: pos}

	if id, loaded := p.LoadedChunks[pos]; loaded {
		m.chunkRefs[key]++
		return id, nil
	}

	savedStable, hasSaved := p.SavedChunks[pos]
	if hasSaved {
		data, found, err := m.loader.LoadChunk(savedStable)
		if err != nil {
			return 0, fmt.Errorf("chunklifecycle: load chunk %d: %w", savedStable, err)
		}
		if found {
			b, err := bundle.Deserialize(data)
			if err != nil {
				return 0, fmt.Errorf("chunklifecycle: decode chunk %d: %w", savedStable, err)
			}
			res, err := bundle.ImportIntoPlane(m.store, plane, b, m.resolver)
			if err != nil {
				return 0, fmt.Errorf("chunklifecycle: import chunk %d: %w", savedStable, err)
			}
			m.chunkRefs[key] = 1
			return res.RootChunk, nil
		}
	}

	id, err := m.store.CreateChunk(plane, pos, true)
	if err != nil {
		return 0, err
	}
	m.chunkRefs[key] = 1
	m.gen.RequestChunkGeneration(planeStable, pos)
	return id, nil
}

// UnloadChunk decrements the chunk's refcount at (plane, pos). On 1→0,
// if the chunk isn't still GENERATION_PENDING, it is exported and saved
// before being destroyed in the store; the plane's saved-chunks map is
// updated so a later load finds it.
func (m *Manager) UnloadChunk(plane worldstore.PlaneID, pos vec.Vec2) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.store.Plane(plane)
	if p == nil {
		return worldstore.Err(worldstore.NoSuchID, "plane")
	}
	planeStable := m.store.PlaneStable(plane)
	key := chunkKey{plane: planeStable, pos: pos}

	n, ok := m.chunkRefs[key]
	if !ok || n <= 0 {
		return fmt.Errorf("chunklifecycle: chunk (%d,%v) is not loaded", planeStable, pos)
	}
	n--
	if n > 0 {
		m.chunkRefs[key] = n
		return nil
	}

	id, loaded := p.LoadedChunks[pos]
	if !loaded {
		delete(m.chunkRefs, key)
		return nil
	}
	c := m.store.Chunk(id)

	if c != nil && c.Flags&worldstore.ChunkFlagGenerationPending == 0 {
		b := bundle.ExportChunk(m.store, id)
		data, err := bundle.Serialize(b)
		if err != nil {
			return fmt.Errorf("chunklifecycle: serialize chunk: %w", err)
		}
		stable := m.store.ChunkStable(id)
		if err := m.loader.SaveChunk(stable, data); err != nil {
			return fmt.Errorf("chunklifecycle: save chunk: %w", err)
		}
		p.SavedChunks[pos] = stable
	}

	if _, err := m.store.DestroyChunk(id); err != nil {
		return err
	}

	delete(m.chunkRefs, key)
	return nil
}

// OnGenerationResult handles a GEN_CHUNK response (spec §4.4): it looks
// up the placeholder installed for (stablePlane, pos), swaps it for the
// generated chunk, and wires in any structures the generator placed.
// Responses for chunks no longer loaded (refcount dropped to 0 while
// generation was in flight) are discarded, matching §7's error-handling
// design for terrain-gen.
func (m *Manager) OnGenerationResult(stablePlane idmap.StableID, pos vec.Vec2, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plane, ok := m.store.PlaneByStable(stablePlane)
	if !ok {
		return nil // plane unloaded while generation was in flight
	}
	key := chunkKey{plane: stablePlane, pos: pos}
	if _, stillWanted := m.chunkRefs[key]; !stillWanted {
		return nil // chunk unloaded while generation was in flight
	}

	p := m.store.Plane(plane)
	if p == nil {
		return nil
	}
	if _, stillLoaded := p.LoadedChunks[pos]; !stillLoaded {
		return nil
	}

	b, err := bundle.Deserialize(data)
	if err != nil {
		return fmt.Errorf("chunklifecycle: decode generation response: %w", err)
	}
	_, _, err = bundle.ImportGeneratedChunk(m.store, plane, pos, b, m.resolver)
	return err
}

// ChunkRefCount exposes the current chunk refcount for tests and
// diagnostics.
func (m *Manager) ChunkRefCount(planeStable idmap.StableID, pos vec.Vec2) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunkRefs[chunkKey{plane: planeStable, pos: pos}]
}

// PlaneRefCount exposes the current plane refcount for tests.
func (m *Manager) PlaneRefCount(stable idmap.StableID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.planeRefs[stable]
}
