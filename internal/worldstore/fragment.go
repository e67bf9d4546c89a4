package worldstore

import "github.com/annel0/mmo-game/internal/vec"

// Hooks is the set of secondary-system notifications a Fragment carries
// alongside the store itself (spec §4.1). The engine implements Hooks by
// wiring the vision, messages, physics-cache, and terrain-gen components;
// worldstore only depends on this interface, never on those packages
// directly, which keeps the store free of import cycles.
type Hooks interface {
	EntityAppeared(EntityID)
	EntityGone(EntityID)
	EntityMoved(EntityID)
	StructureAppeared(StructureID)
	StructureGone(StructureID)
	StructureMoved(StructureID)
	ChunkAppeared(TerrainChunkID)
	ChunkGone(TerrainChunkID)
	InventoryUpdated(InventoryID)
}

// NopHooks is a Hooks implementation that does nothing, useful for tests
// and for bundle import (which installs objects without notifying live
// subscribers — notification happens once the import completes).
type NopHooks struct{}

func (NopHooks) EntityAppeared(EntityID)       {}
func (NopHooks) EntityGone(EntityID)           {}
func (NopHooks) EntityMoved(EntityID)          {}
func (NopHooks) StructureAppeared(StructureID) {}
func (NopHooks) StructureGone(StructureID)     {}
func (NopHooks) StructureMoved(StructureID)    {}
func (NopHooks) ChunkAppeared(TerrainChunkID)  {}
func (NopHooks) ChunkGone(TerrainChunkID)      {}
func (NopHooks) InventoryUpdated(InventoryID)  {}

// Fragment is the ephemeral handle bundling the store and the hooks a
// given mutation sequence needs (spec §4.1, §9 "Fragment scoping"). It
// must not outlive the call that constructed it and must not be shared
// with a second concurrently-held Fragment — the single-threaded engine
// loop (spec §5) is what actually guarantees this in practice, since
// there is never more than one Fragment alive at a time.
type Fragment struct {
	World *Store
	Hooks Hooks
}

// NewFragment constructs a Fragment over store using hooks for
// notification.
func NewFragment(store *Store, hooks Hooks) Fragment {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return Fragment{World: store, Hooks: hooks}
}

// CreateEntity creates an entity and notifies subscribers it appeared.
func (f Fragment) CreateEntity(plane PlaneID, pos vec.Vec3) (EntityID, error) {
	id, err := f.World.CreateEntity(plane, pos)
	if err != nil {
		return 0, err
	}
	f.Hooks.EntityAppeared(id)
	return id, nil
}

// DestroyEntity destroys an entity and notifies subscribers it's gone.
func (f Fragment) DestroyEntity(id EntityID) error {
	if err := f.World.DestroyEntity(id); err != nil {
		return err
	}
	f.Hooks.EntityGone(id)
	return nil
}

// SetMotion updates an entity's motion and notifies it moved.
func (f Fragment) SetMotion(id EntityID, m Motion) error {
	if err := f.World.SetMotion(id, m); err != nil {
		return err
	}
	f.Hooks.EntityMoved(id)
	return nil
}

// CreateStructure places a structure and notifies it appeared.
func (f Fragment) CreateStructure(plane PlaneID, chunk TerrainChunkID, pos vec.Vec3, templateID uint32) (StructureID, error) {
	id, err := f.World.CreateStructure(plane, chunk, pos, templateID)
	if err != nil {
		return 0, err
	}
	f.Hooks.StructureAppeared(id)
	return id, nil
}

// DestroyStructure removes a structure and notifies it's gone.
func (f Fragment) DestroyStructure(id StructureID) error {
	if err := f.World.DestroyStructure(id); err != nil {
		return err
	}
	f.Hooks.StructureGone(id)
	return nil
}

// MoveStructure relocates a structure (collision-checked against the
// supplied occupancy oracle) and notifies subscribers.
func (f Fragment) MoveStructure(id StructureID, newPos vec.Vec3, occupied func(vec.Vec3) bool) error {
	if err := f.World.MoveStructure(id, newPos, occupied); err != nil {
		return err
	}
	f.Hooks.StructureMoved(id)
	return nil
}

// DestroyChunk unloads a chunk, recursively destroying its structures and
// emitting one StructureGone per destroyed structure plus a ChunkGone
// (testable property 10).
func (f Fragment) DestroyChunk(id TerrainChunkID) error {
	destroyed, err := f.World.DestroyChunk(id)
	if err != nil {
		return err
	}
	for _, sid := range destroyed {
		f.Hooks.StructureGone(sid)
	}
	f.Hooks.ChunkGone(id)
	return nil
}

// InstallChunk finalizes a chunk that just transitioned from placeholder
// to real terrain (or was freshly loaded from disk) and notifies
// subscribers it appeared.
func (f Fragment) InstallChunk(id TerrainChunkID) {
	f.Hooks.ChunkAppeared(id)
}

// UpdateInventorySlot writes a slot and notifies subscribers.
func (f Fragment) UpdateInventorySlot(id InventoryID, slot int, stack ItemStack) error {
	if err := f.World.UpdateInventorySlot(id, slot, stack); err != nil {
		return err
	}
	f.Hooks.InventoryUpdated(id)
	return nil
}
