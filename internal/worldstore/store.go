package worldstore

import (
	"sync"

	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// Store owns the six typed slab collections plus the secondary indexes
// that keep cross-references consistent (spec §4.1).
type Store struct {
	mu sync.RWMutex

	clients   *idmap.Slab[Client]
	entities  *idmap.Slab[Entity]
	inventories *idmap.Slab[Inventory]
	planes    *idmap.Slab[Plane]
	chunks    *idmap.Slab[TerrainChunk]
	structures *idmap.Slab[Structure]

	clientStable    *idmap.StableMap
	entityStable    *idmap.StableMap
	inventoryStable *idmap.StableMap
	planeStable     *idmap.StableMap
	chunkStable     *idmap.StableMap
	structureStable *idmap.StableMap

	// structuresByChunk indexes structures by (plane, chunk position).
	structuresByChunk map[planeChunkKey]map[StructureID]struct{}
	// entitiesByPlane indexes loaded entities by their loaded plane.
	entitiesByPlane map[PlaneID]map[EntityID]struct{}
	// limboEntities indexes entities whose plane is not loaded, keyed by
	// the entity's stable plane ID (invariant 2).
	limboEntities map[idmap.StableID]map[EntityID]struct{}
}

type planeChunkKey struct {
	plane PlaneID
	pos   vec.Vec2
}

// NewStore creates an empty world store.
func NewStore() *Store {
	return &Store{
		clients:     idmap.NewSlab[Client](),
		entities:    idmap.NewSlab[Entity](),
		inventories: idmap.NewSlab[Inventory](),
		planes:      idmap.NewSlab[Plane](),
		chunks:      idmap.NewSlab[TerrainChunk](),
		structures:  idmap.NewSlab[Structure](),

		clientStable:    idmap.NewStableMap(),
		entityStable:    idmap.NewStableMap(),
		inventoryStable: idmap.NewStableMap(),
		planeStable:     idmap.NewStableMap(),
		chunkStable:     idmap.NewStableMap(),
		structureStable: idmap.NewStableMap(),

		structuresByChunk: make(map[planeChunkKey]map[StructureID]struct{}),
		entitiesByPlane:   make(map[PlaneID]map[EntityID]struct{}),
		limboEntities:     make(map[idmap.StableID]map[EntityID]struct{}),
	}
}

// --- Planes -----------------------------------------------------------

// CreatePlane registers a new loaded plane and returns its transient ID.
func (s *Store) CreatePlane(name string) PlaneID {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Plane{
		Name:         name,
		LoadedChunks: make(map[vec.Vec2]TerrainChunkID),
		SavedChunks:  make(map[vec.Vec2]idmap.StableID),
		Extra:        extra.NewTree(),
	}
	id := PlaneID(s.planes.Insert(p))
	p.Transient = id
	return id
}

// Plane returns the plane for id, or nil if not loaded.
func (s *Store) Plane(id PlaneID) *Plane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planes.Get(idmap.TransientID(id))
}

// PlaneStable assigns-or-returns the stable ID for a loaded plane.
func (s *Store) PlaneStable(id PlaneID) idmap.StableID {
	return s.planeStable.Pin(idmap.TransientID(id))
}

// AdoptPlaneStable binds a specific stable ID to a freshly created plane
// (bundle import, spec §4.2 "stable IDs are carried unchanged"). Returns
// false if the stable ID already names a different plane.
func (s *Store) AdoptPlaneStable(id PlaneID, stable idmap.StableID) bool {
	return s.planeStable.Adopt(stable, idmap.TransientID(id))
}

// PlaneByStable looks up a loaded plane's transient ID from its stable ID.
func (s *Store) PlaneByStable(stable idmap.StableID) (PlaneID, bool) {
	t, ok := s.planeStable.Transient(stable)
	return PlaneID(t), ok
}

// DestroyPlane unloads a plane. Callers (chunk lifecycle) must ensure no
// chunks remain loaded on it first.
func (s *Store) DestroyPlane(id PlaneID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.planes.Get(idmap.TransientID(id))
	if p == nil {
		return Err(NoSuchID, "plane")
	}
	if len(p.LoadedChunks) != 0 {
		return Err(InvalidAttachment, "plane still has loaded chunks")
	}
	s.planes.Remove(idmap.TransientID(id))
	s.planeStable.Forget(idmap.TransientID(id))
	return nil
}

// --- Terrain chunks -----------------------------------------------------

// CreateChunk installs a new chunk on a plane at pos. Fails if a chunk is
// already loaded at that position.
func (s *Store) CreateChunk(plane PlaneID, pos vec.Vec2, pending bool) (TerrainChunkID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.planes.Get(idmap.TransientID(plane))
	if p == nil {
		return 0, Err(NoSuchID, "plane")
	}
	if _, exists := p.LoadedChunks[pos]; exists {
		return 0, Err(DuplicateStableID, "chunk already loaded at position")
	}

	flags := uint32(0)
	if pending {
		flags |= ChunkFlagGenerationPending
	}

	c := &TerrainChunk{
		PlaneStable:    s.planeStable.Pin(idmap.TransientID(plane)),
		PlaneTransient: plane,
		Pos:            pos,
		Flags:          flags,
		Structures:     make(map[StructureID]struct{}),
		Extra:          extra.NewTree(),
	}
	id := TerrainChunkID(s.chunks.Insert(c))
	c.Transient = id

	p.LoadedChunks[pos] = id
	return id, nil
}

// Chunk returns the chunk for id, or nil.
func (s *Store) Chunk(id TerrainChunkID) *TerrainChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks.Get(idmap.TransientID(id))
}

// ChunkStable assigns-or-returns the stable ID for a loaded chunk.
func (s *Store) ChunkStable(id TerrainChunkID) idmap.StableID {
	return s.chunkStable.Pin(idmap.TransientID(id))
}

// AdoptChunkStable binds a specific stable ID to a freshly created chunk.
func (s *Store) AdoptChunkStable(id TerrainChunkID, stable idmap.StableID) bool {
	return s.chunkStable.Adopt(stable, idmap.TransientID(id))
}

// ChunkByStable looks up a loaded chunk's transient ID from its stable ID.
func (s *Store) ChunkByStable(stable idmap.StableID) (TerrainChunkID, bool) {
	t, ok := s.chunkStable.Transient(stable)
	return TerrainChunkID(t), ok
}

// ReplaceChunk atomically swaps the chunk installed at (plane,pos) — used
// when a GENERATION_PENDING placeholder is replaced by generated terrain
// (spec §4.4). The old chunk must have no structures; callers destroy
// structures before replacing.
func (s *Store) ReplaceChunk(plane PlaneID, pos vec.Vec2, newChunk *TerrainChunk) (old TerrainChunkID, fresh TerrainChunkID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.planes.Get(idmap.TransientID(plane))
	if p == nil {
		return 0, 0, Err(NoSuchID, "plane")
	}
	oldID, exists := p.LoadedChunks[pos]
	if !exists {
		return 0, 0, Err(NoSuchID, "no placeholder chunk at position")
	}
	oldChunk := s.chunks.Get(idmap.TransientID(oldID))
	if oldChunk != nil && len(oldChunk.Structures) != 0 {
		return 0, 0, Err(InvalidAttachment, "placeholder unexpectedly has structures")
	}

	s.chunks.Remove(idmap.TransientID(oldID))
	s.chunkStable.Forget(idmap.TransientID(oldID))

	newChunk.PlaneTransient = plane
	newChunk.PlaneStable = s.planeStable.Pin(idmap.TransientID(plane))
	newChunk.Pos = pos
	if newChunk.Structures == nil {
		newChunk.Structures = make(map[StructureID]struct{})
	}
	if newChunk.Extra == nil {
		newChunk.Extra = extra.NewTree()
	}
	newID := TerrainChunkID(s.chunks.Insert(newChunk))
	newChunk.Transient = newID
	p.LoadedChunks[pos] = newID

	return oldID, newID, nil
}

// DestroyChunk unloads a chunk and recursively destroys its structures
// (spec §3.6, testable property 10). It returns the structures that were
// destroyed so the caller can emit one StructureGone per structure.
func (s *Store) DestroyChunk(id TerrainChunkID) ([]StructureID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chunks.Get(idmap.TransientID(id))
	if c == nil {
		return nil, Err(NoSuchID, "chunk")
	}

	destroyed := make([]StructureID, 0, len(c.Structures))
	for sid := range c.Structures {
		st := s.structures.Get(idmap.TransientID(sid))
		if st != nil {
			s.destroyStructureLocked(sid)
		}
		destroyed = append(destroyed, sid)
	}

	p := s.planes.Get(idmap.TransientID(c.PlaneTransient))
	if p != nil {
		delete(p.LoadedChunks, c.Pos)
	}

	s.chunks.Remove(idmap.TransientID(id))
	s.chunkStable.Forget(idmap.TransientID(id))
	delete(s.structuresByChunk, planeChunkKey{c.PlaneTransient, c.Pos})

	return destroyed, nil
}

// --- Structures ---------------------------------------------------------

// CreateStructure places a new structure attached to a chunk.
func (s *Store) CreateStructure(plane PlaneID, chunk TerrainChunkID, pos vec.Vec3, templateID uint32) (StructureID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chunks.Get(idmap.TransientID(chunk))
	if c == nil {
		return 0, Err(NoSuchID, "chunk")
	}

	st := &Structure{
		Plane:       plane,
		Pos:         pos,
		TemplateID:  templateID,
		Attachment:  AttachToChunk(chunk),
		Inventories: make(map[InventoryID]struct{}),
		Extra:       extra.NewTree(),
	}
	id := StructureID(s.structures.Insert(st))
	st.Transient = id

	c.Structures[id] = struct{}{}

	key := planeChunkKey{plane, c.Pos}
	if s.structuresByChunk[key] == nil {
		s.structuresByChunk[key] = make(map[StructureID]struct{})
	}
	s.structuresByChunk[key][id] = struct{}{}

	return id, nil
}

// Structure returns the structure for id, or nil.
func (s *Store) Structure(id StructureID) *Structure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structures.Get(idmap.TransientID(id))
}

// StructureStable assigns-or-returns the stable ID for a loaded structure.
func (s *Store) StructureStable(id StructureID) idmap.StableID {
	return s.structureStable.Pin(idmap.TransientID(id))
}

// AdoptStructureStable binds a specific stable ID to a freshly created
// structure.
func (s *Store) AdoptStructureStable(id StructureID, stable idmap.StableID) bool {
	return s.structureStable.Adopt(stable, idmap.TransientID(id))
}

// StructureByStable looks up a loaded structure's transient ID from its
// stable ID.
func (s *Store) StructureByStable(stable idmap.StableID) (StructureID, bool) {
	t, ok := s.structureStable.Transient(stable)
	return StructureID(t), ok
}

// StructuresAt returns the structure IDs indexed at (plane, chunk pos).
func (s *Store) StructuresAt(plane PlaneID, pos vec.Vec2) []StructureID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.structuresByChunk[planeChunkKey{plane, pos}]
	out := make([]StructureID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// DestroyStructure removes a structure explicitly (not via chunk
// destruction).
func (s *Store) DestroyStructure(id StructureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.structures.Get(idmap.TransientID(id)) == nil {
		return Err(NoSuchID, "structure")
	}
	s.destroyStructureLocked(id)
	return nil
}

func (s *Store) destroyStructureLocked(id StructureID) {
	st := s.structures.Get(idmap.TransientID(id))
	if st == nil {
		return
	}

	for invID := range st.Inventories {
		s.inventories.Remove(idmap.TransientID(invID))
		s.inventoryStable.Forget(idmap.TransientID(invID))
	}

	if st.Attachment.Kind == AttachChunk {
		if c := s.chunks.Get(idmap.TransientID(st.Attachment.Chunk)); c != nil {
			delete(c.Structures, id)
		}
	}

	key := planeChunkKey{st.Plane, chunkPosOf(s, st)}
	if set := s.structuresByChunk[key]; set != nil {
		delete(set, id)
	}

	s.structures.Remove(idmap.TransientID(id))
	s.structureStable.Forget(idmap.TransientID(id))
}

func chunkPosOf(s *Store, st *Structure) vec.Vec2 {
	if st.Attachment.Kind == AttachChunk {
		if c := s.chunks.Get(idmap.TransientID(st.Attachment.Chunk)); c != nil {
			return c.Pos
		}
	}
	return vec.Vec2{}
}

// --- Entities -------------------------------------------------------------

// CreateEntity creates a new entity on a loaded plane.
func (s *Store) CreateEntity(plane PlaneID, pos vec.Vec3) (EntityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.planes.Get(idmap.TransientID(plane))
	if p == nil {
		return 0, Err(NoSuchID, "plane")
	}

	e := &Entity{
		StablePlane: s.planeStable.Pin(idmap.TransientID(plane)),
		Plane:       plane,
		Motion:      Motion{StartPos: pos},
		Attachment:  AttachToWorld(),
		Inventories: make(map[InventoryID]struct{}),
		Extra:       extra.NewTree(),
	}
	id := EntityID(s.entities.Insert(e))
	e.Transient = id

	if s.entitiesByPlane[plane] == nil {
		s.entitiesByPlane[plane] = make(map[EntityID]struct{})
	}
	s.entitiesByPlane[plane][id] = struct{}{}

	return id, nil
}

// CreateLimboEntity creates an entity whose owning plane is not
// currently loaded (e.g. a bundle import whose plane stable ID has no
// loaded plane yet). The entity starts directly in limbo rather than
// transitioning there via EnterLimbo, since there is no loaded-plane
// membership to remove it from.
func (s *Store) CreateLimboEntity(stablePlane idmap.StableID, pos vec.Vec3) (EntityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &Entity{
		StablePlane: stablePlane,
		Plane:       PlaneLimbo,
		Motion:      Motion{StartPos: pos},
		Attachment:  AttachToWorld(),
		Inventories: make(map[InventoryID]struct{}),
		Extra:       extra.NewTree(),
	}
	id := EntityID(s.entities.Insert(e))
	e.Transient = id

	if s.limboEntities[stablePlane] == nil {
		s.limboEntities[stablePlane] = make(map[EntityID]struct{})
	}
	s.limboEntities[stablePlane][id] = struct{}{}

	return id, nil
}

// Entity returns the entity for id, or nil.
func (s *Store) Entity(id EntityID) *Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Get(idmap.TransientID(id))
}

// EntityStable assigns-or-returns the stable ID for a loaded entity.
func (s *Store) EntityStable(id EntityID) idmap.StableID {
	return s.entityStable.Pin(idmap.TransientID(id))
}

// AdoptEntityStable binds a specific stable ID to a freshly created
// entity.
func (s *Store) AdoptEntityStable(id EntityID, stable idmap.StableID) bool {
	return s.entityStable.Adopt(stable, idmap.TransientID(id))
}

// EntityByStable looks up a loaded entity's transient ID from its stable
// ID.
func (s *Store) EntityByStable(stable idmap.StableID) (EntityID, bool) {
	t, ok := s.entityStable.Transient(stable)
	return EntityID(t), ok
}

// EntitiesOnPlane returns all entity IDs currently loaded on plane.
func (s *Store) EntitiesOnPlane(plane PlaneID) []EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.entitiesByPlane[plane]
	out := make([]EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// LimboEntities returns the entity IDs parked in limbo for a stable plane.
func (s *Store) LimboEntities(stablePlane idmap.StableID) []EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.limboEntities[stablePlane]
	out := make([]EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// EnterLimbo moves an entity whose plane has just unloaded into limbo
// (invariant 2).
func (s *Store) EnterLimbo(id EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return Err(NoSuchID, "entity")
	}

	if set := s.entitiesByPlane[e.Plane]; set != nil {
		delete(set, id)
	}
	e.Plane = PlaneLimbo

	if s.limboEntities[e.StablePlane] == nil {
		s.limboEntities[e.StablePlane] = make(map[EntityID]struct{})
	}
	s.limboEntities[e.StablePlane][id] = struct{}{}
	return nil
}

// PromoteFromLimbo moves an entity out of limbo onto its now-loaded plane
// (invariant 2, called on plane load).
func (s *Store) PromoteFromLimbo(id EntityID, plane PlaneID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return Err(NoSuchID, "entity")
	}

	if set := s.limboEntities[e.StablePlane]; set != nil {
		delete(set, id)
	}
	e.Plane = plane

	if s.entitiesByPlane[plane] == nil {
		s.entitiesByPlane[plane] = make(map[EntityID]struct{})
	}
	s.entitiesByPlane[plane][id] = struct{}{}
	return nil
}

// DestroyEntity removes an entity and its child inventories.
func (s *Store) DestroyEntity(id EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return Err(NoSuchID, "entity")
	}

	for invID := range e.Inventories {
		s.inventories.Remove(idmap.TransientID(invID))
		s.inventoryStable.Forget(idmap.TransientID(invID))
	}

	if e.Plane == PlaneLimbo {
		if set := s.limboEntities[e.StablePlane]; set != nil {
			delete(set, id)
		}
	} else if set := s.entitiesByPlane[e.Plane]; set != nil {
		delete(set, id)
	}

	s.entities.Remove(idmap.TransientID(id))
	s.entityStable.Forget(idmap.TransientID(id))
	return nil
}

// SetMotion updates an entity's motion path.
func (s *Store) SetMotion(id EntityID, m Motion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return Err(NoSuchID, "entity")
	}
	e.Motion = m
	return nil
}

// SetActivity updates an entity's activity, refusing to clobber a
// non-interruptible activity unless interrupt is true (spec §3.3).
func (s *Store) SetActivity(id EntityID, a Activity, interrupt bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return Err(NoSuchID, "entity")
	}
	if !e.Activity.Interruptible() && !interrupt {
		return Err(InvalidAttachment, "activity not interruptible")
	}
	e.Activity = a
	return nil
}

// --- Inventories ----------------------------------------------------------

// CreateInventory creates a new inventory with the given slot count,
// attached to parent.
func (s *Store) CreateInventory(slots int, parent Attachment) (InventoryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateParentLocked(parent); err != nil {
		return 0, err
	}

	inv := &Inventory{
		Slots:      make([]ItemStack, slots),
		Attachment: parent,
		Extra:      extra.NewTree(),
	}
	id := InventoryID(s.inventories.Insert(inv))
	inv.Transient = id

	s.registerChildLocked(parent, InventoryChild{ID: id})
	return id, nil
}

// Inventory returns the inventory for id, or nil.
func (s *Store) Inventory(id InventoryID) *Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventories.Get(idmap.TransientID(id))
}

// InventoryStable assigns-or-returns the stable ID for a loaded inventory.
func (s *Store) InventoryStable(id InventoryID) idmap.StableID {
	return s.inventoryStable.Pin(idmap.TransientID(id))
}

// AdoptInventoryStable binds a specific stable ID to a freshly created
// inventory.
func (s *Store) AdoptInventoryStable(id InventoryID, stable idmap.StableID) bool {
	return s.inventoryStable.Adopt(stable, idmap.TransientID(id))
}

// InventoryByStable looks up a loaded inventory's transient ID from its
// stable ID.
func (s *Store) InventoryByStable(stable idmap.StableID) (InventoryID, bool) {
	t, ok := s.inventoryStable.Transient(stable)
	return InventoryID(t), ok
}

// UpdateInventorySlot resolves the §9 Open Question: updating a
// non-existent inventory is an error (ErrNoSuchID), not a silent no-op.
func (s *Store) UpdateInventorySlot(id InventoryID, slot int, stack ItemStack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.inventories.Get(idmap.TransientID(id))
	if inv == nil {
		return Err(NoSuchID, "inventory")
	}
	if slot < 0 || slot >= len(inv.Slots) {
		return Err(NoSuchID, "slot out of range")
	}
	inv.Slots[slot] = stack
	return nil
}

// --- Clients ----------------------------------------------------------------

// CreateClient creates a new connected-client object.
func (s *Store) CreateClient(name string) ClientID {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Client{
		Name:        name,
		Entities:    make(map[EntityID]struct{}),
		Inventories: make(map[InventoryID]struct{}),
		Extra:       extra.NewTree(),
	}
	id := ClientID(s.clients.Insert(c))
	c.Transient = id
	return id
}

// Client returns the client for id, or nil.
func (s *Store) Client(id ClientID) *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.Get(idmap.TransientID(id))
}

// ClientStable assigns-or-returns the stable ID for a connected client.
func (s *Store) ClientStable(id ClientID) idmap.StableID {
	return s.clientStable.Pin(idmap.TransientID(id))
}

// AdoptClientStable binds a specific stable ID to a freshly created
// client.
func (s *Store) AdoptClientStable(id ClientID, stable idmap.StableID) bool {
	return s.clientStable.Adopt(stable, idmap.TransientID(id))
}

// ClientByStable looks up a connected client's transient ID from its
// stable ID.
func (s *Store) ClientByStable(stable idmap.StableID) (ClientID, bool) {
	t, ok := s.clientStable.Transient(stable)
	return ClientID(t), ok
}

// SetPawn assigns pawn as the client's controlled entity (invariant 4: the
// pawn must be an extant entity and a child of this client).
func (s *Store) SetPawn(client ClientID, pawn EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.clients.Get(idmap.TransientID(client))
	if c == nil {
		return Err(NoSuchID, "client")
	}
	if _, ok := c.Entities[pawn]; !ok {
		return Err(InvalidAttachment, "pawn must already be a child entity")
	}
	if s.entities.Get(idmap.TransientID(pawn)) == nil {
		return Err(NoSuchID, "pawn entity")
	}
	p := pawn
	c.Pawn = &p
	return nil
}

// DestroyClient removes a client, its child entities, and its child
// inventories (spec §3.6: saving is the caller's responsibility, done
// before this call via the bundle exporter).
func (s *Store) DestroyClient(id ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.clients.Get(idmap.TransientID(id))
	if c == nil {
		return Err(NoSuchID, "client")
	}

	for eid := range c.Entities {
		s.destroyEntityLocked(eid)
	}
	for invID := range c.Inventories {
		s.inventories.Remove(idmap.TransientID(invID))
		s.inventoryStable.Forget(idmap.TransientID(invID))
	}

	s.clients.Remove(idmap.TransientID(id))
	s.clientStable.Forget(idmap.TransientID(id))
	return nil
}

func (s *Store) destroyEntityLocked(id EntityID) {
	e := s.entities.Get(idmap.TransientID(id))
	if e == nil {
		return
	}
	for invID := range e.Inventories {
		s.inventories.Remove(idmap.TransientID(invID))
		s.inventoryStable.Forget(idmap.TransientID(invID))
	}
	if e.Plane == PlaneLimbo {
		if set := s.limboEntities[e.StablePlane]; set != nil {
			delete(set, id)
		}
	} else if set := s.entitiesByPlane[e.Plane]; set != nil {
		delete(set, id)
	}
	s.entities.Remove(idmap.TransientID(id))
	s.entityStable.Forget(idmap.TransientID(id))
}

// --- Attachment bookkeeping -------------------------------------------------

// InventoryChild identifies an inventory being registered against a
// parent's child set (used by registerChildLocked; entities/structures
// use similarly-shaped helpers below).
type InventoryChild struct{ ID InventoryID }

func (s *Store) validateParentLocked(a Attachment) error {
	switch a.Kind {
	case AttachWorld:
		return nil
	case AttachClient:
		if s.clients.Get(idmap.TransientID(a.Client)) == nil {
			return Err(NoSuchID, "parent client")
		}
	case AttachEntity:
		if s.entities.Get(idmap.TransientID(a.Entity)) == nil {
			return Err(NoSuchID, "parent entity")
		}
	case AttachStructure:
		if s.structures.Get(idmap.TransientID(a.Structure)) == nil {
			return Err(NoSuchID, "parent structure")
		}
	case AttachChunk:
		if s.chunks.Get(idmap.TransientID(a.Chunk)) == nil {
			return Err(NoSuchID, "parent chunk")
		}
	case AttachPlane:
		if s.planes.Get(idmap.TransientID(a.Plane)) == nil {
			return Err(NoSuchID, "parent plane")
		}
	default:
		return Err(InvalidAttachment, "unknown attachment kind")
	}
	return nil
}

func (s *Store) registerChildLocked(parent Attachment, child InventoryChild) {
	switch parent.Kind {
	case AttachClient:
		if c := s.clients.Get(idmap.TransientID(parent.Client)); c != nil {
			c.Inventories[child.ID] = struct{}{}
		}
	case AttachEntity:
		if e := s.entities.Get(idmap.TransientID(parent.Entity)); e != nil {
			e.Inventories[child.ID] = struct{}{}
		}
	case AttachStructure:
		if st := s.structures.Get(idmap.TransientID(parent.Structure)); st != nil {
			st.Inventories[child.ID] = struct{}{}
		}
	}
}

// AttachEntityToClient rebinds an entity from its current parent to be a
// client's pawn-eligible child (the general-purpose `attach` operation of
// spec §4.1, specialized for the common entity/client case).
func (s *Store) AttachEntityToClient(entity EntityID, client ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entities.Get(idmap.TransientID(entity))
	if e == nil {
		return Err(NoSuchID, "entity")
	}
	c := s.clients.Get(idmap.TransientID(client))
	if c == nil {
		return Err(NoSuchID, "client")
	}

	s.detachChildLocked(e.Attachment, entity)
	e.Attachment = AttachToClient(client)
	c.Entities[entity] = struct{}{}
	return nil
}

func (s *Store) detachChildLocked(parent Attachment, entity EntityID) {
	switch parent.Kind {
	case AttachClient:
		if c := s.clients.Get(idmap.TransientID(parent.Client)); c != nil {
			delete(c.Entities, entity)
			if c.Pawn != nil && *c.Pawn == entity {
				c.Pawn = nil
			}
		}
	}
}

// MoveStructure relocates a structure, checking collision via the
// caller-supplied oracle (physics shape source) before committing. This
// is the mutation operator referenced in spec §4.1 ("move a structure").
func (s *Store) MoveStructure(id StructureID, newPos vec.Vec3, occupied func(vec.Vec3) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.structures.Get(idmap.TransientID(id))
	if st == nil {
		return Err(NoSuchID, "structure")
	}
	if occupied != nil && occupied(newPos) {
		return Err(CollisionWithStructure, "destination occupied")
	}
	st.Pos = newPos
	return nil
}

// SetBlock writes a single block into a loaded chunk.
func (s *Store) SetBlock(id TerrainChunkID, local vec.Vec3, block BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.chunks.Get(idmap.TransientID(id))
	if c == nil {
		return Err(NoSuchID, "chunk")
	}
	if local.X < 0 || local.X >= ChunkSize || local.Y < 0 || local.Y >= ChunkSize || local.Z < 0 || local.Z >= ChunkSize {
		return Err(NoSuchID, "block position out of chunk bounds")
	}
	c.Blocks[local.X][local.Y][local.Z] = block
	return nil
}

// chunksSnapshot returns the loaded chunks for the consistency checker
// and save routines.
func (s *Store) chunksSnapshot() []*TerrainChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*TerrainChunk
	s.chunks.Each(func(_ idmap.TransientID, c *TerrainChunk) { out = append(out, c) })
	return out
}

func (s *Store) planesSnapshot() []*Plane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Plane
	s.planes.Each(func(_ idmap.TransientID, p *Plane) { out = append(out, p) })
	return out
}

func (s *Store) entitiesSnapshot() []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entity
	s.entities.Each(func(_ idmap.TransientID, e *Entity) { out = append(out, e) })
	return out
}

func (s *Store) clientsSnapshot() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Client
	s.clients.Each(func(_ idmap.TransientID, c *Client) { out = append(out, c) })
	return out
}
