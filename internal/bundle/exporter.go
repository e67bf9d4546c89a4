package bundle

import (
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Bundle is an in-memory, ready-to-serialize snapshot: a Graph plus the
// string table and raw chunk-block records it references.
type Bundle struct {
	Graph   Graph
	Strings *StringTable
	Blocks  [][]byte // one fixed-size record per chunk, indexed by ChunkNode.BlockRecord
}

// exportState accumulates local IDs and collected nodes while walking
// the attachment graph outward from an export root.
type exportState struct {
	store   *worldstore.Store
	strings *StringTable
	blocks  [][]byte

	localOfPlane      map[worldstore.PlaneID]uint32
	localOfChunk      map[worldstore.TerrainChunkID]uint32
	localOfStructure  map[worldstore.StructureID]uint32
	localOfEntity     map[worldstore.EntityID]uint32
	localOfInventory  map[worldstore.InventoryID]uint32
	localOfClient     map[worldstore.ClientID]uint32

	planes      []PlaneNode
	chunks      []ChunkNode
	structures  []StructureNode
	inventories []InventoryNode
	entities    []EntityNode
	clients     []ClientNode
}

func newExportState(store *worldstore.Store) *exportState {
	return &exportState{
		store:            store,
		strings:          NewStringTable(),
		localOfPlane:     map[worldstore.PlaneID]uint32{},
		localOfChunk:     map[worldstore.TerrainChunkID]uint32{},
		localOfStructure: map[worldstore.StructureID]uint32{},
		localOfEntity:    map[worldstore.EntityID]uint32{},
		localOfInventory: map[worldstore.InventoryID]uint32{},
		localOfClient:    map[worldstore.ClientID]uint32{},
	}
}

func (e *exportState) addInventory(id worldstore.InventoryID) uint32 {
	if l, ok := e.localOfInventory[id]; ok {
		return l
	}
	inv := e.store.Inventory(id)
	local := uint32(len(e.inventories))
	e.localOfInventory[id] = local

	slots := make([]ItemStackNode, len(inv.Slots))
	for i, s := range inv.Slots {
		slots[i] = ItemStackNode{ItemNameIdx: e.strings.Intern(itemName(s.ItemID)), Count: s.Count}
	}

	node := InventoryNode{
		Local:  local,
		Stable: e.store.InventoryStable(id),
		Slots:  slots,
		Extra:  encodeExtra(inv.Extra),
	}
	switch inv.Attachment.Kind {
	case worldstore.AttachEntity:
		l := e.addEntity(inv.Attachment.Entity)
		node.AttachKind = uint8(worldstore.AttachEntity)
		node.AttachEntityLocal = &l
	case worldstore.AttachStructure:
		l := e.addStructure(inv.Attachment.Structure)
		node.AttachKind = uint8(worldstore.AttachStructure)
		node.AttachStructureLocal = &l
	case worldstore.AttachClient:
		l := e.addClient(inv.Attachment.Client)
		node.AttachKind = uint8(worldstore.AttachClient)
		node.AttachClientLocal = &l
	default:
		node.AttachKind = uint8(worldstore.AttachWorld)
	}

	e.inventories = append(e.inventories, node)
	return local
}

func (e *exportState) addStructure(id worldstore.StructureID) uint32 {
	if l, ok := e.localOfStructure[id]; ok {
		return l
	}
	st := e.store.Structure(id)
	local := uint32(len(e.structures))
	e.localOfStructure[id] = local

	node := StructureNode{
		Local:           local,
		Stable:          e.store.StructureStable(id),
		PlaneStable:     e.store.PlaneStable(st.Plane),
		PosX:            st.Pos.X,
		PosY:            st.Pos.Y,
		PosZ:            st.Pos.Z,
		TemplateNameIdx: e.strings.Intern(templateName(st.TemplateID)),
		Flags:           st.Flags,
		AttachKind:      uint8(st.Attachment.Kind),
		Extra:           encodeExtra(st.Extra),
	}
	if st.Attachment.Kind == worldstore.AttachChunk {
		l := e.addChunkRef(st.Attachment.Chunk)
		node.AttachChunkLocal = &l
	}
	for invID := range st.Inventories {
		node.Inventories = append(node.Inventories, e.addInventory(invID))
	}

	e.structures = append(e.structures, node)
	return local
}

// addChunkRef returns the local index of a chunk, adding the whole chunk
// to the export set (via addChunk) when it is not already there.
func (e *exportState) addChunkRef(id worldstore.TerrainChunkID) uint32 {
	if l, ok := e.localOfChunk[id]; ok {
		return l
	}
	return e.addChunk(id)
}

func (e *exportState) addChunk(id worldstore.TerrainChunkID) uint32 {
	if l, ok := e.localOfChunk[id]; ok {
		return l
	}
	c := e.store.Chunk(id)
	local := uint32(len(e.chunks))
	e.localOfChunk[id] = local

	recordIdx := len(e.blocks)
	e.blocks = append(e.blocks, encodeChunkBlocks(blockGridAsSlice(c.Blocks), worldstore.ChunkSize))

	node := ChunkNode{
		Local:       local,
		Stable:      e.store.ChunkStable(id),
		PlaneStable: c.PlaneStable,
		PosX:        c.Pos.X,
		PosY:        c.Pos.Y,
		Flags:       c.Flags,
		BlockRecord: recordIdx,
		Extra:       encodeExtra(c.Extra),
	}
	if l, ok := e.localOfPlane[c.PlaneTransient]; ok {
		node.PlaneLocal = &l
	}

	// Reserve the slot before recursing into structures so a structure
	// that refers back to this chunk sees a valid local ID.
	e.chunks = append(e.chunks, node)
	for sid := range c.Structures {
		e.chunks[local].Structures = append(e.chunks[local].Structures, e.addStructure(sid))
	}

	return local
}

func (e *exportState) addEntity(id worldstore.EntityID) uint32 {
	if l, ok := e.localOfEntity[id]; ok {
		return l
	}
	en := e.store.Entity(id)
	local := uint32(len(e.entities))
	e.localOfEntity[id] = local

	node := EntityNode{
		Local:           local,
		Stable:          e.store.EntityStable(id),
		PlaneStable:     en.StablePlane,
		PosX:            en.Motion.StartPos.X,
		PosY:            en.Motion.StartPos.Y,
		PosZ:            en.Motion.StartPos.Z,
		VelX:            en.Motion.Velocity.X,
		VelY:            en.Motion.Velocity.Y,
		VelZ:            en.Motion.Velocity.Z,
		AnimationIdx:    e.strings.Intern(animName(en.Animation)),
		FacingX:         en.Facing.X,
		FacingY:         en.Facing.Y,
		Appearance:      en.Appearance,
		ActivityKind:    uint8(en.Activity.Kind),
		ActivityAnimIdx: e.strings.Intern(animName(en.Activity.Anim)),
		ActivityIconIdx: e.strings.Intern(animName(en.Activity.Icon)),
		AttachKind:      uint8(en.Attachment.Kind),
		Extra:           encodeExtra(en.Extra),
	}
	e.entities = append(e.entities, node)

	if en.Attachment.Kind == worldstore.AttachClient {
		l := e.addClientRef(en.Attachment.Client)
		e.entities[local].AttachClientLocal = &l
	}
	for invID := range en.Inventories {
		e.entities[local].Inventories = append(e.entities[local].Inventories, e.addInventory(invID))
	}

	return local
}

func (e *exportState) addClientRef(id worldstore.ClientID) uint32 {
	if l, ok := e.localOfClient[id]; ok {
		return l
	}
	return e.addClient(id)
}

func (e *exportState) addClient(id worldstore.ClientID) uint32 {
	if l, ok := e.localOfClient[id]; ok {
		return l
	}
	c := e.store.Client(id)
	local := uint32(len(e.clients))
	e.localOfClient[id] = local

	node := ClientNode{
		Local:  local,
		Stable: e.store.ClientStable(id),
		Name:   c.Name,
		Extra:  encodeExtra(c.Extra),
	}
	e.clients = append(e.clients, node)

	for eid := range c.Entities {
		e.clients[local].Entities = append(e.clients[local].Entities, e.addEntity(eid))
	}
	for invID := range c.Inventories {
		e.clients[local].Inventories = append(e.clients[local].Inventories, e.addInventory(invID))
	}
	if c.Pawn != nil {
		if l, ok := e.localOfEntity[*c.Pawn]; ok {
			e.clients[local].PawnLocal = &l
		}
	}

	return local
}

func (e *exportState) addPlaneMeta(id worldstore.PlaneID) uint32 {
	if l, ok := e.localOfPlane[id]; ok {
		return l
	}
	p := e.store.Plane(id)
	local := uint32(len(e.planes))
	e.localOfPlane[id] = local

	saved := make(map[string]uint64, len(p.SavedChunks))
	for pos, stable := range p.SavedChunks {
		saved[posKey(pos)] = uint64(stable)
	}

	e.planes = append(e.planes, PlaneNode{
		Local:       local,
		Stable:      e.store.PlaneStable(id),
		Name:        p.Name,
		SavedChunks: saved,
		Extra:       encodeExtra(p.Extra),
	})
	return local
}

func (e *exportState) bundle(rootKind string, rootLocal uint32) *Bundle {
	return &Bundle{
		Graph: Graph{
			RootKind:    rootKind,
			RootLocal:   rootLocal,
			Planes:      e.planes,
			Chunks:      e.chunks,
			Structures:  e.structures,
			Inventories: e.inventories,
			Entities:    e.entities,
			Clients:     e.clients,
		},
		Strings: e.strings,
		Blocks:  e.blocks,
	}
}

// ExportChunk produces a bundle containing a single chunk, its child
// structures, and their inventories (spec §4.3, per-chunk files).
func ExportChunk(store *worldstore.Store, id worldstore.TerrainChunkID) *Bundle {
	e := newExportState(store)
	local := e.addChunk(id)
	return e.bundle("chunk", local)
}

// ExportPlane produces a bundle containing only a plane's metadata (name,
// saved-chunks map, extras) — used when a plane with no loaded chunks
// unloads (spec §4.3).
func ExportPlane(store *worldstore.Store, id worldstore.PlaneID) *Bundle {
	e := newExportState(store)
	local := e.addPlaneMeta(id)
	return e.bundle("plane", local)
}

// ExportClient produces a bundle containing a client, its child
// entities, and their inventories (spec §3.6, §6.4 clients/<user_id>.client).
func ExportClient(store *worldstore.Store, id worldstore.ClientID) *Bundle {
	e := newExportState(store)
	local := e.addClient(id)
	return e.bundle("client", local)
}

func posKey(p vec.Vec2) string {
	return itoa(p.X) + "," + itoa(p.Y)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func blockGridAsSlice(g worldstore.ChunkBlocks) [][][]uint16 {
	out := make([][][]uint16, worldstore.ChunkSize)
	for x := range g {
		out[x] = make([][]uint16, worldstore.ChunkSize)
		for y := range g[x] {
			out[x][y] = make([]uint16, worldstore.ChunkSize)
			for z := range g[x][y] {
				out[x][y][z] = uint16(g[x][y][z])
			}
		}
	}
	return out
}

// itemName/templateName/animName resolve the *current* boot-time
// game-data registries to their canonical names. They are declared here
// as small indirections (rather than a hard import of internal/gamedata)
// so the bundle package stays usable in tests without a loaded game-data
// context; production wiring overrides them at init via SetNameResolvers.
var (
	itemName     = func(id uint32) string { return defaultName("item", id) }
	templateName = func(id uint32) string { return defaultName("template", id) }
	animName     = func(id uint16) string { return defaultName("anim", uint32(id)) }
)

// SetNameResolvers lets internal/gamedata install its real ID→name
// lookups at boot, so exported bundles carry meaningful names instead of
// the synthetic placeholders used in isolation/tests.
func SetNameResolvers(item, template func(uint32) string, anim func(uint16) string) {
	if item != nil {
		itemName = item
	}
	if template != nil {
		templateName = template
	}
	if anim != nil {
		animName = anim
	}
}

func defaultName(prefix string, id uint32) string {
	return prefix + "#" + itoa(int(id))
}
