package bundle

import (
	"fmt"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Resolver resolves bundle-local string-table names against the
// currently loaded game data (spec §4.2, "the importer resolves the
// strings against the current loaded game data").
type Resolver interface {
	TemplateID(name string) (uint32, bool)
	ItemID(name string) (uint32, bool)
	AnimID(name string) (uint16, bool)
}

// ImportResult reports what landed in the store and any per-object
// warnings (e.g. an unknown template name, which drops that one
// structure rather than failing the whole import).
type ImportResult struct {
	RootPlane  worldstore.PlaneID
	RootChunk  worldstore.TerrainChunkID
	RootClient worldstore.ClientID
	Warnings   []string
}

type importCtx struct {
	store    *worldstore.Store
	resolver Resolver

	planeOf     map[uint32]worldstore.PlaneID
	chunkOf     map[uint32]worldstore.TerrainChunkID
	structureOf map[uint32]worldstore.StructureID
	inventoryOf map[uint32]worldstore.InventoryID
	entityOf    map[uint32]worldstore.EntityID
	clientOf    map[uint32]worldstore.ClientID

	warnings []string
}

func newImportCtx(store *worldstore.Store, resolver Resolver) *importCtx {
	return &importCtx{
		store:       store,
		resolver:    resolver,
		planeOf:     map[uint32]worldstore.PlaneID{},
		chunkOf:     map[uint32]worldstore.TerrainChunkID{},
		structureOf: map[uint32]worldstore.StructureID{},
		inventoryOf: map[uint32]worldstore.InventoryID{},
		entityOf:    map[uint32]worldstore.EntityID{},
		clientOf:    map[uint32]worldstore.ClientID{},
	}
}

// Import installs a bundle's objects into store, allocating fresh
// transient IDs and rewriting every in-bundle reference from local to
// world-store space (spec §4.2, "Local ID remap on load"). If a stable
// ID in the bundle already names a loaded object, the whole import is
// rejected with DuplicateStableID (a chunk/client re-import must never
// silently merge with what is already loaded).
func Import(store *worldstore.Store, b *Bundle, resolver Resolver) (*ImportResult, error) {
	if err := checkNoDuplicateStableIDs(store, b); err != nil {
		return nil, err
	}

	ctx := newImportCtx(store, resolver)

	for _, pn := range b.Graph.Planes {
		id := store.CreatePlane(pn.Name)
		if !adoptPlane(store, pn.Stable, id) {
			return nil, worldstore.Err(worldstore.DuplicateStableID, "plane")
		}
		p := store.Plane(id)
		for key, stableChunk := range pn.SavedChunks {
			pos, err := parsePosKey(key)
			if err != nil {
				return nil, err
			}
			p.SavedChunks[pos] = idmap.StableID(stableChunk)
		}
		extraTree, err := decodeExtra(pn.Extra)
		if err != nil {
			return nil, err
		}
		p.Extra = extraTree
		ctx.planeOf[pn.Local] = id
	}

	for _, cn := range b.Graph.Chunks {
		if cn.PlaneLocal == nil {
			return nil, fmt.Errorf("bundle: chunk %d has no in-bundle plane; use ImportIntoPlane", cn.Local)
		}
		plane := ctx.planeOf[*cn.PlaneLocal]
		if err := ctx.importOneChunk(b, cn, plane); err != nil {
			return nil, err
		}
	}

	if err := ctx.importStructures(b); err != nil {
		return nil, err
	}
	if err := ctx.importInventoriesPass1(b); err != nil {
		return nil, err
	}
	if err := ctx.importEntities(b); err != nil {
		return nil, err
	}
	if err := ctx.importClients(b); err != nil {
		return nil, err
	}
	if err := ctx.wireInventoryParents(b); err != nil {
		return nil, err
	}

	return ctx.result(b), nil
}

// ImportIntoPlane is the entry point chunklifecycle uses: the bundle
// contains exactly one chunk (plus its structures/inventories) with no
// plane node of its own, to be installed under an already-loaded plane.
func ImportIntoPlane(store *worldstore.Store, plane worldstore.PlaneID, b *Bundle, resolver Resolver) (*ImportResult, error) {
	if err := checkNoDuplicateStableIDs(store, b); err != nil {
		return nil, err
	}
	ctx := newImportCtx(store, resolver)

	for _, cn := range b.Graph.Chunks {
		if err := ctx.importOneChunk(b, cn, plane); err != nil {
			return nil, err
		}
	}
	if err := ctx.importStructures(b); err != nil {
		return nil, err
	}
	if err := ctx.importInventoriesPass1(b); err != nil {
		return nil, err
	}
	if err := ctx.wireInventoryParents(b); err != nil {
		return nil, err
	}

	return ctx.result(b), nil
}

func (ctx *importCtx) result(b *Bundle) *ImportResult {
	res := &ImportResult{Warnings: ctx.warnings}
	if len(b.Graph.Planes) > 0 {
		res.RootPlane = ctx.planeOf[b.Graph.Planes[0].Local]
	}
	if len(b.Graph.Chunks) > 0 {
		res.RootChunk = ctx.chunkOf[b.Graph.Chunks[0].Local]
	}
	if len(b.Graph.Clients) > 0 {
		res.RootClient = ctx.clientOf[b.Graph.Clients[0].Local]
	}
	return res
}

func (ctx *importCtx) importOneChunk(b *Bundle, cn ChunkNode, plane worldstore.PlaneID) error {
	pending := cn.Flags&worldstore.ChunkFlagGenerationPending != 0
	id, err := ctx.store.CreateChunk(plane, vec.Vec2{X: cn.PosX, Y: cn.PosY}, pending)
	if err != nil {
		return err
	}
	if !adoptChunk(ctx.store, cn.Stable, id) {
		return worldstore.Err(worldstore.DuplicateStableID, "chunk")
	}
	c := ctx.store.Chunk(id)
	if cn.BlockRecord >= 0 && cn.BlockRecord < len(b.Blocks) {
		c.Blocks = blocksFromRecord(b.Blocks[cn.BlockRecord])
	}
	extraTree, err := decodeExtra(cn.Extra)
	if err != nil {
		return err
	}
	c.Extra = extraTree
	ctx.chunkOf[cn.Local] = id
	return nil
}

func (ctx *importCtx) importStructures(b *Bundle) error {
	for _, sn := range b.Graph.Structures {
		templateID := uint32(0)
		if ctx.resolver != nil {
			name, _ := b.Strings.Name(sn.TemplateNameIdx)
			id, ok := ctx.resolver.TemplateID(name)
			if !ok {
				ctx.warnings = append(ctx.warnings, fmt.Sprintf("structure %d: unknown template %q, dropped", sn.Local, name))
				continue
			}
			templateID = id
		}
		if sn.AttachChunkLocal == nil {
			return worldstore.Err(worldstore.InvalidAttachment, "structure without a chunk attachment")
		}
		chunk, ok := ctx.chunkOf[*sn.AttachChunkLocal]
		if !ok {
			return worldstore.Err(worldstore.NoSuchID, "structure's chunk not present in bundle")
		}
		c := ctx.store.Chunk(chunk)
		if c == nil {
			return worldstore.Err(worldstore.NoSuchID, "structure's chunk")
		}
		id, err := ctx.store.CreateStructure(c.PlaneTransient, chunk, vec.Vec3{X: sn.PosX, Y: sn.PosY, Z: sn.PosZ}, templateID)
		if err != nil {
			return err
		}
		if !adoptStructure(ctx.store, sn.Stable, id) {
			return worldstore.Err(worldstore.DuplicateStableID, "structure")
		}
		st := ctx.store.Structure(id)
		st.Flags = sn.Flags
		extraTree, err := decodeExtra(sn.Extra)
		if err != nil {
			return err
		}
		st.Extra = extraTree
		ctx.structureOf[sn.Local] = id
	}
	return nil
}

func (ctx *importCtx) resolveItemSlots(b *Bundle, slots []ItemStackNode) []worldstore.ItemStack {
	out := make([]worldstore.ItemStack, len(slots))
	for i, s := range slots {
		itemID := uint32(0)
		if ctx.resolver != nil {
			name, _ := b.Strings.Name(s.ItemNameIdx)
			if id, ok := ctx.resolver.ItemID(name); ok {
				itemID = id
			}
		}
		out[i] = worldstore.ItemStack{ItemID: itemID, Count: s.Count}
	}
	return out
}

func (ctx *importCtx) inventoryParent(in InventoryNode) (worldstore.Attachment, bool) {
	switch worldstore.AttachmentKind(in.AttachKind) {
	case worldstore.AttachEntity:
		if in.AttachEntityLocal == nil {
			return worldstore.Attachment{}, false
		}
		eid, ok := ctx.entityOf[*in.AttachEntityLocal]
		if !ok {
			return worldstore.Attachment{}, false
		}
		return worldstore.AttachToEntity(eid), true
	case worldstore.AttachStructure:
		if in.AttachStructureLocal == nil {
			return worldstore.Attachment{}, false
		}
		sid, ok := ctx.structureOf[*in.AttachStructureLocal]
		if !ok {
			return worldstore.Attachment{}, false
		}
		return worldstore.AttachToStructure(sid), true
	case worldstore.AttachClient:
		if in.AttachClientLocal == nil {
			return worldstore.Attachment{}, false
		}
		cid, ok := ctx.clientOf[*in.AttachClientLocal]
		if !ok {
			return worldstore.Attachment{}, false
		}
		return worldstore.AttachToClient(cid), true
	default:
		return worldstore.AttachToWorld(), true
	}
}

func (ctx *importCtx) createInventory(b *Bundle, in InventoryNode, parent worldstore.Attachment) error {
	slots := ctx.resolveItemSlots(b, in.Slots)
	id, err := ctx.store.CreateInventory(len(slots), parent)
	if err != nil {
		return err
	}
	if !adoptInventory(ctx.store, in.Stable, id) {
		return worldstore.Err(worldstore.DuplicateStableID, "inventory")
	}
	inv := ctx.store.Inventory(id)
	inv.Slots = slots
	extraTree, err := decodeExtra(in.Extra)
	if err != nil {
		return err
	}
	inv.Extra = extraTree
	ctx.inventoryOf[in.Local] = id
	return nil
}

// importInventoriesPass1 installs every inventory whose parent is
// resolvable immediately (world- or structure-attached, or
// entity/client-attached when that parent already exists). Inventories
// whose entity/client parent is created later in canonical order are
// picked up by wireInventoryParents.
func (ctx *importCtx) importInventoriesPass1(b *Bundle) error {
	for _, in := range b.Graph.Inventories {
		parent, ok := ctx.inventoryParent(in)
		if !ok {
			continue
		}
		if err := ctx.createInventory(b, in, parent); err != nil {
			return err
		}
	}
	return nil
}

// wireInventoryParents catches inventories deferred by pass 1 because
// their entity/client parent did not exist yet.
func (ctx *importCtx) wireInventoryParents(b *Bundle) error {
	for _, in := range b.Graph.Inventories {
		if _, already := ctx.inventoryOf[in.Local]; already {
			continue
		}
		parent, ok := ctx.inventoryParent(in)
		if !ok {
			ctx.warnings = append(ctx.warnings, fmt.Sprintf("inventory %d: parent not found in bundle, dropped", in.Local))
			continue
		}
		if err := ctx.createInventory(b, in, parent); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *importCtx) importEntities(b *Bundle) error {
	for _, en := range b.Graph.Entities {
		pos := vec.Vec3{X: en.PosX, Y: en.PosY, Z: en.PosZ}
		plane, loaded := ctx.store.PlaneByStable(en.PlaneStable)

		var id worldstore.EntityID
		var err error
		if loaded {
			id, err = ctx.store.CreateEntity(plane, pos)
		} else {
			id, err = ctx.store.CreateLimboEntity(en.PlaneStable, pos)
		}
		if err != nil {
			return err
		}
		if !adoptEntity(ctx.store, en.Stable, id) {
			return worldstore.Err(worldstore.DuplicateStableID, "entity")
		}
		e := ctx.store.Entity(id)
		e.Motion.Velocity.X, e.Motion.Velocity.Y, e.Motion.Velocity.Z = en.VelX, en.VelY, en.VelZ
		e.Facing.X, e.Facing.Y = en.FacingX, en.FacingY
		e.Appearance = en.Appearance
		e.Activity.Kind = worldstore.ActivityKind(en.ActivityKind)
		extraTree, err := decodeExtra(en.Extra)
		if err != nil {
			return err
		}
		e.Extra = extraTree
		ctx.entityOf[en.Local] = id
	}
	return nil
}

func (ctx *importCtx) importClients(b *Bundle) error {
	for _, cn := range b.Graph.Clients {
		id := ctx.store.CreateClient(cn.Name)
		if !adoptClient(ctx.store, cn.Stable, id) {
			return worldstore.Err(worldstore.DuplicateStableID, "client")
		}
		ctx.clientOf[cn.Local] = id

		for _, eLocal := range cn.Entities {
			eid, ok := ctx.entityOf[eLocal]
			if !ok {
				continue
			}
			if err := ctx.store.AttachEntityToClient(eid, id); err != nil {
				return err
			}
		}
		if cn.PawnLocal != nil {
			if eid, ok := ctx.entityOf[*cn.PawnLocal]; ok {
				if err := ctx.store.SetPawn(id, eid); err != nil {
					return err
				}
			}
		}
		c := ctx.store.Client(id)
		extraTree, err := decodeExtra(cn.Extra)
		if err != nil {
			return err
		}
		c.Extra = extraTree
	}
	return nil
}

// ImportGeneratedChunk installs a freshly generated chunk bundle (spec
// §4.4, "on the main side, a GEN_CHUNK response is handled by: looking
// up the currently installed placeholder ... destroying it, and
// importing the received bundle ... in its place") by swapping the
// placeholder for a real chunk via Store.ReplaceChunk, then importing
// any structures the generator placed on it (e.g. trees). The bundle
// must contain exactly one chunk node.
func ImportGeneratedChunk(store *worldstore.Store, plane worldstore.PlaneID, pos vec.Vec2, b *Bundle, resolver Resolver) (worldstore.TerrainChunkID, []string, error) {
	if len(b.Graph.Chunks) != 1 {
		return 0, nil, fmt.Errorf("bundle: generated chunk bundle must contain exactly one chunk, got %d", len(b.Graph.Chunks))
	}
	cn := b.Graph.Chunks[0]

	newChunk := &worldstore.TerrainChunk{
		Flags: cn.Flags &^ worldstore.ChunkFlagGenerationPending,
	}
	if cn.BlockRecord >= 0 && cn.BlockRecord < len(b.Blocks) {
		newChunk.Blocks = blocksFromRecord(b.Blocks[cn.BlockRecord])
	}
	extraTree, err := decodeExtra(cn.Extra)
	if err != nil {
		return 0, nil, err
	}
	newChunk.Extra = extraTree

	_, newID, err := store.ReplaceChunk(plane, pos, newChunk)
	if err != nil {
		return 0, nil, err
	}
	if cn.Stable != idmap.NoStableID && !store.AdoptChunkStable(newID, cn.Stable) {
		return 0, nil, worldstore.Err(worldstore.DuplicateStableID, "generated chunk")
	}

	ctx := newImportCtx(store, resolver)
	ctx.chunkOf[cn.Local] = newID
	if err := ctx.importStructures(b); err != nil {
		return 0, nil, err
	}
	if err := ctx.importInventoriesPass1(b); err != nil {
		return 0, nil, err
	}
	if err := ctx.wireInventoryParents(b); err != nil {
		return 0, nil, err
	}

	return newID, ctx.warnings, nil
}

func checkNoDuplicateStableIDs(store *worldstore.Store, b *Bundle) error {
	for _, n := range b.Graph.Planes {
		if n.Stable != 0 {
			if _, ok := store.PlaneByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "plane already loaded")
			}
		}
	}
	for _, n := range b.Graph.Chunks {
		if n.Stable != 0 {
			if _, ok := store.ChunkByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "chunk already loaded")
			}
		}
	}
	for _, n := range b.Graph.Structures {
		if n.Stable != 0 {
			if _, ok := store.StructureByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "structure already loaded")
			}
		}
	}
	for _, n := range b.Graph.Inventories {
		if n.Stable != 0 {
			if _, ok := store.InventoryByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "inventory already loaded")
			}
		}
	}
	for _, n := range b.Graph.Entities {
		if n.Stable != 0 {
			if _, ok := store.EntityByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "entity already loaded")
			}
		}
	}
	for _, n := range b.Graph.Clients {
		if n.Stable != 0 {
			if _, ok := store.ClientByStable(n.Stable); ok {
				return worldstore.Err(worldstore.DuplicateStableID, "client already loaded")
			}
		}
	}
	return nil
}

func adoptPlane(store *worldstore.Store, stable idmap.StableID, id worldstore.PlaneID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptPlaneStable(id, stable)
}

func adoptChunk(store *worldstore.Store, stable idmap.StableID, id worldstore.TerrainChunkID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptChunkStable(id, stable)
}

func adoptStructure(store *worldstore.Store, stable idmap.StableID, id worldstore.StructureID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptStructureStable(id, stable)
}

func adoptInventory(store *worldstore.Store, stable idmap.StableID, id worldstore.InventoryID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptInventoryStable(id, stable)
}

func adoptEntity(store *worldstore.Store, stable idmap.StableID, id worldstore.EntityID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptEntityStable(id, stable)
}

func adoptClient(store *worldstore.Store, stable idmap.StableID, id worldstore.ClientID) bool {
	if stable == idmap.NoStableID {
		return true
	}
	return store.AdoptClientStable(id, stable)
}

func parsePosKey(key string) (vec.Vec2, error) {
	var x, y int
	var negX, negY bool
	i := 0
	if i < len(key) && key[i] == '-' {
		negX = true
		i++
	}
	for i < len(key) && key[i] != ',' {
		if key[i] < '0' || key[i] > '9' {
			return vec.Vec2{}, fmt.Errorf("bundle: malformed saved-chunk key %q", key)
		}
		x = x*10 + int(key[i]-'0')
		i++
	}
	if i >= len(key) || key[i] != ',' {
		return vec.Vec2{}, fmt.Errorf("bundle: malformed saved-chunk key %q", key)
	}
	i++
	if i < len(key) && key[i] == '-' {
		negY = true
		i++
	}
	for i < len(key) {
		if key[i] < '0' || key[i] > '9' {
			return vec.Vec2{}, fmt.Errorf("bundle: malformed saved-chunk key %q", key)
		}
		y = y*10 + int(key[i]-'0')
		i++
	}
	if negX {
		x = -x
	}
	if negY {
		y = -y
	}
	return vec.Vec2{X: x, Y: y}, nil
}

func blocksFromRecord(rec []byte) worldstore.ChunkBlocks {
	var out worldstore.ChunkBlocks
	decoded := decodeChunkBlocks(rec, worldstore.ChunkSize)
	for x := 0; x < worldstore.ChunkSize; x++ {
		for y := 0; y < worldstore.ChunkSize; y++ {
			for z := 0; z < worldstore.ChunkSize; z++ {
				out[x][y][z] = worldstore.BlockID(decoded[x][y][z])
			}
		}
	}
	return out
}
