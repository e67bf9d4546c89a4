// Package worldstore implements the authoritative world state store:
// typed slab collections of Client/Entity/Inventory/Plane/TerrainChunk/
// Structure objects, their cross-references, and the invariants that
// bind them together. See spec §3 and §4.1.
package worldstore

import (
	"time"

	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// Per-class transient ID types. All are aliases of idmap.TransientID so
// that the slab/stable-map machinery is shared, but kept distinct Go
// types so a ClientID can never be passed where an EntityID is wanted.
type (
	ClientID       idmap.TransientID
	EntityID       idmap.TransientID
	InventoryID    idmap.TransientID
	PlaneID        idmap.TransientID
	TerrainChunkID idmap.TransientID
	StructureID    idmap.TransientID
)

// PlaneLimbo is the sentinel transient plane ID used by an entity whose
// real (stable) plane is not currently loaded. See spec §3.2, invariant 2.
const PlaneLimbo PlaneID = 0

// ChunkSize is the edge length of a TerrainChunk's 16x16x16 block grid.
const ChunkSize = 16

type BlockID uint16

type ChunkBlocks [ChunkSize][ChunkSize][ChunkSize]BlockID

// Chunk flag bits.
const (
	ChunkFlagGenerationPending uint32 = 1 << iota
)

// Activity kind, see spec §3.3.
type ActivityKind uint8

const (
	ActivityWalk ActivityKind = iota
	ActivityEmote
	ActivityWork
	ActivityTeleport
)

// Activity describes what a (possibly non-interruptible) entity is
// currently doing. Anim/Icon are only meaningful for Emote/Work.
type Activity struct {
	Kind ActivityKind
	Anim uint16
	Icon uint16
}

// Interruptible reports whether the activity may be pre-empted by a
// normal movement update without an explicit interrupt call.
func (a Activity) Interruptible() bool { return a.Kind == ActivityWalk }

// Motion is a linear extrapolation of position over time. EndTime == nil
// means the motion continues indefinitely at Velocity.
type Motion struct {
	StartPos  vec.Vec3
	Velocity  vec.Vec3Float
	StartTime time.Time
	EndTime   *time.Time
}

// PositionAt evaluates the motion at time t per spec §3.3:
//
//	pos(t) = start_pos + velocity * clamp(t - start_time, 0, end-start) / 1000
func (m Motion) PositionAt(t time.Time) vec.Vec3Float {
	elapsedMs := float64(t.Sub(m.StartTime).Milliseconds())
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if m.EndTime != nil {
		maxMs := float64(m.EndTime.Sub(m.StartTime).Milliseconds())
		if maxMs < 0 {
			maxMs = 0
		}
		if elapsedMs > maxMs {
			elapsedMs = maxMs
		}
	}

	scale := elapsedMs / 1000.0
	return vec.Vec3Float{
		X: float64(m.StartPos.X) + m.Velocity.X*scale,
		Y: float64(m.StartPos.Y) + m.Velocity.Y*scale,
		Z: float64(m.StartPos.Z) + m.Velocity.Z*scale,
	}
}

// AttachmentKind identifies what an object's Attachment field names.
type AttachmentKind uint8

const (
	AttachNone AttachmentKind = iota
	AttachWorld
	AttachPlane
	AttachChunk
	AttachClient
	AttachEntity
	AttachStructure
)

// Attachment is a tagged parent reference. Exactly one of the ID fields
// is meaningful, selected by Kind.
type Attachment struct {
	Kind    AttachmentKind
	Plane   PlaneID
	Chunk   TerrainChunkID
	Client  ClientID
	Entity  EntityID
	Structure StructureID
}

func AttachToWorld() Attachment  { return Attachment{Kind: AttachWorld} }
func AttachToPlane(p PlaneID) Attachment { return Attachment{Kind: AttachPlane, Plane: p} }
func AttachToChunk(c TerrainChunkID) Attachment { return Attachment{Kind: AttachChunk, Chunk: c} }
func AttachToClient(c ClientID) Attachment { return Attachment{Kind: AttachClient, Client: c} }
func AttachToEntity(e EntityID) Attachment { return Attachment{Kind: AttachEntity, Entity: e} }
func AttachToStructure(s StructureID) Attachment { return Attachment{Kind: AttachStructure, Structure: s} }

// ItemStack is one slot of an Inventory.
type ItemStack struct {
	ItemID uint32
	Count  uint32
}

// --- Object classes -------------------------------------------------

// Plane is a disjoint coordinate space containing chunks, structures,
// and entities.
type Plane struct {
	Transient PlaneID
	Stable    idmap.StableID
	Name      string

	// LoadedChunks maps a chunk position to the transient ID of the
	// currently loaded chunk at that position.
	LoadedChunks map[vec.Vec2]TerrainChunkID
	// SavedChunks maps a chunk position to the stable ID of every chunk
	// ever saved on this plane (present even while unloaded).
	SavedChunks map[vec.Vec2]idmap.StableID

	Extra *extra.Tree
}

// TerrainChunk is a 16x16x16 block volume at integer chunk coordinates.
type TerrainChunk struct {
	Transient TerrainChunkID
	Stable    idmap.StableID

	PlaneStable    idmap.StableID
	PlaneTransient PlaneID
	Pos            vec.Vec2

	Blocks ChunkBlocks
	Flags  uint32

	Structures map[StructureID]struct{}

	Extra *extra.Tree
}

// Structure is a multi-block placed object.
type Structure struct {
	Transient StructureID
	Stable    idmap.StableID

	Plane      PlaneID
	Pos        vec.Vec3
	TemplateID uint32
	Flags      uint32

	Attachment Attachment // AttachPlane or AttachChunk

	Inventories map[InventoryID]struct{}

	Extra *extra.Tree
}

// Entity is a mobile world object (player pawn, NPC, dropped item, ...).
type Entity struct {
	Transient EntityID
	Stable    idmap.StableID

	StablePlane    idmap.StableID
	Plane          PlaneID // may be PlaneLimbo

	Motion    Motion
	Animation uint16
	Facing    vec.Vec2Float
	TargetVel vec.Vec3Float
	Appearance uint32
	Activity  Activity

	Attachment Attachment // AttachWorld, AttachChunk, or AttachClient (pawn)

	Inventories map[InventoryID]struct{}

	Extra *extra.Tree
}

// Inventory is a fixed-size array of item slots.
type Inventory struct {
	Transient InventoryID
	Stable    idmap.StableID

	Slots []ItemStack

	Attachment Attachment // AttachWorld, AttachClient, AttachEntity, AttachStructure

	Extra *extra.Tree
}

// Client is a connected player's session-scoped object.
type Client struct {
	Transient ClientID
	Stable    idmap.StableID

	Name string
	Pawn *EntityID // nil if no pawn assigned

	InputBits uint32

	Entities    map[EntityID]struct{}
	Inventories map[InventoryID]struct{}

	Extra *extra.Tree
}
