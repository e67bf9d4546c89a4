package bundle

import (
	"encoding/json"

	"github.com/annel0/mmo-game/internal/idmap"
)

// Graph is the JSON-encoded metadata section ("graph") of a bundle: the
// canonically-ordered object list (spec §4.2, "plane first, then
// chunks, then structures, then inventories, then entities, then
// clients"), using *local* transient IDs (dense, from 0) for references
// that stay inside the bundle, and stable IDs for everything else.
type Graph struct {
	RootKind  string `json:"root_kind"`
	RootLocal uint32 `json:"root_local"`

	Planes      []PlaneNode      `json:"planes,omitempty"`
	Chunks      []ChunkNode      `json:"chunks,omitempty"`
	Structures  []StructureNode  `json:"structures,omitempty"`
	Inventories []InventoryNode  `json:"inventories,omitempty"`
	Entities    []EntityNode     `json:"entities,omitempty"`
	Clients     []ClientNode     `json:"clients,omitempty"`
}

type PlaneNode struct {
	Local       uint32            `json:"local"`
	Stable      idmap.StableID    `json:"stable"`
	Name        string            `json:"name"`
	SavedChunks map[string]uint64 `json:"saved_chunks,omitempty"` // "x,y" -> stable chunk id
	Extra       json.RawMessage   `json:"extra,omitempty"`
}

type ChunkNode struct {
	Local       uint32          `json:"local"`
	Stable      idmap.StableID  `json:"stable"`
	PlaneStable idmap.StableID  `json:"plane_stable"`
	PlaneLocal  *uint32         `json:"plane_local,omitempty"`
	PosX        int             `json:"pos_x"`
	PosY        int             `json:"pos_y"`
	Flags       uint32          `json:"flags"`
	BlockRecord int             `json:"block_record"`
	Structures  []uint32        `json:"structures,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

type StructureNode struct {
	Local             uint32          `json:"local"`
	Stable            idmap.StableID  `json:"stable"`
	PlaneStable       idmap.StableID  `json:"plane_stable"`
	PosX              int             `json:"pos_x"`
	PosY              int             `json:"pos_y"`
	PosZ              int             `json:"pos_z"`
	TemplateNameIdx   int             `json:"template_name_idx"`
	Flags             uint32          `json:"flags"`
	AttachKind        uint8           `json:"attach_kind"`
	AttachChunkLocal  *uint32         `json:"attach_chunk_local,omitempty"`
	Inventories       []uint32        `json:"inventories,omitempty"`
	Extra             json.RawMessage `json:"extra,omitempty"`
}

type EntityNode struct {
	Local            uint32          `json:"local"`
	Stable           idmap.StableID  `json:"stable"`
	PlaneStable      idmap.StableID  `json:"plane_stable"`
	PosX             int             `json:"pos_x"`
	PosY             int             `json:"pos_y"`
	PosZ             int             `json:"pos_z"`
	VelX             float64         `json:"vel_x"`
	VelY             float64         `json:"vel_y"`
	VelZ             float64         `json:"vel_z"`
	AnimationIdx     int             `json:"anim_idx"`
	FacingX          float64         `json:"facing_x"`
	FacingY          float64         `json:"facing_y"`
	Appearance       uint32          `json:"appearance"`
	ActivityKind     uint8           `json:"activity_kind"`
	ActivityAnimIdx  int             `json:"activity_anim_idx"`
	ActivityIconIdx  int             `json:"activity_icon_idx"`
	AttachKind       uint8           `json:"attach_kind"`
	AttachClientLocal *uint32        `json:"attach_client_local,omitempty"`
	Inventories      []uint32        `json:"inventories,omitempty"`
	Extra            json.RawMessage `json:"extra,omitempty"`
}

type ItemStackNode struct {
	ItemNameIdx int    `json:"item_name_idx"`
	Count       uint32 `json:"count"`
}

type InventoryNode struct {
	Local                 uint32          `json:"local"`
	Stable                idmap.StableID  `json:"stable"`
	Slots                 []ItemStackNode `json:"slots"`
	AttachKind            uint8           `json:"attach_kind"`
	AttachEntityLocal     *uint32         `json:"attach_entity_local,omitempty"`
	AttachStructureLocal  *uint32         `json:"attach_structure_local,omitempty"`
	AttachClientLocal     *uint32         `json:"attach_client_local,omitempty"`
	Extra                 json.RawMessage `json:"extra,omitempty"`
}

type ClientNode struct {
	Local       uint32          `json:"local"`
	Stable      idmap.StableID  `json:"stable"`
	Name        string          `json:"name"`
	PawnLocal   *uint32         `json:"pawn_local,omitempty"`
	Entities    []uint32        `json:"entities,omitempty"`
	Inventories []uint32        `json:"inventories,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}
