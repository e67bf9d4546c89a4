// Package physics implements the collision oracle and motion-path
// validation described in spec §4.6. Generalized from the teacher's 2D
// box-collider helpers (collision.go, kept alongside as a worked
// example of the same shape-query idiom) to a 3D block-shape source.
package physics

import (
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Shape is one of the four block collision shapes the spec names.
type Shape uint8

const (
	ShapeEmpty Shape = iota
	ShapeFloor
	ShapeSolid
	ShapeRampN
)

// ShapeTable maps a block ID to its collision shape, populated at boot
// from game data (internal/gamedata). The zero value treats every
// block as Empty, which is intentionally permissive rather than
// fail-closed: an unrecognized block should never wedge movement.
type ShapeTable struct {
	shapes map[worldstore.BlockID]Shape
}

// NewShapeTable builds a table from a block-id -> shape mapping.
func NewShapeTable(m map[worldstore.BlockID]Shape) *ShapeTable {
	t := &ShapeTable{shapes: make(map[worldstore.BlockID]Shape, len(m))}
	for k, v := range m {
		t.shapes[k] = v
	}
	return t
}

func (t *ShapeTable) shapeOf(id worldstore.BlockID) Shape {
	if t == nil {
		return ShapeEmpty
	}
	return t.shapes[id]
}

// Oracle is the collision shape source: given a block-coordinate
// position, it returns the shape by reading the block grid of the one
// chunk that contains the queried point, indexed through the
// ShapeTable (spec §4.6). Neighbouring chunks are not consulted.
type Oracle struct {
	store  *worldstore.Store
	shapes *ShapeTable
}

// NewOracle builds an Oracle over a store and its static shape table.
func NewOracle(store *worldstore.Store, shapes *ShapeTable) *Oracle {
	return &Oracle{store: store, shapes: shapes}
}

// ShapeAt resolves the block shape at a world-block-coordinate
// position on a plane. Positions outside any loaded chunk are treated
// as Solid, so motion validation fails closed at the edge of loaded
// terrain rather than letting entities fall through the unknown.
func (o *Oracle) ShapeAt(plane worldstore.PlaneID, pos vec.Vec3) Shape {
	cpos := chunkPos(pos)
	id, ok := o.chunkAt(plane, cpos)
	if !ok {
		return ShapeSolid
	}
	c := o.store.Chunk(id)
	if c == nil {
		return ShapeSolid
	}
	local := localPos(pos)
	if local.X < 0 || local.X >= worldstore.ChunkSize ||
		local.Y < 0 || local.Y >= worldstore.ChunkSize ||
		local.Z < 0 || local.Z >= worldstore.ChunkSize {
		return ShapeSolid
	}
	return o.shapes.shapeOf(c.Blocks[local.X][local.Y][local.Z])
}

func (o *Oracle) chunkAt(plane worldstore.PlaneID, cpos vec.Vec2) (worldstore.TerrainChunkID, bool) {
	p := o.store.Plane(plane)
	if p == nil {
		return 0, false
	}
	id, ok := p.LoadedChunks[cpos]
	return id, ok
}

func chunkPos(p vec.Vec3) vec.Vec2 {
	return vec.Vec2{X: floorDiv(p.X, worldstore.ChunkSize), Y: floorDiv(p.Y, worldstore.ChunkSize)}
}

func localPos(p vec.Vec3) vec.Vec3 {
	return vec.Vec3{X: floorMod(p.X, worldstore.ChunkSize), Y: floorMod(p.Y, worldstore.ChunkSize), Z: p.Z}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Passable reports whether an entity may occupy a block position: only
// Empty and Floor are passable, Solid and any RampN block it.
// RampN blocks are deliberately excluded from plain occupancy checks —
// a pawn only steps onto a ramp surface via AdjustForRamp, never by
// overlapping its solid core.
func Passable(s Shape) bool {
	return s == ShapeEmpty || s == ShapeFloor
}
