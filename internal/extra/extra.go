// Package extra implements the recursively tagged value tree mounted on
// every world object (client, entity, inventory, plane, terrain chunk,
// structure) so that scripts can attach arbitrary persistent state
// without a schema change. See spec §3.4.
package extra

import (
	"fmt"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// Kind identifies the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindStableID
	KindTransientID
	KindVec2
	KindVec3
	KindRegion2
	KindRegion3
	KindArray
	KindHash
)

// Region2 is an axis-aligned 2D integer region, min inclusive / max
// exclusive.
type Region2 struct {
	Min, Max vec.Vec2
}

// Region3 is an axis-aligned 3D integer region, min inclusive / max
// exclusive.
type Region3 struct {
	Min, Max vec.Vec3
}

// Value is a single node of the Extra tree. Exactly one of the typed
// fields is meaningful, selected by Kind; Array/Hash hold child Values.
type Value struct {
	Kind Kind

	Bool     bool
	Int      int64
	Float    float64
	Str      string
	Stable   idmap.StableID
	Transient idmap.TransientID
	V2       vec.Vec2
	V3       vec.Vec3
	R2       Region2
	R3       Region3
	Array    []Value
	Hash     map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Stable wraps a stable ID reference.
func Stable(id idmap.StableID) Value { return Value{Kind: KindStableID, Stable: id} }

// Transient wraps a transient ID reference. Only meaningful while the
// referenced object is loaded; not valid to persist across a save.
func Transient(id idmap.TransientID) Value { return Value{Kind: KindTransientID, Transient: id} }

// Vec2 wraps a 2D integer vector.
func Vec2(v vec.Vec2) Value { return Value{Kind: KindVec2, V2: v} }

// Vec3 wraps a 3D integer vector.
func Vec3(v vec.Vec3) Value { return Value{Kind: KindVec3, V3: v} }

// Region2D wraps a 2D region.
func Region2D(r Region2) Value { return Value{Kind: KindRegion2, R2: r} }

// Region3D wraps a 3D region.
func Region3D(r Region3) Value { return Value{Kind: KindRegion3, R3: r} }

// Array wraps a nested array of values.
func Array(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// Hash wraps a nested string-keyed map.
func Hash(h map[string]Value) Value {
	if h == nil {
		h = map[string]Value{}
	}
	return Value{Kind: KindHash, Hash: h}
}

// Tree is the mutable container mounted on a world object. It exists as
// a distinct type (rather than a bare Value) so that object structs can
// embed it by value while the Hash root is always present.
type Tree struct {
	root map[string]Value
}

// NewTree creates an empty Extra tree.
func NewTree() *Tree { return &Tree{root: map[string]Value{}} }

// Get returns the value stored at key, or Null if absent.
func (t *Tree) Get(key string) Value {
	if t == nil || t.root == nil {
		return Null()
	}
	if v, ok := t.root[key]; ok {
		return v
	}
	return Null()
}

// Set stores a value at key.
func (t *Tree) Set(key string, v Value) {
	if t.root == nil {
		t.root = map[string]Value{}
	}
	t.root[key] = v
}

// Delete removes key, if present.
func (t *Tree) Delete(key string) {
	delete(t.root, key)
}

// Keys returns all top-level keys, in no particular order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.root))
	for k := range t.root {
		keys = append(keys, k)
	}
	return keys
}

// Clone performs a deep copy of the tree, suitable for export into a
// bundle (see internal/bundle) without aliasing the live object.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	for k, v := range t.root {
		out.root[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch v.Kind {
	case KindArray:
		arr := make([]Value, len(v.Array))
		for i, e := range v.Array {
			arr[i] = cloneValue(e)
		}
		return Value{Kind: KindArray, Array: arr}
	case KindHash:
		h := make(map[string]Value, len(v.Hash))
		for k, e := range v.Hash {
			h[k] = cloneValue(e)
		}
		return Value{Kind: KindHash, Hash: h}
	default:
		return v
	}
}

// RemapIDs walks the tree and rewrites every TransientID value using
// remap, leaving StableID values untouched. Used by the bundle importer
// (§4.2) to translate local bundle IDs into freshly allocated
// world-store transient IDs after an object's own ID has been remapped.
func (t *Tree) RemapIDs(remap func(idmap.TransientID) idmap.TransientID) {
	for k, v := range t.root {
		t.root[k] = remapValue(v, remap)
	}
}

func remapValue(v Value, remap func(idmap.TransientID) idmap.TransientID) Value {
	switch v.Kind {
	case KindTransientID:
		return Transient(remap(v.Transient))
	case KindArray:
		arr := make([]Value, len(v.Array))
		for i, e := range v.Array {
			arr[i] = remapValue(e, remap)
		}
		return Value{Kind: KindArray, Array: arr}
	case KindHash:
		h := make(map[string]Value, len(v.Hash))
		for k, e := range v.Hash {
			h[k] = remapValue(e, remap)
		}
		return Value{Kind: KindHash, Hash: h}
	default:
		return v
	}
}

// String renders a Value for debugging/log output.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindStableID:
		return fmt.Sprintf("stable(%d)", v.Stable)
	case KindTransientID:
		return fmt.Sprintf("transient(%d)", v.Transient)
	case KindVec2:
		return fmt.Sprintf("(%d,%d)", v.V2.X, v.V2.Y)
	case KindVec3:
		return fmt.Sprintf("(%d,%d,%d)", v.V3.X, v.V3.Y, v.V3.Z)
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.Array))
	case KindHash:
		return fmt.Sprintf("hash[%d]", len(v.Hash))
	default:
		return "?"
	}
}
