package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/vec"
)

// jsonValue is the tagged-union wire shape for one extra.Value, used so
// that Extra trees (spec §3.4) can ride inside a bundle's JSON metadata
// section without losing the Kind discriminant that a plain
// interface{}-shaped JSON document would collapse (e.g. telling an int
// apart from a float, or a transient-ID reference apart from a plain
// integer).
type jsonValue struct {
	K string      `json:"k"`
	V interface{} `json:"v,omitempty"`
}

func encodeExtra(t *extra.Tree) json.RawMessage {
	if t == nil {
		return nil
	}
	out := make(map[string]jsonValue, len(t.Keys()))
	for _, k := range t.Keys() {
		out[k] = encodeValue(t.Get(k))
	}
	raw, _ := json.Marshal(out)
	return raw
}

func decodeExtra(raw json.RawMessage) (*extra.Tree, error) {
	t := extra.NewTree()
	if len(raw) == 0 {
		return t, nil
	}
	var m map[string]jsonValue
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("bundle: decode extra: %w", err)
	}
	for k, jv := range m {
		v, err := decodeValue(jv)
		if err != nil {
			return nil, err
		}
		t.Set(k, v)
	}
	return t, nil
}

func encodeValue(v extra.Value) jsonValue {
	switch v.Kind {
	case extra.KindNull:
		return jsonValue{K: "null"}
	case extra.KindBool:
		return jsonValue{K: "bool", V: v.Bool}
	case extra.KindInt:
		return jsonValue{K: "int", V: v.Int}
	case extra.KindFloat:
		return jsonValue{K: "float", V: v.Float}
	case extra.KindString:
		return jsonValue{K: "str", V: v.Str}
	case extra.KindStableID:
		return jsonValue{K: "stable", V: uint64(v.Stable)}
	case extra.KindTransientID:
		return jsonValue{K: "transient", V: uint32(v.Transient)}
	case extra.KindVec2:
		return jsonValue{K: "vec2", V: [2]int{v.V2.X, v.V2.Y}}
	case extra.KindVec3:
		return jsonValue{K: "vec3", V: [3]int{v.V3.X, v.V3.Y, v.V3.Z}}
	case extra.KindRegion2:
		return jsonValue{K: "region2", V: [4]int{v.R2.Min.X, v.R2.Min.Y, v.R2.Max.X, v.R2.Max.Y}}
	case extra.KindRegion3:
		return jsonValue{K: "region3", V: [6]int{v.R3.Min.X, v.R3.Min.Y, v.R3.Min.Z, v.R3.Max.X, v.R3.Max.Y, v.R3.Max.Z}}
	case extra.KindArray:
		arr := make([]jsonValue, len(v.Array))
		for i, e := range v.Array {
			arr[i] = encodeValue(e)
		}
		return jsonValue{K: "array", V: arr}
	case extra.KindHash:
		h := make(map[string]jsonValue, len(v.Hash))
		for k, e := range v.Hash {
			h[k] = encodeValue(e)
		}
		return jsonValue{K: "hash", V: h}
	default:
		return jsonValue{K: "null"}
	}
}

func decodeValue(jv jsonValue) (extra.Value, error) {
	raw, _ := json.Marshal(jv.V)
	switch jv.K {
	case "null", "":
		return extra.Null(), nil
	case "bool":
		var b bool
		json.Unmarshal(raw, &b)
		return extra.Bool(b), nil
	case "int":
		var i int64
		json.Unmarshal(raw, &i)
		return extra.Int(i), nil
	case "float":
		var f float64
		json.Unmarshal(raw, &f)
		return extra.Float(f), nil
	case "str":
		var s string
		json.Unmarshal(raw, &s)
		return extra.String(s), nil
	case "stable":
		var u uint64
		json.Unmarshal(raw, &u)
		return extra.Stable(idmap.StableID(u)), nil
	case "transient":
		var u uint32
		json.Unmarshal(raw, &u)
		return extra.Transient(idmap.TransientID(u)), nil
	case "vec2":
		var a [2]int
		json.Unmarshal(raw, &a)
		return extra.Vec2(vec.Vec2{X: a[0], Y: a[1]}), nil
	case "vec3":
		var a [3]int
		json.Unmarshal(raw, &a)
		return extra.Vec3(vec.Vec3{X: a[0], Y: a[1], Z: a[2]}), nil
	case "region2":
		var a [4]int
		json.Unmarshal(raw, &a)
		return extra.Region2D(extra.Region2{Min: vec.Vec2{X: a[0], Y: a[1]}, Max: vec.Vec2{X: a[2], Y: a[3]}}), nil
	case "region3":
		var a [6]int
		json.Unmarshal(raw, &a)
		return extra.Region3D(extra.Region3{Min: vec.Vec3{X: a[0], Y: a[1], Z: a[2]}, Max: vec.Vec3{X: a[3], Y: a[4], Z: a[5]}}), nil
	case "array":
		var arr []jsonValue
		json.Unmarshal(raw, &arr)
		vs := make([]extra.Value, len(arr))
		for i, e := range arr {
			dv, err := decodeValue(e)
			if err != nil {
				return extra.Value{}, err
			}
			vs[i] = dv
		}
		return extra.Array(vs...), nil
	case "hash":
		var h map[string]jsonValue
		json.Unmarshal(raw, &h)
		out := make(map[string]extra.Value, len(h))
		for k, e := range h {
			dv, err := decodeValue(e)
			if err != nil {
				return extra.Value{}, err
			}
			out[k] = dv
		}
		return extra.Hash(out), nil
	default:
		return extra.Value{}, fmt.Errorf("bundle: unknown extra kind %q", jv.K)
	}
}
