package extra

import (
	"testing"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/stretchr/testify/require"
)

func TestTreeGetSetDelete(t *testing.T) {
	tr := NewTree()
	require.Equal(t, KindNull, tr.Get("missing").Kind)

	tr.Set("hp", Int(42))
	require.Equal(t, int64(42), tr.Get("hp").Int)

	tr.Delete("hp")
	require.Equal(t, KindNull, tr.Get("hp").Kind)
}

func TestCloneIsDeep(t *testing.T) {
	tr := NewTree()
	tr.Set("nested", Hash(map[string]Value{"a": Int(1)}))

	clone := tr.Clone()
	clone.Get("nested").Hash["a"] = Int(99)

	require.Equal(t, int64(1), tr.Get("nested").Hash["a"].Int, "clone must not alias original")
}

func TestRemapIDs(t *testing.T) {
	tr := NewTree()
	tr.Set("friend", Transient(3))
	tr.Set("group", Array(Transient(3), Transient(4)))

	tr.RemapIDs(func(old idmap.TransientID) idmap.TransientID {
		return old + 100
	})

	require.Equal(t, idmap.TransientID(103), tr.Get("friend").Transient)
	require.Equal(t, idmap.TransientID(103), tr.Get("group").Array[0].Transient)
	require.Equal(t, idmap.TransientID(104), tr.Get("group").Array[1].Transient)
}

func TestRemapPreservesStable(t *testing.T) {
	tr := NewTree()
	tr.Set("home", Stable(55))
	tr.RemapIDs(func(old idmap.TransientID) idmap.TransientID { return old + 1 })
	require.Equal(t, idmap.StableID(55), tr.Get("home").Stable)
}
