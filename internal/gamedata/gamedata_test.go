package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRegistersItemsTemplatesAndAnims(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "items", "tools.json"), `[{"id":1,"name":"pickaxe"},{"id":2,"name":"axe"}]`)
	writeJSON(t, filepath.Join(root, "templates", "mobs.json"), `[{"id":10,"name":"goblin"}]`)
	writeJSON(t, filepath.Join(root, "anims", "walk.json"), `[{"id":3,"name":"walk_cycle"}]`)

	r := NewRegistry()
	require.NoError(t, r.Load(root))

	id, ok := r.ItemID("pickaxe")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	tid, ok := r.TemplateID("goblin")
	require.True(t, ok)
	require.Equal(t, uint32(10), tid)

	aid, ok := r.AnimID("walk_cycle")
	require.True(t, ok)
	require.Equal(t, uint16(3), aid)

	_, ok = r.ItemID("nonexistent")
	require.False(t, ok)
}

func TestLoadMissingSubdirectoryIsNotAnError(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	require.NoError(t, r.Load(root))
	_, ok := r.ItemID("anything")
	require.False(t, ok)
}

func TestLoadRejectsConflictingIDReuse(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "items", "a.json"), `[{"id":1,"name":"pickaxe"}]`)
	writeJSON(t, filepath.Join(root, "items", "b.json"), `[{"id":1,"name":"shovel"}]`)

	r := NewRegistry()
	require.Error(t, r.Load(root))
}

func TestNameResolversFallBackToPlaceholderForUnknownID(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, "item#99", r.ItemName(99))
	require.Equal(t, "template#5", r.TemplateName(5))
	require.Equal(t, "anim#2", r.AnimName(2))
}

func TestNameResolversReturnRegisteredNames(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "items", "tools.json"), `[{"id":1,"name":"pickaxe"}]`)

	r := NewRegistry()
	require.NoError(t, r.Load(root))
	require.Equal(t, "pickaxe", r.ItemName(1))
}
