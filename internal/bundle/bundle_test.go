package bundle

import (
	"testing"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct{}

func (fakeResolver) TemplateID(name string) (uint32, bool) { return 7, true }
func (fakeResolver) ItemID(name string) (uint32, bool)      { return 3, true }
func (fakeResolver) AnimID(name string) (uint16, bool)      { return 1, true }

func newPopulatedStore(t *testing.T) (*worldstore.Store, worldstore.PlaneID, worldstore.TerrainChunkID, worldstore.StructureID) {
	t.Helper()
	s := worldstore.NewStore()
	plane := s.CreatePlane("forest")
	chunk, err := s.CreateChunk(plane, vec.Vec2{X: 2, Y: 3}, false)
	require.NoError(t, err)
	require.NoError(t, s.SetBlock(chunk, vec.Vec3{X: 1, Y: 1, Z: 1}, worldstore.BlockID(5)))

	sid, err := s.CreateStructure(plane, chunk, vec.Vec3{X: 1, Y: 1, Z: 0}, 42)
	require.NoError(t, err)

	invID, err := s.CreateInventory(2, worldstore.AttachToStructure(sid))
	require.NoError(t, err)
	require.NoError(t, s.UpdateInventorySlot(invID, 0, worldstore.ItemStack{ItemID: 9, Count: 3}))

	return s, plane, chunk, sid
}

func TestExportImportChunkRoundTrip(t *testing.T) {
	s, plane, chunk, _ := newPopulatedStore(t)

	b := ExportChunk(s, chunk)
	require.Len(t, b.Graph.Chunks, 1)
	require.Len(t, b.Graph.Structures, 1)
	require.Len(t, b.Graph.Inventories, 1)

	data, err := Serialize(b)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, b.Graph.RootKind, back.Graph.RootKind)
	require.Len(t, back.Blocks, 1)

	dst := worldstore.NewStore()
	dstPlane := dst.CreatePlane("forest")
	res, err := ImportIntoPlane(dst, dstPlane, back, fakeResolver{})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	gotChunk := dst.Chunk(res.RootChunk)
	require.NotNil(t, gotChunk)
	require.Equal(t, worldstore.BlockID(5), gotChunk.Blocks[1][1][1])
	require.Equal(t, vec.Vec2{X: 2, Y: 3}, gotChunk.Pos)

	require.Empty(t, worldstore.CheckInvariants(dst))

	structs := dst.StructuresAt(dstPlane, vec.Vec2{X: 2, Y: 3})
	require.Len(t, structs, 1)
	st := dst.Structure(structs[0])
	require.Equal(t, uint32(7), st.TemplateID) // resolved via fakeResolver
	require.Len(t, st.Inventories, 1)

	_ = plane
}

func TestImportRejectsDuplicateStableID(t *testing.T) {
	s, _, chunk, _ := newPopulatedStore(t)
	b := ExportChunk(s, chunk)

	// Re-importing the same bundle into the same store must be rejected:
	// its stable IDs already name loaded objects.
	_, err := ImportIntoPlane(s, worldstore.PlaneLimbo, b, fakeResolver{})
	require.Error(t, err)
	require.Equal(t, worldstore.DuplicateStableID, worldstore.ResultOf(err))
}

func TestSerializeContainerInvariants(t *testing.T) {
	s, _, chunk, _ := newPopulatedStore(t)
	b := ExportChunk(s, chunk)

	data, err := Serialize(b)
	require.NoError(t, err)
	require.Zero(t, len(data)%4, "container length must be 4-byte aligned")

	c, err := Parse(data)
	require.NoError(t, err)
	for _, name := range []string{sectionGraph, sectionStrArn, sectionStrOff, sectionBlocks} {
		_, ok := c.Section(name)
		require.True(t, ok, "missing section %q", name)
	}

	// Corrupting the version must be a fatal parse error.
	corrupt := append([]byte(nil), data...)
	corrupt[0] = 0xFF
	_, err = Parse(corrupt)
	require.Error(t, err)
}

func TestExportPlaneMetaOnly(t *testing.T) {
	s := worldstore.NewStore()
	plane := s.CreatePlane("void")
	p := s.Plane(plane)
	p.SavedChunks[vec.Vec2{X: 1, Y: 1}] = 99

	b := ExportPlane(s, plane)
	require.Equal(t, "plane", b.Graph.RootKind)
	require.Len(t, b.Graph.Planes, 1)
	require.Contains(t, b.Graph.Planes[0].SavedChunks, "1,1")

	data, err := Serialize(b)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, uint64(99), back.Graph.Planes[0].SavedChunks["1,1"])
}

func TestExportClientRoundTrip(t *testing.T) {
	s := worldstore.NewStore()
	plane := s.CreatePlane("forest")
	client := s.CreateClient("alice")
	eid, err := s.CreateEntity(plane, vec.Vec3{X: 10, Y: 10, Z: 0})
	require.NoError(t, err)
	require.NoError(t, s.AttachEntityToClient(eid, client))
	require.NoError(t, s.SetPawn(client, eid))

	b := ExportClient(s, client)
	data, err := Serialize(b)
	require.NoError(t, err)
	back, err := Deserialize(data)
	require.NoError(t, err)

	dst := worldstore.NewStore()
	res, err := Import(dst, back, fakeResolver{})
	require.NoError(t, err)

	c := dst.Client(res.RootClient)
	require.NotNil(t, c.Pawn)
	require.Empty(t, worldstore.CheckInvariants(dst))
}
