package worldstore

import (
	"testing"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, PlaneID, TerrainChunkID) {
	t.Helper()
	s := NewStore()
	plane := s.CreatePlane("forest")
	chunk, err := s.CreateChunk(plane, vec.Vec2{X: 2, Y: 3}, false)
	require.NoError(t, err)
	return s, plane, chunk
}

func TestCreateDestroyEntityAndInvariants(t *testing.T) {
	s, plane, _ := newTestStore(t)

	eid, err := s.CreateEntity(plane, vec.Vec3{X: 32, Y: 32, Z: 0})
	require.NoError(t, err)
	require.Empty(t, CheckInvariants(s))

	require.NoError(t, s.DestroyEntity(eid))
	require.Nil(t, s.Entity(eid))
	require.Empty(t, CheckInvariants(s))
}

func TestClientPawnInvariant(t *testing.T) {
	s, plane, _ := newTestStore(t)

	client := s.CreateClient("alice")
	eid, err := s.CreateEntity(plane, vec.Vec3{})
	require.NoError(t, err)

	require.NoError(t, s.AttachEntityToClient(eid, client))
	require.NoError(t, s.SetPawn(client, eid))
	require.Empty(t, CheckInvariants(s))

	c := s.Client(client)
	require.NotNil(t, c.Pawn)
	require.Equal(t, eid, *c.Pawn)
}

func TestSetPawnRejectsNonChild(t *testing.T) {
	s, plane, _ := newTestStore(t)

	client := s.CreateClient("bob")
	eid, err := s.CreateEntity(plane, vec.Vec3{})
	require.NoError(t, err)

	err = s.SetPawn(client, eid)
	require.Error(t, err)
	require.Equal(t, InvalidAttachment, ResultOf(err))
}

func TestDestroyChunkDestroysStructuresRecursively(t *testing.T) {
	s, plane, chunk := newTestStore(t)

	sid, err := s.CreateStructure(plane, chunk, vec.Vec3{X: 1, Y: 1, Z: 0}, 42)
	require.NoError(t, err)

	destroyed, err := s.DestroyChunk(chunk)
	require.NoError(t, err)
	require.Equal(t, []StructureID{sid}, destroyed)
	require.Nil(t, s.Structure(sid))
	require.Nil(t, s.Chunk(chunk))
}

func TestLimboPromotion(t *testing.T) {
	s, plane, _ := newTestStore(t)

	eid, err := s.CreateEntity(plane, vec.Vec3{})
	require.NoError(t, err)
	stablePlane := s.PlaneStable(plane)

	require.NoError(t, s.EnterLimbo(eid))
	e := s.Entity(eid)
	require.Equal(t, PlaneLimbo, e.Plane)
	require.Contains(t, s.LimboEntities(stablePlane), eid)
	require.Empty(t, CheckInvariants(s))

	require.NoError(t, s.PromoteFromLimbo(eid, plane))
	e = s.Entity(eid)
	require.Equal(t, plane, e.Plane)
	require.Empty(t, CheckInvariants(s))
}

func TestUpdateInventoryOnMissingIDIsAnError(t *testing.T) {
	s, _, _ := newTestStore(t)
	err := s.UpdateInventorySlot(InventoryID(9999), 0, ItemStack{ItemID: 1, Count: 1})
	require.Error(t, err)
	require.Equal(t, NoSuchID, ResultOf(err))
}

func TestMoveStructureCollision(t *testing.T) {
	s, plane, chunk := newTestStore(t)
	sid, err := s.CreateStructure(plane, chunk, vec.Vec3{}, 1)
	require.NoError(t, err)

	err = s.MoveStructure(sid, vec.Vec3{X: 5}, func(vec.Vec3) bool { return true })
	require.Error(t, err)
	require.Equal(t, CollisionWithStructure, ResultOf(err))

	err = s.MoveStructure(sid, vec.Vec3{X: 5}, func(vec.Vec3) bool { return false })
	require.NoError(t, err)
	require.Equal(t, vec.Vec3{X: 5}, s.Structure(sid).Pos)
}

func TestFragmentNotifiesHooks(t *testing.T) {
	s, plane, _ := newTestStore(t)
	h := &countingHooks{}
	f := NewFragment(s, h)

	eid, err := f.CreateEntity(plane, vec.Vec3{})
	require.NoError(t, err)
	require.Equal(t, 1, h.appeared)

	require.NoError(t, f.DestroyEntity(eid))
	require.Equal(t, 1, h.gone)
}

type countingHooks struct {
	NopHooks
	appeared, gone int
}

func (c *countingHooks) EntityAppeared(EntityID) { c.appeared++ }
func (c *countingHooks) EntityGone(EntityID)     { c.gone++ }
