package physics

import (
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

func newTestOracle(t *testing.T) (*worldstore.Store, worldstore.PlaneID, *Oracle) {
	t.Helper()
	s := worldstore.NewStore()
	plane := s.CreatePlane("forest")
	chunk, err := s.CreateChunk(plane, vec.Vec2{X: 0, Y: 0}, false)
	require.NoError(t, err)
	require.NoError(t, s.SetBlock(chunk, vec.Vec3{X: 5, Y: 5, Z: 0}, worldstore.BlockID(1)))

	shapes := NewShapeTable(map[worldstore.BlockID]Shape{
		0: ShapeEmpty,
		1: ShapeSolid,
	})
	return s, plane, NewOracle(s, shapes)
}

func TestShapeAtLoadedAndUnloaded(t *testing.T) {
	_, plane, oracle := newTestOracle(t)

	require.Equal(t, ShapeSolid, oracle.ShapeAt(plane, vec.Vec3{X: 5, Y: 5, Z: 0}))
	require.Equal(t, ShapeEmpty, oracle.ShapeAt(plane, vec.Vec3{X: 1, Y: 1, Z: 0}))
	// Chunk (1,0) is never loaded: fails closed to Solid.
	require.Equal(t, ShapeSolid, oracle.ShapeAt(plane, vec.Vec3{X: 20, Y: 1, Z: 0}))
}

func TestValidatorStartConflict(t *testing.T) {
	s, plane, oracle := newTestOracle(t)
	eid, err := s.CreateEntity(plane, vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)

	v := NewValidator(s, oracle)
	now := time.Now()
	conflicts := v.Advance(now)
	require.Empty(t, conflicts)

	v.Submit(eid, MotionEvent{Kind: EventStart, Time: now, ExpectedPos: vec.Vec3Float{X: 99, Y: 99, Z: 99}})
	conflicts = v.Advance(now)
	require.Len(t, conflicts, 1)
	require.Equal(t, eid, conflicts[0].Entity)
}

func TestValidatorUpdateShortensAtCollision(t *testing.T) {
	s, plane, oracle := newTestOracle(t)
	eid, err := s.CreateEntity(plane, vec.Vec3{X: 0, Y: 5, Z: 0})
	require.NoError(t, err)

	v := NewValidator(s, oracle)
	now := time.Now()
	v.Submit(eid, MotionEvent{
		Kind:        EventUpdate,
		Time:        now,
		ExpectedPos: vec.Vec3Float{X: 0, Y: 5, Z: 0},
		Velocity:    vec.Vec3Float{X: 20, Y: 0, Z: 0}, // walks straight into the block at x=5
	})
	conflicts := v.Advance(now)
	require.Empty(t, conflicts)

	e := s.Entity(eid)
	require.NotNil(t, e.Motion.EndTime)
	require.True(t, e.Motion.EndTime.Before(now.Add(2*time.Second)))
}

func TestValidatorBlockedCapsEndTime(t *testing.T) {
	s, plane, oracle := newTestOracle(t)
	eid, err := s.CreateEntity(plane, vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)

	v := NewValidator(s, oracle)
	now := time.Now()
	require.NoError(t, s.SetMotion(eid, worldstore.Motion{StartPos: vec.Vec3{}, Velocity: vec.Vec3Float{X: 1}, StartTime: now}))

	blockedAt := now.Add(500 * time.Millisecond)
	v.Submit(eid, MotionEvent{Kind: EventBlocked, Time: now, BlockedAt: blockedAt})
	conflicts := v.Advance(now)
	require.Empty(t, conflicts)

	e := s.Entity(eid)
	require.NotNil(t, e.Motion.EndTime)
	require.Equal(t, blockedAt, *e.Motion.EndTime)
}
