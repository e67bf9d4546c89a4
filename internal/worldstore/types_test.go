package worldstore

import (
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/require"
)

func TestMotionPositionAtClampsToEnd(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Second)
	m := Motion{
		StartPos:  vec.Vec3{X: 0, Y: 0, Z: 0},
		Velocity:  vec.Vec3Float{X: 10, Y: 0, Z: 0},
		StartTime: start,
		EndTime:   &end,
	}

	mid := m.PositionAt(start.Add(1 * time.Second))
	require.InDelta(t, 10.0, mid.X, 0.001)

	after := m.PositionAt(start.Add(5 * time.Second))
	require.InDelta(t, 20.0, after.X, 0.001, "position must clamp at end_time")

	before := m.PositionAt(start.Add(-1 * time.Second))
	require.InDelta(t, 0.0, before.X, 0.001, "position must clamp at start_time")
}

func TestMotionUnboundedVelocity(t *testing.T) {
	start := time.Now()
	m := Motion{
		StartPos:  vec.Vec3{X: 0, Y: 0, Z: 0},
		Velocity:  vec.Vec3Float{X: 5, Y: 0, Z: 0},
		StartTime: start,
	}
	pos := m.PositionAt(start.Add(3 * time.Second))
	require.InDelta(t, 15.0, pos.X, 0.001)
}

func TestActivityInterruptible(t *testing.T) {
	require.True(t, Activity{Kind: ActivityWalk}.Interruptible())
	require.False(t, Activity{Kind: ActivityWork}.Interruptible())
	require.False(t, Activity{Kind: ActivityTeleport}.Interruptible())
}
