package components

import (
	"testing"

	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

func TestRegisterStartsFull(t *testing.T) {
	tbl := NewEnergyTable()
	tbl.Register(1, 100, 5)

	g, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, 100.0, g.Current)
	require.Equal(t, 100.0, g.Max)
}

func TestSpendReducesAndFailsWhenInsufficient(t *testing.T) {
	tbl := NewEnergyTable()
	tbl.Register(1, 100, 0)

	require.True(t, tbl.Spend(1, 40))
	g, _ := tbl.Get(1)
	require.Equal(t, 60.0, g.Current)

	require.False(t, tbl.Spend(1, 1000))
	g, _ = tbl.Get(1)
	require.Equal(t, 0.0, g.Current, "insufficient spend still floors at zero")
}

func TestSpendUntrackedEntityFails(t *testing.T) {
	tbl := NewEnergyTable()
	require.False(t, tbl.Spend(99, 1))
}

func TestTickRegeneratesAndReportsOnlyChanged(t *testing.T) {
	tbl := NewEnergyTable()
	tbl.Register(1, 100, 10)
	tbl.Register(2, 100, 0) // never regenerates
	tbl.Spend(1, 50)

	changed := tbl.Tick()
	require.ElementsMatch(t, []worldstore.EntityID{1}, changed)

	g, _ := tbl.Get(1)
	require.Equal(t, 60.0, g.Current)
}

func TestTickCapsAtMax(t *testing.T) {
	tbl := NewEnergyTable()
	tbl.Register(1, 100, 10)
	tbl.Spend(1, 5)

	tbl.Tick()
	g, _ := tbl.Get(1)
	require.Equal(t, 100.0, g.Current)

	changed := tbl.Tick()
	require.Empty(t, changed, "already at max, nothing to report")
}

func TestRemoveStopsTracking(t *testing.T) {
	tbl := NewEnergyTable()
	tbl.Register(1, 100, 1)
	tbl.Remove(1)

	_, ok := tbl.Get(1)
	require.False(t, ok)
}
