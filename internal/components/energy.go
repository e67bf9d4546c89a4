// Package components implements the per-entity sidetables named in
// spec §2's "Component sidetables" row: state that rides beside the
// world store, indexed by EntityId, rather than living on
// worldstore.Entity itself. Motion-path state is the other half of
// that row — it already lives in internal/physics.Validator's queue
// map, since motion reconciliation and the energy gauge have no
// shared invariants that would justify merging them into one table.
// Grounded on internal/world/entity/manager.go's map-plus-RWMutex
// sidetable pattern, narrowed from a full Entity registry to a single
// scalar gauge per entity.
package components

import (
	"sync"

	"github.com/annel0/mmo-game/internal/worldstore"
)

// EnergyGauge is one entity's stamina/hunger-style resource: it
// depletes on actions that spend it and regenerates passively each
// tick up to Max.
type EnergyGauge struct {
	Current      float64
	Max          float64
	RegenPerTick float64
}

// EnergyTable is the sidetable of every tracked entity's EnergyGauge.
// Not every entity has one — only pawns and other gauge-bearing kinds
// are registered.
type EnergyTable struct {
	mu     sync.RWMutex
	gauges map[worldstore.EntityID]*EnergyGauge
}

// NewEnergyTable builds an empty table.
func NewEnergyTable() *EnergyTable {
	return &EnergyTable{gauges: make(map[worldstore.EntityID]*EnergyGauge)}
}

// Register starts tracking an entity's energy gauge, starting full.
func (t *EnergyTable) Register(entity worldstore.EntityID, max, regenPerTick float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gauges[entity] = &EnergyGauge{Current: max, Max: max, RegenPerTick: regenPerTick}
}

// Remove stops tracking an entity, e.g. on despawn.
func (t *EnergyTable) Remove(entity worldstore.EntityID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.gauges, entity)
}

// Get returns a copy of an entity's gauge, if tracked.
func (t *EnergyTable) Get(entity worldstore.EntityID) (EnergyGauge, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.gauges[entity]
	if !ok {
		return EnergyGauge{}, false
	}
	return *g, true
}

// Spend deducts amount from an entity's current energy, floored at
// zero. Reports whether the entity had enough to cover the full cost;
// callers that require sufficient energy should check this before
// committing the action it gates, rather than after.
func (t *EnergyTable) Spend(entity worldstore.EntityID, amount float64) (ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, tracked := t.gauges[entity]
	if !tracked {
		return false
	}
	if g.Current < amount {
		g.Current = 0
		return false
	}
	g.Current -= amount
	return true
}

// Tick regenerates every tracked entity's gauge by its RegenPerTick,
// capped at Max, and returns the entities whose value actually
// changed — the set the caller should turn into EnergyUpdate
// messages, rather than broadcasting every tick to every client.
func (t *EnergyTable) Tick() []worldstore.EntityID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changed []worldstore.EntityID
	for id, g := range t.gauges {
		if g.RegenPerTick == 0 || g.Current >= g.Max {
			continue
		}
		g.Current += g.RegenPerTick
		if g.Current > g.Max {
			g.Current = g.Max
		}
		changed = append(changed, id)
	}
	return changed
}
