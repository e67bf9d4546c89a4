package physics

import (
	"time"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// MotionEventKind tags a client-submitted motion update (spec §4.6).
type MotionEventKind uint8

const (
	EventStart MotionEventKind = iota
	EventUpdate
	EventBlocked
)

// MotionEvent is one entry in a pawn-owning client's per-tick update
// sequence.
type MotionEvent struct {
	Kind MotionEventKind
	Time time.Time

	// EventStart
	ExpectedPos vec.Vec3Float

	// EventUpdate
	Velocity  vec.Vec3Float
	InputBits uint32

	// EventBlocked
	BlockedAt time.Time
}

// Conflict is emitted when a client's expected start position diverges
// from the server's computed position; the client must resync.
type Conflict struct {
	Entity      worldstore.EntityID
	ServerPos   vec.Vec3Float
	ExpectedPos vec.Vec3Float
}

// conflictEpsilon bounds float drift before a Start event is treated as
// a real desync rather than rounding noise.
const conflictEpsilon = 0.01

// Validator drains queued motion events per entity per tick, updating
// worldstore.Motion segments and using the collision Oracle to shorten
// segments that would run into solid terrain (spec §4.6). Grounded on
// the teacher's CanMoveToPosition (collision.go) generalized from a
// single blockChecker callback to the Oracle's 3D shape queries, and
// from a single collision test to the richer start/update/blocked event
// sequence spec §4.6 requires.
type Validator struct {
	store  *worldstore.Store
	oracle *Oracle
	queues map[worldstore.EntityID][]MotionEvent
}

// NewValidator builds a motion validator over a store and its oracle.
func NewValidator(store *worldstore.Store, oracle *Oracle) *Validator {
	return &Validator{
		store:  store,
		oracle: oracle,
		queues: make(map[worldstore.EntityID][]MotionEvent),
	}
}

// Submit appends a client's motion event to its entity's queue.
func (v *Validator) Submit(entity worldstore.EntityID, ev MotionEvent) {
	v.queues[entity] = append(v.queues[entity], ev)
}

// Advance drains every event whose timestamp is <= now across all
// queued entities, applying them in the order spec §4.6 lists, and
// returns any resync conflicts raised along the way.
func (v *Validator) Advance(now time.Time) []Conflict {
	var conflicts []Conflict
	for entity, queue := range v.queues {
		remaining := queue[:0]
		for _, ev := range queue {
			if ev.Time.After(now) {
				remaining = append(remaining, ev)
				continue
			}
			if c := v.apply(entity, ev, now); c != nil {
				conflicts = append(conflicts, *c)
			}
		}
		if len(remaining) == 0 {
			delete(v.queues, entity)
		} else {
			v.queues[entity] = remaining
		}
	}
	return conflicts
}

func (v *Validator) apply(entity worldstore.EntityID, ev MotionEvent, now time.Time) *Conflict {
	e := v.store.Entity(entity)
	if e == nil {
		return nil
	}

	switch ev.Kind {
	case EventStart:
		server := e.Motion.PositionAt(ev.Time)
		if !approxEqual(server, ev.ExpectedPos) {
			return &Conflict{Entity: entity, ServerPos: server, ExpectedPos: ev.ExpectedPos}
		}
		return nil

	case EventUpdate:
		seg := worldstore.Motion{
			StartPos:  roundVec3(ev.ExpectedPos),
			Velocity:  ev.Velocity,
			StartTime: ev.Time,
		}
		v.shortenForCollision(e.Plane, &seg)
		_ = v.store.SetMotion(entity, seg)
		return nil

	case EventBlocked:
		m := e.Motion
		if m.EndTime == nil || ev.BlockedAt.Before(*m.EndTime) {
			m.EndTime = &ev.BlockedAt
			_ = v.store.SetMotion(entity, m)
		}
		return nil
	}
	return nil
}

// shortenForCollision walks the motion segment forward in fixed steps
// and caps EndTime at the first tick whose extrapolated position lands
// in an impassable block, so the server's own collision resolution
// never needs to run the client's segment past a wall.
func (v *Validator) shortenForCollision(plane worldstore.PlaneID, m *worldstore.Motion) {
	const step = 50 * time.Millisecond
	const horizon = 2 * time.Second

	for elapsed := time.Duration(0); elapsed <= horizon; elapsed += step {
		t := m.StartTime.Add(elapsed)
		pos := m.PositionAt(t)
		block := vec.Vec3{X: int(pos.X), Y: int(pos.Y), Z: int(pos.Z)}
		if !Passable(v.oracle.ShapeAt(plane, block)) {
			end := t
			m.EndTime = &end
			return
		}
	}
}

func approxEqual(a, b vec.Vec3Float) bool {
	return absf(a.X-b.X) <= conflictEpsilon &&
		absf(a.Y-b.Y) <= conflictEpsilon &&
		absf(a.Z-b.Z) <= conflictEpsilon
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func roundVec3(v vec.Vec3Float) vec.Vec3 {
	return vec.Vec3{X: int(v.X + 0.5), Y: int(v.Y + 0.5), Z: int(v.Z + 0.5)}
}
