package engine

import (
	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// WorldAccess is the subset of *worldstore.Store a WorldView handler
// is expected to touch. It is a thin typed wrapper rather than the
// bare *worldstore.Store so that future subsystem splits (e.g. giving
// inventory handlers a narrower view) can be introduced without
// widening what a WorldView already exposes.
type WorldAccess struct {
	store *worldstore.Store
}

func (a *WorldAccess) Store() *worldstore.Store { return a.store }

// MessageAccess wraps the outgoing queue and wire-ID map shared by
// every view (spec §4.8); sharing it is safe because Queue and IDMap
// are each internally synchronized for sequential, non-overlapping
// calls from one engine goroutine.
type MessageAccess struct {
	queue *messages.Queue
	ids   *messages.IDMap
}

func (a *MessageAccess) Queue() *messages.Queue { return a.queue }
func (a *MessageAccess) IDs() *messages.IDMap   { return a.ids }

// VisionAccess wraps the subscription/interest-region component.
type VisionAccess struct {
	vision *vision.Vision
}

func (a *VisionAccess) Vision() *vision.Vision { return a.vision }

// VisionReadAccess exposes only vision's read side — ObjectAt and
// InventorySubscribers — so a WorldView handler can fan out
// notifications about a change it just made (a block edit, an entity
// spawn) without being able to mutate subscription state. SetView and
// DropClient stay exclusive to VisionAccess/VisionView: that mutable
// surface is the one the spec's non-overlap example actually cares
// about, not a read-only lookup used purely for addressing messages.
type VisionReadAccess struct {
	vision *vision.Vision
}

func (a *VisionReadAccess) ObjectAt(kind vision.ObjectKind, plane worldstore.PlaneID, pos vec.Vec2, fn func(worldstore.ClientID)) {
	a.vision.ObjectAt(kind, plane, pos, fn)
}

func (a *VisionReadAccess) InventorySubscribers(inv worldstore.InventoryID, fn func(worldstore.ClientID)) {
	a.vision.InventorySubscribers(inv, fn)
}

// PhysicsAccess wraps the motion validator consulted by the per-tick
// reconciliation step; the collision oracle it walks against is an
// implementation detail of the validator, not exposed separately here.
type PhysicsAccess struct {
	validator *physics.Validator
}

func (a *PhysicsAccess) Validator() *physics.Validator { return a.validator }
