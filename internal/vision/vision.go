// Package vision implements the interest-region pubsub described in
// spec §4.5: each client subscribes to the 5×5 chunk square around its
// pawn, and is notified as objects appear, move, or vanish within it.
// Grounded on internal/eventbus/eventbus.go's subscriber-bookkeeping
// idiom, specialized from a single filtered fan-out list to four
// position-keyed bidirectional maps (terrain, entities, structures,
// inventories) so that membership changes are O(moved cells) rather
// than O(subscriber count).
package vision

import (
	"sync"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// viewRadius is half the side of the 5×5 interest square.
const viewRadius = 2

// ClientID is the subscriber identity, an alias of worldstore.ClientID.
type ClientID = worldstore.ClientID

// chanKey is a publisher key for the three chunk-scoped channels
// (terrain, entities, structures).
type chanKey struct {
	plane worldstore.PlaneID
	pos   vec.Vec2
}

// channel is a bidirectional set-map: for each publisher key, the set
// of subscribed clients; for each client, the set of subscribed keys.
type channel struct {
	mu       sync.RWMutex
	bySub    map[chanKey]map[ClientID]struct{}
	byClient map[ClientID]map[chanKey]struct{}
}

func newChannel() *channel {
	return &channel{
		bySub:    make(map[chanKey]map[ClientID]struct{}),
		byClient: make(map[ClientID]map[chanKey]struct{}),
	}
}

func (c *channel) subscribe(client ClientID, key chanKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bySub[key] == nil {
		c.bySub[key] = make(map[ClientID]struct{})
	}
	c.bySub[key][client] = struct{}{}
	if c.byClient[client] == nil {
		c.byClient[client] = make(map[chanKey]struct{})
	}
	c.byClient[client][key] = struct{}{}
}

func (c *channel) unsubscribe(client ClientID, key chanKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if subs, ok := c.bySub[key]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(c.bySub, key)
		}
	}
	if keys, ok := c.byClient[client]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byClient, client)
		}
	}
}

func (c *channel) subscribersAt(key chanKey) []ClientID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subs := c.bySub[key]
	out := make([]ClientID, 0, len(subs))
	for id := range subs {
		out = append(out, id)
	}
	return out
}

func (c *channel) keysOf(client ClientID) map[chanKey]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[chanKey]struct{}, len(c.byClient[client]))
	for k := range c.byClient[client] {
		out[k] = struct{}{}
	}
	return out
}

// InventoryChannel is keyed directly by InventoryID rather than
// position, since inventories move with their owning object.
type inventoryChannel struct {
	mu       sync.RWMutex
	bySub    map[worldstore.InventoryID]map[ClientID]struct{}
	byClient map[ClientID]map[worldstore.InventoryID]struct{}
}

func newInventoryChannel() *inventoryChannel {
	return &inventoryChannel{
		bySub:    make(map[worldstore.InventoryID]map[ClientID]struct{}),
		byClient: make(map[ClientID]map[worldstore.InventoryID]struct{}),
	}
}

func (c *inventoryChannel) subscribe(client ClientID, inv worldstore.InventoryID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bySub[inv] == nil {
		c.bySub[inv] = make(map[ClientID]struct{})
	}
	c.bySub[inv][client] = struct{}{}
	if c.byClient[client] == nil {
		c.byClient[client] = make(map[worldstore.InventoryID]struct{})
	}
	c.byClient[client][inv] = struct{}{}
}

func (c *inventoryChannel) unsubscribe(client ClientID, inv worldstore.InventoryID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if subs, ok := c.bySub[inv]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(c.bySub, inv)
		}
	}
	if invs, ok := c.byClient[client]; ok {
		delete(invs, inv)
		if len(invs) == 0 {
			delete(c.byClient, client)
		}
	}
}

func (c *inventoryChannel) inventoriesOf(client ClientID) []worldstore.InventoryID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	invs := c.byClient[client]
	out := make([]worldstore.InventoryID, 0, len(invs))
	for inv := range invs {
		out = append(out, inv)
	}
	return out
}

func (c *inventoryChannel) subscribersOf(inv worldstore.InventoryID) []ClientID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subs := c.bySub[inv]
	out := make([]ClientID, 0, len(subs))
	for id := range subs {
		out = append(out, id)
	}
	return out
}

// ObjectKind names which channel an object-level pubsub call targets.
type ObjectKind uint8

const (
	ObjectTerrain ObjectKind = iota
	ObjectEntity
	ObjectStructure
)

// Vision is the per-engine pubsub state for all four channels.
type Vision struct {
	terrain    *channel
	entities   *channel
	structures *channel
	inventory  *inventoryChannel

	mu    sync.Mutex
	views map[ClientID]view
}

type view struct {
	plane worldstore.PlaneID
	cpos  vec.Vec2
	set   bool
}

// New builds an empty Vision component.
func New() *Vision {
	return &Vision{
		terrain:    newChannel(),
		entities:   newChannel(),
		structures: newChannel(),
		inventory:  newInventoryChannel(),
		views:      make(map[ClientID]view),
	}
}

func (v *Vision) chanFor(kind ObjectKind) *channel {
	switch kind {
	case ObjectTerrain:
		return v.terrain
	case ObjectEntity:
		return v.entities
	case ObjectStructure:
		return v.structures
	default:
		return v.terrain
	}
}

func square(center vec.Vec2, radius int) []vec.Vec2 {
	cells := make([]vec.Vec2, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			cells = append(cells, vec.Vec2{X: center.X + dx, Y: center.Y + dy})
		}
	}
	return cells
}

// SetView recomputes a client's 5×5 interest region, calling onAppear
// for every (plane,cpos,kind) newly in view and onGone for every one
// newly out of view, across all three chunk-scoped channels.
func (v *Vision) SetView(client ClientID, plane worldstore.PlaneID, cpos vec.Vec2, onAppear, onGone func(plane worldstore.PlaneID, pos vec.Vec2, kind ObjectKind)) {
	v.mu.Lock()
	old, had := v.views[client]
	v.views[client] = view{plane: plane, cpos: cpos, set: true}
	v.mu.Unlock()

	newCells := make(map[vec.Vec2]struct{})
	for _, c := range square(cpos, viewRadius) {
		newCells[c] = struct{}{}
	}

	oldCells := make(map[vec.Vec2]struct{})
	samePlane := had && old.plane == plane
	if samePlane {
		for _, c := range square(old.cpos, viewRadius) {
			oldCells[c] = struct{}{}
		}
	}

	kinds := []ObjectKind{ObjectTerrain, ObjectEntity, ObjectStructure}

	if had && !samePlane {
		for _, c := range square(old.cpos, viewRadius) {
			key := chanKey{plane: old.plane, pos: c}
			for _, k := range kinds {
				ch := v.chanFor(k)
				ch.unsubscribe(client, key)
				if onGone != nil {
					onGone(old.plane, c, k)
				}
			}
		}
	} else {
		for c := range oldCells {
			if _, stillIn := newCells[c]; stillIn {
				continue
			}
			key := chanKey{plane: plane, pos: c}
			for _, k := range kinds {
				ch := v.chanFor(k)
				ch.unsubscribe(client, key)
				if onGone != nil {
					onGone(plane, c, k)
				}
			}
		}
	}

	for c := range newCells {
		if _, wasIn := oldCells[c]; wasIn && samePlane {
			continue
		}
		key := chanKey{plane: plane, pos: c}
		for _, k := range kinds {
			ch := v.chanFor(k)
			ch.subscribe(client, key)
			if onAppear != nil {
				onAppear(plane, c, k)
			}
		}
	}
}

// DropClient removes a client from every channel it's subscribed to
// (connection close).
func (v *Vision) DropClient(client ClientID) {
	v.mu.Lock()
	delete(v.views, client)
	v.mu.Unlock()

	for _, ch := range []*channel{v.terrain, v.entities, v.structures} {
		for key := range ch.keysOf(client) {
			ch.unsubscribe(client, key)
		}
	}
	for _, inv := range v.inventory.inventoriesOf(client) {
		v.inventory.unsubscribe(client, inv)
	}
}

// ObjectAt enumerates every client whose interest region includes
// (plane,pos) for the given channel, invoking fn for each. Used by
// object_add/move/remove and by update fan-out.
func (v *Vision) ObjectAt(kind ObjectKind, plane worldstore.PlaneID, pos vec.Vec2, fn func(ClientID)) {
	key := chanKey{plane: plane, pos: pos}
	for _, client := range v.chanFor(kind).subscribersAt(key) {
		fn(client)
	}
}

// SubscribeInventory adds a client to an inventory's subscriber set
// (e.g. when its owning structure/entity/client enters the client's
// chunk-scoped view).
func (v *Vision) SubscribeInventory(client ClientID, inv worldstore.InventoryID) {
	v.inventory.subscribe(client, inv)
}

// UnsubscribeInventory removes a client from an inventory's subscriber
// set.
func (v *Vision) UnsubscribeInventory(client ClientID, inv worldstore.InventoryID) {
	v.inventory.unsubscribe(client, inv)
}

// InventorySubscribers enumerates clients watching an inventory.
func (v *Vision) InventorySubscribers(inv worldstore.InventoryID, fn func(ClientID)) {
	for _, client := range v.inventory.subscribersOf(inv) {
		fn(client)
	}
}
