package vision

import (
	"testing"

	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

func TestSetViewAppearsAndGoes(t *testing.T) {
	v := New()
	client := worldstore.ClientID(1)
	plane := worldstore.PlaneID(1)

	var appeared []vec.Vec2
	v.SetView(client, plane, vec.Vec2{X: 0, Y: 0}, func(p worldstore.PlaneID, pos vec.Vec2, k ObjectKind) {
		appeared = append(appeared, pos)
	}, nil)
	require.Len(t, appeared, 75) // 5x5 cells * 3 chunk-scoped channels

	var moved, gone []vec.Vec2
	v.SetView(client, plane, vec.Vec2{X: 1, Y: 0}, func(p worldstore.PlaneID, pos vec.Vec2, k ObjectKind) {
		moved = append(moved, pos)
	}, func(p worldstore.PlaneID, pos vec.Vec2, k ObjectKind) {
		gone = append(gone, pos)
	})
	// Sliding the 5x5 window by one column: one column newly in view,
	// one column newly out, times 3 channels and 5 rows.
	require.Len(t, moved, 15)
	require.Len(t, gone, 15)
}

func TestObjectAtFanOut(t *testing.T) {
	v := New()
	client := worldstore.ClientID(1)
	plane := worldstore.PlaneID(1)
	v.SetView(client, plane, vec.Vec2{X: 0, Y: 0}, nil, nil)

	var notified []worldstore.ClientID
	v.ObjectAt(ObjectEntity, plane, vec.Vec2{X: 1, Y: 1}, func(c worldstore.ClientID) {
		notified = append(notified, c)
	})
	require.Contains(t, notified, client)

	notified = nil
	v.ObjectAt(ObjectEntity, plane, vec.Vec2{X: 10, Y: 10}, func(c worldstore.ClientID) {
		notified = append(notified, c)
	})
	require.Empty(t, notified)
}

func TestDropClientRemovesAllSubscriptions(t *testing.T) {
	v := New()
	client := worldstore.ClientID(1)
	plane := worldstore.PlaneID(1)
	v.SetView(client, plane, vec.Vec2{X: 0, Y: 0}, nil, nil)
	v.SubscribeInventory(client, worldstore.InventoryID(5))

	v.DropClient(client)

	var notified []worldstore.ClientID
	v.ObjectAt(ObjectEntity, plane, vec.Vec2{X: 0, Y: 0}, func(c worldstore.ClientID) {
		notified = append(notified, c)
	})
	require.Empty(t, notified)

	var invSubs []worldstore.ClientID
	v.InventorySubscribers(worldstore.InventoryID(5), func(c worldstore.ClientID) {
		invSubs = append(invSubs, c)
	})
	require.Empty(t, invSubs)
}
