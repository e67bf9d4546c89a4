package messages

import (
	"errors"
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

func TestIDMapAssignsAndResolvesStableWireIDs(t *testing.T) {
	m := NewIDMap()
	client := worldstore.ClientID(1)
	m.Connect(client, WireID(7))

	wire, ok := m.WireID(client)
	require.True(t, ok)
	require.Equal(t, WireID(7), wire)

	resolved, ok := m.ClientID(wire)
	require.True(t, ok)
	require.Equal(t, client, resolved)
}

func TestIDMapClientsReturnsConnectedSet(t *testing.T) {
	m := NewIDMap()
	m.Connect(worldstore.ClientID(1), WireID(1))
	m.Connect(worldstore.ClientID(2), WireID(2))

	require.ElementsMatch(t, []worldstore.ClientID{1, 2}, m.Clients())

	m.Disconnect(worldstore.ClientID(1))
	require.ElementsMatch(t, []worldstore.ClientID{2}, m.Clients())
}

func TestIDMapDisconnectDropsNamespace(t *testing.T) {
	m := NewIDMap()
	client := worldstore.ClientID(1)
	m.Connect(client, WireID(5))

	m.Disconnect(client)

	_, ok := m.WireID(client)
	require.False(t, ok)
	_, ok = m.ClientID(WireID(5))
	require.False(t, ok)
}

func TestIDMapReconnectReassignsWireID(t *testing.T) {
	m := NewIDMap()
	client := worldstore.ClientID(1)
	m.Connect(client, WireID(5))
	m.Disconnect(client)
	m.Connect(client, WireID(9))

	wire, ok := m.WireID(client)
	require.True(t, ok)
	require.Equal(t, WireID(9), wire)
	_, ok = m.ClientID(WireID(5))
	require.False(t, ok)
}

type recordingEncoder struct {
	sent []struct {
		client worldstore.ClientID
		msg    Message
	}
}

func (e *recordingEncoder) EncodeMessage(client worldstore.ClientID, msg Message) ([]byte, error) {
	e.sent = append(e.sent, struct {
		client worldstore.ClientID
		msg    Message
	}{client, msg})
	return []byte("frame"), nil
}

func (e *recordingEncoder) Send(client worldstore.ClientID, frame []byte) error {
	return nil
}

func TestQueueDrainFlushesInOrderAndClears(t *testing.T) {
	q := NewQueue(time.Unix(0, 0))
	a := worldstore.ClientID(1)
	b := worldstore.ClientID(2)

	q.Enqueue(a, Message{Kind: KindChunkData})
	q.Enqueue(b, Message{Kind: KindChat})

	enc := &recordingEncoder{}
	require.NoError(t, q.Drain(enc))
	require.Len(t, enc.sent, 2)
	require.Equal(t, a, enc.sent[0].client)
	require.Equal(t, KindChunkData, enc.sent[0].msg.Kind)
	require.Equal(t, b, enc.sent[1].client)

	// A second drain with nothing queued sends nothing.
	enc2 := &recordingEncoder{}
	require.NoError(t, q.Drain(enc2))
	require.Empty(t, enc2.sent)
}

func TestQueueBroadcastEnqueuesForEveryClient(t *testing.T) {
	q := NewQueue(time.Unix(0, 0))
	clients := []worldstore.ClientID{1, 2, 3}
	q.Broadcast(clients, Message{Kind: KindDialogOpen})

	enc := &recordingEncoder{}
	require.NoError(t, q.Drain(enc))
	require.Len(t, enc.sent, 3)
}

type failingEncoder struct{}

func (failingEncoder) EncodeMessage(client worldstore.ClientID, msg Message) ([]byte, error) {
	return nil, errors.New("boom")
}
func (failingEncoder) Send(client worldstore.ClientID, frame []byte) error { return nil }

func TestQueueDrainPropagatesEncodeError(t *testing.T) {
	q := NewQueue(time.Unix(0, 0))
	q.Enqueue(worldstore.ClientID(1), Message{Kind: KindChunkData})
	require.Error(t, q.Drain(failingEncoder{}))
}

func TestWorldTimeOffsetFromEpoch(t *testing.T) {
	epoch := time.Unix(1000, 0)
	q := NewQueue(epoch)
	later := epoch.Add(2500 * time.Millisecond)
	require.Equal(t, int64(2500), q.WorldTime(later))
}
