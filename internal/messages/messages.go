// Package messages implements the outgoing message queue and wire-ID
// map described in spec §4.8. Grounded on internal/protocol/serializer.go's
// MessageSerializer (a protobuf envelope carrying a type tag, a
// timestamp, and a payload) generalized from a single protobuf
// marshal call into a tagged Go variant the engine can build without
// depending on generated proto code directly, and on
// internal/network/message.go's per-kind JSON request/response structs
// for the idea of one Go type per wire message kind.
package messages

import (
	"sync"
	"time"

	"github.com/annel0/mmo-game/internal/worldstore"
)

// Kind tags the protocol response a Message carries.
type Kind uint16

const (
	KindChunkData Kind = iota
	KindEntityAppear
	KindEntityMove
	KindEntityGone
	KindStructureAppear
	KindStructureGone
	KindInventoryUpdate
	KindConflict
	KindDialogOpen
	KindDialogClose
	KindChat
	KindEnergyUpdate
)

// Message is a tagged outgoing variant: Kind identifies the protocol
// response, Args carries its kind-specific payload (one of the
// Args*-suffixed structs below, or any Encoder-specific type — the
// queue itself is payload-agnostic).
type Message struct {
	Kind Kind
	Args interface{}
}

// WireID is the stdio transport's per-connection multiplexing channel
// id (spec §6.1: "u16 wire_id || u16 length || payload"; wire_id == 0
// is the control channel, every other value names one connected
// client's byte stream).
type WireID uint32

// IDMap is the bidirectional (client transient ID ↔ wire ID) map
// named in spec §4.8, populated on connect and dropped on disconnect.
// It is the single source of truth both the engine (addressing
// messages by worldstore.ClientID) and internal/wire (demultiplexing
// stdio frames by WireID) consult to cross from one identifier space
// to the other.
type IDMap struct {
	mu       sync.RWMutex
	toWire   map[worldstore.ClientID]WireID
	fromWire map[WireID]worldstore.ClientID
}

// NewIDMap builds an empty wire-ID map.
func NewIDMap() *IDMap {
	return &IDMap{
		toWire:   make(map[worldstore.ClientID]WireID),
		fromWire: make(map[WireID]worldstore.ClientID),
	}
}

// Connect records the wire_id the stdio transport assigned a newly
// connected client's channel.
func (m *IDMap) Connect(client worldstore.ClientID, wire WireID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toWire[client] = wire
	m.fromWire[wire] = client
}

// Disconnect drops a client's wire-ID mapping in both directions.
func (m *IDMap) Disconnect(client worldstore.ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wire, ok := m.toWire[client]; ok {
		delete(m.fromWire, wire)
	}
	delete(m.toWire, client)
}

// WireID resolves the stdio channel id for a connected client.
func (m *IDMap) WireID(client worldstore.ClientID) (WireID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.toWire[client]
	return w, ok
}

// ClientID resolves the connected client owning a stdio channel id.
func (m *IDMap) ClientID(wire WireID) (worldstore.ClientID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.fromWire[wire]
	return c, ok
}

// Clients returns every currently connected client, in no particular
// order — the set a global broadcast (spec §4.8's "to all clients")
// addresses.
func (m *IDMap) Clients() []worldstore.ClientID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]worldstore.ClientID, 0, len(m.toWire))
	for c := range m.toWire {
		out = append(out, c)
	}
	return out
}

// outbound is one queued (wire_id-addressed client, message) pair.
type outbound struct {
	client worldstore.ClientID
	msg    Message
}

// Queue is the per-tick outgoing message queue, drained each frame
// into the byte-level encoder (spec §4.8, §4.9 step 4).
type Queue struct {
	mu      sync.Mutex
	pending []outbound

	// clockEpoch anchors the real-time<->world-time offset: world-time
	// zero corresponds to this wall-clock instant.
	clockEpoch time.Time
}

// NewQueue builds an empty queue anchored at epoch.
func NewQueue(epoch time.Time) *Queue {
	return &Queue{clockEpoch: epoch}
}

// Enqueue appends a message addressed to one client.
func (q *Queue) Enqueue(client worldstore.ClientID, msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, outbound{client: client, msg: msg})
}

// Broadcast enqueues the same message for every client in the set
// (typically the result of a vision component fan-out callback).
func (q *Queue) Broadcast(clients []worldstore.ClientID, msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range clients {
		q.pending = append(q.pending, outbound{client: c, msg: msg})
	}
}

// Encoder is the byte-level wire encoder the queue drains into; it is
// the external collaborator named in spec §1, implemented by
// internal/wire over the stdio front-end.
type Encoder interface {
	EncodeMessage(client worldstore.ClientID, msg Message) ([]byte, error)
	Send(client worldstore.ClientID, frame []byte) error
}

// Drain flushes every queued message through enc, in enqueue order,
// clearing the queue. Matches spec §4.9 step 4: "Flush the outgoing
// message queue to the wire."
func (q *Queue) Drain(enc Encoder) error {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, ob := range batch {
		frame, err := enc.EncodeMessage(ob.client, ob.msg)
		if err != nil {
			return err
		}
		if err := enc.Send(ob.client, frame); err != nil {
			return err
		}
	}
	return nil
}

// WorldTime converts a wall-clock instant into the queue's world-time
// offset in milliseconds since epoch, for stamping per-tick positions
// the client can interpret against its own clock.
func (q *Queue) WorldTime(t time.Time) int64 {
	return t.Sub(q.clockEpoch).Milliseconds()
}
