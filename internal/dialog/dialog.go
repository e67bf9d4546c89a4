// Package dialog implements the per-client modal dialog state and
// local/global chat distribution named in spec §2's "Dialog and chat
// routing" row (spec.md:38) and described in §6.2's request/response
// opcode list (CraftRecipe/Chat/CloseDialog requests,
// OpenDialog/OpenCrafting/CancelDialog/ChatUpdate responses). Grounded
// on internal/eventbus's Filter-driven fan-out, narrowed from a
// general pub/sub bus with arbitrary event types down to chat's two
// fixed scopes, and on internal/world/entity/manager.go's
// map-plus-mutex per-client sidetable shape for dialog state.
package dialog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Kind enumerates the modal dialog types a client can have open at
// once (spec §6.2: OpenDialog vs. OpenCrafting are distinct responses).
type Kind uint8

const (
	KindNone Kind = iota
	KindGeneric
	KindCrafting
)

// State is one client's open modal dialog, if any.
type State struct {
	Kind    Kind
	Station worldstore.EntityID // crafting station entity, for KindCrafting
	Args    interface{}
}

// Table is the per-client dialog-state sidetable: at most one open
// dialog per client, closed explicitly (CloseDialog) or on disconnect.
type Table struct {
	mu   sync.Mutex
	open map[worldstore.ClientID]State
}

// NewTable builds an empty dialog-state table.
func NewTable() *Table {
	return &Table{open: make(map[worldstore.ClientID]State)}
}

// Open records a client's new modal dialog, replacing any previous one.
func (t *Table) Open(client worldstore.ClientID, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[client] = state
}

// Close clears a client's dialog state (CloseDialog, or disconnect).
func (t *Table) Close(client worldstore.ClientID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, client)
}

// Get returns a client's current dialog state, if any is open.
func (t *Table) Get(client worldstore.ClientID) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.open[client]
	return s, ok
}

// Scope names a chat message's distribution: local (vision-region
// fan-out) or global (every connected client).
type Scope uint8

const (
	ScopeLocal Scope = iota
	ScopeGlobal
)

// ParseChat splits a raw client Chat(msg) payload into its scope and
// body (spec scenario S2: Chat("/l hi") is local chat). An unrecognized
// or absent prefix defaults to local, since local is the narrower,
// safer default for a message an operator didn't explicitly broadcast
// server-wide.
func ParseChat(raw string) (Scope, string) {
	switch {
	case strings.HasPrefix(raw, "/g "):
		return ScopeGlobal, raw[len("/g "):]
	case strings.HasPrefix(raw, "/l "):
		return ScopeLocal, raw[len("/l "):]
	default:
		return ScopeLocal, raw
	}
}

// FormatChatUpdate renders the wire-format ChatUpdate body: spec
// scenario S2 names the exact shape "&l\t<A>\thi" for local chat;
// global chat uses the same tab-separated shape tagged "&g".
func FormatChatUpdate(scope Scope, sender, body string) string {
	tag := "l"
	if scope == ScopeGlobal {
		tag = "g"
	}
	return fmt.Sprintf("&%s\t%s\t%s", tag, sender, body)
}

// Router fans a parsed chat message out to its recipients through the
// outgoing message queue. It holds no reference to vision or the
// world store: callers supply the recipient set, so Router stays
// usable from any handler family without itself widening which
// subsystems that handler's view exposes.
type Router struct {
	queue *messages.Queue
}

// NewRouter builds a chat router over the engine's outgoing queue.
func NewRouter(queue *messages.Queue) *Router {
	return &Router{queue: queue}
}

// RouteLocal enqueues a ChatUpdate to every recipient the caller's
// collect function reports (typically a WorldView's VisionRead.ObjectAt
// over the sender's chunk, spec scenario S2's 5x5-region fan-out).
func (r *Router) RouteLocal(senderName, body string, collect func(notify func(worldstore.ClientID))) {
	text := FormatChatUpdate(ScopeLocal, senderName, body)
	collect(func(c worldstore.ClientID) {
		r.queue.Enqueue(c, messages.Message{Kind: messages.KindChat, Args: text})
	})
}

// RouteGlobal broadcasts a ChatUpdate to every client in recipients
// (spec §4.8: "broadcast helpers ... to all clients").
func (r *Router) RouteGlobal(senderName, body string, recipients []worldstore.ClientID) {
	text := FormatChatUpdate(ScopeGlobal, senderName, body)
	r.queue.Broadcast(recipients, messages.Message{Kind: messages.KindChat, Args: text})
}
