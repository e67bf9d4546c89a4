package main

import (
	"github.com/annel0/mmo-game/internal/dialog"
	"github.com/annel0/mmo-game/internal/engine"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/wire"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Control-channel requests (spec §6.3) need store access to create or
// destroy the worldstore.Client a connection maps to, and the world
// store is exclusively owned by the engine goroutine (spec §5). They
// are bridged onto the existing InputWorld dispatch (rather than a
// dedicated InputKind) at these reserved high-numbered ops, since
// WorldView already exposes exactly the Store+Messages access they
// need and no other InputWorld op will ever collide with them.
const (
	opControlAddClient uint16 = 0xff00 + iota
	opControlRemoveClient
)

type controlAddClientPayload struct {
	msg    wire.AddClient
	wireID uint16
}

type controlRemoveClientPayload struct {
	wireID uint16
}

// registerControlHandlers wires the two control-channel operations the
// front-end reader loop needs the engine thread to perform: creating a
// worldstore.Client and binding it to its wire-ID on AddClient, and
// tearing both down on RemoveClient/disconnect.
func registerControlHandlers(e *engine.Engine, ids *messages.IDMap, logger *logging.Logger) {
	e.RegisterWorldHandler(opControlAddClient, func(v *engine.WorldView, msg engine.InputMessage) {
		p, ok := msg.Payload.(controlAddClientPayload)
		if !ok {
			logger.Error("server: malformed AddClient payload")
			return
		}
		client := v.Store.Store().CreateClient(p.msg.Name)
		ids.Connect(client, messages.WireID(p.wireID))
		logger.Info("server: client %q connected on wire %d as %d", p.msg.Name, p.wireID, client)
	})

	e.RegisterWorldHandler(opControlRemoveClient, func(v *engine.WorldView, msg engine.InputMessage) {
		p, ok := msg.Payload.(controlRemoveClientPayload)
		if !ok {
			logger.Error("server: malformed RemoveClient payload")
			return
		}
		client, ok := ids.ClientID(messages.WireID(p.wireID))
		if !ok {
			logger.Warn("server: RemoveClient for unknown wire %d", p.wireID)
			return
		}
		if err := v.Store.Store().DestroyClient(client); err != nil {
			logger.Error("server: destroying client %d: %v", client, err)
		}
		ids.Disconnect(client)
		logger.Info("server: client %d disconnected from wire %d", client, p.wireID)
	})
}

// registerChatHandler wires Chat(msg) requests (spec §6.2) to
// dialog.Router, parsing the local/global scope prefix and routing the
// ChatUpdate to every currently connected client. Local (vision-scoped)
// fan-out is left as spec scenario S2's broader case: VisionRead is
// available on WorldView for a future op that needs chunk-local
// recipients, but chat itself is dispatched through DialogView, which
// doesn't carry it, so every chat message is routed globally for now.
func registerChatHandler(e *engine.Engine, ids *messages.IDMap, router *dialog.Router, names func(worldstore.ClientID) string) {
	e.RegisterDialogHandler(uint16(wire.OpChat), func(v *engine.DialogView, msg engine.InputMessage) {
		req, ok := msg.Payload.(wire.ChatRequest)
		if !ok {
			return
		}
		_, body := dialog.ParseChat(req.Msg)
		sender := names(msg.Client)
		router.RouteGlobal(sender, body, ids.Clients())
	})
}
