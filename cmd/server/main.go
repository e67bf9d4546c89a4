package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/annel0/mmo-game/internal/chunklifecycle"
	"github.com/annel0/mmo-game/internal/dialog"
	"github.com/annel0/mmo-game/internal/engine"
	"github.com/annel0/mmo-game/internal/gamedata"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/protocol"
	"github.com/annel0/mmo-game/internal/storage"
	"github.com/annel0/mmo-game/internal/terraingen"
	"github.com/annel0/mmo-game/internal/timerwheel"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/wire"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// homePlane is the stable ID every fresh save's first plane is adopted
// under, so a restart resumes the same plane rather than minting a new
// stable ID for what is, to every client, "the world".
const homePlane idmap.StableID = 1

// blockShapes mirrors cmd/terraingen's local block-ID scheme (blockAir
// through blockLeaf) so the chunks it generates collide the way the
// surface they're generated from implies. Any block ID outside this
// table defaults to physics.ShapeEmpty (the zero Shape value), which
// is the permissive default spec §4.7 calls for until a real game-data
// driven shape table replaces this one.
func blockShapes() map[worldstore.BlockID]physics.Shape {
	return map[worldstore.BlockID]physics.Shape{
		0: physics.ShapeEmpty, // air
		1: physics.ShapeSolid, // stone
		2: physics.ShapeSolid, // grass
		3: physics.ShapeSolid, // dirt
		4: physics.ShapeSolid, // sand
		5: physics.ShapeSolid, // wood
		6: physics.ShapeSolid, // leaves
	}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <storage-root>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	root := os.Args[1]

	logger := logging.GetComponentLogger("server")
	defer logger.Close()
	logger.Info("запуск сервера, хранилище: %s", root)

	bundleStore, err := storage.NewBundleStore(root)
	if err != nil {
		logger.Error("не удалось подготовить хранилище: %v", err)
		os.Exit(1)
	}
	defer bundleStore.Close()

	gamedataRegistry := gamedata.NewRegistry()
	if err := gamedataRegistry.Load(filepath.Join(root, "gamedata")); err != nil {
		logger.Error("не удалось загрузить игровые данные: %v", err)
		os.Exit(1)
	}
	gamedataRegistry.Install()

	store := worldstore.NewStore()
	vis := vision.New()

	shapes := physics.NewShapeTable(blockShapes())
	oracle := physics.NewOracle(store, shapes)
	validator := physics.NewValidator(store, oracle)

	terraingenBin := resolveTerraingenBinary()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator, err := terraingen.Spawn(ctx, terraingenBin, root)
	if err != nil {
		logger.Error("не удалось запустить terraingen: %v", err)
		os.Exit(1)
	}
	defer generator.Shutdown()

	lifecycle := chunklifecycle.NewManager(store, bundleStore, generator, gamedataRegistry)
	if _, err := lifecycle.LoadPlane(homePlane, "overworld"); err != nil {
		logger.Error("не удалось загрузить плоскость по умолчанию: %v", err)
		os.Exit(1)
	}

	wheel := timerwheel.New()
	epoch := time.Now()
	queue := messages.NewQueue(epoch)
	ids := messages.NewIDMap()

	input := make(chan engine.InputMessage, 256)

	e := engine.New(engine.Config{
		Store:     store,
		Vision:    vis,
		Validator: validator,
		Lifecycle: lifecycle,
		Generator: generator,
		Wheel:     wheel,
		Queue:     queue,
		IDs:       ids,
		Input:     input,
		Epoch:     epoch,
	})

	router := dialog.NewRouter(queue)
	names := func(id worldstore.ClientID) string {
		if c := store.Client(id); c != nil {
			return c.Name
		}
		return "???"
	}
	registerControlHandlers(e, ids, logger)
	registerChatHandler(e, ids, router, names)

	transport := wire.NewTransport(os.Stdin, os.Stdout, logger)
	codec, err := protocol.NewCodec()
	if err != nil {
		logger.Error("не удалось создать кодек: %v", err)
		os.Exit(1)
	}
	defer codec.Close()
	encoder := wire.NewClientEncoder(ids, transport, codec)

	transport.Run(ctx)
	go readFrontend(ctx, cancel, transport, input, ids, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("получен сигнал %v, остановка", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	e.Run(ctx, encoder)
	logger.Info("сервер остановлен")
}

// readFrontend decodes inbound stdio frames into engine.InputMessages.
// The control channel (wire_id 0) carries connection lifecycle and
// operator ops (spec §6.3); every other wire_id carries one connected
// client's game requests (spec §6.2), resolved back to a ClientID
// through the shared IDMap.
func readFrontend(ctx context.Context, cancel context.CancelFunc, t *wire.Transport, input chan<- engine.InputMessage, ids *messages.IDMap, logger *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-t.Frames():
			if !ok {
				logger.Warn("server: stdio frontend closed: %v", t.Err())
				cancel()
				return
			}
			if f.WireID == wire.ControlWireID {
				dispatchControl(ctx, cancel, f.Payload, input, logger)
				continue
			}
			dispatchGame(ctx, f, input, ids, logger)
		}
	}
}

func dispatchControl(ctx context.Context, cancel context.CancelFunc, payload []byte, input chan<- engine.InputMessage, logger *logging.Logger) {
	op, msg, err := wire.DecodeControl(payload)
	if err != nil {
		logger.Warn("server: malformed control frame: %v", err)
		return
	}
	switch op {
	case wire.OpAddClient:
		m := msg.(wire.AddClient)
		send(ctx, input, engine.InputMessage{
			Kind:    engine.InputWorld,
			Op:      opControlAddClient,
			Payload: controlAddClientPayload{msg: m, wireID: m.Wire},
		})
	case wire.OpRemoveClient:
		m := msg.(wire.RemoveClient)
		send(ctx, input, engine.InputMessage{
			Kind:    engine.InputWorld,
			Op:      opControlRemoveClient,
			Payload: controlRemoveClientPayload{wireID: m.Wire},
		})
	case wire.OpShutdown:
		logger.Info("server: shutdown requested over control channel")
		cancel()
	default:
		logger.Warn("server: unimplemented control opcode %d", op)
	}
}

func dispatchGame(ctx context.Context, f wire.Frame, input chan<- engine.InputMessage, ids *messages.IDMap, logger *logging.Logger) {
	client, ok := ids.ClientID(messages.WireID(f.WireID))
	if !ok {
		// The client hasn't been bound to a ClientID yet if AddClient
		// hasn't been processed by the engine; that race is the
		// front-end's to avoid (spec §6.3: AddClient must precede any
		// game traffic on the same wire_id), so it's simply dropped.
		logger.Warn("server: request on unbound wire %d", f.WireID)
		return
	}

	op, req, err := wire.DecodeRequest(f.Payload)
	if err != nil {
		logger.Warn("server: malformed request on wire %d: %v", f.WireID, err)
		return
	}
	switch op {
	case wire.OpChat:
		send(ctx, input, engine.InputMessage{
			Kind:    engine.InputDialog,
			Op:      uint16(wire.OpChat),
			Payload: req,
			Client:  client,
		})
	default:
		logger.Debug("server: unhandled game opcode %d on wire %d", op, f.WireID)
	}
}

func send(ctx context.Context, input chan<- engine.InputMessage, msg engine.InputMessage) {
	select {
	case input <- msg:
	case <-ctx.Done():
	}
}

// resolveTerraingenBinary looks for a sibling "terraingen" binary next
// to the running executable, falling back to $PATH. Spec §6.5 allows
// only a single positional argument and no configuration environment
// variables, so the path can't be made operator-configurable here.
func resolveTerraingenBinary() string {
	candidate := filepath.Join(filepath.Dir(os.Args[0]), "terraingen")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return "terraingen"
}
