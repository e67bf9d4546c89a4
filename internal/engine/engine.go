// Package engine implements the single-threaded main loop described
// in spec §4.9: a select over the input-message channel, the
// terrain-gen response channel, and the timer wheel, running a
// drain-dispatch-advance-flush frame. Grounded on
// internal/network/server.go's run()/gameLoop() select-over-channels
// shape, generalized from two goroutines driven by independent
// channels/tickers into one single-threaded loop (spec §5: "exactly
// one main worker; it never blocks on I/O inside a handler").
package engine

import (
	"context"
	"time"

	"github.com/annel0/mmo-game/internal/chunklifecycle"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/terraingen"
	"github.com/annel0/mmo-game/internal/timerwheel"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// InputKind tags an inbound client message by the handler family that
// owns it, so Dispatch knows which view to build before invoking it.
type InputKind uint16

const (
	InputWorld InputKind = iota
	InputVision
	InputDialog
)

// InputMessage is one decoded inbound request from the wire front-end.
type InputMessage struct {
	Client  worldstore.ClientID
	Kind    InputKind
	Op      uint16
	Payload interface{}
}

type WorldHandler func(*WorldView, InputMessage)
type VisionHandler func(*VisionView, InputMessage)
type DialogHandler func(*DialogView, InputMessage)

// Generator is the subset of terraingen.Worker the engine drains on
// its select loop; an interface so tests can supply a fake.
type Generator interface {
	Responses() <-chan terraingen.Result
}

// Engine owns every subsystem exclusively (spec §5: "no cross-thread
// sharing") and drives the frame loop. All fields are touched only
// from Run's goroutine.
type Engine struct {
	store     *worldstore.Store
	vis       *vision.Vision
	validator *physics.Validator
	lifecycle *chunklifecycle.Manager
	gen       Generator
	wheel     *timerwheel.Wheel
	queue     *messages.Queue
	ids       *messages.IDMap
	logger    *logging.Logger

	input <-chan InputMessage

	worldHandlers  map[uint16]WorldHandler
	visionHandlers map[uint16]VisionHandler
	dialogHandlers map[uint16]DialogHandler

	worldAccess      *WorldAccess
	messageAccess    *MessageAccess
	visionAccess     *VisionAccess
	visionReadAccess *VisionReadAccess
	physicsAccess    *PhysicsAccess

	tickInterval time.Duration
	epoch        time.Time
	simTick      int64

	// ownerOf resolves a pawn entity back to its client, for addressing
	// physics conflict messages; left as an injectable func so tests
	// don't need a full store wiring.
	ownerOf func(worldstore.EntityID) (worldstore.ClientID, bool)
}

// Config bundles the subsystems an Engine wires together.
type Config struct {
	Store        *worldstore.Store
	Vision       *vision.Vision
	Validator    *physics.Validator
	Lifecycle    *chunklifecycle.Manager
	Generator    Generator
	Wheel        *timerwheel.Wheel
	Queue        *messages.Queue
	IDs          *messages.IDMap
	Input        <-chan InputMessage
	TickInterval time.Duration
	Epoch        time.Time
}

// New builds an Engine from a fully-wired Config. Runs the
// once-at-startup view-disjointness assertion named in spec §4.9.
func New(cfg Config) *Engine {
	assertNoUnintendedOverlap()

	e := &Engine{
		store:        cfg.Store,
		vis:          cfg.Vision,
		validator:    cfg.Validator,
		lifecycle:    cfg.Lifecycle,
		gen:          cfg.Generator,
		wheel:        cfg.Wheel,
		queue:        cfg.Queue,
		ids:          cfg.IDs,
		logger:       logging.GetComponentLogger("engine"),
		input:        cfg.Input,
		tickInterval: cfg.TickInterval,
		epoch:        cfg.Epoch,

		worldHandlers:  make(map[uint16]WorldHandler),
		visionHandlers: make(map[uint16]VisionHandler),
		dialogHandlers: make(map[uint16]DialogHandler),
	}

	e.worldAccess = &WorldAccess{store: e.store}
	e.messageAccess = &MessageAccess{queue: e.queue, ids: e.ids}
	e.visionAccess = &VisionAccess{vision: e.vis}
	e.visionReadAccess = &VisionReadAccess{vision: e.vis}
	if e.validator != nil {
		e.physicsAccess = &PhysicsAccess{validator: e.validator}
	}

	e.ownerOf = func(id worldstore.EntityID) (worldstore.ClientID, bool) {
		ent := e.store.Entity(id)
		if ent == nil || ent.Attachment.Kind != worldstore.AttachClient {
			return 0, false
		}
		return ent.Attachment.Client, true
	}

	if e.tickInterval == 0 {
		e.tickInterval = timerwheel.TickDuration * time.Millisecond
	}
	return e
}

func (e *Engine) RegisterWorldHandler(op uint16, h WorldHandler)   { e.worldHandlers[op] = h }
func (e *Engine) RegisterVisionHandler(op uint16, h VisionHandler) { e.visionHandlers[op] = h }
func (e *Engine) RegisterDialogHandler(op uint16, h DialogHandler) { e.dialogHandlers[op] = h }

// Run drives the main loop until ctx is cancelled or the input channel
// closes. Matches spec §4.9's per-frame sequence: drain input, drain
// generation responses, advance the timer wheel (which runs tick()
// callbacks), flush the outgoing queue — all inside the single select,
// so no two steps ever run concurrently.
func (e *Engine) Run(ctx context.Context, encoder messages.Encoder) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-e.input:
			if !ok {
				return
			}
			e.Dispatch(msg)

		case res, ok := <-e.gen.Responses():
			if !ok {
				continue
			}
			e.installGeneration(res)

		case now := <-ticker.C:
			e.tick(now)
			if err := e.queue.Drain(encoder); err != nil {
				e.logger.Error("engine: flush failed: %v", err)
			}
		}
	}
}

// Dispatch routes one inbound message to its registered handler,
// constructing exactly the view that handler's family is allowed to
// see (spec §4.9 step 1: "Each handler acquires a Fragment for the
// subset of engine state it needs").
func (e *Engine) Dispatch(msg InputMessage) {
	switch msg.Kind {
	case InputWorld:
		h, ok := e.worldHandlers[msg.Op]
		if !ok {
			e.logger.Warn("engine: no world handler for op %d", msg.Op)
			return
		}
		h(&WorldView{Store: e.worldAccess, Messages: e.messageAccess, VisionRead: e.visionReadAccess}, msg)

	case InputVision:
		h, ok := e.visionHandlers[msg.Op]
		if !ok {
			e.logger.Warn("engine: no vision handler for op %d", msg.Op)
			return
		}
		h(&VisionView{Vision: e.visionAccess, Messages: e.messageAccess}, msg)

	case InputDialog:
		h, ok := e.dialogHandlers[msg.Op]
		if !ok {
			e.logger.Warn("engine: no dialog handler for op %d", msg.Op)
			return
		}
		h(&DialogView{Messages: e.messageAccess}, msg)

	default:
		e.logger.Warn("engine: unknown input kind %d", msg.Kind)
	}
}

// installGeneration implements spec §4.9 step 2: drain one ready
// terrain-gen response and hand it to the chunk-lifecycle manager,
// which discards it if the chunk is no longer wanted.
func (e *Engine) installGeneration(res terraingen.Result) {
	if res.Err != nil {
		e.logger.Error("engine: generation failed for plane %d pos %v: %v", res.StablePlane, res.Pos, res.Err)
		return
	}
	if err := e.lifecycle.OnGenerationResult(res.StablePlane, res.Pos, res.Data); err != nil {
		e.logger.Error("engine: install generated chunk failed: %v", err)
	}
}

// tick implements spec §4.9 step 3: advance the timer wheel to the
// simulated tick corresponding to wall-clock now, running any due
// callbacks, then reconcile motion against the physics validator and
// turn conflicts into outgoing messages.
func (e *Engine) tick(now time.Time) {
	e.simTick = now.Sub(e.epoch).Milliseconds() / timerwheel.TickDuration
	e.wheel.Advance(e.simTick)

	if e.validator == nil {
		return
	}
	view := &PhysicsView{Physics: e.physicsAccess}
	for _, conflict := range view.Physics.Validator().Advance(now) {
		client, ok := e.ownerOf(conflict.Entity)
		if !ok {
			continue
		}
		e.queue.Enqueue(client, messages.Message{
			Kind: messages.KindConflict,
			Args: conflict,
		})
	}
}

// Schedule exposes the timer wheel to handlers that need to arrange
// future work (spec §4.7), addressed in simulated-tick units relative
// to the engine's current tick.
func (e *Engine) Schedule(inTicks int64, fn timerwheel.Callback) timerwheel.Cookie {
	return e.wheel.Schedule(e.simTick+inTicks, fn)
}
