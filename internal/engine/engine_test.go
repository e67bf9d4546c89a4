package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/chunklifecycle"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/messages"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/terraingen"
	"github.com/annel0/mmo-game/internal/timerwheel"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/require"
)

type memLoader struct {
	mu     sync.Mutex
	chunks map[idmap.StableID][]byte
	planes map[idmap.StableID][]byte
}

func newMemLoader() *memLoader {
	return &memLoader{chunks: make(map[idmap.StableID][]byte), planes: make(map[idmap.StableID][]byte)}
}
func (l *memLoader) LoadChunk(s idmap.StableID) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.chunks[s]
	return d, ok, nil
}
func (l *memLoader) SaveChunk(s idmap.StableID, d []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[s] = d
	return nil
}
func (l *memLoader) DeleteChunk(s idmap.StableID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.chunks, s)
	return nil
}
func (l *memLoader) LoadPlane(s idmap.StableID) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.planes[s]
	return d, ok, nil
}
func (l *memLoader) SavePlane(s idmap.StableID, d []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.planes[s] = d
	return nil
}

type nopGenerator struct{}

func (nopGenerator) RequestChunkGeneration(idmap.StableID, vec.Vec2) {}

type fakeResolver struct{}

func (fakeResolver) TemplateID(name string) (uint32, bool) { return 1, true }
func (fakeResolver) ItemID(name string) (uint32, bool)      { return 1, true }
func (fakeResolver) AnimID(name string) (uint16, bool)      { return 1, true }

type fakeGenerator struct {
	ch chan terraingen.Result
}

func newFakeGenerator() *fakeGenerator { return &fakeGenerator{ch: make(chan terraingen.Result, 8)} }
func (g *fakeGenerator) Responses() <-chan terraingen.Result { return g.ch }

type recordingEncoder struct{ sent []messages.Message }

func (r *recordingEncoder) EncodeMessage(_ worldstore.ClientID, msg messages.Message) ([]byte, error) {
	r.sent = append(r.sent, msg)
	return nil, nil
}
func (r *recordingEncoder) Send(worldstore.ClientID, []byte) error { return nil }

func newTestEngine(t *testing.T)(*Engine, *worldstore.Store, *fakeGenerator, *chunklifecycle.Manager) {
	store := worldstore.NewStore()
	shapes := physics.NewShapeTable(map[worldstore.BlockID]physics.Shape{0: physics.ShapeEmpty})
	oracle := physics.NewOracle(store, shapes)
	validator := physics.NewValidator(store, oracle)
	lifecycle := chunklifecycle.NewManager(store, newMemLoader(), nopGenerator{}, fakeResolver{})
	gen := newFakeGenerator()

	cfg := Config{
		Store:        store,
		Vision:       vision.New(),
		Validator:    validator,
		Lifecycle:    lifecycle,
		Generator:    gen,
		Wheel:        timerwheel.New(),
		Queue:        messages.NewQueue(time.Unix(0, 0)),
		IDs:          messages.NewIDMap(),
		Input:        make(chan InputMessage),
		TickInterval: time.Millisecond,
		Epoch:        time.Unix(0, 0),
	}
	return New(cfg), store, gen, lifecycle
}

func TestDispatchRoutesToRegisteredWorldHandler(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	var got InputMessage
	e.RegisterWorldHandler(7, func(v *WorldView, msg InputMessage) {
		got = msg
		require.NotNil(t, v.Store.Store())
		require.NotNil(t, v.Messages.Queue())
		require.NotNil(t, v.VisionRead)
	})

	e.Dispatch(InputMessage{Client: 1, Kind: InputWorld, Op: 7})
	require.Equal(t, uint16(7), got.Op)
}

func TestDispatchUnknownOpIsANoOp(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	require.NotPanics(t, func() {
		e.Dispatch(InputMessage{Kind: InputVision, Op: 99})
	})
}

func TestInstallGenerationDiscardsOnError(t *testing.T) {
	e, _, gen, _ := newTestEngine(t)
	gen.ch <- terraingen.Result{StablePlane: 1, Err: errors.New("boom")}
	require.NotPanics(t, func() { e.installGeneration(<-gen.ch) })
}

func TestInstallGenerationInstallsChunk(t *testing.T) {
	e, store, _, lifecycle := newTestEngine(t)

	plane, err := lifecycle.LoadPlane(1, "home")
	require.NoError(t, err)
	pos := vec.Vec2{X: 0, Y: 0}
	id, err := lifecycle.LoadChunk(plane, pos)
	require.NoError(t, err)

	b := bundle.ExportChunk(store, id)
	b.Graph.Chunks[0].Flags = 0
	data, err := bundle.Serialize(b)
	require.NoError(t, err)

	e.installGeneration(terraingen.Result{StablePlane: 1, Pos: pos, Data: data})

	p := store.Plane(plane)
	newID, ok := p.LoadedChunks[pos]
	require.True(t, ok)
	c := store.Chunk(newID)
	require.NotNil(t, c)
	require.False(t, c.Flags&worldstore.ChunkFlagGenerationPending != 0)
}

func TestTickAdvancesWheelAndEmitsConflicts(t *testing.T) {
	e, store, _, _ := newTestEngine(t)

	plane := store.CreatePlane("home")
	entity, err := store.CreateEntity(plane, vec.Vec3{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	client := store.CreateClient("alice")
	require.NoError(t, store.AttachEntityToClient(entity, client))

	e.validator.Submit(entity, physics.MotionEvent{
		Kind:        physics.EventStart,
		Time:        time.Unix(0, 0),
		ExpectedPos: vec.Vec3Float{X: 99, Y: 99, Z: 0},
	})

	ran := false
	e.Schedule(1, func() { ran = true })

	e.tick(time.Unix(0, 0).Add(50 * time.Millisecond))
	require.True(t, ran)
	require.Greater(t, e.wheel.Now(), int64(0))

	enc := &recordingEncoder{}
	require.NoError(t, e.queue.Drain(enc))
	require.Len(t, enc.sent, 1)
	require.Equal(t, messages.KindConflict, enc.sent[0].Kind)
}
