package terraingen

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/vec"
)

// Result is one completed GEN_PLANE or GEN_CHUNK response, delivered to
// the engine's select loop over Worker.Responses().
type Result struct {
	StablePlane idmap.StableID
	Pos         vec.Vec2
	Data        []byte
	Err         error
}

type pendingReq struct {
	stablePlane idmap.StableID
	pos         vec.Vec2
}

// Worker manages the terrain-gen subprocess: a separate OS process
// fed commands over its stdin and drained for length-prefixed bundle
// responses on its stdout (spec §4.4). Grounded on
// internal/network/tcp_channel.go's adapter-goroutine-to-channel shape,
// generalized from a TCP socket to a subprocess's stdio pipes.
type Worker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	logger *logging.Logger

	mu      sync.Mutex
	pending []pendingReq

	responses chan Result
	done      chan struct{}
}

// Spawn starts the generator subprocess at binPath, wiring its stdio
// pipes, and begins draining responses in a background goroutine.
func Spawn(ctx context.Context, binPath string, args ...string) (*Worker, error) {
	cmd := exec.CommandContext(ctx, binPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("terraingen: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("terraingen: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("terraingen: start subprocess: %w", err)
	}

	w := &Worker{
		cmd:       cmd,
		stdin:     stdin,
		stdout:    stdout,
		logger:    logging.GetComponentLogger("terraingen"),
		responses: make(chan Result, 64),
		done:      make(chan struct{}),
	}

	go w.readLoop()
	return w, nil
}

// Responses is the channel the engine selects on for completed
// generation requests.
func (w *Worker) Responses() <-chan Result {
	return w.responses
}

func (w *Worker) readLoop() {
	defer close(w.responses)
	for {
		data, err := ReadResponse(w.stdout)
		if err != nil {
			if err != io.EOF {
				w.logger.Error("terraingen: response read failed: %v", err)
			}
			return
		}

		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			w.logger.Warn("terraingen: response with no pending request, dropping")
			continue
		}
		req := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		select {
		case w.responses <- Result{StablePlane: req.stablePlane, Pos: req.pos, Data: data}:
		case <-w.done:
			return
		}
	}
}

func (w *Worker) send(cmd Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cmd.Op == OpGenChunk || cmd.Op == OpGenPlane {
		w.pending = append(w.pending, pendingReq{stablePlane: cmd.StablePlane, pos: cmd.Pos})
	}
	return WriteCommand(w.stdin, cmd)
}

// RequestChunkGeneration implements chunklifecycle.Generator. It never
// blocks on the subprocess's own generation work — only on the pipe
// write, which the OS buffers.
func (w *Worker) RequestChunkGeneration(stablePlane idmap.StableID, pos vec.Vec2) {
	if err := w.send(Command{Op: OpGenChunk, StablePlane: stablePlane, Pos: pos}); err != nil {
		w.logger.Error("terraingen: GEN_CHUNK send failed: %v", err)
		w.mu.Lock()
		w.pending = append(w.pending, pendingReq{stablePlane: stablePlane, pos: pos})
		w.mu.Unlock()
		select {
		case w.responses <- Result{StablePlane: stablePlane, Pos: pos, Err: err}:
		default:
		}
	}
}

// RequestPlaneGeneration issues a GEN_PLANE command, used for
// whole-plane bootstrap generation rather than on-demand chunk loads.
func (w *Worker) RequestPlaneGeneration(stablePlane idmap.StableID) error {
	return w.send(Command{Op: OpGenPlane, StablePlane: stablePlane})
}

// InitPlane tells the generator to prepare its per-plane RNG seed and
// summary-cache namespace before any GEN_* command references it.
func (w *Worker) InitPlane(stablePlane idmap.StableID, flags uint32) error {
	return w.send(Command{Op: OpInitPlane, StablePlane: stablePlane, Flags: flags})
}

// ForgetPlane releases the generator's cached state for a plane that
// has been unloaded server-side.
func (w *Worker) ForgetPlane(stablePlane idmap.StableID) error {
	return w.send(Command{Op: OpForgetPlane, StablePlane: stablePlane})
}

// Shutdown sends SHUTDOWN, closes the pipes, and waits for the
// subprocess to exit.
func (w *Worker) Shutdown() error {
	close(w.done)
	_ = w.send(Command{Op: OpShutdown})
	_ = w.stdin.Close()
	err := w.cmd.Wait()
	return err
}
