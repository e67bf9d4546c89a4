package wire

import (
	"context"
	"io"
	"sync"

	"github.com/annel0/mmo-game/internal/logging"
)

// Transport is the stdio multiplexed byte stream: one reader goroutine
// decoding inbound frames onto a channel, and a mutex-guarded
// synchronous writer for outbound ones. Grounded on
// internal/network/tcp_channel.go's sendLoop/receiveLoop split, but
// collapsed to a single shared stream (stdio has exactly one reader
// and one writer, unlike TCPChannel's per-connection socket) and
// without a send buffer: spec §4.9 already guarantees the engine's
// single main loop is the only writer, so there is nothing to queue
// ahead of the mutex.
type Transport struct {
	r io.Reader
	w io.Writer

	logger *logging.Logger

	frames chan Frame

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
	readErr   error
}

// NewTransport wraps a reader and writer (typically os.Stdin/os.Stdout)
// in the wire framing.
func NewTransport(r io.Reader, w io.Writer, logger *logging.Logger) *Transport {
	return &Transport{
		r:      r,
		w:      w,
		logger: logger,
		frames: make(chan Frame, 64),
		done:   make(chan struct{}),
	}
}

// Run starts the read loop, decoding frames onto Frames() until ctx is
// canceled or the stream errors. Spec §7: "a broken pipe on the reader
// thread tears down the process" — Run does not itself exit the
// process, it closes Frames() and records Err() for the caller
// (typically cmd/server's main) to act on.
func (t *Transport) Run(ctx context.Context) {
	go t.readLoop(ctx)
}

func (t *Transport) readLoop(ctx context.Context) {
	defer close(t.frames)
	defer close(t.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, err := ReadFrame(t.r)
		if err != nil {
			t.readErr = err
			if err != io.EOF && t.logger != nil {
				t.logger.Warn("wire: stdio read loop stopped: %v", err)
			}
			return
		}

		select {
		case t.frames <- f:
		case <-ctx.Done():
			return
		}
	}
}

// Frames returns the channel of decoded inbound frames. It closes when
// the stream errors or ctx is canceled; callers should check Err()
// once it closes.
func (t *Transport) Frames() <-chan Frame {
	return t.frames
}

// Done reports when the read loop has exited.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err returns the error that stopped the read loop, nil on a clean
// context cancellation.
func (t *Transport) Err() error {
	return t.readErr
}

// WriteFrame writes one outbound frame, serialized against concurrent
// writers (the engine's main loop is the only expected writer, but
// control-channel responses may originate from a different call site).
func (t *Transport) WriteFrame(f Frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return WriteFrame(t.w, f)
}
