// Command gateway is the transport adapter spec's domain table names:
// it owns the real TCP/KCP sockets clients connect to and multiplexes
// them onto one cmd/server process's stdio wire protocol (spec §6.1),
// so the engine process itself never touches a socket (spec §5: "no
// cross-thread sharing" extends to "no socket ownership outside the
// adapter"). Grounded on internal/network/channel_server.go's
// accept-loop/per-client-registry shape and kcp-go's net.Listener
// implementation, rewritten against internal/wire's framing instead of
// the old protobuf NetGameMessage envelope the teacher's ChannelServer
// carried — that envelope duplicated what internal/wire/frame.go
// already does for the stdio side, so it isn't reused here.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/wire"
)

func main() {
	tcpAddr := flag.String("tcp", ":7777", "TCP listen address for client connections")
	kcpAddr := flag.String("kcp", ":7778", "KCP listen address for client connections (empty disables it)")
	serverBin := flag.String("server", "server", "path to the cmd/server binary to supervise")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-tcp addr] [-kcp addr] [-server path] <storage-root>\n", os.Args[0])
		os.Exit(2)
	}
	root := flag.Arg(0)

	logger := logging.GetComponentLogger("gateway")
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, *serverBin, root)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		logger.Error("gateway: server stdin pipe: %v", err)
		os.Exit(1)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Error("gateway: server stdout pipe: %v", err)
		os.Exit(1)
	}
	if err := cmd.Start(); err != nil {
		logger.Error("gateway: starting %s: %v", *serverBin, err)
		os.Exit(1)
	}
	logger.Info("gateway: supervising %s (pid %d), storage root %s", *serverBin, cmd.Process.Pid, root)

	transport := wire.NewTransport(stdout, stdin, logger)
	transport.Run(ctx)

	g := newGateway(transport, logger)
	go g.pumpServerFrames(ctx)

	var listeners []net.Listener
	if ln, err := net.Listen("tcp", *tcpAddr); err != nil {
		logger.Error("gateway: tcp listen on %s: %v", *tcpAddr, err)
	} else {
		logger.Info("gateway: accepting TCP clients on %s", *tcpAddr)
		listeners = append(listeners, ln)
		go g.acceptLoop(ctx, ln)
	}
	if *kcpAddr != "" {
		if ln, err := kcp.ListenWithOptions(*kcpAddr, nil, 0, 0); err != nil {
			logger.Error("gateway: kcp listen on %s: %v", *kcpAddr, err)
		} else {
			logger.Info("gateway: accepting KCP clients on %s", *kcpAddr)
			listeners = append(listeners, ln)
			go g.acceptLoop(ctx, ln)
		}
	}
	if len(listeners) == 0 {
		logger.Error("gateway: no transport could bind, exiting")
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("gateway: received %v, shutting down", sig)
	case <-ctx.Done():
	}

	cancel()
	for _, ln := range listeners {
		ln.Close()
	}
	if body, err := wire.EncodeControl(wire.OpShutdown, nil); err == nil {
		_ = transport.WriteFrame(wire.Frame{WireID: wire.ControlWireID, Payload: body})
	}
	_ = cmd.Wait()
	logger.Info("gateway: server process exited")
}

// gateway tracks the live client connections, keyed by the wire_id
// each was assigned on accept, so inbound server frames can be
// demultiplexed back to the right socket.
type gateway struct {
	transport *wire.Transport
	logger    *logging.Logger

	nextWire uint32 // wire_id 0 is reserved for the control channel

	mu      sync.Mutex
	clients map[uint16]net.Conn
}

func newGateway(t *wire.Transport, logger *logging.Logger) *gateway {
	return &gateway{transport: t, logger: logger, clients: make(map[uint16]net.Conn)}
}

// pumpServerFrames demultiplexes the stdio transport's inbound frames
// (the engine's outgoing messages) onto each connection's raw socket.
func (g *gateway) pumpServerFrames(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-g.transport.Frames():
			if !ok {
				g.logger.Warn("gateway: server stdio closed: %v", g.transport.Err())
				return
			}
			if f.WireID == wire.ControlWireID {
				continue // ClientRemoved/ReplResult acks: nothing to relay yet
			}
			g.mu.Lock()
			conn := g.clients[f.WireID]
			g.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := writePayload(conn, f.Payload); err != nil {
				g.logger.Warn("gateway: writing to wire %d: %v", f.WireID, err)
			}
		}
	}
}

func (g *gateway) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			g.logger.Warn("gateway: accept on %s: %v", ln.Addr(), err)
			return
		}
		go g.serveClient(ctx, conn)
	}
}

func (g *gateway) serveClient(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	id := uint16(atomic.AddUint32(&g.nextWire, 1))
	g.mu.Lock()
	g.clients[id] = conn
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.clients, id)
		g.mu.Unlock()
	}()

	g.logger.Info("gateway: client %s connected as wire %d", conn.RemoteAddr(), id)
	if err := g.sendControl(wire.OpAddClient, wire.AddClient{Wire: id, Name: conn.RemoteAddr().String()}); err != nil {
		g.logger.Error("gateway: AddClient for wire %d: %v", id, err)
		return
	}
	defer func() {
		if err := g.sendControl(wire.OpRemoveClient, wire.RemoveClient{Wire: id}); err != nil {
			g.logger.Warn("gateway: RemoveClient for wire %d: %v", id, err)
		}
	}()

	for {
		payload, err := readPayload(conn)
		if err != nil {
			if err != io.EOF {
				g.logger.Warn("gateway: reading wire %d: %v", id, err)
			}
			return
		}
		if err := g.transport.WriteFrame(wire.Frame{WireID: id, Payload: payload}); err != nil {
			g.logger.Warn("gateway: forwarding wire %d: %v", id, err)
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (g *gateway) sendControl(op wire.ControlOp, msg interface{}) error {
	body, err := wire.EncodeControl(op, msg)
	if err != nil {
		return err
	}
	return g.transport.WriteFrame(wire.Frame{WireID: wire.ControlWireID, Payload: body})
}

// readPayload/writePayload frame a client socket's byte stream as a
// single u16 length prefix around one request/response payload — the
// same shape as internal/wire's stdio frames minus the wire_id tag,
// which is implicit in owning the connection.
func readPayload(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func writePayload(w io.Writer, payload []byte) error {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}
