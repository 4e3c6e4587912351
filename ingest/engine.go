package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	gtlog "github.com/simrig-tools/gtlink/internal/log"
	"github.com/simrig-tools/gtlink/telemetry"
)

const (
	// readDeadline bounds each blocking socket read so stop requests and other
	// peers are never starved.
	readDeadline = 100 * time.Millisecond

	// sweepYield is the pause between receive sweeps.
	sweepYield = time.Millisecond

	// monitorInterval is the cadence of the liveness monitor.
	monitorInterval = time.Second
)

// Engine owns the connection table and runs the three periodic activities:
// receive, heartbeat and liveness monitor. All errors inside the loops are
// logged and swallowed so one misbehaving peer cannot stop ingest; only
// double-start and peer validation surface errors to the caller.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	tap       gtlog.FrameTap
	tapCloser io.Closer

	mu    sync.Mutex
	conns map[string]*connection

	bus *Bus

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New constructs an engine and returns it together with a first subscription
// to the fan-out stream. Zero-valued config fields fall back to the
// documented defaults.
func New(cfg Config, logger *slog.Logger) (*Engine, *Subscription) {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		tap:    gtlog.NewFrameTap(nil),
		conns:  make(map[string]*connection),
		bus:    newBus(),
	}
	if cfg.EnableLogging {
		e.setupTap()
	}
	return e, e.bus.Subscribe()
}

func (e *Engine) setupTap() {
	if e.cfg.LogFilePath == "" {
		e.tap = gtlog.NewFrameTap(os.Stdout)
		return
	}
	f, err := os.OpenFile(e.cfg.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		e.logger.Error("failed to open frame log file", "file", e.cfg.LogFilePath, "error", err)
		return
	}
	e.tap = gtlog.NewFrameTap(f)
	e.tapCloser = f
}

// Subscribe attaches an additional consumer to the fan-out stream.
func (e *Engine) Subscribe() *Subscription { return e.bus.Subscribe() }

// AddPeer validates ip against the LAN allow-list, binds a fresh UDP socket
// to an ephemeral local address and installs the peer in the table. A port of
// zero uses the configured default. Re-adding an existing peer replaces its
// connection.
func (e *Engine) AddPeer(ip string, port uint16) error {
	if !ValidConsoleIP(ip) {
		return &telemetry.InvalidIPError{IP: ip}
	}
	if port == 0 {
		port = e.cfg.Port
	}

	addr, err := net.ResolveUDPAddr("udp4", peerAddr(ip, port))
	if err != nil {
		return &telemetry.InvalidIPError{IP: ip}
	}

	sock, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return &telemetry.NetworkError{Address: addr.String(), Reason: "bind failed", Err: err}
	}

	now := time.Now()
	conn := &connection{
		addr:          addr,
		sock:          sock,
		lastReceived:  now,
		lastHeartbeat: now,
		liveness:      LivenessUnknown,
	}

	e.mu.Lock()
	if prev, ok := e.conns[ip]; ok {
		_ = prev.sock.Close()
	}
	e.conns[ip] = conn
	e.mu.Unlock()

	e.logger.Info("peer added", "ip", ip, "addr", addr.String())
	return nil
}

// RemovePeer drops a peer and closes its socket. Removing an unknown peer
// returns a not-found error.
func (e *Engine) RemovePeer(ip string) error {
	e.mu.Lock()
	conn, ok := e.conns[ip]
	if ok {
		delete(e.conns, ip)
	}
	e.mu.Unlock()

	if !ok {
		return &telemetry.NetworkError{Address: ip, Reason: "peer not registered"}
	}
	_ = conn.sock.Close()
	e.logger.Info("peer removed", "ip", ip)
	return nil
}

// Status snapshots the liveness of every registered peer.
func (e *Engine) Status() map[string]Liveness {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Liveness, len(e.conns))
	for ip, c := range e.conns {
		out[ip] = c.liveness
	}
	return out
}

// PacketCount returns the number of valid frames received from a peer.
func (e *Engine) PacketCount(ip string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.conns[ip]; ok {
		return c.packets
	}
	return 0
}

// Start transitions the engine to running exactly once and spawns the three
// activity loops. Calling Start on a running engine returns an error.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return &telemetry.ConfigError{Field: "engine_state", Value: "running", Reason: "engine already started"}
	}

	e.stop = make(chan struct{})
	e.logger.Info("starting telemetry engine",
		"timeout", e.cfg.Timeout,
		"heartbeat_interval", e.cfg.HeartbeatInterval)

	e.wg.Add(3)
	go e.receiveLoop()
	go e.heartbeatLoop()
	go e.monitorLoop()
	return nil
}

// Stop signals all activity loops to exit and waits for them. Outstanding
// socket reads complete via their deadline; there is no hard-kill path.
// Peers stay registered, so the engine can be started again.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	close(e.stop)
	e.wg.Wait()
	e.logger.Info("telemetry engine stopped")
}

// Close stops the engine, closes every peer socket and releases the frame
// tap. The engine must not be reused afterwards.
func (e *Engine) Close() {
	e.Stop()

	e.mu.Lock()
	for ip, c := range e.conns {
		_ = c.sock.Close()
		delete(e.conns, ip)
	}
	e.mu.Unlock()

	e.bus.close()
	if e.tapCloser != nil {
		_ = e.tapCloser.Close()
	}
}

// peerRef is the snapshot the loops work from so no I/O happens under the
// table lock.
type peerRef struct {
	ip   string
	addr *net.UDPAddr
	sock *net.UDPConn
}

func (e *Engine) snapshot() []peerRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]peerRef, 0, len(e.conns))
	for ip, c := range e.conns {
		out = append(out, peerRef{ip: ip, addr: c.addr, sock: c.sock})
	}
	return out
}

func (e *Engine) receiveLoop() {
	defer e.wg.Done()
	buf := make([]byte, 2*telemetry.FrameSize)

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		for _, p := range e.snapshot() {
			e.receiveOnce(p, buf)
		}

		select {
		case <-e.stop:
			return
		case <-time.After(sweepYield):
		}
	}
}

// receiveOnce attempts a single deadline-bounded read from one peer socket.
func (e *Engine) receiveOnce(p peerRef, buf []byte) {
	_ = p.sock.SetReadDeadline(time.Now().Add(readDeadline))
	n, _, err := p.sock.ReadFromUDP(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return
		}
		if errors.Is(err, net.ErrClosed) {
			return
		}
		e.logger.Warn("socket read failed", "ip", p.ip, "error", err)
		return
	}

	if n < telemetry.FrameSize {
		e.logger.Warn("short datagram", "ip", p.ip, "bytes", n)
		return
	}

	raw := buf[:telemetry.FrameSize]
	frame, err := telemetry.DecodeFrame(raw)
	if err != nil {
		e.logger.Warn("frame rejected", "ip", p.ip, "error", err)
		return
	}

	e.tap.Log(p.ip, raw)

	e.mu.Lock()
	if c, ok := e.conns[p.ip]; ok {
		if c.liveness == LivenessStale {
			e.logger.Info("peer recovered", "ip", p.ip)
		}
		c.liveness = LivenessLive
		c.lastReceived = time.Now()
		c.packets++
	}
	e.mu.Unlock()

	e.bus.publish(Tagged{Peer: p.ip, Frame: *frame})
	e.logger.Log(context.Background(), gtlog.LevelTrace, "frame published", "ip", p.ip, "packet_id", frame.PacketID)
}

func (e *Engine) heartbeatLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}

		now := time.Now()
		for _, p := range e.snapshot() {
			if !e.heartbeatDue(p.ip, now) {
				continue
			}
			if _, err := p.sock.WriteToUDP(telemetry.Heartbeat, p.addr); err != nil {
				e.logger.Warn("heartbeat send failed", "ip", p.ip, "error", err)
				continue
			}
			e.mu.Lock()
			if c, ok := e.conns[p.ip]; ok {
				c.lastHeartbeat = now
			}
			e.mu.Unlock()
		}
	}
}

func (e *Engine) heartbeatDue(ip string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.conns[ip]
	return ok && now.Sub(c.lastHeartbeat) >= e.cfg.HeartbeatInterval
}

func (e *Engine) monitorLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}

		now := time.Now()
		e.mu.Lock()
		for ip, c := range e.conns {
			if c.liveness == LivenessLive && now.Sub(c.lastReceived) > e.cfg.Timeout {
				c.liveness = LivenessStale
				e.logger.Warn("peer stale", "ip", ip, "silence", now.Sub(c.lastReceived))
			}
		}
		e.mu.Unlock()
	}
}
