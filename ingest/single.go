package ingest

import (
	"log/slog"
)

// Single wraps an Engine for the common one-console case.
type Single struct {
	engine *Engine
	ip     string
}

// NewSingle builds an engine with a single registered peer. A port of zero
// uses the default telemetry port.
func NewSingle(ip string, port uint16, logger *slog.Logger) (*Single, *Subscription, error) {
	cfg := DefaultConfig()
	cfg.ConsoleIP = ip
	if port != 0 {
		cfg.Port = port
	}

	engine, sub := New(cfg, logger)
	if err := engine.AddPeer(ip, port); err != nil {
		sub.Cancel()
		return nil, nil, err
	}
	return &Single{engine: engine, ip: ip}, sub, nil
}

// Engine exposes the underlying engine for status queries and extra peers.
func (s *Single) Engine() *Engine { return s.engine }

// Start begins ingesting from the console.
func (s *Single) Start() error { return s.engine.Start() }

// Stop halts the activity loops; the peer stays registered.
func (s *Single) Stop() { s.engine.Stop() }

// Close tears the engine down.
func (s *Single) Close() { s.engine.Close() }

// IsConnected reports whether the console has produced a frame within the
// staleness window.
func (s *Single) IsConnected() bool {
	return s.engine.Status()[s.ip] == LivenessLive
}
