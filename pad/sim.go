package pad

import (
	"sync"
)

// SimAdapter is a pure in-memory adapter. It records every submitted report
// so tests can assert on the exact bytes that would have reached the OS.
type SimAdapter struct {
	mu      sync.Mutex
	nextID  TargetHandle
	targets map[TargetHandle]*simTarget
	closed  bool
}

type simTarget struct {
	last    []byte
	submits uint64
}

// NewSimAdapter returns an empty simulation adapter.
func NewSimAdapter() *SimAdapter {
	return &SimAdapter{nextID: 1, targets: make(map[TargetHandle]*simTarget)}
}

func (a *SimAdapter) Name() string { return "sim" }

func (a *SimAdapter) Attach() (TargetHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, &UpdateError{Reason: "adapter closed"}
	}
	h := a.nextID
	a.nextID++
	a.targets[h] = &simTarget{}
	return h, nil
}

func (a *SimAdapter) Submit(h TargetHandle, report []byte) error {
	if len(report) != ReportSize {
		return &UpdateError{Reason: "report must be 64 bytes"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.targets[h]
	if !ok {
		return &UpdateError{Reason: "unknown target"}
	}
	t.last = append(t.last[:0], report...)
	t.submits++
	return nil
}

func (a *SimAdapter) Detach(h TargetHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.targets[h]; !ok {
		return &UpdateError{Reason: "unknown target"}
	}
	delete(a.targets, h)
	return nil
}

func (a *SimAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// LastReport returns a copy of the most recent report submitted for h, or nil
// if none has been submitted yet.
func (a *SimAdapter) LastReport(h TargetHandle) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.targets[h]
	if !ok || t.last == nil {
		return nil
	}
	out := make([]byte, len(t.last))
	copy(out, t.last)
	return out
}

// SubmitCount returns how many reports have been submitted for h.
func (a *SimAdapter) SubmitCount(h TargetHandle) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.targets[h]; ok {
		return t.submits
	}
	return 0
}
