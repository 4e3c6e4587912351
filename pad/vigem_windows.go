//go:build windows

package pad

import (
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	vigemStatusNone = 0x20000000
	vigemTargetDS4  = 2
)

// vigemAdapter drives the ViGEmBus kernel driver through ViGEmClient.dll.
type vigemAdapter struct {
	dll    *windows.DLL
	client uintptr
	logger *slog.Logger

	procAlloc        *windows.Proc
	procFree         *windows.Proc
	procConnect      *windows.Proc
	procDisconnect   *windows.Proc
	procTargetAlloc  *windows.Proc
	procTargetFree   *windows.Proc
	procTargetAdd    *windows.Proc
	procTargetRemove *windows.Proc
	procDS4Update    *windows.Proc

	mu      sync.Mutex
	targets map[TargetHandle]uintptr
	closed  bool
}

func newVigemAdapter(logger *slog.Logger) (*vigemAdapter, error) {
	dll, err := windows.LoadDLL("ViGEmClient.dll")
	if err != nil {
		return nil, &DriverNotInstalledError{
			Driver: "ViGEmBus",
			URL:    "https://github.com/nefarius/ViGEmBus/releases",
		}
	}
	a := &vigemAdapter{
		dll:     dll,
		logger:  logger,
		targets: make(map[TargetHandle]uintptr),
	}
	procs := []struct {
		name string
		dst  **windows.Proc
	}{
		{"vigem_alloc", &a.procAlloc},
		{"vigem_free", &a.procFree},
		{"vigem_connect", &a.procConnect},
		{"vigem_disconnect", &a.procDisconnect},
		{"vigem_target_alloc", &a.procTargetAlloc},
		{"vigem_target_free", &a.procTargetFree},
		{"vigem_target_add", &a.procTargetAdd},
		{"vigem_target_remove", &a.procTargetRemove},
		{"vigem_target_ds4_update", &a.procDS4Update},
	}
	for _, p := range procs {
		proc, err := dll.FindProc(p.name)
		if err != nil {
			_ = dll.Release()
			return nil, &DriverNotInstalledError{
				Driver: "ViGEmBus",
				URL:    "https://github.com/nefarius/ViGEmBus/releases",
			}
		}
		*p.dst = proc
	}

	a.client, _, _ = a.procAlloc.Call()
	if a.client == 0 {
		_ = dll.Release()
		return nil, &DriverCallError{Function: "vigem_alloc", Code: 0}
	}
	status, _, _ := a.procConnect.Call(a.client)
	if uint32(status) != vigemStatusNone {
		a.procFree.Call(a.client)
		_ = dll.Release()
		return nil, &DriverCallError{Function: "vigem_connect", Code: uint32(status)}
	}
	logger.Debug("connected to ViGEmBus")
	return a, nil
}

func (a *vigemAdapter) Name() string { return "vigem" }

func (a *vigemAdapter) Attach() (TargetHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, ErrControllerDisconnected
	}
	target, _, _ := a.procTargetAlloc.Call(uintptr(vigemTargetDS4))
	if target == 0 {
		return 0, &DriverCallError{Function: "vigem_target_alloc", Code: 0}
	}
	status, _, _ := a.procTargetAdd.Call(a.client, target)
	if uint32(status) != vigemStatusNone {
		a.procTargetFree.Call(target)
		return 0, &DriverCallError{Function: "vigem_target_add", Code: uint32(status)}
	}
	h := TargetHandle(target)
	a.targets[h] = target
	return h, nil
}

func (a *vigemAdapter) Submit(h TargetHandle, report []byte) error {
	if len(report) != ReportSize {
		return &UpdateError{Reason: "report must be 64 bytes"}
	}
	a.mu.Lock()
	target, ok := a.targets[h]
	a.mu.Unlock()
	if !ok {
		return ErrControllerDisconnected
	}
	status, _, _ := a.procDS4Update.Call(a.client, target,
		uintptr(unsafe.Pointer(&report[0])))
	if uint32(status) != vigemStatusNone {
		return &UpdateError{
			Reason: "driver rejected report",
			Err:    &DriverCallError{Function: "vigem_target_ds4_update", Code: uint32(status)},
		}
	}
	return nil
}

func (a *vigemAdapter) Detach(h TargetHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	target, ok := a.targets[h]
	if !ok {
		return ErrControllerDisconnected
	}
	delete(a.targets, h)
	status, _, _ := a.procTargetRemove.Call(a.client, target)
	a.procTargetFree.Call(target)
	if uint32(status) != vigemStatusNone {
		return &DriverCallError{Function: "vigem_target_remove", Code: uint32(status)}
	}
	return nil
}

// Close tears down in driver order: remove and free every remaining target,
// disconnect, free the client, then unload the DLL.
func (a *vigemAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	for h, target := range a.targets {
		a.procTargetRemove.Call(a.client, target)
		a.procTargetFree.Call(target)
		delete(a.targets, h)
	}
	a.procDisconnect.Call(a.client)
	a.procFree.Call(a.client)
	return a.dll.Release()
}
