package pad

import (
	"errors"
	"fmt"
)

// ErrControllerDisconnected is returned by mutators after the owning client
// has been closed.
var ErrControllerDisconnected = errors.New("controller disconnected")

// DriverNotInstalledError reports a missing platform driver.
type DriverNotInstalledError struct {
	Driver string
	URL    string
}

func (e *DriverNotInstalledError) Error() string {
	return fmt.Sprintf("required driver not installed: %s (download: %s)", e.Driver, e.URL)
}

// UnsupportedPlatformError reports a feature the current platform cannot
// provide.
type UnsupportedPlatformError struct {
	Platform string
	Feature  string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform %q does not support %s", e.Platform, e.Feature)
}

// InsufficientPermissionsError reports an operation that needs elevated
// privileges.
type InsufficientPermissionsError struct {
	Operation string
}

func (e *InsufficientPermissionsError) Error() string {
	return fmt.Sprintf("insufficient permissions for %s", e.Operation)
}

// DriverCallError reports a failed native driver entry point. Code is in the
// driver's own status space; Mnemonic decodes the known ones.
type DriverCallError struct {
	Function string
	Code     uint32
}

func (e *DriverCallError) Error() string {
	if m := e.Mnemonic(); m != "" {
		return fmt.Sprintf("driver call %s failed: %s (0x%08X)", e.Function, m, e.Code)
	}
	return fmt.Sprintf("driver call %s failed: 0x%08X", e.Function, e.Code)
}

// Mnemonic returns the symbolic name of the status code, or "" if unknown.
func (e *DriverCallError) Mnemonic() string {
	return vigemStatusNames[e.Code]
}

// vigemStatusNames decodes the ViGEm bus status space.
var vigemStatusNames = map[uint32]string{
	0x20000000: "None",
	0xE0000001: "BusNotFound",
	0xE0000002: "NoFreeSlot",
	0xE0000003: "InvalidTarget",
	0xE0000004: "RemovalFailed",
	0xE0000005: "AlreadyConnected",
	0xE0000006: "TargetUninitialized",
	0xE0000007: "TargetNotPluggedIn",
	0xE0000008: "BusVersionMismatch",
	0xE0000009: "BusAccessFailed",
	0xE000000A: "CallbackAlreadyRegistered",
	0xE000000B: "CallbackNotFound",
	0xE000000C: "UnknownUsbDevice",
	0xE000000D: "IllegalArgument",
	0xE000000E: "XusbUserIndexOutOfRange",
	0xE000000F: "InvalidParameter",
	0xE0000010: "NotSupported",
}

// UpdateError reports a state submission the native layer rejected.
type UpdateError struct {
	Reason string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("controller update failed: %s", e.Reason)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// InvalidInputError reports a mutator argument outside its accepted range.
// The controller state is untouched when this is returned.
type InvalidInputError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// IsDriverError reports whether err stems from the native driver layer.
func IsDriverError(err error) bool {
	var (
		dn *DriverNotInstalledError
		dc *DriverCallError
	)
	return errors.As(err, &dn) || errors.As(err, &dc)
}

// IsRecoverable reports whether the caller can retry past err without
// recreating the client.
func IsRecoverable(err error) bool {
	var (
		ue *UpdateError
		ii *InvalidInputError
	)
	return errors.As(err, &ue) || errors.As(err, &ii)
}
