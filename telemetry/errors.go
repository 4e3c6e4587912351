package telemetry

import (
	"errors"
	"fmt"
)

// IncompleteDataError reports a datagram that is not a whole frame.
type IncompleteDataError struct {
	Expected int
	Actual   int
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("incomplete frame: expected %d bytes, got %d", e.Expected, e.Actual)
}

// ParseError reports a field that could not be read from the frame buffer.
type ParseError struct {
	Field  string
	Offset int
	Len    int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: short read at offset %d (%d bytes)", e.Field, e.Offset, e.Len)
}

// VersionMismatchError reports an unsupported frame version.
type VersionMismatchError struct {
	Expected uint16
	Actual   uint16
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("frame version mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// FormatError reports a frame that parsed but carries an out-of-range or
// malformed field.
type FormatError struct {
	Field string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid frame format: field %q", e.Field)
}

// ChecksumError is reserved for a future end-to-end checksum. The current wire
// format carries none, so this error is never produced by the codec; it exists
// so caller classification code stays stable if one is added.
type ChecksumError struct {
	Calculated uint16
	Expected   uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("frame checksum mismatch: calculated 0x%04X, expected 0x%04X", e.Calculated, e.Expected)
}

// NetworkError reports a failed socket operation against a peer.
type NetworkError struct {
	Address string
	Reason  string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for %s: %s", e.Address, e.Reason)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidIPError reports a peer address outside the LAN allow-list or one that
// failed to parse.
type InvalidIPError struct {
	IP string
}

func (e *InvalidIPError) Error() string {
	return fmt.Sprintf("invalid console IP %q: must be a LAN IPv4 address", e.IP)
}

// InvalidPortError reports a zero port.
type InvalidPortError struct {
	Port uint16
}

func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port %d: valid range is 1-65535", e.Port)
}

// TimeoutError reports an operation exceeding its deadline.
type TimeoutError struct {
	Operation string
	Millis    uint64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %dms", e.Operation, e.Millis)
}

// GameNotConnectedError reports that a console has not produced a frame within
// the staleness window.
type GameNotConnectedError struct {
	LastHeartbeat string
}

func (e *GameNotConnectedError) Error() string {
	return fmt.Sprintf("game not connected (last heartbeat: %s)", e.LastHeartbeat)
}

// ConfigError reports a rejected configuration value.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q (%s)", e.Field, e.Value, e.Reason)
}

// InvalidGameStateError reports an operation attempted in a game state that
// does not support it.
type InvalidGameStateError struct {
	Current   string
	Operation string
}

func (e *InvalidGameStateError) Error() string {
	return fmt.Sprintf("game state %q does not support operation %q", e.Current, e.Operation)
}

// IsNetwork reports whether err is a socket or addressing failure.
func IsNetwork(err error) bool {
	var (
		ne *NetworkError
		ip *InvalidIPError
	)
	return errors.As(err, &ne) || errors.As(err, &ip)
}

// IsPacket reports whether err stems from decoding a frame.
func IsPacket(err error) bool {
	var (
		in *IncompleteDataError
		pe *ParseError
		vm *VersionMismatchError
		fe *FormatError
		ce *ChecksumError
	)
	return errors.As(err, &in) || errors.As(err, &pe) || errors.As(err, &vm) ||
		errors.As(err, &fe) || errors.As(err, &ce)
}

// IsConfig reports whether err is a configuration or peer-validation failure.
func IsConfig(err error) bool {
	var (
		ce *ConfigError
		ip *InvalidIPError
		pp *InvalidPortError
	)
	return errors.As(err, &ce) || errors.As(err, &ip) || errors.As(err, &pp)
}

// IsRecoverable reports whether a retry loop can reasonably continue past err.
func IsRecoverable(err error) bool {
	var (
		te *TimeoutError
		gn *GameNotConnectedError
		in *IncompleteDataError
		ne *NetworkError
	)
	return errors.As(err, &te) || errors.As(err, &gn) || errors.As(err, &in) ||
		errors.As(err, &ne)
}
