package pad

// TargetHandle identifies one virtual controller inside an adapter. Windows
// stores the native target pointer here; the other adapters use small ids.
type TargetHandle uintptr

// Adapter is the platform shim that delivers a serialized report to the
// operating system. Submit is synchronous: it returns only after the native
// layer accepted the report or reported an error, and its errors live in the
// platform's code space, never InvalidInputError.
//
// The adapter holds the exclusive logical lifetime of the native client
// handle. Every target attached through it must be detached before Close;
// the Client facade enforces that ordering.
type Adapter interface {
	Name() string
	Attach() (TargetHandle, error)
	Submit(h TargetHandle, report []byte) error
	Detach(h TargetHandle) error
	Close() error
}
