package ingest

import (
	"net"
	"time"
)

// Liveness is the ternary per-peer connection state. A peer starts unknown,
// turns live on its first valid frame, decays to stale after the configured
// silence window and returns to live on the next valid frame.
type Liveness int

const (
	LivenessUnknown Liveness = iota
	LivenessLive
	LivenessStale
)

func (l Liveness) String() string {
	switch l {
	case LivenessLive:
		return "live"
	case LivenessStale:
		return "stale"
	default:
		return "unknown"
	}
}

// connection is the per-peer record of the table. It is created by AddPeer,
// mutated only by the three engine loops under the table mutex, and destroyed
// by RemovePeer or Close. The socket has a single reader (the receive loop).
type connection struct {
	addr          *net.UDPAddr
	sock          *net.UDPConn
	lastReceived  time.Time
	lastHeartbeat time.Time
	liveness      Liveness
	packets       uint64
}
