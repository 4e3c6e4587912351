package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// FrameTap records raw telemetry datagrams for offline inspection.
type FrameTap interface {
	Log(peer string, data []byte)
}

// frameTap implements FrameTap with thread-safe writes.
type frameTap struct {
	w  io.Writer
	mu sync.Mutex
}

// NewFrameTap creates a new FrameTap. If writer is nil, returns a no-op tap.
func NewFrameTap(w io.Writer) FrameTap {
	return &frameTap{w: w}
}

// Log emits a single-line record with timestamp, peer and hex dump.
func (t *frameTap) Log(peer string, data []byte) {
	if len(data) == 0 {
		return
	}
	if t.w == nil {
		return
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s frame: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		peer,
		len(data),
		hexbuf.String())

	t.mu.Lock()
	_, _ = t.w.Write([]byte(line))
	t.mu.Unlock()
}
