package ingest

import (
	"sync"
	"sync/atomic"

	"github.com/simrig-tools/gtlink/telemetry"
)

// SubscriberCapacity is the per-subscriber buffer depth; it is the only form
// of backpressure in the pipeline.
const SubscriberCapacity = 1000

// Tagged pairs a decoded frame with the peer that produced it. Frames travel
// by value so subscribers cannot affect each other.
type Tagged struct {
	Peer  string
	Frame telemetry.Frame
}

// Bus is a bounded broadcast primitive. Publishing never blocks: when a
// subscriber's buffer is full its oldest frame is discarded to make room, so
// slow subscribers observe gaps while fast ones are unaffected.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// Subscription is one subscriber's view of the bus stream.
type Subscription struct {
	bus     *Bus
	id      uint64
	ch      chan Tagged
	dropped atomic.Uint64
}

func newBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a new subscriber with a fresh buffer.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscription{
		bus: b,
		id:  b.nextID,
		ch:  make(chan Tagged, SubscriberCapacity),
	}
	b.nextID++
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s.id] = s
	return s
}

// C returns the subscriber's receive channel. It is closed when the bus shuts
// down or the subscription is cancelled.
func (s *Subscription) C() <-chan Tagged { return s.ch }

// Dropped returns how many frames this subscriber has lost to backpressure.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s.id]; ok {
		delete(b.subs, s.id)
		close(s.ch)
	}
}

// publish delivers t to every subscriber without blocking. On a full buffer
// the oldest entry is evicted first; if the buffer is contended the frame
// itself is dropped and counted.
func (b *Bus) publish(t Tagged) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, s := range b.subs {
		select {
		case s.ch <- t:
			continue
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
		select {
		case s.ch <- t:
		default:
			s.dropped.Add(1)
		}
	}
}

// close shuts the bus down and closes every subscriber channel.
func (b *Bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
}
