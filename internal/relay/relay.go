package relay

import (
	"sync"

	"github.com/rickgao/bizsim-client/internal/buffer"
	"github.com/rickgao/bizsim-client/internal/model"
)

// DefaultCapacity is the initial queue size; the queue grows on demand.
const DefaultCapacity = 64

// Relay is the ordered event channel between I/O and consumer.
type Relay struct {
	queue *buffer.Queue[model.Event]

	mu         sync.Mutex
	last       model.State
	hasLast    bool
	suppressed int64
}

// Stats contains relay statistics.
type Stats struct {
	Queue      buffer.Stats
	Suppressed int64 // state events dropped by coalescing
}

// New creates a relay with the given initial capacity.
func New(initialCapacity int) *Relay {
	if initialCapacity < 1 {
		initialCapacity = DefaultCapacity
	}
	return &Relay{queue: buffer.New[model.Event](initialCapacity)}
}

// Notify publishes ev. It returns false if the event was coalesced away or
// the relay is closed. Safe for concurrent use.
func (r *Relay) Notify(ev model.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Kind == model.KindState {
		if r.hasLast && r.last == ev.State {
			r.suppressed++
			return false
		}
		if r.hasLast && r.last == model.StateInvalidLogin &&
			ev.State == model.StateDisconnected && !ev.Forced {
			r.suppressed++
			return false
		}
		r.last = ev.State
		r.hasLast = true
	}

	// Pushed under r.mu so coalescing decisions match queue order.
	return r.queue.Push(ev)
}

// Receive blocks until the next event. ok is false once the relay is closed
// and drained.
func (r *Relay) Receive() (ev model.Event, ok bool) {
	return r.queue.Receive()
}

// TryReceive returns the next event without blocking.
func (r *Relay) TryReceive() (ev model.Event, ok bool) {
	return r.queue.TryReceive()
}

// Pending returns the number of undelivered events.
func (r *Relay) Pending() int {
	return r.queue.Len()
}

// LastState returns the most recently published state.
func (r *Relay) LastState() (model.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Close stops accepting events and wakes blocked receivers. Queued events
// are still delivered.
func (r *Relay) Close() {
	r.queue.Close()
}

// Stats returns relay statistics.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	suppressed := r.suppressed
	r.mu.Unlock()
	return Stats{
		Queue:      r.queue.Stats(),
		Suppressed: suppressed,
	}
}
