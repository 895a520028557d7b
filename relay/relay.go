// Package relay carries narrow values, such as counters and configuration
// registers, from one clock domain to another.
package relay

import (
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/timing"
)

// Relay is a single-writer single-reader crossing for a value that is
// refreshed over time. The writer never waits: when the crossing is full the
// offered value is dropped and a later offer carries a newer one. The reader
// keeps the freshest value it has received.
type Relay[T any] struct {
	fifo *queueing.AsyncFIFO[T]

	value   T
	valid   bool
	dropped uint64
}

// New creates a relay with the given depth and synchronizer latency.
func New[T any](
	name string,
	depth int,
	latency timing.VTimeInCycle,
) *Relay[T] {
	b := queueing.MakeAsyncFIFOBuilder().
		WithCapacity(depth).
		WithLatency(latency)

	return &Relay[T]{
		fifo: queueing.BuildAsyncFIFO[T](b, name),
	}
}

// Name returns the name of the relay.
func (r *Relay[T]) Name() string {
	return r.fifo.Name()
}

// FIFO exposes the underlying crossing so that hooks can be attached.
func (r *Relay[T]) FIFO() *queueing.AsyncFIFO[T] {
	return r.fifo
}

// Offer sends a value from the writer domain. It reports whether the value
// entered the crossing.
func (r *Relay[T]) Offer(now timing.VTimeInCycle, v T) bool {
	if r.fifo.TryPush(now, v) {
		return true
	}

	r.dropped++

	return false
}

// Latest drains every value visible to the reader and returns the freshest
// one received so far. ok is false until the first value arrives.
func (r *Relay[T]) Latest(now timing.VTimeInCycle) (v T, ok bool) {
	for {
		next, found := r.fifo.Pop(now)
		if !found {
			break
		}

		r.value = next
		r.valid = true
	}

	return r.value, r.valid
}

// Dropped returns the number of offers that did not enter the crossing.
func (r *Relay[T]) Dropped() uint64 {
	return r.dropped
}

// Clear drops in-flight values and forgets the received one.
func (r *Relay[T]) Clear() {
	var zero T

	r.fifo.Clear()
	r.value = zero
	r.valid = false
}
