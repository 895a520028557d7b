package queueing

import (
	"log"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
)

// An AsyncFIFO is a bounded queue whose writer and reader live in different
// clock domains. Pointers cross the boundary through synchronizers, so:
//
//   - an element pushed at time t becomes visible to the reader at
//     t + latency;
//   - a slot freed by the reader at time t becomes visible to the writer at
//     t + latency.
//
// Each side must only call its own methods. The queue never blocks: TryPush
// returns false when the writer sees the queue full.
type AsyncFIFO[T any] struct {
	*hooking.HookableBase

	name     string
	capacity int
	latency  timing.VTimeInCycle

	entries []asyncEntry[T]
	frees   []timing.VTimeInCycle
}

type asyncEntry[T any] struct {
	elem      T
	visibleAt timing.VTimeInCycle
}

// AsyncFIFOBuilder builds AsyncFIFOs.
type AsyncFIFOBuilder struct {
	capacity int
	latency  timing.VTimeInCycle
}

// MakeAsyncFIFOBuilder returns a builder with a capacity of 16 and a
// synchronizer latency of one engine cycle.
func MakeAsyncFIFOBuilder() AsyncFIFOBuilder {
	return AsyncFIFOBuilder{
		capacity: 16,
		latency:  1,
	}
}

// WithCapacity sets the depth of the queue.
func (b AsyncFIFOBuilder) WithCapacity(capacity int) AsyncFIFOBuilder {
	b.capacity = capacity
	return b
}

// WithLatency sets the synchronizer latency in engine cycles.
func (b AsyncFIFOBuilder) WithLatency(
	latency timing.VTimeInCycle,
) AsyncFIFOBuilder {
	b.latency = latency
	return b
}

// BuildAsyncFIFO creates the queue.
func BuildAsyncFIFO[T any](b AsyncFIFOBuilder, name string) *AsyncFIFO[T] {
	if b.capacity <= 0 {
		log.Panicf("async fifo %s must have a positive capacity", name)
	}

	return &AsyncFIFO[T]{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		capacity:     b.capacity,
		latency:      b.latency,
	}
}

// Name returns the name of the queue.
func (q *AsyncFIFO[T]) Name() string {
	return q.name
}

// Capacity returns the depth of the queue.
func (q *AsyncFIFO[T]) Capacity() int {
	return q.capacity
}

// Size returns the number of stored elements, including those the reader
// cannot see yet.
func (q *AsyncFIFO[T]) Size() int {
	return len(q.entries)
}

// Latency returns the synchronizer latency in engine cycles.
func (q *AsyncFIFO[T]) Latency() timing.VTimeInCycle {
	return q.latency
}

// WriteUsedWords returns the fill level as seen by the writer at now.
func (q *AsyncFIFO[T]) WriteUsedWords(now timing.VTimeInCycle) int {
	q.pruneFrees(now)

	return len(q.entries) + len(q.frees)
}

// WriteFree returns the number of free slots as seen by the writer at now.
func (q *AsyncFIFO[T]) WriteFree(now timing.VTimeInCycle) int {
	return q.capacity - q.WriteUsedWords(now)
}

// CanPush tells whether the writer sees at least one free slot.
func (q *AsyncFIFO[T]) CanPush(now timing.VTimeInCycle) bool {
	return q.WriteFree(now) > 0
}

// TryPush appends an element if the writer sees a free slot. It reports
// whether the element was accepted.
func (q *AsyncFIFO[T]) TryPush(now timing.VTimeInCycle, e T) bool {
	if !q.CanPush(now) {
		q.invoke(now, HookPosBufDrop, e)
		return false
	}

	q.entries = append(q.entries, asyncEntry[T]{
		elem:      e,
		visibleAt: now + q.latency,
	})
	q.invoke(now, HookPosBufPush, e)

	return true
}

// ReadUsedWords returns the number of elements visible to the reader at now.
func (q *AsyncFIFO[T]) ReadUsedWords(now timing.VTimeInCycle) int {
	n := 0
	for _, entry := range q.entries {
		if entry.visibleAt > now {
			break
		}
		n++
	}

	return n
}

// Empty tells whether the reader sees no element at now.
func (q *AsyncFIFO[T]) Empty(now timing.VTimeInCycle) bool {
	return len(q.entries) == 0 || q.entries[0].visibleAt > now
}

// Peek returns the head element if it is visible to the reader.
func (q *AsyncFIFO[T]) Peek(now timing.VTimeInCycle) (T, bool) {
	if q.Empty(now) {
		var zero T
		return zero, false
	}

	return q.entries[0].elem, true
}

// Pop removes the head element if it is visible to the reader.
func (q *AsyncFIFO[T]) Pop(now timing.VTimeInCycle) (T, bool) {
	var zero T
	if q.Empty(now) {
		return zero, false
	}

	e := q.entries[0].elem
	q.entries[0] = asyncEntry[T]{}
	q.entries = q.entries[1:]
	q.frees = append(q.frees, now+q.latency)
	q.invoke(now, HookPosBufPop, e)

	return e, true
}

// Clear drops every element, as an asynchronous clear of both pointers.
func (q *AsyncFIFO[T]) Clear() {
	q.entries = nil
	q.frees = nil
}

func (q *AsyncFIFO[T]) pruneFrees(now timing.VTimeInCycle) {
	i := 0
	for i < len(q.frees) && q.frees[i] <= now {
		i++
	}

	q.frees = q.frees[i:]
}

func (q *AsyncFIFO[T]) invoke(
	now timing.VTimeInCycle,
	pos *hooking.HookPos,
	e T,
) {
	if q.NumHooks() == 0 {
		return
	}

	q.InvokeHook(hooking.HookCtx{
		Domain: q,
		Now:    uint64(now),
		Pos:    pos,
		Item:   e,
	})
}
