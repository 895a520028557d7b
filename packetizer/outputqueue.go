// Package packetizer holds the output side of the merger: the output queue
// that frames are assembled into and the reader that hands complete frames
// to the consumer.
package packetizer

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// Progress is the write-side frame accounting seen by the reader.
type Progress struct {
	Sealed  uint64
	Dropped uint64
}

// SideEntry carries the per-frame counts that the reader patches into the
// debug words of the frame header.
type SideEntry struct {
	FrameCounter   uint16
	SubheaderCount uint16
	HitCount       uint16
}

// Hook positions raised by the output queue.
var (
	HookPosFrameBegun      = &hooking.HookPos{Name: "Frame Begun"}
	HookPosFrameSealed     = &hooking.HookPos{Name: "Frame Sealed"}
	HookPosFrameDropped    = &hooking.HookPos{Name: "Frame Dropped"}
	HookPosFrameRolledBack = &hooking.HookPos{Name: "Frame Rolled Back"}
)

// OutputQueue is a ring of frame words. The writer never waits: writing into
// a full ring overwrites the oldest word. A frame whose preamble is
// overwritten counts as dropped.
type OutputQueue struct {
	*hooking.HookableBase

	name  string
	ring  []word.FrameWord
	read  uint64
	write uint64

	open        bool
	openStart   uint64
	openCounter uint16

	progress  Progress
	published Progress
	relay     *relay.Relay[Progress]
	side      *queueing.AsyncFIFO[SideEntry]

	overwrittenWords uint64
	sideDrops        uint64
}

// OutputQueueBuilder builds OutputQueues.
type OutputQueueBuilder struct {
	capacity     int
	sideCapacity int
	latency      timing.VTimeInCycle
}

// MakeOutputQueueBuilder returns a builder with default parameters.
func MakeOutputQueueBuilder() OutputQueueBuilder {
	return OutputQueueBuilder{
		capacity:     1024,
		sideCapacity: 16,
		latency:      2,
	}
}

// WithCapacity sets the number of words the ring holds.
func (b OutputQueueBuilder) WithCapacity(n int) OutputQueueBuilder {
	b.capacity = n
	return b
}

// WithSideCapacity sets the depth of the side FIFO.
func (b OutputQueueBuilder) WithSideCapacity(n int) OutputQueueBuilder {
	b.sideCapacity = n
	return b
}

// WithLatency sets the latency with which seals and side entries reach the
// reader.
func (b OutputQueueBuilder) WithLatency(
	latency timing.VTimeInCycle,
) OutputQueueBuilder {
	b.latency = latency
	return b
}

// Build creates the output queue.
func (b OutputQueueBuilder) Build(name string) *OutputQueue {
	if b.capacity <= 0 {
		panic("output queue must have a positive capacity")
	}

	return &OutputQueue{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		ring:         make([]word.FrameWord, b.capacity),
		relay:        relay.New[Progress](name+".Progress", 2, b.latency),
		side: queueing.BuildAsyncFIFO[SideEntry](
			queueing.MakeAsyncFIFOBuilder().
				WithCapacity(b.sideCapacity).
				WithLatency(b.latency),
			name+".Side"),
	}
}

// Name returns the name of the queue.
func (q *OutputQueue) Name() string {
	return q.name
}

// Capacity returns the number of words the ring holds.
func (q *OutputQueue) Capacity() int {
	return len(q.ring)
}

// Size returns the number of unread words.
func (q *OutputQueue) Size() int {
	return int(q.write - q.read)
}

// BeginFrame marks the next written word as the start of the frame with the
// given counter.
func (q *OutputQueue) BeginFrame(now timing.VTimeInCycle, counter uint16) {
	q.open = true
	q.openStart = q.write
	q.openCounter = counter

	q.invoke(now, HookPosFrameBegun, counter)
}

// Write appends a word.
func (q *OutputQueue) Write(now timing.VTimeInCycle, w word.FrameWord) {
	if q.Size() == len(q.ring) {
		q.overwriteOldest(now)
	}

	q.ring[q.write%uint64(len(q.ring))] = w
	q.write++
}

func (q *OutputQueue) overwriteOldest(now timing.VTimeInCycle) {
	lost := q.ring[q.read%uint64(len(q.ring))]
	q.read++
	q.overwrittenWords++

	if !lost.IsPreamble() {
		return
	}

	q.progress.Dropped++
	q.invoke(now, HookPosFrameDropped, lost)
}

// Seal closes the open frame and queues its counts for the reader.
func (q *OutputQueue) Seal(now timing.VTimeInCycle, entry SideEntry) {
	q.open = false
	q.progress.Sealed++

	if !q.side.TryPush(now, entry) {
		q.sideDrops++
	}

	q.invoke(now, HookPosFrameSealed, entry)
	q.Publish(now)
}

// Rollback removes the open frame.
func (q *OutputQueue) Rollback(now timing.VTimeInCycle) {
	if !q.open {
		return
	}

	q.open = false

	if q.openStart < q.read {
		q.write = q.read
		q.progress.Dropped--
	} else {
		q.write = q.openStart
	}

	q.invoke(now, HookPosFrameRolledBack, q.openCounter)
}

// Publish sends the write-side progress to the reader if it changed since
// the last successful publication.
func (q *OutputQueue) Publish(now timing.VTimeInCycle) {
	if q.progress == q.published {
		return
	}

	if q.relay.Offer(now, q.progress) {
		q.published = q.progress
	}
}

// Progress returns the write-side progress.
func (q *OutputQueue) Progress() Progress {
	return q.progress
}

// VisibleProgress returns the progress as seen by the reader.
func (q *OutputQueue) VisibleProgress(now timing.VTimeInCycle) Progress {
	p, _ := q.relay.Latest(now)
	return p
}

// ReadWord removes the oldest word.
func (q *OutputQueue) ReadWord() (word.FrameWord, bool) {
	if q.read == q.write {
		return word.FrameWord{}, false
	}

	w := q.ring[q.read%uint64(len(q.ring))]
	q.read++

	return w, true
}

// PopSide removes the oldest side entry visible to the reader.
func (q *OutputQueue) PopSide(now timing.VTimeInCycle) (SideEntry, bool) {
	return q.side.Pop(now)
}

// OverwrittenWords returns the number of words lost to overwriting.
func (q *OutputQueue) OverwrittenWords() uint64 {
	return q.overwrittenWords
}

// SideDrops returns the number of side entries lost to a full side FIFO.
func (q *OutputQueue) SideDrops() uint64 {
	return q.sideDrops
}

func (q *OutputQueue) invoke(
	now timing.VTimeInCycle,
	pos *hooking.HookPos,
	item any,
) {
	if q.NumHooks() == 0 {
		return
	}

	q.InvokeHook(hooking.HookCtx{
		Domain: q,
		Now:    uint64(now),
		Pos:    pos,
		Item:   item,
	})
}
