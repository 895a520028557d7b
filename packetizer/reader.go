package packetizer

import (
	"fmt"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// HookPosMalformedFrame is raised when a preamble shows up where the rest of
// a frame was expected.
var HookPosMalformedFrame = &hooking.HookPos{Name: "Malformed Frame"}

// ReaderSpec holds the configuration of a Reader.
type ReaderSpec struct {
	// GuardCycles is the number of cycles the reader waits after a trailer
	// before it may declare the next frame ready.
	GuardCycles int
}

// Validate checks the spec.
func (s ReaderSpec) Validate() error {
	if s.GuardCycles < 0 {
		return fmt.Errorf("guard cycles must be >= 0")
	}

	return nil
}

// DefaultReaderSpec returns the default reader configuration.
func DefaultReaderSpec() ReaderSpec {
	return ReaderSpec{GuardCycles: 4}
}

// ReaderState is the mutable data of a Reader.
type ReaderState struct {
	Streaming    bool
	Guard        int
	Offset       int
	FrameCounter uint16
	Side         SideEntry
	SideValid    bool

	ConsumedFrames  uint64
	MalformedFrames uint64
	StrayWords      uint64
	UnpatchedFrames uint64
	WordsOut        uint64
}

// Reader streams complete frames from the output queue into a sink.
type Reader struct {
	*timing.TickingComponent

	Spec  ReaderSpec
	State ReaderState

	queue *OutputQueue
	sink  Sink
}

// ReaderBuilder builds Readers.
type ReaderBuilder struct {
	spec   ReaderSpec
	engine timing.EventScheduler
	domain *timing.FreqDomain
	queue  *OutputQueue
	sink   Sink
}

// MakeReaderBuilder returns a builder with the default spec.
func MakeReaderBuilder() ReaderBuilder {
	return ReaderBuilder{spec: DefaultReaderSpec()}
}

// WithEngine sets the engine that schedules the ticks.
func (b ReaderBuilder) WithEngine(e timing.EventScheduler) ReaderBuilder {
	b.engine = e
	return b
}

// WithDomain sets the clock domain of the reader.
func (b ReaderBuilder) WithDomain(d *timing.FreqDomain) ReaderBuilder {
	b.domain = d
	return b
}

// WithGuardCycles sets the guard interval after each trailer.
func (b ReaderBuilder) WithGuardCycles(n int) ReaderBuilder {
	b.spec.GuardCycles = n
	return b
}

// WithQueue sets the output queue to read from.
func (b ReaderBuilder) WithQueue(q *OutputQueue) ReaderBuilder {
	b.queue = q
	return b
}

// WithSink sets the consumer of the frames.
func (b ReaderBuilder) WithSink(s Sink) ReaderBuilder {
	b.sink = s
	return b
}

// Build creates the reader.
func (b ReaderBuilder) Build(name string) *Reader {
	if err := b.spec.Validate(); err != nil {
		panic(err)
	}

	if b.queue == nil || b.sink == nil {
		panic("reader needs a queue and a sink")
	}

	r := &Reader{
		Spec:  b.spec,
		queue: b.queue,
		sink:  b.sink,
	}
	r.TickingComponent = timing.NewFreeRunningComponent(
		name, b.engine, b.domain, r)

	return r
}

// FrameReady tells whether a complete frame may be exposed to the sink.
//
// Frame atomicity holds only while the output ring does not overflow. The
// relayed progress lags the ring, so after an overwrite FrameReady can be
// true while the ring no longer holds a sealed frame. Streaming then skips
// the remains as stray words and may start on the open frame, which is
// later counted as malformed.
func (r *Reader) FrameReady(now timing.VTimeInCycle) bool {
	if r.State.Guard > 0 {
		return false
	}

	p := r.queue.VisibleProgress(now)

	return p.Sealed > r.State.ConsumedFrames+p.Dropped
}

// Tick moves at most one word into the sink.
func (r *Reader) Tick() bool {
	now := r.CurrentTime()

	if r.State.Guard > 0 {
		r.State.Guard--
		return true
	}

	if !r.State.Streaming {
		if !r.FrameReady(now) {
			return false
		}

		r.State.Streaming = true
		r.State.Offset = 0
		r.State.SideValid = false
	}

	if !r.sink.CanAccept() {
		return false
	}

	w, ok := r.queue.ReadWord()
	if !ok {
		return false
	}

	return r.forward(now, w)
}

func (r *Reader) forward(now timing.VTimeInCycle, w word.FrameWord) bool {
	if r.State.Offset == 0 && !w.IsPreamble() {
		r.State.StrayWords++
		return true
	}

	if r.State.Offset > 0 && w.IsPreamble() {
		r.State.MalformedFrames++
		r.State.ConsumedFrames++
		r.State.Offset = 0
		r.State.SideValid = false
		r.invokeMalformed(now, w)
	}

	w = r.patch(now, w)

	r.sink.Accept(w)
	r.State.WordsOut++
	r.State.Offset++

	if w.IsTrailer() {
		r.State.ConsumedFrames++
		r.State.Streaming = false
		r.State.Guard = r.Spec.GuardCycles
	}

	return true
}

func (r *Reader) patch(now timing.VTimeInCycle, w word.FrameWord) word.FrameWord {
	switch r.State.Offset {
	case 2:
		r.State.FrameCounter = uint16(w.Data)
	case word.Debug0Offset:
		r.State.SideValid = r.findSide(now)
		if !r.State.SideValid {
			r.State.UnpatchedFrames++
			return w
		}

		w.Data = uint32(r.State.Side.SubheaderCount)
	case word.Debug1Offset:
		if r.State.SideValid {
			w.Data = uint32(r.State.Side.HitCount)
		}
	}

	return w
}

// findSide pops side entries until the one of the current frame. Entries of
// frames that never reached the reader are discarded on the way.
func (r *Reader) findSide(now timing.VTimeInCycle) bool {
	for {
		e, ok := r.queue.PopSide(now)
		if !ok {
			return false
		}

		if e.FrameCounter == r.State.FrameCounter {
			r.State.Side = e
			return true
		}
	}
}

func (r *Reader) invokeMalformed(now timing.VTimeInCycle, w word.FrameWord) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Now:    uint64(now),
		Pos:    HookPosMalformedFrame,
		Item:   w,
	})
}
