// Package lane models the per-lane state of the merger. A lane is split in
// two halves: the write half is owned by the producer clock domain and the
// read half by the consumer clock domain. The only link between the halves is
// the lane queue.
package lane

import (
	"fmt"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// CounterMask keeps the width of the lane counters.
const CounterMask = uint64(1)<<48 - 1

// TransState is the state of the write-side accounting machine.
type TransState int

// The write-side states.
const (
	TransIdle TransState = iota
	TransTransmission
	TransMasked
	TransReset
)

func (s TransState) String() string {
	switch s {
	case TransIdle:
		return "Idle"
	case TransTransmission:
		return "Transmission"
	case TransMasked:
		return "Masked"
	case TransReset:
		return "Reset"
	default:
		return fmt.Sprintf("TransState(%d)", int(s))
	}
}

// Outcome tells what the write half did with an ingress word.
type Outcome int

// The outcomes of Ingest.
const (
	OutcomeAccepted Outcome = iota
	OutcomeMaskedHeader
	OutcomeMaskedHit
	OutcomeDroppedHit
	OutcomeOrphan
)

// Hook positions raised by a lane.
var (
	HookPosMasked     = &hooking.HookPos{Name: "Lane Masked"}
	HookPosHitDropped = &hooking.HookPos{Name: "Lane Hit Dropped"}
	HookPosOrphan     = &hooking.HookPos{Name: "Lane Orphan Word"}
	HookPosStray      = &hooking.HookPos{Name: "Lane Stray Word"}
	HookPosConsumed   = &hooking.HookPos{Name: "Lane Sub-frame Selected"}
	HookPosStale      = &hooking.HookPos{Name: "Lane Stale Showahead"}
)

// Counters are the integrity counters of the write half. They are 48 bits
// wide and wrap.
type Counters struct {
	DeclaredHits    uint64
	ActualHits      uint64
	MissingHits     uint64
	OrphanWords     uint64
	MaskedSubframes uint64
}

// Delta returns declared - actual - missing, in 48-bit arithmetic.
func (c Counters) Delta() uint64 {
	return (c.DeclaredHits - c.ActualHits - c.MissingHits) & CounterMask
}

func (c *Counters) add(o Counters) {
	c.DeclaredHits = (c.DeclaredHits + o.DeclaredHits) & CounterMask
	c.ActualHits = (c.ActualHits + o.ActualHits) & CounterMask
	c.MissingHits = (c.MissingHits + o.MissingHits) & CounterMask
	c.OrphanWords = (c.OrphanWords + o.OrphanWords) & CounterMask
	c.MaskedSubframes = (c.MaskedSubframes + o.MaskedSubframes) & CounterMask
}

// Write is the producer-domain half of a lane.
type Write struct {
	State    TransState
	Counters Counters
}

// Read is the consumer-domain half of a lane.
type Read struct {
	ShowaheadTimestamp uint8
	ShowaheadValid     bool
	LastTimestamp      uint8
	LastValid          bool
	Overflow           bool
	StrayWords         uint64

	// StaleShowaheads counts latched timestamps whose header left the queue
	// head without being drained, as when the write half clears the queue.
	StaleShowaheads uint64

	// Draining is set between the selection of the lane and the end word of
	// the selected sub-frame.
	Draining     bool
	DrainedWords int
}

// Lane is one record of the lane arena.
type Lane struct {
	*hooking.HookableBase

	ID    int
	name  string
	Queue *queueing.AsyncFIFO[word.SubframeWord]
	Write Write
	Read  Read
}

// Name returns the name of the lane.
func (l *Lane) Name() string {
	return l.name
}

// Ingest runs the write-side accounting machine on one ingress word.
//
// A header is masked only when the queue is full as it arrives, and a hit is
// dropped only when the queue is full. A sub-frame that lost its end word is
// terminated on the read side by the next sub-header.
func (l *Lane) Ingest(now timing.VTimeInCycle, iw word.IngressWord) Outcome {
	w := word.Parse(iw)
	c := &l.Write.Counters

	if l.Write.State == TransReset {
		c.OrphanWords = (c.OrphanWords + 1) & CounterMask
		l.invoke(now, HookPosOrphan, w)

		return OutcomeOrphan
	}

	if w.IsHeader {
		return l.ingestHeader(now, w)
	}

	switch l.Write.State {
	case TransTransmission:
		if l.Queue.TryPush(now, w) {
			c.ActualHits = (c.ActualHits + 1) & CounterMask
			l.endOnTrailer(w)

			return OutcomeAccepted
		}

		c.MissingHits = (c.MissingHits + 1) & CounterMask
		l.endOnTrailer(w)
		l.invoke(now, HookPosHitDropped, w)

		return OutcomeDroppedHit
	case TransMasked:
		c.MissingHits = (c.MissingHits + 1) & CounterMask
		l.endOnTrailer(w)

		return OutcomeMaskedHit
	default:
		c.OrphanWords = (c.OrphanWords + 1) & CounterMask
		l.invoke(now, HookPosOrphan, w)

		return OutcomeOrphan
	}
}

func (l *Lane) ingestHeader(
	now timing.VTimeInCycle,
	w word.SubframeWord,
) Outcome {
	c := &l.Write.Counters
	c.DeclaredHits = (c.DeclaredHits + uint64(w.DeclaredHitCount)) &
		CounterMask

	if !l.Queue.TryPush(now, w) {
		c.MaskedSubframes = (c.MaskedSubframes + 1) & CounterMask
		l.Write.State = TransMasked
		l.endOnTrailer(w)
		l.invoke(now, HookPosMasked, w)

		return OutcomeMaskedHeader
	}

	l.Write.State = TransTransmission
	l.endOnTrailer(w)

	return OutcomeAccepted
}

func (l *Lane) endOnTrailer(w word.SubframeWord) {
	if w.IsTrailer {
		l.Write.State = TransIdle
	}
}

// ResetWrite forces the write half into Reset. The queue is cleared and the
// counters restart from zero.
func (l *Lane) ResetWrite() {
	l.Write = Write{State: TransReset}
	l.Queue.Clear()
}

// ReleaseReset moves the write half from Reset to Idle.
func (l *Lane) ReleaseReset() {
	if l.Write.State == TransReset {
		l.Write.State = TransIdle
	}
}

// RefreshShowahead keeps the showahead equal to the header at the queue
// head. A pending showahead whose header is no longer at the head is dropped
// and, if possible, replaced in the same call. A non-header word at the head
// cannot start a sub-frame; one such word is discarded per call. It reports
// whether the read half changed.
func (l *Lane) RefreshShowahead(now timing.VTimeInCycle) bool {
	if l.Read.Draining {
		return false
	}

	head, ok := l.Queue.Peek(now)
	changed := false

	if l.Read.ShowaheadValid {
		if ok && head.IsHeader && head.Timestamp == l.Read.ShowaheadTimestamp {
			return false
		}

		l.dropShowahead(now, head)
		changed = true
	}

	if !ok {
		return changed
	}

	if !head.IsHeader {
		l.Queue.Pop(now)
		l.Read.StrayWords++
		l.invoke(now, HookPosStray, head)

		return true
	}

	l.Read.ShowaheadTimestamp = head.Timestamp
	l.Read.ShowaheadValid = true
	l.Read.Overflow = l.Read.LastValid &&
		head.Timestamp < l.Read.LastTimestamp

	return true
}

func (l *Lane) dropShowahead(now timing.VTimeInCycle, head word.SubframeWord) {
	l.Read.ShowaheadValid = false
	l.Read.Overflow = false
	l.Read.StaleShowaheads++
	l.invoke(now, HookPosStale, head)
}

// Consume marks the showahead sub-frame as selected by arbitration. The
// header itself stays in the queue until it is drained.
func (l *Lane) Consume(now timing.VTimeInCycle) {
	if !l.Read.ShowaheadValid {
		panic(fmt.Sprintf("%s: consuming without showahead", l.name))
	}

	l.Read.ShowaheadValid = false
	l.Read.Overflow = false
	l.Read.Draining = true
	l.Read.DrainedWords = 0
	l.invoke(now, HookPosConsumed, l.Read.ShowaheadTimestamp)
}

// Drain pops the next word of the selected sub-frame. ok is false when no
// word is available this cycle. done is true once the sub-frame has ended,
// either on its end word or because the next sub-header showed up before it.
// In the latter case the sub-header stays in the queue.
//
// The first word drained must be the selected header. If the queue head
// changed since the selection, the selection is withdrawn: nothing is
// popped, done is true and the lane waits for a new showahead.
func (l *Lane) Drain(
	now timing.VTimeInCycle,
) (w word.SubframeWord, ok bool, done bool) {
	if !l.Read.Draining {
		return w, false, true
	}

	head, found := l.Queue.Peek(now)
	if !found {
		return w, false, false
	}

	if l.Read.DrainedWords == 0 {
		if !head.IsHeader || head.Timestamp != l.Read.ShowaheadTimestamp {
			l.Read.Draining = false
			l.Read.StaleShowaheads++
			l.invoke(now, HookPosStale, head)

			return w, false, true
		}

		l.Read.LastTimestamp = head.Timestamp
		l.Read.LastValid = true
	} else if head.IsHeader {
		l.Read.Draining = false
		return w, false, true
	}

	l.Queue.Pop(now)
	l.Read.DrainedWords++

	if head.IsTrailer {
		l.Read.Draining = false
	}

	return head, true, head.IsTrailer
}

// ClearEpoch forgets the last merged timestamp. The pending showahead, if
// any, is no longer considered overflowed.
func (l *Lane) ClearEpoch() {
	l.Read.LastTimestamp = 0
	l.Read.LastValid = false
	l.Read.Overflow = false
}

// ResetRead clears the read-side latches. The diagnostic counters survive.
func (l *Lane) ResetRead() {
	l.Read = Read{
		StrayWords:      l.Read.StrayWords,
		StaleShowaheads: l.Read.StaleShowaheads,
	}
}

func (l *Lane) invoke(
	now timing.VTimeInCycle,
	pos *hooking.HookPos,
	item any,
) {
	if l.NumHooks() == 0 {
		return
	}

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Now:    uint64(now),
		Pos:    pos,
		Item:   item,
	})
}
