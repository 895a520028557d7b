package lane

import (
	"fmt"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/word"
)

// Array is the arena of lane records. Lane-indexed logic loops over it.
type Array struct {
	lanes []Lane
}

// NewArray creates n lanes, each with its own queue built from the given
// builder.
func NewArray(
	name string,
	n int,
	queueBuilder queueing.AsyncFIFOBuilder,
) *Array {
	if n <= 0 {
		panic("lane array must have at least one lane")
	}

	a := &Array{lanes: make([]Lane, n)}
	for i := range a.lanes {
		laneName := fmt.Sprintf("%s.Lane[%d]", name, i)
		a.lanes[i] = Lane{
			HookableBase: hooking.NewHookableBase(),
			ID:           i,
			name:         laneName,
			Queue: queueing.BuildAsyncFIFO[word.SubframeWord](
				queueBuilder, laneName+".Queue"),
		}
	}

	return a
}

// Len returns the number of lanes.
func (a *Array) Len() int {
	return len(a.lanes)
}

// At returns the lane with the given index.
func (a *Array) At(i int) *Lane {
	return &a.lanes[i]
}

// AcceptHook registers the hook on every lane.
func (a *Array) AcceptHook(hook hooking.Hook) {
	for i := range a.lanes {
		a.lanes[i].AcceptHook(hook)
	}
}

// AllShowaheadValid tells whether every lane has a latched showahead
// timestamp.
func (a *Array) AllShowaheadValid() bool {
	for i := range a.lanes {
		if !a.lanes[i].Read.ShowaheadValid {
			return false
		}
	}

	return true
}

// GlobalOverflow tells whether every lane reports a timestamp overflow.
func (a *Array) GlobalOverflow() bool {
	for i := range a.lanes {
		if !a.lanes[i].Read.Overflow {
			return false
		}
	}

	return true
}

// AnyOverflow tells whether at least one lane reports a timestamp overflow.
func (a *Array) AnyOverflow() bool {
	for i := range a.lanes {
		if a.lanes[i].Read.Overflow {
			return true
		}
	}

	return false
}

// Totals sums the write-side counters of all lanes.
func (a *Array) Totals() Counters {
	var sum Counters
	for i := range a.lanes {
		sum.add(a.lanes[i].Write.Counters)
	}

	return sum
}

// StrayWords sums the read-side stray word counters.
func (a *Array) StrayWords() uint64 {
	var n uint64
	for i := range a.lanes {
		n += a.lanes[i].Read.StrayWords
	}

	return n
}

// StaleShowaheads sums the showaheads dropped because their header left the
// queue head.
func (a *Array) StaleShowaheads() uint64 {
	var n uint64
	for i := range a.lanes {
		n += a.lanes[i].Read.StaleShowaheads
	}

	return n
}
