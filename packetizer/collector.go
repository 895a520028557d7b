package packetizer

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// HookPosFrameReceived is raised when the collector decodes a frame.
var HookPosFrameReceived = &hooking.HookPos{Name: "Frame Received"}

// FrameCollector is a Sink that decodes the frame stream and checks it.
type FrameCollector struct {
	*hooking.HookableBase

	name    string
	clock   timing.TimeTeller
	pattern []bool
	calls   int
	partial []word.FrameWord

	Frames          []word.Frame
	Errors          []error
	OrderViolations int
	CountMismatches int
}

// NewFrameCollector creates a collector that is always ready.
func NewFrameCollector(name string) *FrameCollector {
	return &FrameCollector{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
	}
}

// WithReadyPattern makes the collector cycle through the given ready values,
// one per CanAccept call.
func (c *FrameCollector) WithReadyPattern(pattern ...bool) *FrameCollector {
	c.pattern = pattern
	return c
}

// WithClock lets hooks carry the engine time.
func (c *FrameCollector) WithClock(clock timing.TimeTeller) *FrameCollector {
	c.clock = clock
	return c
}

// Name returns the name of the collector.
func (c *FrameCollector) Name() string {
	return c.name
}

// CanAccept returns the next value of the ready pattern.
func (c *FrameCollector) CanAccept() bool {
	if len(c.pattern) == 0 {
		return true
	}

	ready := c.pattern[c.calls%len(c.pattern)]
	c.calls++

	return ready
}

// Accept takes one word of the stream.
func (c *FrameCollector) Accept(w word.FrameWord) {
	if w.SOP && len(c.partial) > 0 {
		c.decode()
	}

	c.partial = append(c.partial, w)

	if w.EOP {
		c.decode()
	}
}

func (c *FrameCollector) decode() {
	f, err := word.DecodeFrame(c.partial)
	c.partial = nil

	if err != nil {
		c.Errors = append(c.Errors, err)
		return
	}

	if !nonDecreasing(f.Timestamps()) {
		c.OrderViolations++
	}

	if int(f.Trailer.SubheaderCount) != len(f.Body)&0xFFFF ||
		int(f.Trailer.HitCount) != f.NumHits()&0xFFFF {
		c.CountMismatches++
	}

	c.Frames = append(c.Frames, f)

	if c.NumHooks() > 0 {
		var now uint64
		if c.clock != nil {
			now = uint64(c.clock.CurrentTime())
		}

		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Now:    now,
			Pos:    HookPosFrameReceived,
			Item:   f,
		})
	}
}

// Partial returns the number of words of the frame being received.
func (c *FrameCollector) Partial() int {
	return len(c.partial)
}

func nonDecreasing(ts []uint8) bool {
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return false
		}
	}

	return true
}
