// Package assembler implements the frame assembly state machine of the
// consumer domain. It picks the lane with the smallest pending sub-frame
// timestamp, drains that sub-frame into the output queue, and wraps rounds
// of sub-frames into frames.
package assembler

import (
	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/timing"
)

// Hook positions raised by the assembler.
var (
	HookPosStateChange = &hooking.HookPos{Name: "Assembler State Change"}
	HookPosForcedReset = &hooking.HookPos{Name: "Assembler Forced Reset"}
)

// Comp is the frame assembler with Spec/State/Middlewares.
type Comp struct {
	*timing.TickingComponent
	timing.MiddlewareHolder

	Spec  Spec
	State State

	lanes   *lane.Array
	arb     *arbiter.Unit
	out     *packetizer.OutputQueue
	ts      *relay.Relay[uint64]
	runCtrl *runctrl.Channel

	elems []arbiter.Element

	// resetThisTick keeps the machine in Reset for the tick in which a
	// forced reset arrives.
	resetThisTick bool
}

// Tick delegates to the middleware pipeline.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// SnapshotState returns a copy of the state.
func (c *Comp) SnapshotState() any {
	return c.State
}

// SetIdentity changes the type tag and source id of the next frames.
func (c *Comp) SetIdentity(typeTag uint8, sourceID uint32) error {
	spec := c.Spec
	spec.TypeTag = typeTag
	spec.SourceID = sourceID

	if err := spec.Validate(); err != nil {
		return err
	}

	c.State.TypeTag = typeTag
	c.State.SourceID = sourceID

	return nil
}

// Lanes returns the lane arena.
func (c *Comp) Lanes() *lane.Array {
	return c.lanes
}

// Arbiter returns the arbitration unit.
func (c *Comp) Arbiter() *arbiter.Unit {
	return c.arb
}

func (c *Comp) setFSM(now timing.VTimeInCycle, s FSMState) {
	if c.State.FSM == s {
		return
	}

	prev := c.State.FSM
	c.State.FSM = s

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Now:    uint64(now),
			Pos:    HookPosStateChange,
			Item:   s,
			Detail: prev,
		})
	}
}

// clearFrame drops the per-frame latches.
func (c *Comp) clearFrame() {
	c.State.HeaderGenerated = false
	c.State.HeaderStep = 0
	c.State.SubheaderCount = 0
	c.State.HitCount = 0
	c.arb.Flush()
}
