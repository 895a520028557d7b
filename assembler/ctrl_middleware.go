package assembler

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
)

// ctrlMiddleware applies the run-control commands of the consumer domain.
type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() bool {
	now := m.CurrentTime()

	t := m.runCtrl.Update(now)
	m.State.RunState = m.runCtrl.State()

	if !t.ForcesReset() {
		return t.Applied
	}

	m.forceReset(now)

	return true
}

// forceReset abandons the frame in progress and clears every latch of the
// consumer domain.
func (m *ctrlMiddleware) forceReset(now timing.VTimeInCycle) {
	m.out.Rollback(now)

	for i := 0; i < m.lanes.Len(); i++ {
		m.lanes.At(i).ResetRead()
	}

	m.clearFrame()
	m.State.TrailerGenerated = false
	m.State.FrameCounter = 0
	m.State.ForcedResets++
	m.setFSM(now, Reset)
	m.resetThisTick = true

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m.Comp,
			Now:    uint64(now),
			Pos:    HookPosForcedReset,
			Item:   m.State.RunState,
		})
	}
}
