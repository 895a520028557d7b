package assembler

import (
	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// fsmMiddleware runs the frame assembly machine.
type fsmMiddleware struct {
	*Comp
}

func (m *fsmMiddleware) Tick() bool {
	now := m.CurrentTime()

	if v, ok := m.ts.Latest(now); ok {
		m.State.GlobalTimestamp = v
	}

	progress := m.arb.Tick()

	if m.resetThisTick {
		m.resetThisTick = false
	} else {
		progress = m.refreshLanes(now) || progress
		progress = m.step(now) || progress
	}

	m.out.Publish(now)

	return progress
}

func (m *fsmMiddleware) refreshLanes(now timing.VTimeInCycle) bool {
	progress := false

	for i := 0; i < m.lanes.Len(); i++ {
		if m.lanes.At(i).RefreshShowahead(now) {
			progress = true
		}
	}

	return progress
}

func (m *fsmMiddleware) step(now timing.VTimeInCycle) bool {
	switch m.State.FSM {
	case Idle:
		return m.idle(now)
	case StartOfFrame:
		return m.startOfFrame(now)
	case LookAround:
		return m.lookAround(now)
	case Transmission:
		return m.transmit(now)
	case EndOfFrame:
		return m.endOfFrame(now)
	case Reset:
		m.clearFrame()

		for i := 0; i < m.lanes.Len(); i++ {
			m.lanes.At(i).ClearEpoch()
		}

		m.setFSM(now, Idle)

		return true
	default:
		panic("unknown assembler state")
	}
}

func (m *fsmMiddleware) idle(now timing.VTimeInCycle) bool {
	if !m.lanes.AnyOverflow() {
		m.State.TrailerGenerated = false
	}

	switch {
	case !m.State.HeaderGenerated:
		m.State.HeaderStep = 0
		m.setFSM(now, StartOfFrame)
	case m.lanes.GlobalOverflow() && !m.State.TrailerGenerated:
		m.setFSM(now, EndOfFrame)
	default:
		m.setFSM(now, LookAround)
	}

	return true
}

func (m *fsmMiddleware) startOfFrame(now timing.VTimeInCycle) bool {
	switch m.State.HeaderStep {
	case 0:
		m.State.FrameTimestamp = m.State.GlobalTimestamp
		m.out.BeginFrame(now, m.State.FrameCounter)
		m.out.Write(now, word.Preamble(m.State.TypeTag, m.State.SourceID))
	case 1, 2:
		ts0, ts1 := word.HeaderTimestampWords(
			m.State.FrameTimestamp, m.State.FrameCounter)
		if m.State.HeaderStep == 1 {
			m.out.Write(now, ts0)
		} else {
			m.out.Write(now, ts1)
		}
	case 3:
		m.out.Write(now, word.DebugWord(0))
	case 4:
		m.out.Write(now, word.DebugWord(0))
		m.State.HeaderGenerated = true
		m.setFSM(now, Idle)
	}

	m.State.HeaderStep++

	return true
}

func (m *fsmMiddleware) lookAround(now timing.VTimeInCycle) bool {
	if r, ok := m.arb.Result(); ok {
		m.arb.Ack()

		if !m.postedStillLatched() {
			return true
		}

		m.State.Winner = r.Index
		m.lanes.At(r.Index).Consume(now)
		m.setFSM(now, Transmission)

		return true
	}

	if m.arb.Busy() || !m.lanes.AllShowaheadValid() {
		return false
	}

	if m.lanes.GlobalOverflow() && !m.State.TrailerGenerated {
		m.setFSM(now, Idle)
		return true
	}

	for i := range m.elems {
		l := m.lanes.At(i)
		m.elems[i] = arbiter.Element{
			Overflow:  l.Read.Overflow,
			Timestamp: l.Read.ShowaheadTimestamp,
		}
	}

	return m.arb.Post(m.elems)
}

// postedStillLatched tells whether every lane still shows the element that
// was posted to the arbiter. A showahead dropped while the arbiter was busy
// voids the result.
func (m *fsmMiddleware) postedStillLatched() bool {
	for i := range m.elems {
		l := m.lanes.At(i)
		if !l.Read.ShowaheadValid ||
			l.Read.ShowaheadTimestamp != m.elems[i].Timestamp ||
			l.Read.Overflow != m.elems[i].Overflow {
			return false
		}
	}

	return true
}

func (m *fsmMiddleware) transmit(now timing.VTimeInCycle) bool {
	w, ok, done := m.lanes.At(m.State.Winner).Drain(now)

	if ok {
		if w.IsHeader {
			m.out.Write(now, word.OutputSubHeader(
				uint8(m.State.Winner), w.Timestamp, w.DeclaredHitCount))
			m.State.SubheaderCount++
		} else {
			m.out.Write(now, word.HitWord(w.HitData()))
			m.State.HitCount++
		}
	}

	if done {
		m.setFSM(now, Idle)
	}

	return ok || done
}

func (m *fsmMiddleware) endOfFrame(now timing.VTimeInCycle) bool {
	m.out.Write(now, word.TrailerWord())
	m.out.Seal(now, packetizer.SideEntry{
		FrameCounter:   m.State.FrameCounter,
		SubheaderCount: m.State.SubheaderCount,
		HitCount:       m.State.HitCount,
	})

	m.State.TrailerGenerated = true
	m.State.FrameCounter++
	m.State.FramesSealed++
	m.setFSM(now, Reset)

	return true
}
