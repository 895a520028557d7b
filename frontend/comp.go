// Package frontend implements the producer side of the merger: the global
// timestamp counter and the write-side accounting of every lane.
package frontend

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/stimulus"
	"github.com/sarchlab/framemerge/telemetry"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// HookPosForcedReset is raised when a run-control command resets the
// producer domain.
var HookPosForcedReset = &hooking.HookPos{Name: "Front End Forced Reset"}

// Comp is the producer-domain front end.
type Comp struct {
	*timing.TickingComponent
	timing.MiddlewareHolder

	Spec  Spec
	State State

	lanes     *lane.Array
	sources   []stimulus.Source
	runCtrl   *runctrl.Channel
	ts        *relay.Relay[uint64]
	counters  *relay.Relay[lane.Counters]
	config    *relay.Relay[telemetry.Config]
	collector *telemetry.Collector

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

// ctrlMiddleware applies the run-control commands of the producer domain.
type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() bool {
	now := m.CurrentTime()

	t := m.runCtrl.Update(now)
	m.State.RunState = m.runCtrl.State()

	if !t.ForcesReset() {
		for i := 0; i < m.lanes.Len(); i++ {
			m.lanes.At(i).ReleaseReset()
		}

		return t.Applied
	}

	for i := 0; i < m.lanes.Len(); i++ {
		m.lanes.At(i).ResetWrite()
	}

	if m.collector != nil {
		m.collector.Reset()
	}

	m.State.GlobalTimestamp = 0
	m.State.SinceStatus = 0
	m.State.Resets++
	m.resetThisTick = true

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m.Comp,
			Now:    uint64(now),
			Pos:    HookPosForcedReset,
			Item:   m.State.RunState,
		})
	}

	return true
}

// ingressMiddleware moves one word per lane from the sources into the lanes.
type ingressMiddleware struct {
	*Comp
}

func (m *ingressMiddleware) Tick() bool {
	now := m.CurrentTime()
	progress := false

	for i, src := range m.sources {
		iw, ok := src.Next()
		if !ok {
			continue
		}

		progress = true
		m.State.IngressWords++

		if m.lanes.At(i).Ingest(now, iw) != lane.OutcomeAccepted {
			continue
		}

		if m.collector != nil {
			m.collector.Observe(i, m.State.GlobalTimestamp, word.Parse(iw))
		}
	}

	return progress
}

// relayMiddleware exchanges values with the consumer domain and advances the
// global timestamp counter.
type relayMiddleware struct {
	*Comp
}

func (m *relayMiddleware) Tick() bool {
	now := m.CurrentTime()

	if m.config != nil && m.collector != nil {
		if cfg, ok := m.config.Latest(now); ok && cfg != m.collector.Config() {
			m.collector.Configure(cfg)
		}
	}

	m.ts.Offer(now, m.State.GlobalTimestamp)

	m.State.SinceStatus++
	if m.counters != nil && m.State.SinceStatus >= m.Spec.StatusPeriod {
		if m.counters.Offer(now, m.lanes.Totals()) {
			m.State.SinceStatus = 0
		}
	}

	if m.resetThisTick {
		m.resetThisTick = false
	} else {
		m.State.GlobalTimestamp = (m.State.GlobalTimestamp + 1) &
			word.GlobalTimestampMask
	}

	return true
}
