package assembler

import (
	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/timing"
)

// Builder constructs a Comp either from a Spec or per-field setters.
type Builder struct {
	spec     Spec
	engine   timing.EventScheduler
	domain   *timing.FreqDomain
	lanes    *lane.Array
	strategy arbiter.Strategy
	out      *packetizer.OutputQueue
	ts       *relay.Relay[uint64]
	runCtrl  *runctrl.Channel
}

// MakeBuilder returns a new Builder with default Spec.
func MakeBuilder() Builder {
	return Builder{
		spec:     Defaults(),
		strategy: arbiter.Linear{},
	}
}

// WithEngine sets the engine that schedules the ticks.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithDomain sets the consumer clock domain.
func (b Builder) WithDomain(domain *timing.FreqDomain) Builder {
	b.domain = domain
	return b
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithTypeTag sets the frame type tag.
func (b Builder) WithTypeTag(tag uint8) Builder {
	b.spec.TypeTag = tag
	return b
}

// WithSourceID sets the frame source id.
func (b Builder) WithSourceID(id uint32) Builder {
	b.spec.SourceID = id
	return b
}

// WithLanes sets the lane arena whose read halves the assembler owns.
func (b Builder) WithLanes(lanes *lane.Array) Builder {
	b.lanes = lanes
	return b
}

// WithStrategy sets the arbitration strategy.
func (b Builder) WithStrategy(s arbiter.Strategy) Builder {
	b.strategy = s
	return b
}

// WithOutput sets the output queue that frames are written into.
func (b Builder) WithOutput(out *packetizer.OutputQueue) Builder {
	b.out = out
	return b
}

// WithTimestampRelay sets the relay that carries the global timestamp
// counter from the producer domain.
func (b Builder) WithTimestampRelay(ts *relay.Relay[uint64]) Builder {
	b.ts = ts
	return b
}

// WithRunControl sets the run-control channel of the consumer domain.
func (b Builder) WithRunControl(ch *runctrl.Channel) Builder {
	b.runCtrl = ch
	return b
}

// Build constructs the component.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		panic(err)
	}

	if b.lanes == nil || b.out == nil || b.ts == nil || b.runCtrl == nil {
		panic("assembler needs lanes, an output queue, a timestamp relay " +
			"and a run-control channel")
	}

	c := &Comp{
		Spec:    b.spec,
		lanes:   b.lanes,
		arb:     arbiter.NewUnit(b.strategy),
		out:     b.out,
		ts:      b.ts,
		runCtrl: b.runCtrl,
		elems:   make([]arbiter.Element, b.lanes.Len()),
	}
	c.State.TypeTag = b.spec.TypeTag
	c.State.SourceID = b.spec.SourceID
	c.TickingComponent = timing.NewFreeRunningComponent(
		name, b.engine, b.domain, c)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&fsmMiddleware{Comp: c})

	return c
}
