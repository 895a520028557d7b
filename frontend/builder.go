package frontend

import (
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/stimulus"
	"github.com/sarchlab/framemerge/telemetry"
	"github.com/sarchlab/framemerge/timing"
)

// Builder constructs a Comp either from a Spec or per-field setters.
type Builder struct {
	spec      Spec
	engine    timing.EventScheduler
	domain    *timing.FreqDomain
	lanes     *lane.Array
	sources   []stimulus.Source
	runCtrl   *runctrl.Channel
	ts        *relay.Relay[uint64]
	counters  *relay.Relay[lane.Counters]
	config    *relay.Relay[telemetry.Config]
	collector *telemetry.Collector
}

// MakeBuilder returns a new Builder with default Spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithEngine sets the engine that schedules the ticks.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithDomain sets the producer clock domain.
func (b Builder) WithDomain(domain *timing.FreqDomain) Builder {
	b.domain = domain
	return b
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithStatusPeriod sets the cycles between counter publications.
func (b Builder) WithStatusPeriod(n int) Builder {
	b.spec.StatusPeriod = n
	return b
}

// WithLanes sets the lane arena whose write halves the front end owns.
func (b Builder) WithLanes(lanes *lane.Array) Builder {
	b.lanes = lanes
	return b
}

// WithSources sets one stimulus source per lane.
func (b Builder) WithSources(sources []stimulus.Source) Builder {
	b.sources = sources
	return b
}

// WithRunControl sets the run-control channel of the producer domain.
func (b Builder) WithRunControl(ch *runctrl.Channel) Builder {
	b.runCtrl = ch
	return b
}

// WithTimestampRelay sets the relay that carries the global timestamp to
// the consumer domain.
func (b Builder) WithTimestampRelay(r *relay.Relay[uint64]) Builder {
	b.ts = r
	return b
}

// WithCounterRelay sets the relay that carries the aggregate counters to
// the consumer domain.
func (b Builder) WithCounterRelay(r *relay.Relay[lane.Counters]) Builder {
	b.counters = r
	return b
}

// WithConfigRelay sets the relay that brings the telemetry configuration
// from the consumer domain.
func (b Builder) WithConfigRelay(r *relay.Relay[telemetry.Config]) Builder {
	b.config = r
	return b
}

// WithTelemetry sets the side-channel collector.
func (b Builder) WithTelemetry(c *telemetry.Collector) Builder {
	b.collector = c
	return b
}

// Build constructs the component.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		panic(err)
	}

	if b.lanes == nil || b.runCtrl == nil || b.ts == nil {
		panic("front end needs lanes, a run-control channel and a " +
			"timestamp relay")
	}

	if len(b.sources) != b.lanes.Len() {
		panic("front end needs exactly one source per lane")
	}

	c := &Comp{
		Spec:      b.spec,
		lanes:     b.lanes,
		sources:   b.sources,
		runCtrl:   b.runCtrl,
		ts:        b.ts,
		counters:  b.counters,
		config:    b.config,
		collector: b.collector,
	}
	c.TickingComponent = timing.NewFreeRunningComponent(
		name, b.engine, b.domain, c)

	c.AddMiddleware(&ctrlMiddleware{Comp: c})
	c.AddMiddleware(&ingressMiddleware{Comp: c})
	c.AddMiddleware(&relayMiddleware{Comp: c})

	return c
}
