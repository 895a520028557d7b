package merger

import (
	"log"

	"github.com/sarchlab/framemerge/analysis"
	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/assembler"
	"github.com/sarchlab/framemerge/datarecording"
	"github.com/sarchlab/framemerge/frontend"
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/stimulus"
	"github.com/sarchlab/framemerge/telemetry"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/tracing"
)

// Builder wires a System.
type Builder struct {
	spec        Spec
	sources     []stimulus.Source
	sink        packetizer.Sink
	readyMask   []bool
	recorder    datarecording.DataRecorder
	logger      *log.Logger
	eventLogger *log.Logger
	perfBackend analysis.PerfAnalyzerBackend
	perfPeriod  uint64
}

// MakeBuilder returns a builder with the default spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithSources sets one source per lane, overriding the stimulus spec.
func (b Builder) WithSources(sources ...stimulus.Source) Builder {
	b.sources = sources
	return b
}

// WithSink sets a custom consumer for the output stream. Without one, frames
// are decoded by a packetizer.FrameCollector.
func (b Builder) WithSink(sink packetizer.Sink) Builder {
	b.sink = sink
	return b
}

// WithReadyPattern sets the backpressure pattern of the default collector.
func (b Builder) WithReadyPattern(pattern ...bool) Builder {
	b.readyMask = pattern
	return b
}

// WithRecorder records frames, lane events and run information.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithLogger logs the integrity and control events of every component.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithEventLogger logs every event dispatched by the engine.
func (b Builder) WithEventLogger(l *log.Logger) Builder {
	b.eventLogger = l
	return b
}

// WithPerfBackend reports the level of every lane queue into backend, once
// per period consumer cycles. A period of 0 reports the whole run at once.
func (b Builder) WithPerfBackend(
	backend analysis.PerfAnalyzerBackend,
	period uint64,
) Builder {
	b.perfBackend = backend
	b.perfPeriod = period

	return b
}

// Build creates the system and starts its free-running components.
func (b Builder) Build(name string) (*System, error) {
	if err := b.spec.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		Spec:     b.spec,
		name:     name,
		Engine:   timing.NewSerialEngine(),
		Registry: timing.NewFrequencyRegistry(),
	}

	if err := b.buildDomains(s); err != nil {
		return nil, err
	}

	sources, err := b.buildSources()
	if err != nil {
		return nil, err
	}

	b.buildCrossings(s)
	b.buildConsumer(s)
	b.buildProducer(s, sources)
	b.attachObservers(s)

	s.Frontend.TickNow()
	s.Assembler.TickNow()
	s.Reader.TickNow()

	return s, nil
}

func (b Builder) buildDomains(s *System) error {
	var err error

	s.ProducerDomain, err = s.Registry.RegisterFrequency(b.spec.ProducerFreq)
	if err != nil {
		return err
	}

	s.ConsumerDomain, err = s.Registry.RegisterFrequency(b.spec.ConsumerFreq)
	if err != nil {
		return err
	}

	stride := s.ProducerDomain.Stride()
	if c := s.ConsumerDomain.Stride(); c > stride {
		stride = c
	}

	s.crossing = timing.VTimeInCycle(b.spec.CrossingCycles) * stride

	return nil
}

func (b Builder) buildSources() ([]stimulus.Source, error) {
	if b.sources != nil {
		if len(b.sources) != b.spec.Lanes {
			return nil, errSourceCount(len(b.sources), b.spec.Lanes)
		}

		return b.sources, nil
	}

	st := b.spec.Stimulus
	sources := make([]stimulus.Source, b.spec.Lanes)

	rb := stimulus.MakeRandomBuilder().
		WithSeed(st.Seed).
		WithTimestampStep(st.TimestampStep).
		WithHits(st.MinHits, st.MaxHits).
		WithIdleProbability(st.IdleProbability).
		WithSkew(st.Skew)

	for i := range sources {
		if st.Mode == "idle" {
			sources[i] = stimulus.Idle{}
		} else {
			sources[i] = rb.Build(i)
		}
	}

	return sources, nil
}

func (b Builder) buildCrossings(s *System) {
	s.Lanes = lane.NewArray(s.name, b.spec.Lanes,
		queueing.MakeAsyncFIFOBuilder().
			WithCapacity(b.spec.LaneDepth).
			WithLatency(s.crossing))

	s.TimestampRelay = relay.New[uint64](
		s.name+".GlobalTimestamp", b.spec.RelayDepth, s.crossing)
	s.CounterRelay = relay.New[lane.Counters](
		s.name+".Counters", b.spec.RelayDepth, s.crossing)
	s.ConfigRelay = relay.New[telemetry.Config](
		s.name+".TelemetryConfig", b.spec.RelayDepth, s.crossing)

	s.ProducerRunCtrl = runctrl.NewChannel(
		s.name+".Producer.RunCtrl", b.spec.CommandDepth)
	s.ConsumerRunCtrl = runctrl.NewChannel(
		s.name+".Consumer.RunCtrl", b.spec.CommandDepth)

	s.Output = packetizer.MakeOutputQueueBuilder().
		WithCapacity(b.spec.OutputCapacity).
		WithSideCapacity(b.spec.SideCapacity).
		WithLatency(s.crossing).
		Build(s.name + ".Output")
}

func (b Builder) buildConsumer(s *System) {
	s.Assembler = assembler.MakeBuilder().
		WithEngine(s.Engine).
		WithDomain(s.ConsumerDomain).
		WithTypeTag(b.spec.TypeTag).
		WithSourceID(b.spec.SourceID).
		WithLanes(s.Lanes).
		WithStrategy(arbiter.NewStrategy(b.spec.Arbiter)).
		WithOutput(s.Output).
		WithTimestampRelay(s.TimestampRelay).
		WithRunControl(s.ConsumerRunCtrl).
		Build(s.name + ".Assembler")

	sink := b.sink
	if sink == nil {
		s.Collector = packetizer.NewFrameCollector(s.name + ".Sink").
			WithReadyPattern(b.readyMask...).
			WithClock(s.Engine)
		sink = s.Collector
	}

	s.Reader = packetizer.MakeReaderBuilder().
		WithEngine(s.Engine).
		WithDomain(s.ConsumerDomain).
		WithGuardCycles(b.spec.GuardCycles).
		WithQueue(s.Output).
		WithSink(sink).
		Build(s.name + ".Reader")
}

func (b Builder) buildProducer(s *System, sources []stimulus.Source) {
	s.Telemetry = telemetry.MakeCollectorBuilder().
		WithDepth(b.spec.TelemetryDepth).
		WithBins(b.spec.TelemetryBins, b.spec.TelemetryBinWidth).
		Build(s.name + ".Telemetry")

	s.Frontend = frontend.MakeBuilder().
		WithEngine(s.Engine).
		WithDomain(s.ProducerDomain).
		WithStatusPeriod(b.spec.StatusPeriod).
		WithLanes(s.Lanes).
		WithSources(sources).
		WithRunControl(s.ProducerRunCtrl).
		WithTimestampRelay(s.TimestampRelay).
		WithCounterRelay(s.CounterRelay).
		WithConfigRelay(s.ConfigRelay).
		WithTelemetry(s.Telemetry).
		Build(s.name + ".Frontend")
}

func (b Builder) attachObservers(s *System) {
	s.FrameTime = tracing.NewAverageTimeTracer(s.Engine, nil)
	s.AssemblyBusy = tracing.NewBusyTimeTracer(s.Engine, nil)
	tracing.CollectFrameTrace(s.Output, s.FrameTime)
	tracing.CollectFrameTrace(s.Output, s.AssemblyBusy)

	if b.logger != nil {
		logHook := hooking.NewLogHook(b.logger,
			lane.HookPosMasked,
			lane.HookPosHitDropped,
			lane.HookPosOrphan,
			lane.HookPosStray,
			lane.HookPosStale,
			runctrl.HookPosStateChange,
			assembler.HookPosForcedReset,
			frontend.HookPosForcedReset,
			packetizer.HookPosFrameBegun,
			packetizer.HookPosFrameSealed,
			packetizer.HookPosFrameDropped,
			packetizer.HookPosFrameRolledBack,
			packetizer.HookPosMalformedFrame,
			telemetry.HookPosSampleDropped,
		)

		s.Lanes.AcceptHook(logHook)
		s.ProducerRunCtrl.AcceptHook(logHook)
		s.ConsumerRunCtrl.AcceptHook(logHook)
		s.Assembler.AcceptHook(logHook)
		s.Frontend.AcceptHook(logHook)
		s.Output.AcceptHook(logHook)
		s.Reader.AcceptHook(logHook)
		s.Telemetry.AcceptHook(logHook)
	}

	if b.eventLogger != nil {
		s.Engine.AcceptHook(timing.NewEventLogger(b.eventLogger))
	}

	if b.recorder != nil {
		s.RunInfo = datarecording.NewRunRecorder(b.recorder)
		s.RunInfo.Start()
		s.RunInfo.Set("Lanes", itoa(b.spec.Lanes))
		s.RunInfo.Set("Arbiter", b.spec.Arbiter.String())

		s.Lanes.AcceptHook(
			datarecording.NewLaneEventRecorder(s.RunInfo.RunID, b.recorder))

		if s.Collector != nil {
			s.Collector.AcceptHook(
				datarecording.NewFrameRecorder(s.RunInfo.RunID, b.recorder))
		}

		tracing.CollectFrameTrace(s.Output,
			tracing.NewDBTracer(s.RunInfo.RunID, s.Engine, b.recorder))
	}

	if b.perfBackend != nil {
		s.Perf = analysis.MakePerfAnalyzerBuilder().
			WithTimeTeller(s.Engine).
			WithBackend(b.perfBackend).
			WithPeriod(b.perfPeriod * uint64(s.ConsumerDomain.Stride())).
			Build()

		for i := 0; i < s.Lanes.Len(); i++ {
			s.Perf.RegisterBuffer(s.Lanes.At(i).Queue)
		}
	}
}
