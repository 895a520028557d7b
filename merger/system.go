// Package merger wires the lanes, both clock domains and the output path into
// a runnable frame merger.
package merger

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sarchlab/framemerge/analysis"
	"github.com/sarchlab/framemerge/assembler"
	"github.com/sarchlab/framemerge/datarecording"
	"github.com/sarchlab/framemerge/frontend"
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/telemetry"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/tracing"
)

// ErrLimitReached is returned when a run stops at its cycle limit before its
// goal.
var ErrLimitReached = errors.New("cycle limit reached")

// ErrNoCollector is returned when frames are awaited but a custom sink
// replaced the collector.
var ErrNoCollector = errors.New("no frame collector attached")

func errSourceCount(got, want int) error {
	return fmt.Errorf("got %d sources for %d lanes", got, want)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

// System is a complete merger instance.
type System struct {
	Spec Spec
	name string

	Engine         *timing.SerialEngine
	Registry       *timing.FrequencyRegistry
	ProducerDomain *timing.FreqDomain
	ConsumerDomain *timing.FreqDomain

	Lanes     *lane.Array
	Frontend  *frontend.Comp
	Assembler *assembler.Comp
	Output    *packetizer.OutputQueue
	Reader    *packetizer.Reader
	Collector *packetizer.FrameCollector
	Telemetry *telemetry.Collector

	ProducerRunCtrl *runctrl.Channel
	ConsumerRunCtrl *runctrl.Channel

	TimestampRelay *relay.Relay[uint64]
	CounterRelay   *relay.Relay[lane.Counters]
	ConfigRelay    *relay.Relay[telemetry.Config]

	RunInfo *datarecording.RunRecorder
	Perf    *analysis.PerfAnalyzer

	// FrameTime averages the engine cycles from preamble to seal.
	// AssemblyBusy sums the cycles during which a frame was open.
	FrameTime    *tracing.AverageTimeTracer
	AssemblyBusy *tracing.BusyTimeTracer

	crossing     timing.VTimeInCycle
	counters     lane.Counters
	telemetryCfg telemetry.Config
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Now returns the current engine time.
func (s *System) Now() timing.VTimeInCycle {
	return s.Engine.CurrentTime()
}

// Run advances the system by the given number of consumer cycles.
func (s *System) Run(cycles uint64) error {
	deadline := s.Now() + timing.VTimeInCycle(cycles)*s.ConsumerDomain.Stride()
	return s.Engine.RunUntil(deadline)
}

// RunUntilFrames advances the system until the collector holds at least n
// frames, giving up after limit consumer cycles.
func (s *System) RunUntilFrames(n int, limit uint64) error {
	if s.Collector == nil {
		return ErrNoCollector
	}

	for c := uint64(0); len(s.Collector.Frames) < n; c++ {
		if c >= limit {
			return fmt.Errorf("%w: %d of %d frames after %d cycles",
				ErrLimitReached, len(s.Collector.Frames), n, limit)
		}

		if err := s.Run(1); err != nil {
			return err
		}
	}

	return nil
}

// Issue sends a run-control command to both clock domains. It reports
// whether both channels accepted it.
func (s *System) Issue(cmd runctrl.Command) bool {
	p := s.ProducerRunCtrl.Issue(cmd)
	c := s.ConsumerRunCtrl.Issue(cmd)

	return p && c
}

// Finish reports the open analysis periods and flushes the run record, if
// any.
func (s *System) Finish() {
	if s.Perf != nil {
		s.Perf.Report()
	}

	if s.RunInfo == nil {
		return
	}

	s.RunInfo.Set("Frames Sealed",
		strconv.FormatUint(s.Assembler.State.FramesSealed, 10))
	s.RunInfo.Set("End Cycle", strconv.FormatUint(uint64(s.Now()), 10))
	s.RunInfo.End()
}

// Identity returns the type tag and source ID stamped into preambles.
func (s *System) Identity() (uint8, uint32) {
	return s.Assembler.State.TypeTag, s.Assembler.State.SourceID
}

// SetIdentity changes the type tag and source ID of the next frames.
func (s *System) SetIdentity(typeTag uint8, sourceID uint32) error {
	return s.Assembler.SetIdentity(typeTag, sourceID)
}

// LaneCounters returns the aggregate lane counters as last relayed to the
// consumer domain.
func (s *System) LaneCounters() lane.Counters {
	if c, ok := s.CounterRelay.Latest(s.Now()); ok {
		s.counters = c
	}

	return s.counters
}

// FramesSealed returns the number of frames closed by the assembler.
func (s *System) FramesSealed() uint64 {
	return s.Assembler.State.FramesSealed
}

// MalformedFrames returns the number of frames cut short in the output
// stream.
func (s *System) MalformedFrames() uint64 {
	return s.Reader.State.MalformedFrames
}

// DroppedFrames returns the number of frames destroyed by output overflow.
func (s *System) DroppedFrames() uint64 {
	return s.Output.Progress().Dropped
}

// AssemblerState returns the state of the frame assembly machine.
func (s *System) AssemblerState() assembler.FSMState {
	return s.Assembler.State.FSM
}

// RunStates returns the run states of the producer and consumer domains.
func (s *System) RunStates() (producer, consumer runctrl.State) {
	return s.ProducerRunCtrl.State(), s.ConsumerRunCtrl.State()
}

// TelemetryConfig returns the last configuration sent to the producer
// domain.
func (s *System) TelemetryConfig() telemetry.Config {
	return s.telemetryCfg
}

// SetTelemetryConfig sends a telemetry configuration to the producer domain.
// It reports whether the relay accepted it.
func (s *System) SetTelemetryConfig(cfg telemetry.Config) bool {
	if cfg.LaneSelect < 0 || cfg.LaneSelect >= s.Lanes.Len() {
		return false
	}

	if !s.ConfigRelay.Offer(s.Now(), cfg) {
		return false
	}

	s.telemetryCfg = cfg

	return true
}

// Components lists the named parts of the system.
func (s *System) Components() []hooking.Named {
	comps := []hooking.Named{
		s.Frontend,
		s.Assembler,
		s.Reader,
		s.Output,
		s.Telemetry,
		s.ProducerRunCtrl,
		s.ConsumerRunCtrl,
	}

	for i := 0; i < s.Lanes.Len(); i++ {
		comps = append(comps, s.Lanes.At(i))
	}

	if s.Collector != nil {
		comps = append(comps, s.Collector)
	}

	return comps
}

// Buffer is a storage element whose fill level can be watched.
type Buffer interface {
	Name() string
	Size() int
	Capacity() int
}

// Buffers lists the lane queues and the output queue.
func (s *System) Buffers() []Buffer {
	buffers := make([]Buffer, 0, s.Lanes.Len()+1)
	for i := 0; i < s.Lanes.Len(); i++ {
		buffers = append(buffers, s.Lanes.At(i).Queue)
	}

	return append(buffers, s.Output)
}
