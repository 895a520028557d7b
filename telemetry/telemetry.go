// Package telemetry implements the debug side channels of the merger: the
// per-hit latency and the burst statistics of one selected lane. The side
// channels are lossy and never stall the lanes.
package telemetry

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/word"
)

// Config selects what the side channels observe. It is written in the
// consumer domain and relayed to the producer domain.
type Config struct {
	Enable     bool
	LaneSelect int
}

// Burst is the pair of deltas between two consecutive hits of the selected
// lane.
type Burst struct {
	TimestampDelta uint64
	ArrivalDelta   uint64
}

// HookPosSampleDropped is raised when a sample finds its buffer full.
var HookPosSampleDropped = &hooking.HookPos{Name: "Telemetry Sample Dropped"}

// epochBits is the number of global counter bits covered by a sub-frame
// timestamp and a hit fine time.
const epochBits = 8 + word.HitFineTimeBits

// Collector samples hits into bounded buffers and histograms.
type Collector struct {
	*hooking.HookableBase

	name string
	cfg  Config

	latencies queueing.Buffer[uint64]
	bursts    queueing.Buffer[Burst]

	LatencyHist      *Histogram
	TimestampHist    *Histogram
	ArrivalDeltaHist *Histogram

	subframeTs map[int]uint8
	haveLast   bool
	lastHitTs  uint64
	lastArrive uint64
	dropped    uint64
}

// CollectorBuilder builds Collectors.
type CollectorBuilder struct {
	depth    int
	bins     int
	binWidth uint64
}

// MakeCollectorBuilder returns a builder with default parameters.
func MakeCollectorBuilder() CollectorBuilder {
	return CollectorBuilder{
		depth:    64,
		bins:     32,
		binWidth: 16,
	}
}

// WithDepth sets the depth of the sample buffers.
func (b CollectorBuilder) WithDepth(depth int) CollectorBuilder {
	b.depth = depth
	return b
}

// WithBins sets the number and width of the histogram bins.
func (b CollectorBuilder) WithBins(n int, width uint64) CollectorBuilder {
	b.bins = n
	b.binWidth = width

	return b
}

// Build creates the collector.
func (b CollectorBuilder) Build(name string) *Collector {
	return &Collector{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		latencies: queueing.NewBuffer[uint64](
			name+".Latency", b.depth),
		bursts: queueing.NewBuffer[Burst](
			name+".Burst", b.depth),
		LatencyHist:      NewHistogram(b.bins, b.binWidth),
		TimestampHist:    NewHistogram(b.bins, b.binWidth),
		ArrivalDeltaHist: NewHistogram(b.bins, b.binWidth),
		subframeTs:       make(map[int]uint8),
	}
}

// Name returns the name of the collector.
func (c *Collector) Name() string {
	return c.name
}

// Config returns the active configuration.
func (c *Collector) Config() Config {
	return c.cfg
}

// Configure applies a new configuration. Changing the selected lane restarts
// the burst statistics.
func (c *Collector) Configure(cfg Config) {
	if cfg.LaneSelect != c.cfg.LaneSelect || !cfg.Enable {
		c.haveLast = false
	}

	c.cfg = cfg
}

// Observe looks at an accepted ingress word of a lane. global is the value of
// the global timestamp counter when the word arrived.
func (c *Collector) Observe(lane int, global uint64, w word.SubframeWord) {
	if w.IsHeader {
		c.subframeTs[lane] = w.Timestamp
		return
	}

	if !c.cfg.Enable || lane != c.cfg.LaneSelect {
		return
	}

	hitTs := reconstruct(global, c.subframeTs[lane], w.HitFineTime())
	latency := global - hitTs

	c.LatencyHist.Add(latency)
	offerSample(c, global, c.latencies, latency)

	if c.haveLast {
		b := Burst{
			TimestampDelta: absDiff(hitTs, c.lastHitTs),
			ArrivalDelta:   global - c.lastArrive,
		}

		c.TimestampHist.Add(b.TimestampDelta)
		c.ArrivalDeltaHist.Add(b.ArrivalDelta)
		offerSample(c, global, c.bursts, b)
	}

	c.haveLast = true
	c.lastHitTs = hitTs
	c.lastArrive = global
}

// reconstruct places the hit time, known modulo one epoch, at the latest
// point not after the global counter.
func reconstruct(global uint64, subframeTs, fine uint8) uint64 {
	const epoch = uint64(1) << epochBits

	local := uint64(subframeTs)<<word.HitFineTimeBits | uint64(fine)
	abs := global&^(epoch-1) | local

	if abs > global {
		if abs < epoch {
			return global
		}

		abs -= epoch
	}

	return abs
}

func absDiff(a, b uint64) uint64 {
	if a < b {
		return b - a
	}

	return a - b
}

func offerSample[T any](c *Collector, now uint64, b queueing.Buffer[T], v T) {
	if b.CanPush() {
		b.Push(v)
		return
	}

	c.dropped++

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Now:    now,
			Pos:    HookPosSampleDropped,
			Item:   b.Name(),
		})
	}
}

// PopLatency removes the oldest latency sample.
func (c *Collector) PopLatency() (uint64, bool) {
	return c.latencies.Pop()
}

// PopBurst removes the oldest burst sample.
func (c *Collector) PopBurst() (Burst, bool) {
	return c.bursts.Pop()
}

// Pending returns the number of buffered latency and burst samples.
func (c *Collector) Pending() (latencies, bursts int) {
	return c.latencies.Size(), c.bursts.Size()
}

// Dropped returns the number of samples lost to full buffers.
func (c *Collector) Dropped() uint64 {
	return c.dropped
}

// Reset clears the buffers, the histograms and the burst history.
func (c *Collector) Reset() {
	c.latencies.Clear()
	c.bursts.Clear()
	c.LatencyHist.Reset()
	c.TimestampHist.Reset()
	c.ArrivalDeltaHist.Reset()
	c.subframeTs = make(map[int]uint8)
	c.haveLast = false
}
