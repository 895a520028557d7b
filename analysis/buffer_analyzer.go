package analysis

import (
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/timing"
)

// BufferAnalyzer records the time-weighted level of a buffer and the number
// of elements pushed into it, per period.
type BufferAnalyzer struct {
	PerfLogger
	timing.TimeTeller

	buf       Buffer
	usePeriod bool
	period    uint64

	lastTime           uint64
	lastBufLevel       int
	pushes             uint64
	bufLevelToDuration map[int]uint64
}

// Func is a function that records buffer level change.
func (b *BufferAnalyzer) Func(ctx hooking.HookCtx) {
	now := uint64(b.CurrentTime())
	currLevel := ctx.Domain.(Buffer).Size()

	if b.usePeriod && now >= b.periodEndTime(b.lastTime) {
		b.summarize(now, false)
	}

	b.bufLevelToDuration[b.lastBufLevel] += now - b.lastTime
	b.lastBufLevel = currLevel
	b.lastTime = now

	if ctx.Pos == queueing.HookPosBufPush {
		b.pushes++
	}
}

// Summarize reports everything recorded up to the current time.
func (b *BufferAnalyzer) Summarize() {
	now := uint64(b.CurrentTime())

	b.summarize(now, true)

	b.bufLevelToDuration = make(map[int]uint64)
	b.pushes = 0

	if now > b.lastTime {
		b.lastTime = now
	}
}

// summarize reports the periods that ended by now. A partial summary also
// reports the running period up to now.
func (b *BufferAnalyzer) summarize(now uint64, partial bool) {
	if !b.usePeriod {
		if partial {
			b.summarizePeriod(now, 0, now)
		}

		return
	}

	periodStartTime := b.periodStartTime(b.lastTime)
	periodEndTime := periodStartTime + b.period

	for periodEndTime <= now {
		b.summarizePeriod(now, periodStartTime, periodEndTime)

		b.bufLevelToDuration = make(map[int]uint64)
		b.pushes = 0
		b.lastTime = periodEndTime
		periodStartTime = periodEndTime
		periodEndTime = periodStartTime + b.period
	}

	if partial && now > periodStartTime {
		b.summarizePeriod(now, periodStartTime, now)
	}
}

func (b *BufferAnalyzer) summarizePeriod(now, start, end uint64) {
	sumLevel := 0.0
	sumDuration := 0.0

	for level, duration := range b.bufLevelToDuration {
		sumLevel += float64(level) * float64(duration)
		sumDuration += float64(duration)
	}

	summarizeEndTime := min(end, now)
	if summarizeEndTime > b.lastTime {
		remainingTime := summarizeEndTime - b.lastTime
		sumLevel += float64(b.lastBufLevel) * float64(remainingTime)
		sumDuration += float64(remainingTime)
	}

	if sumDuration == 0 {
		return
	}

	avgLevel := sumLevel / sumDuration
	if avgLevel == 0 && b.pushes == 0 {
		return
	}

	b.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
		Start:     start,
		End:       end,
		Where:     b.buf.Name(),
		What:      "Level",
		EntryType: "Buffer",
		Value:     avgLevel,
	})

	b.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
		Start:     start,
		End:       end,
		Where:     b.buf.Name(),
		What:      "Pushes",
		EntryType: "Buffer",
		Value:     float64(b.pushes),
		Unit:      "words",
	})
}

func (b *BufferAnalyzer) periodStartTime(t uint64) uint64 {
	return t / b.period * b.period
}

func (b *BufferAnalyzer) periodEndTime(t uint64) uint64 {
	return b.periodStartTime(t) + b.period
}

// BufferAnalyzerBuilder can build a BufferAnalyzer.
type BufferAnalyzerBuilder struct {
	perfLogger PerfLogger
	timeTeller timing.TimeTeller
	usePeriod  bool
	period     uint64
	buffer     Buffer
}

// MakeBufferAnalyzerBuilder creates a BufferAnalyzerBuilder.
func MakeBufferAnalyzerBuilder() BufferAnalyzerBuilder {
	return BufferAnalyzerBuilder{}
}

// WithPerfLogger sets the PerfLogger to use.
func (b BufferAnalyzerBuilder) WithPerfLogger(
	perfLogger PerfLogger,
) BufferAnalyzerBuilder {
	b.perfLogger = perfLogger
	return b
}

// WithTimeTeller sets the TimeTeller to use.
func (b BufferAnalyzerBuilder) WithTimeTeller(
	timeTeller timing.TimeTeller,
) BufferAnalyzerBuilder {
	b.timeTeller = timeTeller
	return b
}

// WithPeriod sets the period to use, in engine cycles.
func (b BufferAnalyzerBuilder) WithPeriod(period uint64) BufferAnalyzerBuilder {
	b.usePeriod = period > 0
	b.period = period

	return b
}

// WithBuffer sets the buffer to use.
func (b BufferAnalyzerBuilder) WithBuffer(buffer Buffer) BufferAnalyzerBuilder {
	b.buffer = buffer
	return b
}

// Build creates a BufferAnalyzer.
func (b BufferAnalyzerBuilder) Build() *BufferAnalyzer {
	if b.perfLogger == nil {
		panic("perfLogger is not set")
	}

	if b.timeTeller == nil {
		panic("timeTeller is not set")
	}

	if b.buffer == nil {
		panic("buffer is not set")
	}

	return &BufferAnalyzer{
		PerfLogger:         b.perfLogger,
		TimeTeller:         b.timeTeller,
		buf:                b.buffer,
		usePeriod:          b.usePeriod,
		period:             b.period,
		bufLevelToDuration: make(map[int]uint64),
	}
}
