// Package analysis reports how full the lane queues run, period by period.
package analysis

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
)

// PerfAnalyzerEntry is a single entry in the performance database. Start and
// End are engine cycles.
type PerfAnalyzerEntry struct {
	Start     uint64
	End       uint64
	Where     string
	What      string
	EntryType string
	Value     float64
	Unit      string
}

// PerfLogger is the interface that provide the service that can record
// performance data entries.
type PerfLogger interface {
	AddDataEntry(entry PerfAnalyzerEntry)
}

// Buffer is a queue that raises push and pop hooks.
type Buffer interface {
	hooking.Hookable
	Name() string
	Size() int
}

// PerfAnalyzer attaches a BufferAnalyzer to every registered buffer and
// forwards their entries to a backend.
type PerfAnalyzer struct {
	period    uint64
	engine    timing.TimeTeller
	backend   PerfAnalyzerBackend
	analyzers []*BufferAnalyzer
}

// RegisterBuffer registers a buffer to be monitored.
func (p *PerfAnalyzer) RegisterBuffer(buf Buffer) {
	bufferAnalyzerBuilder := MakeBufferAnalyzerBuilder().
		WithTimeTeller(p.engine).
		WithPerfLogger(p).
		WithBuffer(buf)

	if p.period > 0 {
		bufferAnalyzerBuilder = bufferAnalyzerBuilder.WithPeriod(p.period)
	}

	bufferAnalyzer := bufferAnalyzerBuilder.Build()
	p.analyzers = append(p.analyzers, bufferAnalyzer)

	buf.AcceptHook(bufferAnalyzer)
}

// AddDataEntry adds a data entry to the backend.
func (p *PerfAnalyzer) AddDataEntry(entry PerfAnalyzerEntry) {
	p.backend.AddDataEntry(entry)
}

// Report closes the open period of every buffer and flushes the backend.
func (p *PerfAnalyzer) Report() {
	for _, a := range p.analyzers {
		a.Summarize()
	}

	p.backend.Flush()
}

// PerfAnalyzerBuilder is a builder that can build a PerfAnalyzer.
type PerfAnalyzerBuilder struct {
	period  uint64
	engine  timing.TimeTeller
	backend PerfAnalyzerBackend
}

// MakePerfAnalyzerBuilder creates a new PerfAnalyzerBuilder.
func MakePerfAnalyzerBuilder() PerfAnalyzerBuilder {
	return PerfAnalyzerBuilder{}
}

// WithPeriod sets the length of a reporting period, in engine cycles. Without
// a period, a single entry covers the whole run.
func (b PerfAnalyzerBuilder) WithPeriod(period uint64) PerfAnalyzerBuilder {
	b.period = period
	return b
}

// WithTimeTeller sets the clock of the analyzers.
func (b PerfAnalyzerBuilder) WithTimeTeller(
	t timing.TimeTeller,
) PerfAnalyzerBuilder {
	b.engine = t
	return b
}

// WithBackend sets where entries go.
func (b PerfAnalyzerBuilder) WithBackend(
	backend PerfAnalyzerBackend,
) PerfAnalyzerBuilder {
	b.backend = backend
	return b
}

// Build creates a PerfAnalyzer. The open periods are reported at exit.
func (b PerfAnalyzerBuilder) Build() *PerfAnalyzer {
	if b.engine == nil || b.backend == nil {
		panic("perf analyzer needs a time teller and a backend")
	}

	p := &PerfAnalyzer{
		period:  b.period,
		engine:  b.engine,
		backend: b.backend,
	}

	atexit.Register(p.Report)

	return p
}
