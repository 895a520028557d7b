package analysis

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/sarchlab/framemerge/datarecording"
)

// PerfTable is the table the recorder backend writes into.
const PerfTable = "perf"

// PerfAnalyzerBackend is the interface that provides the service that can
// record performance data entries.
type PerfAnalyzerBackend interface {
	AddDataEntry(entry PerfAnalyzerEntry)
	Flush()
}

// CSVBackend is a PerfAnalyzerBackend that writes data entries as CSV.
type CSVBackend struct {
	closer    io.Closer
	csvWriter *csv.Writer
}

// NewCSVPerfAnalyzerBackend creates a CSV backend that writes into
// filename.csv.
func NewCSVPerfAnalyzerBackend(filename string) *CSVBackend {
	f, err := os.OpenFile(filename+".csv",
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		panic(err)
	}

	p := NewCSVBackend(f)
	p.closer = f

	return p
}

// NewCSVBackend creates a CSV backend over a writer.
func NewCSVBackend(w io.Writer) *CSVBackend {
	p := &CSVBackend{csvWriter: csv.NewWriter(w)}

	header := []string{
		"Start", "End", "Where", "What", "EntryType", "Value", "Unit"}
	if err := p.csvWriter.Write(header); err != nil {
		panic(err)
	}

	return p
}

// AddDataEntry adds a data entry to the CSV file.
func (p *CSVBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	err := p.csvWriter.Write([]string{
		strconv.FormatUint(entry.Start, 10),
		strconv.FormatUint(entry.End, 10),
		entry.Where,
		entry.What,
		entry.EntryType,
		strconv.FormatFloat(entry.Value, 'f', -1, 64),
		entry.Unit,
	})
	if err != nil {
		panic(err)
	}
}

// Flush flushes the CSV writer.
func (p *CSVBackend) Flush() {
	p.csvWriter.Flush()

	if err := p.csvWriter.Error(); err != nil {
		panic(err)
	}
}

// Close flushes and closes the file, if the backend owns one.
func (p *CSVBackend) Close() error {
	p.Flush()

	if p.closer == nil {
		return nil
	}

	return p.closer.Close()
}

// RecorderBackend writes data entries into the perf table of a
// DataRecorder.
type RecorderBackend struct {
	recorder datarecording.DataRecorder
}

// NewRecorderBackend creates the perf table and returns the backend.
func NewRecorderBackend(r datarecording.DataRecorder) *RecorderBackend {
	r.CreateTable(PerfTable, PerfAnalyzerEntry{})

	return &RecorderBackend{recorder: r}
}

// AddDataEntry queues an entry in the recorder.
func (p *RecorderBackend) AddDataEntry(entry PerfAnalyzerEntry) {
	p.recorder.InsertData(PerfTable, entry)
}

// Flush writes the queued entries.
func (p *RecorderBackend) Flush() {
	p.recorder.Flush()
}
