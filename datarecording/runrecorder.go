package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"
)

// RunInfo is one property of a recorded run.
type RunInfo struct {
	RunID    string
	Property string
	Value    string
}

// RunInfoTable is the table that holds RunInfo entries.
const RunInfoTable = "run_info"

// RunRecorder records when and how a run was started.
type RunRecorder struct {
	RunID string

	recorder DataRecorder
	entries  []RunInfo
}

// NewRunRecorder creates the run table in the recorder and assigns the run a
// fresh ID.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	recorder.CreateTable(RunInfoTable, RunInfo{})

	return &RunRecorder{
		RunID:    xid.New().String(),
		recorder: recorder,
	}
}

// Start logs the current time and command line.
func (e *RunRecorder) Start() {
	e.Set("Start Time", now())
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Set("Working Directory", cwd)
}

// Set adds an arbitrary property, for example a configuration value.
func (e *RunRecorder) Set(property, value string) {
	e.entries = append(e.entries, RunInfo{
		RunID:    e.RunID,
		Property: property,
		Value:    value,
	})
}

// End writes the properties into the database along with the end time.
func (e *RunRecorder) End() {
	e.Set("End Time", now())

	for _, entry := range e.entries {
		e.recorder.InsertData(RunInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
