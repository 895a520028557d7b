// Package tracing follows frames through assembly and measures how long the
// assembler spends on them.
package tracing

import "github.com/sarchlab/framemerge/timing"

// Task kinds and outcomes.
const (
	KindFrame    = "frame"
	WhatAssemble = "assemble"
	WhatRollback = "rollback"
)

// A Task is a unit of work with a start and an end.
type Task struct {
	ID        string
	Kind      string
	What      string
	Location  string
	StartTime timing.VTimeInCycle
	EndTime   timing.VTimeInCycle
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool
