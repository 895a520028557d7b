package tracing

import (
	"github.com/sarchlab/framemerge/timing"
)

// BusyTimeTracer sums the engine cycles during which at least one task is in
// flight. Overlapping tasks are counted once. An aborted task keeps the
// domain busy until the abort.
//
// Tasks must be reported in time order, which is the order the engine
// dispatches the hooks in.
type BusyTimeTracer struct {
	timeTeller timing.TimeTeller
	filter     TaskFilter

	inflight  map[string]timing.VTimeInCycle
	busySince timing.VTimeInCycle
	busyTime  timing.VTimeInCycle
	periods   uint64

	lastStart, lastEnd timing.VTimeInCycle
}

// NewBusyTimeTracer creates a new BusyTimeTracer.
func NewBusyTimeTracer(
	timeTeller timing.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]timing.VTimeInCycle),
	}
}

// BusyTime returns the engine cycles of the busy periods that have ended.
func (t *BusyTimeTracer) BusyTime() timing.VTimeInCycle {
	return t.busyTime
}

// BusyTimeAt also counts the busy period still open at now.
func (t *BusyTimeTracer) BusyTimeAt(now timing.VTimeInCycle) timing.VTimeInCycle {
	if len(t.inflight) == 0 || now < t.busySince {
		return t.busyTime
	}

	return t.busyTime + now - t.busySince
}

// Utilization returns the busy fraction of the first now engine cycles.
func (t *BusyTimeTracer) Utilization(now timing.VTimeInCycle) float64 {
	if now == 0 {
		return 0
	}

	return float64(t.BusyTimeAt(now)) / float64(now)
}

// BusyPeriods returns the number of busy periods that have ended. Tasks that
// overlap or touch share one period.
func (t *BusyTimeTracer) BusyPeriods() uint64 {
	return t.periods
}

// InFlight returns the number of tasks started and not yet ended.
func (t *BusyTimeTracer) InFlight() int {
	return len(t.inflight)
}

// StartTask opens a task. A task that is already open is ignored.
func (t *BusyTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	if _, open := t.inflight[task.ID]; open {
		return
	}

	if len(t.inflight) == 0 {
		t.resume(now)
	}

	t.inflight[task.ID] = now
}

// resume starts a busy period at now. A period that ended at now is reopened
// so that back-to-back tasks form a single period.
func (t *BusyTimeTracer) resume(now timing.VTimeInCycle) {
	if t.periods > 0 && t.lastEnd == now {
		t.periods--
		t.busyTime -= now - t.lastStart
		t.busySince = t.lastStart

		return
	}

	t.busySince = now
}

// EndTask closes a task. Unknown tasks are ignored.
func (t *BusyTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if _, open := t.inflight[task.ID]; !open {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.closePeriod(now)
	}
}

// AbortTask closes a task at the current time.
func (t *BusyTimeTracer) AbortTask(task Task) {
	t.EndTask(task)
}

// TerminateAllTasks closes every open task at now.
func (t *BusyTimeTracer) TerminateAllTasks(now timing.VTimeInCycle) {
	if len(t.inflight) == 0 {
		return
	}

	t.inflight = make(map[string]timing.VTimeInCycle)
	t.closePeriod(now)
}

func (t *BusyTimeTracer) closePeriod(now timing.VTimeInCycle) {
	t.busyTime += now - t.busySince
	t.periods++
	t.lastStart = t.busySince
	t.lastEnd = now
}
