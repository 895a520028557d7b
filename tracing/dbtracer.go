package tracing

import (
	"sync"

	"github.com/sarchlab/framemerge/datarecording"
	"github.com/sarchlab/framemerge/timing"
)

// TaskTable is the table the DBTracer writes into.
const TaskTable = "frame_tasks"

// TaskEntry is one finished or aborted task.
type TaskEntry struct {
	RunID     string
	ID        string
	Kind      string
	What      string
	Location  string
	StartTime uint64
	EndTime   uint64
}

// DBTracer is a tracer that stores tasks into a DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	runID      string
	timeTeller timing.TimeTeller
	backend    datarecording.DataRecorder

	tracingTasks map[string]Task
}

// NewDBTracer creates the task table and returns the tracer.
func NewDBTracer(
	runID string,
	timeTeller timing.TimeTeller,
	backend datarecording.DataRecorder,
) *DBTracer {
	backend.CreateTable(TaskTable, TaskEntry{})

	return &DBTracer{
		runID:        runID,
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.Location == "" {
		panic("task location must be set")
	}
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.CurrentTime()
	t.tracingTasks[task.ID] = task
}

// EndTask writes the task.
func (t *DBTracer) EndTask(task Task) {
	t.finish(task)
}

// AbortTask writes the task with the outcome of the abort.
func (t *DBTracer) AbortTask(task Task) {
	t.finish(task)
}

func (t *DBTracer) finish(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	t.backend.InsertData(TaskTable, TaskEntry{
		RunID:     t.runID,
		ID:        originalTask.ID,
		Kind:      originalTask.Kind,
		What:      task.What,
		Location:  originalTask.Location,
		StartTime: uint64(originalTask.StartTime),
		EndTime:   uint64(t.timeTeller.CurrentTime()),
	})
}
