package tracing

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)

	// AbortTask ends a task that did not complete.
	AbortTask(task Task)
}
