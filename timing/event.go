package timing

import "github.com/sarchlab/framemerge/hooking"

// Handler processes events of various types.
// Events are plain data; handlers use type switching:
//
//	func (c *Comp) Handle(event any) error {
//	    switch e := event.(type) {
//	    case TickEvent:
//	        // ...
//	    default:
//	        return fmt.Errorf("unknown event type: %T", event)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(event any) error
}

// TimeTeller exposes the current simulation cycle.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler schedules events in the simulation timeline.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent is the engine-facing wrapper for user-defined events.
type ScheduledEvent struct {
	// Event is the data payload to be delivered to the handler.
	Event any

	// Time is the cycle when the event should be processed.
	Time VTimeInCycle

	// Handler is the component that will process this event.
	Handler Handler

	// IsSecondary indicates if this event should be processed after
	// all primary events at the same time.
	IsSecondary bool

	seq uint64
}

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes all the events until the queue is drained.
	Run() error

	// RunUntil processes all the events scheduled at or before the deadline.
	// Events after the deadline stay queued for the next call.
	RunUntil(deadline VTimeInCycle) error

	// Pause stops the engine from dispatching more events until Continue.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}

// HookPosBeforeEvent is a hook position that triggers before handling an event.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}
