package timing

import (
	"sync"

	"github.com/sarchlab/framemerge/hooking"
)

// TickEvent is a generic event that ticking components use to update their
// status once per clock cycle of their domain.
type TickEvent struct {
	Handler Handler
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	// Tick advances the state by one clock cycle. It returns true if
	// progress is made.
	Tick() bool
}

// TickScheduler can help schedule tick events on a clock domain.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Domain    *FreqDomain
	Engine    EventScheduler
	secondary bool

	hasScheduled bool
	nextTickTime VTimeInCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine EventScheduler,
	domain *FreqDomain,
) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
		Domain:  domain,
	}
}

// TickNow schedules a Tick event at the current tick of the domain.
func (t *TickScheduler) TickNow() {
	t.schedule(t.Domain.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick event at the domain cycle after the current time.
func (t *TickScheduler) TickLater() {
	t.schedule(t.Domain.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) schedule(time VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.hasScheduled && t.nextTickTime >= time {
		return
	}

	t.hasScheduled = true
	t.nextTickTime = time

	t.Engine.Schedule(ScheduledEvent{
		Event:       TickEvent{Handler: t.handler},
		Time:        time,
		Handler:     t.handler,
		IsSecondary: t.secondary,
	})
}

// CurrentTime returns the current engine time.
func (t *TickScheduler) CurrentTime() VTimeInCycle {
	return t.Engine.CurrentTime()
}

// TickCount returns the number of ticks of the domain so far.
func (t *TickScheduler) TickCount() uint64 {
	return t.Domain.Cycle(t.CurrentTime())
}

// TickingComponent is a type of component that updates states from cycle to
// cycle. A programmer only needs to provide the Tick function.
//
// A regular ticking component stops ticking when a tick makes no progress and
// has to be woken up with TickLater. A free-running component ticks on every
// cycle of its domain, like a hardware block on a running clock.
type TickingComponent struct {
	*hooking.HookableBase
	*TickScheduler

	name        string
	ticker      Ticker
	freeRunning bool
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine EventScheduler,
	domain *FreqDomain,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		ticker:       ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, domain)

	return tc
}

// NewFreeRunningComponent creates a ticking component that never stops
// ticking once started.
func NewFreeRunningComponent(
	name string,
	engine EventScheduler,
	domain *FreqDomain,
	ticker Ticker,
) *TickingComponent {
	tc := NewTickingComponent(name, engine, domain, ticker)
	tc.freeRunning = true

	return tc
}

// Name returns the name of the component.
func (c *TickingComponent) Name() string {
	return c.name
}

// Handle triggers the tick function of the TickingComponent.
func (c *TickingComponent) Handle(_ any) error {
	madeProgress := c.ticker.Tick()
	if madeProgress || c.freeRunning {
		c.TickLater()
	}

	return nil
}
