package arbiter

// Result is the outcome of one arbitration.
type Result struct {
	Index int
	Value Element
	Valid bool
}

// Unit wraps a strategy into a request/response block. A request takes the
// strategy's latency in ticks. The result stays stable until it is
// acknowledged. A new request flushes any outstanding one.
type Unit struct {
	strategy Strategy

	pending   []Element
	countdown int
	inFlight  bool
	result    Result
}

// NewUnit creates an arbitration unit.
func NewUnit(strategy Strategy) *Unit {
	return &Unit{strategy: strategy}
}

// Strategy returns the strategy used by the unit.
func (u *Unit) Strategy() Strategy {
	return u.strategy
}

// Post submits a request. The unit is always ready, so Post always returns
// true. An empty array is refused.
func (u *Unit) Post(elems []Element) bool {
	if len(elems) == 0 {
		return false
	}

	u.pending = append(u.pending[:0], elems...)
	u.countdown = u.strategy.Latency(len(elems))
	u.inFlight = true
	u.result = Result{}

	return true
}

// Tick advances the in-flight request by one stage. It returns true if
// progress is made.
func (u *Unit) Tick() bool {
	if !u.inFlight {
		return false
	}

	u.countdown--
	if u.countdown > 0 {
		return true
	}

	idx, v := u.strategy.Search(u.pending)
	u.result = Result{Index: idx, Value: v, Valid: true}
	u.inFlight = false

	return true
}

// Result returns the latched result, if any.
func (u *Unit) Result() (Result, bool) {
	return u.result, u.result.Valid
}

// Busy tells whether a request is in flight or a result is unacknowledged.
func (u *Unit) Busy() bool {
	return u.inFlight || u.result.Valid
}

// Ack clears the latched result.
func (u *Unit) Ack() {
	u.result = Result{}
}

// Flush drops the in-flight request and the latched result.
func (u *Unit) Flush() {
	u.pending = u.pending[:0]
	u.countdown = 0
	u.inFlight = false
	u.result = Result{}
}
