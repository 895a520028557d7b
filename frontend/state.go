package frontend

import "github.com/sarchlab/framemerge/runctrl"

// State is the mutable runtime data of the front end.
type State struct {
	// GlobalTimestamp is the free-running 48-bit counter of the producer
	// domain.
	GlobalTimestamp uint64

	RunState runctrl.State
	Resets   uint64

	IngressWords uint64
	SinceStatus  int
}
