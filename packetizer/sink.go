package packetizer

import "github.com/sarchlab/framemerge/word"

// A Sink is the consumer of the frame stream. CanAccept plays the role of the
// ready signal: while it is false the reader holds its read pointer.
type Sink interface {
	CanAccept() bool
	Accept(w word.FrameWord)
}
