package assembler

import (
	"fmt"

	"github.com/sarchlab/framemerge/runctrl"
)

// FSMState is the state of the frame assembly machine.
type FSMState int

// The frame assembly states.
const (
	Idle FSMState = iota
	StartOfFrame
	LookAround
	Transmission
	EndOfFrame
	Reset
)

func (s FSMState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case StartOfFrame:
		return "StartOfFrame"
	case LookAround:
		return "LookAround"
	case Transmission:
		return "Transmission"
	case EndOfFrame:
		return "EndOfFrame"
	case Reset:
		return "Reset"
	default:
		return fmt.Sprintf("FSMState(%d)", int(s))
	}
}

// State is the mutable runtime data of the assembler.
type State struct {
	// Identity carried in the preamble. Initialized from the Spec and
	// writable through the register file.
	TypeTag  uint8
	SourceID uint32

	FSM        FSMState
	HeaderStep int
	Winner     int

	HeaderGenerated  bool
	TrailerGenerated bool

	FrameCounter    uint16
	FrameTimestamp  uint64
	GlobalTimestamp uint64

	// Per-frame counts, patched into the frame header by the reader.
	SubheaderCount uint16
	HitCount       uint16

	RunState     runctrl.State
	FramesSealed uint64
	ForcedResets uint64
}
