// Package runctrl decodes the run-control command channel of a clock domain.
package runctrl

import (
	"fmt"
	"strings"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/timing"
)

// State is a decoded run state.
type State int

// The run states. Error is the catch-all for any unrecognized command word.
const (
	Idle State = iota
	Prepare
	Sync
	Running
	Terminating
	LinkTest
	SyncTest
	Reset
	OutOfDaq
	Error
)

var stateNames = []string{
	"Idle", "Prepare", "Sync", "Running", "Terminating",
	"LinkTest", "SyncTest", "Reset", "OutOfDaq", "Error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// ForcesReset tells whether entering the state forces the state machines of
// the domain into Reset.
func (s State) ForcesReset() bool {
	return s == Prepare || s == Reset
}

// ParseState converts a state name, case-insensitively.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return State(i), nil
		}
	}

	return Error, fmt.Errorf("unknown run state %q", name)
}

// Command is the 9-bit one-hot run-control command word.
type Command uint16

// CommandBits is the width of a command word.
const CommandBits = 9

// Encode returns the command word of a state. Error has no command word.
func Encode(s State) (Command, error) {
	if s < Idle || s >= Error {
		return 0, fmt.Errorf("run state %s has no command word", s)
	}

	return Command(1) << uint(s), nil
}

// MustEncode is Encode that panics on Error.
func MustEncode(s State) Command {
	cmd, err := Encode(s)
	if err != nil {
		panic(err)
	}

	return cmd
}

// Decode maps a command word to a run state. Any word that is not exactly
// one of the nine one-hot patterns decodes to Error.
func Decode(cmd Command) State {
	if cmd == 0 || cmd>>CommandBits != 0 || cmd&(cmd-1) != 0 {
		return Error
	}

	s := State(0)
	for cmd > 1 {
		cmd >>= 1
		s++
	}

	return s
}

// HookPosStateChange is raised when the decoded run state changes.
var HookPosStateChange = &hooking.HookPos{Name: "Run State Change"}

// Transition is the effect of one command on a domain.
type Transition struct {
	From    State
	To      State
	Applied bool
}

// ForcesReset tells whether the transition must force the domain into Reset.
func (t Transition) ForcesReset() bool {
	return t.Applied && t.To.ForcesReset()
}

// Channel is the run-control input of one clock domain. Commands are written
// from outside and picked up one per tick by the domain. Error is latched:
// once entered, no command leaves it.
type Channel struct {
	*hooking.HookableBase

	name     string
	commands queueing.Buffer[Command]
	state    State
}

// NewChannel creates a channel in the Idle state that can hold up to depth
// unprocessed commands.
func NewChannel(name string, depth int) *Channel {
	return &Channel{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		commands:     queueing.NewBuffer[Command](name+".Commands", depth),
	}
}

// Name returns the name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// State returns the current run state.
func (c *Channel) State() State {
	return c.state
}

// Issue writes a command word. It returns false if the channel still holds
// too many unprocessed commands.
func (c *Channel) Issue(cmd Command) bool {
	if !c.commands.CanPush() {
		return false
	}

	c.commands.Push(cmd)

	return true
}

// Update processes at most one pending command.
func (c *Channel) Update(now timing.VTimeInCycle) Transition {
	cmd, ok := c.commands.Pop()
	if !ok {
		return Transition{From: c.state, To: c.state}
	}

	t := Transition{From: c.state, To: c.state}
	if c.state == Error {
		return t
	}

	t.To = Decode(cmd)
	t.Applied = true
	c.state = t.To

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Now:    uint64(now),
			Pos:    HookPosStateChange,
			Item:   t.To,
			Detail: t.From,
		})
	}

	return t
}
