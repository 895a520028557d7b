package hooking

import (
	"fmt"
	"log"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// LogHook writes one line per hook invocation into a logger. Positions can be
// filtered so that a noisy domain (for example a lane queue) only reports the
// events of interest.
type LogHook struct {
	*log.Logger

	positions map[*HookPos]bool
}

// NewLogHook returns a LogHook which writes into the logger. If no position is
// given, every position is logged.
func NewLogHook(logger *log.Logger, positions ...*HookPos) *LogHook {
	h := &LogHook{Logger: logger}

	if len(positions) > 0 {
		h.positions = make(map[*HookPos]bool)
		for _, p := range positions {
			h.positions[p] = true
		}
	}

	return h
}

// Func writes the hook information into the logger.
func (h *LogHook) Func(ctx HookCtx) {
	if h.positions != nil && !h.positions[ctx.Pos] {
		return
	}

	where := "?"
	if named, ok := ctx.Domain.(Named); ok {
		where = named.Name()
	}

	line := fmt.Sprintf("%d, %s, %s", ctx.Now, where, ctx.Pos.Name)
	if ctx.Item != nil {
		line += fmt.Sprintf(", %v", ctx.Item)
	}

	if ctx.Detail != nil {
		line += fmt.Sprintf(", %v", ctx.Detail)
	}

	h.Logger.Println(line)
}
