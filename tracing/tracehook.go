package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/packetizer"
)

// NamedHookable is a named object that raises hooks.
type NamedHookable interface {
	hooking.Named
	hooking.Hookable
	Hooks() []hooking.Hook
}

// CollectFrameTrace lets the tracer follow every frame written into an
// output queue, from its preamble to its seal or rollback.
func CollectFrameTrace(domain NamedHookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*frameTraceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	h := frameTraceHook{t: tracer, where: domain.Name()}
	domain.AcceptHook(&h)
}

type frameTraceHook struct {
	t     Tracer
	where string
}

func (h *frameTraceHook) task(counter uint16, what string) Task {
	return Task{
		ID:       fmt.Sprintf("%s.Frame[%d]", h.where, counter),
		Kind:     KindFrame,
		What:     what,
		Location: h.where,
	}
}

// Func calls the tracer interfaces when the hook is triggered
func (h *frameTraceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case packetizer.HookPosFrameBegun:
		h.t.StartTask(h.task(ctx.Item.(uint16), WhatAssemble))
	case packetizer.HookPosFrameSealed:
		e := ctx.Item.(packetizer.SideEntry)
		h.t.EndTask(h.task(e.FrameCounter, WhatAssemble))
	case packetizer.HookPosFrameRolledBack:
		h.t.AbortTask(h.task(ctx.Item.(uint16), WhatRollback))
	}
}
