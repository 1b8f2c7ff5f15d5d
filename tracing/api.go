// Package tracing collects what the trigger pipeline produces through its
// hooks.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/cdctrg/hooking"
)

// NamedHookable is something that has a name and can be hooked.
type NamedHookable interface {
	Name() string
	hooking.Hookable
}

// CollectTrace attaches a tracer to a domain. Attaching the same tracer
// twice panics.
func CollectTrace(domain NamedHookable, tracer hooking.Hook) {
	for _, h := range domain.Hooks() {
		if _, ok := h.(hooking.HookFunc); ok {
			continue
		}

		if h == tracer {
			panic(fmt.Sprintf("domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

type eventIDer interface {
	EventID() string
}

func eventOf(ctx hooking.HookCtx) string {
	if e, ok := ctx.Domain.(eventIDer); ok {
		return e.EventID()
	}

	return ""
}
