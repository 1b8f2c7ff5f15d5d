// Package hooking lets observers attach to the trigger pipeline without the
// pipeline knowing about them.
package hooking

import (
	"github.com/sarchlab/cdctrg/timing"
)

// HookPos names a point in the pipeline where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives when it is invoked.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos

	// Tick is the board clock tick of the invocation, or zero for positions
	// that are not tied to a tick.
	Tick timing.Tick

	Item   any
	Detail any
}

// Hookable is an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is invoked by a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable for embedding.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, ok := hook.(HookFunc); !ok {
		for _, existing := range h.hookList {
			if existing == hook {
				panic("duplicated hook")
			}
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook calls the registered hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
