package hooking

import (
	"fmt"
	"log"
)

// LogHook writes one line per invocation at the positions it is told to
// watch. Without positions it logs everything.
type LogHook struct {
	*log.Logger

	positions map[*HookPos]bool
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *log.Logger, positions ...*HookPos) *LogHook {
	h := &LogHook{
		Logger:    logger,
		positions: make(map[*HookPos]bool),
	}

	for _, p := range positions {
		h.positions[p] = true
	}

	return h
}

// Func logs the invocation.
func (h *LogHook) Func(ctx HookCtx) {
	if len(h.positions) > 0 && !h.positions[ctx.Pos] {
		return
	}

	line := fmt.Sprintf("%d %s %v", ctx.Tick, ctx.Pos.Name, ctx.Item)
	if ctx.Detail != nil {
		line += fmt.Sprintf(" %v", ctx.Detail)
	}

	h.Print(line)
}
