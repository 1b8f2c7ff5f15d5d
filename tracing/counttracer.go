package tracing

import (
	"sync"

	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/trgcdc"
)

// CountTracer counts hook invocations by position and packed states by
// board.
type CountTracer struct {
	lock       sync.Mutex
	posNames   []string
	posCount   map[string]uint64
	boardCount map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		posCount:   make(map[string]uint64),
		boardCount: make(map[string]uint64),
	}
}

// Func counts the invocation.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := t.posCount[name]; !ok {
		t.posNames = append(t.posNames, name)
	}
	t.posCount[name]++

	if out, ok := ctx.Item.(trgcdc.BoardOutput); ok {
		t.boardCount[out.Board.Name()]++
	}
}

// PosNames returns the positions seen, in order of first appearance.
func (t *CountTracer) PosNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	out := make([]string, len(t.posNames))
	copy(out, t.posNames)

	return out
}

// Count returns the number of invocations at a position.
func (t *CountTracer) Count(posName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.posCount[posName]
}

// BoardCount returns the number of states packed by a board.
func (t *CountTracer) BoardCount(board string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.boardCount[board]
}
