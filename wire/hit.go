package wire

import (
	"fmt"
	"strings"

	"github.com/sarchlab/cdctrg/timing"
)

// Status is the lifecycle position of a wire in one event.
type Status int

// Statuses.
const (
	StatusNoHit Status = iota
	StatusHit
	StatusClassified
)

func (s Status) String() string {
	switch s {
	case StatusNoHit:
		return "NoHit"
	case StatusHit:
		return "Hit"
	case StatusClassified:
		return "Classified"
	}

	return "Unknown"
}

// State is the bit set of hit flags.
type State uint32

// Hit flags. The neighbor pattern occupies NumNeighborSlots bits starting at
// NeighborHitShift.
const (
	PatternLeft  State = 1 << 8
	PatternRight State = 1 << 9
	Isolated     State = 1 << 10
	Continuous   State = 1 << 11
	FindingValid State = 1 << 22
	FittingValid State = 1 << 30

	NeighborHitShift = 12
)

// LRHint is the local left/right ambiguity solution.
type LRHint int

// LR hints.
const (
	LRUnknown LRHint = iota
	LRLeft
	LRRight
)

func (h LRHint) String() string {
	switch h {
	case LRLeft:
		return "left"
	case LRRight:
		return "right"
	}

	return "unknown"
}

var (
	rightPatterns = map[uint8]bool{34: true, 42: true, 40: true, 10: true, 35: true, 50: true}
	leftPatterns  = map[uint8]bool{17: true, 21: true, 20: true, 5: true, 19: true, 49: true}
)

// LRHintOf looks up the hint of a neighbor pattern.
func LRHintOf(pattern uint8) LRHint {
	switch {
	case rightPatterns[pattern]:
		return LRRight
	case leftPatterns[pattern]:
		return LRLeft
	}

	return LRUnknown
}

// Hit is the per-event record of a fired wire.
type Hit struct {
	wire       *Wire
	driftTime  timing.VTimeInNs
	rise       timing.Tick
	drift      float64
	driftError float64
	state      State
	status     Status
}

// Wire returns the wire that fired.
func (h *Hit) Wire() *Wire {
	return h.wire
}

// DriftTime returns the raw drift time.
func (h *Hit) DriftTime() timing.VTimeInNs {
	return h.driftTime
}

// Rise returns the native tick of the rising edge. It is saturated when the
// drift time has no tick.
func (h *Hit) Rise() timing.Tick {
	return h.rise
}

// DriftLeft returns the drift distance candidate on the left of the wire.
func (h *Hit) DriftLeft() float64 {
	return -h.drift
}

// DriftRight returns the drift distance candidate on the right of the wire.
func (h *Hit) DriftRight() float64 {
	return h.drift
}

// DriftError returns the uncertainty of both candidates.
func (h *Hit) DriftError() float64 {
	return h.driftError
}

// State returns the flags.
func (h *Hit) State() State {
	return h.state
}

// Status returns StatusHit or StatusClassified.
func (h *Hit) Status() Status {
	return h.status
}

// NeighborPattern returns bit j set iff neighbor slot j is hit. Valid after
// Classify.
func (h *Hit) NeighborPattern() uint8 {
	return uint8(h.state>>NeighborHitShift) & (1<<NumNeighborSlots - 1)
}

// Isolated reports the isolation flag.
func (h *Hit) Isolated() bool {
	return h.state&Isolated != 0
}

// Continuous reports the continuity flag.
func (h *Hit) Continuous() bool {
	return h.state&Continuous != 0
}

// LR reports the left/right hint.
func (h *Hit) LR() LRHint {
	switch {
	case h.state&PatternRight != 0:
		return LRRight
	case h.state&PatternLeft != 0:
		return LRLeft
	}

	return LRUnknown
}

// Classify derives the neighbor pattern, isolation, continuity and LR flags
// from the hits of the neighbors. It must run after every hit of the event is
// recorded. Classifying twice has no further effect.
func (h *Hit) Classify() {
	if h.status == StatusClassified {
		return
	}

	w := h.wire

	var pattern uint8
	for j := NeighborSlot(0); j < NumNeighborSlots; j++ {
		if w.neighborHit(j) {
			pattern |= 1 << uint(j)
		}
	}
	h.state |= State(pattern) << NeighborHitShift

	if isolated(w) {
		h.state |= Isolated
	}

	if continuous(w) {
		h.state |= Continuous
	}

	switch LRHintOf(pattern) {
	case LRRight:
		h.state |= PatternRight
	case LRLeft:
		h.state |= PatternLeft
	}

	h.status = StatusClassified
}

// isolated is true if neither in-layer neighbor is hit, or if only one side
// is hit and the wire one further step on that side is not.
func isolated(w *Wire) bool {
	r1 := w.neighborHit(Right)
	l1 := w.neighborHit(Left)

	if !r1 && !l1 {
		return true
	}

	r2 := r1 && w.neighbors[Right].neighborHit(Right)
	l2 := l1 && w.neighbors[Left].neighborHit(Left)

	return (r1 && !r2 && !l1) || (l1 && !l2 && !r1)
}

// continuous is true if a previous or a next layer neighbor is hit. A wire
// without such neighbors counts as continuous on that side.
func continuous(w *Wire) bool {
	previous := w.neighbors[InnerLeft] == nil ||
		w.neighborHit(InnerLeft) || w.neighborHit(InnerRight)
	next := w.neighbors[OuterRight] == nil ||
		w.neighborHit(OuterLeft) || w.neighborHit(OuterRight)

	return previous || next
}

func (h *Hit) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s t=%.3fns rise=%d", h.wire.Name(), h.status,
		float64(h.driftTime), h.rise)

	if h.status == StatusClassified {
		fmt.Fprintf(&b, " ptn=%07b", h.NeighborPattern())
		if h.Isolated() {
			b.WriteString(" isolated")
		}
		if h.Continuous() {
			b.WriteString(" continuous")
		}
		if lr := h.LR(); lr != LRUnknown {
			fmt.Fprintf(&b, " lr=%s", lr)
		}
	}

	return b.String()
}
