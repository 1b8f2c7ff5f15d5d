// Package wire models the sense wires of the drift chamber: their fixed
// topology and their per-event hit records.
package wire

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/signal"
	"github.com/sarchlab/cdctrg/timing"
)

// ErrDuplicateHit is returned when a wire is hit twice without a clear in
// between.
var ErrDuplicateHit = errors.New("wire: wire already hit in this event")

// Spec holds the immutable attributes of a wire.
type Spec struct {
	ID         int
	Layer      int
	Local      int
	SuperLayer int
	LocalLayer int
	Axial      bool
	Domain     *timing.ClockDomain
}

// Wire is a sense wire. The topology is fixed at construction; the signal
// and the hit are reset by Clear.
type Wire struct {
	spec      Spec
	neighbors [NumNeighborSlots]*Wire

	sig signal.Signal
	hit *Hit
}

// New creates a wire without neighbors.
func New(spec Spec) *Wire {
	return &Wire{
		spec: spec,
		sig:  signal.New(spec.Domain),
	}
}

// Name returns a printable identifier, "w<layer>-<local>".
func (w *Wire) Name() string {
	return fmt.Sprintf("w%d-%d", w.spec.Layer, w.spec.Local)
}

// ID returns the detector-wide wire id.
func (w *Wire) ID() int {
	return w.spec.ID
}

// Layer returns the detector-wide layer id.
func (w *Wire) Layer() int {
	return w.spec.Layer
}

// Local returns the index of the wire inside its layer.
func (w *Wire) Local() int {
	return w.spec.Local
}

// SuperLayer returns the super layer id.
func (w *Wire) SuperLayer() int {
	return w.spec.SuperLayer
}

// LocalLayer returns the index of the layer inside its super layer.
func (w *Wire) LocalLayer() int {
	return w.spec.LocalLayer
}

// Axial returns true for wires parallel to the beam axis.
func (w *Wire) Axial() bool {
	return w.spec.Axial
}

// Domain returns the native clock domain of the wire.
func (w *Wire) Domain() *timing.ClockDomain {
	return w.spec.Domain
}

// SetNeighbor links a neighbor. A nil neighbor marks the slot empty.
func (w *Wire) SetNeighbor(slot NeighborSlot, n *Wire) {
	w.neighbors[slot] = n
}

// Neighbor returns the wire in the slot, or nil.
func (w *Wire) Neighbor(slot NeighborSlot) *Wire {
	return w.neighbors[slot]
}

// Signal returns the timing signal of this event.
func (w *Wire) Signal() signal.Signal {
	return w.sig
}

// Hit returns the hit of this event, or nil.
func (w *Wire) Hit() *Hit {
	return w.hit
}

// IsHit returns true if the wire fired in this event.
func (w *Wire) IsHit() bool {
	return w.hit != nil
}

// Status returns the lifecycle status of the wire in this event.
func (w *Wire) Status() Status {
	if w.hit == nil {
		return StatusNoHit
	}

	return w.hit.status
}

// Fire records a hit. The rising edge is the native tick of the drift time and
// the pulse lasts pulseWidth native ticks. A drift time without a tick still
// records the hit, with an inactive signal.
func (w *Wire) Fire(
	driftTime timing.VTimeInNs,
	relation DriftRelation,
	pulseWidth int64,
) (*Hit, error) {
	if w.hit != nil {
		return nil, errors.Wrapf(ErrDuplicateHit, "%s", w.Name())
	}

	rise := w.spec.Domain.TickOf(driftTime)
	w.sig = signal.Pulse(w.spec.Domain, rise, pulseWidth)

	w.hit = &Hit{
		wire:       w,
		driftTime:  driftTime,
		rise:       rise,
		drift:      relation.DriftLength(driftTime),
		driftError: relation.DriftLengthError(driftTime),
		state:      FindingValid | FittingValid,
		status:     StatusHit,
	}

	return w.hit, nil
}

// Clear drops the hit and the signal.
func (w *Wire) Clear() {
	w.hit = nil
	w.sig = signal.New(w.spec.Domain)
}

func (w *Wire) neighborHit(slot NeighborSlot) bool {
	n := w.neighbors[slot]
	return n != nil && n.hit != nil
}
