package segment

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/signal"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

// ErrShapeMismatch is returned when the wire list does not fit the shape.
var ErrShapeMismatch = errors.New("segment: wires do not match shape")

// Segment is a fixed group of wires around a priority wire.
type Segment struct {
	id    int
	shape Shape
	wires []*wire.Wire

	hit *Hit
}

// New creates a segment. The wires are given in the order of the shape
// offsets.
func New(id int, shape Shape, wires []*wire.Wire) (*Segment, error) {
	if len(wires) != shape.Size() {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"segment %d: %d wires for %s shape of %d",
			id, len(wires), shape.Name, shape.Size())
	}

	for i, w := range wires {
		if w == nil {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"segment %d: wire %d missing", id, i)
		}
	}

	ws := make([]*wire.Wire, len(wires))
	copy(ws, wires)

	return &Segment{id: id, shape: shape, wires: ws}, nil
}

// ID returns the segment id.
func (s *Segment) ID() int {
	return s.id
}

// Name returns "TS<superLayer>-<local>".
func (s *Segment) Name() string {
	c := s.Center()
	return fmt.Sprintf("TS%d-%d", c.SuperLayer(), c.Local())
}

// Shape returns the shape.
func (s *Segment) Shape() Shape {
	return s.shape
}

// Center returns the priority wire.
func (s *Segment) Center() *wire.Wire {
	return s.wires[s.shape.Priority]
}

// Wires returns the wires in declaration order.
func (s *Segment) Wires() []*wire.Wire {
	out := make([]*wire.Wire, len(s.wires))
	copy(out, s.wires)

	return out
}

// Hit returns the hit of the event, or nil.
func (s *Segment) Hit() *Hit {
	return s.hit
}

// Simulate ORs the wire signals. A hit is created only if the union is
// active.
func (s *Segment) Simulate() (*Hit, error) {
	s.hit = nil

	sig := signal.New(s.Center().Domain())
	for _, w := range s.wires {
		if err := sig.OrWith(w.Signal()); err != nil {
			return nil, errors.Wrapf(err, "%s wire %s", s.Name(), w.Name())
		}
	}

	if !sig.Active() {
		return nil, nil
	}

	h := &Hit{segment: s, sig: sig, first: -1}
	for i, w := range s.wires {
		ws := w.Signal()
		t, ok := ws.FirstRise()
		if !ok {
			continue
		}

		if h.first < 0 || t < h.firstTick {
			h.first = i
			h.firstTick = t
		}
	}

	s.hit = h

	return h, nil
}

// Clear drops the hit of the event.
func (s *Segment) Clear() {
	s.hit = nil
}

// Hit is the per-event record of a segment whose signal is active.
type Hit struct {
	segment   *Segment
	sig       signal.Signal
	first     int
	firstTick timing.Tick
}

// Segment returns the segment.
func (h *Hit) Segment() *Segment {
	return h.segment
}

// Signal returns the OR of the wire signals.
func (h *Hit) Signal() signal.Signal {
	return h.sig
}

// FirstTick returns the earliest rising edge over the wires.
func (h *Hit) FirstTick() timing.Tick {
	return h.firstTick
}

// FirstWire returns the wire of the earliest rising edge. On a tie the wire
// declared first wins.
func (h *Hit) FirstWire() *wire.Wire {
	return h.segment.wires[h.first]
}

// FirstIndex returns the declaration index of FirstWire.
func (h *Hit) FirstIndex() int {
	return h.first
}

// Wires returns the wires with an active signal, in declaration order.
func (h *Hit) Wires() []*wire.Wire {
	var out []*wire.Wire
	for _, w := range h.segment.wires {
		ws := w.Signal()
		if ws.Active() {
			out = append(out, w)
		}
	}

	return out
}

func (h *Hit) String() string {
	return fmt.Sprintf("%s first=%s@%d %s",
		h.segment.Name(), h.FirstWire().Name(), h.firstTick, h.sig)
}
