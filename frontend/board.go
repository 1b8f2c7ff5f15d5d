package frontend

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/bitstate"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

// ErrNotCollected is returned when a board is packed before its inputs were
// collected.
var ErrNotCollected = errors.New("frontend: board inputs not collected")

// Board is one front-end board with its wire population.
type Board struct {
	name     string
	id       int
	typ      BoardType
	mergerID int
	wires    []*wire.Wire
	sampler  *Sampler
	opts     Options

	tick   timing.Tick
	input  *bitstate.State
	output *bitstate.State
}

// Builder can build front-end boards.
type Builder struct {
	id       int
	typ      BoardType
	mergerID int
	wires    []*wire.Wire
	sampler  *Sampler
	opts     Options
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{mergerID: -1}
}

// WithID sets the front-end id.
func (b Builder) WithID(id int) Builder {
	b.id = id
	return b
}

// WithType sets the board type.
func (b Builder) WithType(t BoardType) Builder {
	b.typ = t
	return b
}

// WithMergerID sets the id of the merger board the output goes to.
func (b Builder) WithMergerID(id int) Builder {
	b.mergerID = id
	return b
}

// WithWires sets the wire population in board wire order.
func (b Builder) WithWires(wires []*wire.Wire) Builder {
	b.wires = wires
	return b
}

// WithSampler sets the sampler that collects the inputs.
func (b Builder) WithSampler(s *Sampler) Builder {
	b.sampler = s
	return b
}

// WithOptions sets the packing options.
func (b Builder) WithOptions(opts Options) Builder {
	b.opts = opts
	return b
}

// Build creates a board.
func (b Builder) Build(name string) (*Board, error) {
	if !b.typ.Valid() {
		return nil, errors.Wrapf(ErrUnknownBoardType, "%s: %d", name, int(b.typ))
	}

	if len(b.wires) != b.typ.NumWires() {
		return nil, errors.Wrapf(ErrWireCountMismatch,
			"%s: %s with %d wires", name, b.typ, len(b.wires))
	}

	for i, w := range b.wires {
		if w == nil {
			return nil, errors.Wrapf(ErrWireCountMismatch,
				"%s: wire %d missing", name, i)
		}
	}

	if b.sampler == nil {
		return nil, errors.Errorf("frontend: %s has no sampler", name)
	}

	wires := make([]*wire.Wire, len(b.wires))
	copy(wires, b.wires)

	return &Board{
		name:     name,
		id:       b.id,
		typ:      b.typ,
		mergerID: b.mergerID,
		wires:    wires,
		sampler:  b.sampler,
		opts:     b.opts,
	}, nil
}

// Name returns the name of the board.
func (b *Board) Name() string {
	return b.name
}

// ID returns the front-end id.
func (b *Board) ID() int {
	return b.id
}

// Type returns the board type.
func (b *Board) Type() BoardType {
	return b.typ
}

// MergerID returns the merger the board reports to, -1 if none.
func (b *Board) MergerID() int {
	return b.mergerID
}

// Wires returns the wire population.
func (b *Board) Wires() []*wire.Wire {
	out := make([]*wire.Wire, len(b.wires))
	copy(out, b.wires)

	return out
}

// Options returns the packing options.
func (b *Board) Options() Options {
	return b.opts
}

// Collect samples the wires at a board tick.
func (b *Board) Collect(tick timing.Tick) error {
	in, err := b.sampler.Collect(b.typ, b.wires, tick)
	if err != nil {
		return errors.Wrapf(err, "%s", b.name)
	}

	b.tick = tick
	b.input = in
	b.output = nil

	return nil
}

// Pack packs the collected inputs.
func (b *Board) Pack() (*bitstate.State, error) {
	if b.input == nil {
		return nil, errors.Wrapf(ErrNotCollected, "%s", b.name)
	}

	out, err := Pack(b.typ, b.input, b.opts)
	if err != nil {
		return nil, err
	}

	b.output = out

	return out, nil
}

// Step collects and packs one tick.
func (b *Board) Step(tick timing.Tick) (*bitstate.State, error) {
	if err := b.Collect(tick); err != nil {
		return nil, err
	}

	return b.Pack()
}

// Tick returns the tick of the last collection.
func (b *Board) Tick() timing.Tick {
	return b.tick
}

// Input returns the last collected input, or nil.
func (b *Board) Input() *bitstate.State {
	return b.input
}

// Output returns the last packed output, or nil.
func (b *Board) Output() *bitstate.State {
	return b.output
}

// Clear drops the snapshots of the event.
func (b *Board) Clear() {
	b.tick = 0
	b.input = nil
	b.output = nil
}

// Active returns true if any wire of the board fired in the event.
func (b *Board) Active() bool {
	for _, w := range b.wires {
		if w.IsHit() {
			return true
		}
	}

	return false
}
