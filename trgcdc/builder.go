package trgcdc

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/geometry"
	"github.com/sarchlab/cdctrg/idgen"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

// Builder can build trigger systems.
type Builder struct {
	clocks     *timing.ClockRegistry
	provider   geometry.Provider
	boardMap   *geometry.BoardMap
	drift      wire.DriftRelation
	window     int
	pulseWidth int64
	opts       frontend.Options
	ids        idgen.Generator

	inefficiency float64
	seed         int64
}

// ErrBadInefficiency is returned for a hit loss probability outside [0, 1).
var ErrBadInefficiency = errors.New("trgcdc: inefficiency must be in [0, 1)")

// MakeBuilder creates a builder with the default Belle II clocks and
// geometry.
func MakeBuilder() Builder {
	return Builder{
		window: frontend.DefaultWindow,
		drift:  wire.DefaultDrift(),
	}
}

// WithClocks sets the clock registry. It must contain the CDCFETriggerClock
// and CDCTriggerClock domains.
func (b Builder) WithClocks(clocks *timing.ClockRegistry) Builder {
	b.clocks = clocks
	return b
}

// WithGeometry sets the geometry provider.
func (b Builder) WithGeometry(p geometry.Provider) Builder {
	b.provider = p
	return b
}

// WithBoardMap replaces the default board assignment.
func (b Builder) WithBoardMap(m *geometry.BoardMap) Builder {
	b.boardMap = m
	return b
}

// WithDriftRelation sets the drift time to distance relation.
func (b Builder) WithDriftRelation(d wire.DriftRelation) Builder {
	b.drift = d
	return b
}

// WithWindow sets the number of board ticks a hit stays visible to the
// boards.
func (b Builder) WithWindow(window int) Builder {
	b.window = window
	return b
}

// WithPulseWidth sets the wire pulse width in native ticks. The default is
// one board tick.
func (b Builder) WithPulseWidth(ticks int64) Builder {
	b.pulseWidth = ticks
	return b
}

// WithOptions sets the packing options of every board.
func (b Builder) WithOptions(opts frontend.Options) Builder {
	b.opts = opts
	return b
}

// WithIDGenerator sets the generator of event ids.
func (b Builder) WithIDGenerator(g idgen.Generator) Builder {
	b.ids = g
	return b
}

// WithInefficiency makes the system lose each delivered hit with probability
// p. The losses are drawn from a generator seeded with seed, so a run is
// reproducible.
func (b Builder) WithInefficiency(p float64, seed int64) Builder {
	b.inefficiency = p
	b.seed = seed

	return b
}

// Build creates a trigger system.
func (b Builder) Build(name string) (*System, error) {
	if b.inefficiency < 0 || b.inefficiency >= 1 {
		return nil, errors.Wrapf(ErrBadInefficiency, "%s: %g", name, b.inefficiency)
	}

	clocks := b.clocks
	if clocks == nil {
		clocks = timing.Belle2Clocks()
	}

	native, err := clocks.Domain(timing.CDCFETriggerClock)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}

	board, err := clocks.Domain(timing.CDCTriggerClock)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}

	sampler, err := frontend.NewSampler(native, board, b.window)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}

	provider := b.provider
	if provider == nil {
		provider = geometry.Belle2Like()
	}

	det, err := geometry.Build(provider, native)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}

	if b.boardMap != nil {
		specs, err := det.BoardsFromMap(b.boardMap)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}

		det.SetBoards(specs)
	}

	s := &System{
		name:       name,
		clocks:     clocks,
		native:     native,
		board:      board,
		detector:   det,
		drift:      b.drift,
		window:     b.window,
		pulseWidth: b.pulseWidth,
		ids:        b.ids,

		inefficiency: b.inefficiency,
	}

	if s.inefficiency > 0 {
		s.rng = rand.New(rand.NewSource(b.seed))
	}

	if s.pulseWidth <= 0 {
		s.pulseWidth = int64(sampler.Ratio())
	}

	if s.ids == nil {
		s.ids = idgen.NewSequential()
	}

	for _, spec := range det.Boards() {
		fe, err := frontend.MakeBuilder().
			WithID(spec.ID).
			WithType(spec.Type).
			WithMergerID(spec.MergerID).
			WithWires(spec.Wires).
			WithSampler(sampler).
			WithOptions(b.opts).
			Build(spec.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}

		s.boards = append(s.boards, fe)
	}

	return s, nil
}
