package frontend

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/bitstate"
	"github.com/sarchlab/cdctrg/signal"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

var (
	// ErrBadWindow is returned for a sampling window that is not positive or
	// whose fine timing could reach the NotHit sentinel.
	ErrBadWindow = errors.New("frontend: invalid sampling window")

	// ErrWireCountMismatch is returned when a board does not have the wire
	// population of its type.
	ErrWireCountMismatch = errors.New("frontend: wire count does not match board type")
)

// DefaultWindow is the number of board ticks a hit stays visible.
const DefaultWindow = 3

// Sampler turns wire signals on the native clock into packer inputs on the
// board clock.
type Sampler struct {
	native *timing.ClockDomain
	board  *timing.ClockDomain
	ratio  uint64
	window int
}

// NewSampler creates a sampler. A wire is seen as hit at board tick T when it
// rises during board ticks T-window+1 .. T. Its fine timing is the number of
// native ticks from the start of that window, which must stay below NotHit.
func NewSampler(native, board *timing.ClockDomain, window int) (*Sampler, error) {
	ratio, err := native.Ratio(board)
	if err != nil {
		return nil, err
	}

	if window < 1 || uint64(window)*ratio > NotHit {
		return nil, errors.Wrapf(ErrBadWindow,
			"%d board ticks of %d native ticks", window, ratio)
	}

	return &Sampler{
		native: native,
		board:  board,
		ratio:  ratio,
		window: window,
	}, nil
}

// Native returns the wire clock domain.
func (s *Sampler) Native() *timing.ClockDomain {
	return s.native
}

// Board returns the board clock domain.
func (s *Sampler) Board() *timing.ClockDomain {
	return s.board
}

// Ratio returns the number of native ticks per board tick.
func (s *Sampler) Ratio() uint64 {
	return s.ratio
}

// Window returns the window length in board ticks.
func (s *Sampler) Window() int {
	return s.window
}

// Collect builds the packer input of the board type at board tick tick.
func (s *Sampler) Collect(
	t BoardType,
	wires []*wire.Wire,
	tick timing.Tick,
) (*bitstate.State, error) {
	if len(wires) != t.NumWires() {
		return nil, errors.Wrapf(ErrWireCountMismatch,
			"%s with %d wires", t, len(wires))
	}

	from := s.board.Convert(tick-timing.Tick(s.window-1), s.native)
	to := s.board.Convert(tick+1, s.native)

	in := bitstate.NewState(InputLayout(t))
	for i, w := range wires {
		sig := w.Signal()
		if sig.Domain() != s.native {
			return nil, errors.Wrapf(signal.ErrDomainMismatch,
				"%s is not on %s", w.Name(), s.native.Name())
		}

		fine := uint64(NotHit)
		if rise, ok := sig.FirstRiseIn(from, to); ok {
			in.Vector().SetBit(i, true)
			fine = uint64(rise - from)
		}

		in.MustSet(timingFieldNames[i], fine)
	}

	return in, nil
}

// Input builds a packer input by hand from wire timings. Wires missing from
// hits are not hit.
func Input(t BoardType, hits map[int]uint8) (*bitstate.State, error) {
	in := bitstate.NewState(InputLayout(t))

	for i := 0; i < t.NumWires(); i++ {
		in.MustSet(timingFieldNames[i], NotHit)
	}

	for w, fine := range hits {
		if w < 0 || w >= t.NumWires() {
			return nil, errors.Wrapf(ErrWireCountMismatch,
				"wire %d on %s", w, t)
		}

		if fine > MaxTiming {
			return nil, errors.Wrapf(bitstate.ErrValueOverflow,
				"timing %d of wire %d reaches NotHit", fine, w)
		}

		in.Vector().SetBit(w, true)
		in.MustSet(timingFieldNames[w], uint64(fine))
	}

	return in, nil
}
