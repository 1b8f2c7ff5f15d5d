package frontend

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/bitstate"
)

// ErrLayoutMismatch is returned when a packer input does not have the input
// layout of the board type.
var ErrLayoutMismatch = errors.New("frontend: input layout mismatch")

// Pack computes the output word of a board type from one tick of input.
func Pack(t BoardType, in *bitstate.State, opts Options) (*bitstate.State, error) {
	if !t.Valid() {
		return nil, errors.Wrapf(ErrUnknownBoardType, "%d", int(t))
	}

	if in == nil || in.Layout() != InputLayout(t) {
		name := "nil"
		if in != nil {
			name = in.Layout().Name()
		}

		return nil, errors.Wrapf(ErrLayoutMismatch,
			"%s packer got %s", t, name)
	}

	p := packer{
		typ:  t,
		opts: opts,
		in:   in,
		out:  bitstate.NewState(OutputLayout(t, opts)),
	}

	p.passthroughPattern()
	p.priorityPass()
	p.fastestPass()
	p.appendEdges()

	return p.out, nil
}

type packer struct {
	typ  BoardType
	opts Options
	in   *bitstate.State
	out  *bitstate.State
}

func (p *packer) hit(wire int) bool {
	return p.in.Vector().Bit(wire)
}

func (p *packer) timing(wire int) uint8 {
	return uint8(p.in.MustGet(timingFieldNames[wire]))
}

func (p *packer) candidate(wire int) Candidate {
	return Candidate{Timing: p.timing(wire), Hit: p.hit(wire)}
}

func (p *packer) passthroughPattern() {
	n := p.typ.NumWires()
	src := p.in.Vector()
	dst := p.out.Vector()

	for i := 0; i < n; i++ {
		dst.SetBit(i, src.Bit(i))
	}
}

func (p *packer) priorityPass() {
	if PriorityWire(p.typ, 0) < 0 {
		return
	}

	for seg := 0; seg < NumSegments; seg++ {
		p.out.MustSet(FieldName(FieldPriority, seg),
			uint64(p.timing(PriorityWire(p.typ, seg))))
	}

	if !hasSecondPriority(p.typ, p.opts) {
		return
	}

	for seg := 0; seg < NumSegments; seg++ {
		var timing uint8
		var right bool

		if p.typ == InnerInside {
			timing, right = p.innerSecondPriority(seg)
		} else {
			timing, right = p.outerSecondPriority(seg)
		}

		p.out.MustSet(FieldName(FieldSecondPriority, seg), uint64(timing))
		if right {
			p.out.MustSet(FieldName(FieldSecondPrioritySide, seg), 1)
		}
	}
}

// innerSecondPriority picks the priority wire if it fired, else the earlier
// of the two wires of the next row. Equal timing goes to the right wire.
func (p *packer) innerSecondPriority(seg int) (timing uint8, right bool) {
	priority := PriorityWire(p.typ, seg)
	if p.hit(priority) {
		return p.timing(priority), false
	}

	l, r := secondPriorityCandidates(seg)
	leftHit := l >= 0 && p.hit(l)
	rightHit := p.hit(r)

	switch {
	case leftHit && rightHit:
		if p.timing(l) < p.timing(r) {
			return p.timing(l), false
		}

		return p.timing(r), true
	case rightHit:
		return p.timing(r), true
	case leftHit:
		return p.timing(l), false
	}

	return NotHit, false
}

// outerSecondPriority looks at the row inside the priority row. Equal timing
// goes to the left wire.
func (p *packer) outerSecondPriority(seg int) (timing uint8, right bool) {
	priority := PriorityWire(p.typ, seg)
	if p.hit(priority) {
		return p.timing(priority), false
	}

	l, r := secondPriorityCandidates(seg)
	if l < 0 {
		if p.hit(r) {
			return p.timing(r), true
		}

		return NotHit, false
	}

	lc, rc := p.candidate(l), p.candidate(r)
	if !lc.Hit && !rc.Hit {
		return NotHit, false
	}

	if rc.Key() < lc.Key() {
		return rc.Timing, true
	}

	return lc.Timing, false
}

func (p *packer) fastestPass() {
	for seg := 0; seg < NumSegments; seg++ {
		wires := Candidates(p.typ, seg)
		cands := make([]Candidate, len(wires))
		for i, w := range wires {
			cands[i] = p.candidate(w)
		}

		p.out.MustSet(FieldName(FieldFastest, seg),
			uint64(FastestTiming(cands)))
	}
}

func (p *packer) appendEdges() {
	for i, w := range topologies[p.typ].edges {
		p.out.MustSet(FieldName(FieldEdge, i), uint64(p.timing(w)))
	}
}

var timingFieldNames = func() []string {
	names := make([]string, MaxBoardWire)
	for i := range names {
		names[i] = FieldName(FieldTiming, i)
	}

	return names
}()
