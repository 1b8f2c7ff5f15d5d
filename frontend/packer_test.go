package frontend

import (
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cdctrg/bitstate"
)

func mustInput(t BoardType, hits map[int]uint8) *bitstate.State {
	in, err := Input(t, hits)
	Expect(err).NotTo(HaveOccurred())
	return in
}

func mustPack(t BoardType, in *bitstate.State, opts Options) *bitstate.State {
	out, err := Pack(t, in, opts)
	Expect(err).NotTo(HaveOccurred())
	return out
}

// expectFields checks every field of out against want. Fields missing from
// want must be NotHit for timing fields and 0 for the hit pattern and the
// side flags.
func expectFields(out *bitstate.State, want map[string]uint64) {
	for _, f := range out.Layout().Fields() {
		expected, ok := want[f.Name]
		if !ok {
			switch {
			case f.Name == FieldHitPattern,
				strings.HasPrefix(f.Name, FieldSecondPrioritySide):
				expected = 0
			default:
				expected = NotHit
			}
		}

		Expect(out.MustGet(f.Name)).To(Equal(expected), f.Name)
	}
}

var _ = Describe("Pack", func() {
	It("should produce the documented output widths", func() {
		Expect(OutputLayout(InnerInside, Options{}).Width()).To(Equal(319))
		Expect(OutputLayout(InnerOutside, Options{}).Width()).To(Equal(147))
		Expect(OutputLayout(OuterInside, Options{}).Width()).To(Equal(223))
		Expect(OutputLayout(OuterOutside, Options{}).Width()).To(Equal(143))
		Expect(OutputLayout(OuterInside,
			Options{OuterSecondPriority: true}).Width()).To(Equal(319))

		Expect(InputLayout(InnerInside).Width()).To(Equal(48 + 48*5))
		Expect(InputLayout(InnerOutside).Width()).To(Equal(32 + 32*5))
	})

	It("should pack a single hit on the first wire of the second row", func() {
		in := mustInput(InnerInside, map[int]uint8{16: 1})

		out := mustPack(InnerInside, in, Options{})

		for i := 0; i < 48; i++ {
			Expect(out.Vector().Bit(i)).To(Equal(i == 16), "bit %d", i)
		}

		expectFields(out, map[string]uint64{
			FieldHitPattern:                       1 << 16,
			FieldName(FieldSecondPriority, 0):     1,
			FieldName(FieldSecondPrioritySide, 0): 1,
			FieldName(FieldFastest, 0):            1,

			// Wire 16 is also the left candidate of segment 1.
			FieldName(FieldSecondPriority, 1): 1,
			FieldName(FieldFastest, 1):        1,
		})
	})

	It("should pass the hit pattern through", func() {
		r := rand.New(rand.NewSource(1))

		for t := BoardType(0); t < NumBoardTypes; t++ {
			n := t.NumWires()
			patterns := []map[int]uint8{{}, {}}
			for i := 0; i < n; i++ {
				patterns[1][i] = uint8(r.Intn(MaxTiming + 1))
			}
			for k := 0; k < 20; k++ {
				p := map[int]uint8{}
				for i := 0; i < n; i++ {
					if r.Intn(2) == 1 {
						p[i] = uint8(r.Intn(MaxTiming + 1))
					}
				}
				patterns = append(patterns, p)
			}

			for _, p := range patterns {
				in := mustInput(t, p)
				out := mustPack(t, in, Options{OuterSecondPriority: true})

				Expect(out.MustGet(FieldHitPattern)).
					To(Equal(in.MustGet(FieldHitPattern)), t.String())
			}
		}
	})

	It("should copy the priority row", func() {
		in := mustInput(OuterInside, map[int]uint8{32: 4, 47: 9, 0: 2})

		out := mustPack(OuterInside, in, Options{})

		Expect(out.MustGet(FieldName(FieldPriority, 0))).To(Equal(uint64(4)))
		Expect(out.MustGet(FieldName(FieldPriority, 15))).To(Equal(uint64(9)))
		Expect(out.MustGet(FieldName(FieldPriority, 1))).To(Equal(uint64(NotHit)))
		Expect(out.Layout().Has(FieldName(FieldSecondPriority, 0))).To(BeFalse())
	})

	It("should pick the priority wire for the second priority when it fired", func() {
		in := mustInput(InnerInside, map[int]uint8{5: 12, 20: 3, 21: 2})

		out := mustPack(InnerInside, in, Options{})

		Expect(out.MustGet(FieldName(FieldSecondPriority, 5))).To(Equal(uint64(12)))
		Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 5))).To(BeZero())
		Expect(out.MustGet(FieldName(FieldFastest, 5))).To(Equal(uint64(2)))
	})

	DescribeTable("inner second priority",
		func(hits map[int]uint8, timing uint64, side uint64) {
			out := mustPack(InnerInside, mustInput(InnerInside, hits), Options{})

			Expect(out.MustGet(FieldName(FieldSecondPriority, 5))).To(Equal(timing))
			Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 5))).To(Equal(side))
		},
		Entry("none", map[int]uint8{}, uint64(NotHit), uint64(0)),
		Entry("left only", map[int]uint8{20: 7}, uint64(7), uint64(0)),
		Entry("right only", map[int]uint8{21: 7}, uint64(7), uint64(1)),
		Entry("left earlier", map[int]uint8{20: 3, 21: 7}, uint64(3), uint64(0)),
		Entry("right earlier", map[int]uint8{20: 7, 21: 3}, uint64(3), uint64(1)),
		Entry("tie goes right", map[int]uint8{20: 9, 21: 9}, uint64(9), uint64(1)),
	)

	DescribeTable("outer second priority",
		func(hits map[int]uint8, timing uint64, side uint64) {
			opts := Options{OuterSecondPriority: true}
			out := mustPack(OuterInside, mustInput(OuterInside, hits), opts)

			Expect(out.MustGet(FieldName(FieldSecondPriority, 5))).To(Equal(timing))
			Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 5))).To(Equal(side))
		},
		Entry("none", map[int]uint8{}, uint64(NotHit), uint64(0)),
		Entry("priority", map[int]uint8{37: 1, 20: 0}, uint64(1), uint64(0)),
		Entry("left only", map[int]uint8{20: 7}, uint64(7), uint64(0)),
		Entry("right only", map[int]uint8{21: 7}, uint64(7), uint64(1)),
		Entry("right earlier", map[int]uint8{20: 7, 21: 3}, uint64(3), uint64(1)),
		Entry("tie goes left", map[int]uint8{20: 9, 21: 9}, uint64(9), uint64(0)),
	)

	It("should give segment 0 only the right second priority candidate", func() {
		for _, t := range []BoardType{InnerInside, OuterInside} {
			opts := Options{OuterSecondPriority: true}

			out := mustPack(t, mustInput(t, map[int]uint8{31: 4}), opts)
			Expect(out.MustGet(FieldName(FieldSecondPriority, 0))).
				To(Equal(uint64(NotHit)), t.String())
			Expect(out.MustGet(FieldName(FieldSecondPriority, 15))).
				To(Equal(uint64(4)), t.String())
			Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 15))).
				To(Equal(uint64(1)), t.String())

			out = mustPack(t, mustInput(t, map[int]uint8{16: 6}), opts)
			Expect(out.MustGet(FieldName(FieldSecondPriority, 0))).
				To(Equal(uint64(6)), t.String())
			Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 0))).
				To(Equal(uint64(1)), t.String())
		}

		l, r := secondPriorityCandidates(0)
		Expect(l).To(Equal(-1))
		Expect(r).To(Equal(16))
	})

	It("should let a hit beat a missing wire with a smaller raw timing", func() {
		in := mustInput(OuterOutside, map[int]uint8{21: MaxTiming})
		in.MustSet(FieldName(FieldTiming, 4), 0)

		out := mustPack(OuterOutside, in, Options{})

		Expect(out.MustGet(FieldName(FieldFastest, 5))).To(Equal(uint64(MaxTiming)))
	})

	It("should append the edge wires", func() {
		for t := BoardType(0); t < NumBoardTypes; t++ {
			hits := map[int]uint8{}
			for k, w := range EdgeWires(t) {
				hits[w] = uint8(k + 1)
			}

			out := mustPack(t, mustInput(t, hits), Options{})

			for k := range EdgeWires(t) {
				Expect(out.MustGet(FieldName(FieldEdge, k))).
					To(Equal(uint64(k+1)), t.String())
			}
		}
	})

	It("should reject a foreign input layout", func() {
		in := mustInput(OuterInside, nil)

		_, err := Pack(InnerInside, in, Options{})
		Expect(err).To(MatchError(ErrLayoutMismatch))

		_, err = Pack(InnerInside, nil, Options{})
		Expect(err).To(MatchError(ErrLayoutMismatch))

		short := bitstate.NewState(bitstate.MustNewLayout("short",
			bitstate.Field{Name: FieldHitPattern, Width: 47}))
		_, err = Pack(InnerInside, short, Options{})
		Expect(err).To(MatchError(ErrLayoutMismatch))

		_, err = Pack(BoardType(9), in, Options{})
		Expect(err).To(MatchError(ErrUnknownBoardType))
	})

	It("should reject inputs that reach the sentinel", func() {
		_, err := Input(InnerInside, map[int]uint8{3: NotHit})
		Expect(err).To(MatchError(bitstate.ErrValueOverflow))

		_, err = Input(InnerOutside, map[int]uint8{32: 1})
		Expect(err).To(MatchError(ErrWireCountMismatch))
	})
})

var _ = Describe("Topology", func() {
	It("should list reduced candidate sets on the boundary segments", func() {
		Expect(Candidates(InnerInside, 0)).To(Equal([]int{0, 16, 32, 33}))
		Expect(Candidates(InnerInside, 15)).To(Equal([]int{15, 30, 31, 46, 47}))
		Expect(Candidates(InnerOutside, 0)).To(Equal([]int{0, 1, 16, 17, 18}))
		Expect(Candidates(InnerOutside, 15)).To(Equal([]int{13, 14, 15, 29, 30, 31}))
		Expect(Candidates(OuterInside, 0)).To(Equal([]int{32, 16, 0, 1}))
		Expect(Candidates(OuterInside, 15)).To(Equal([]int{47, 30, 31, 14, 15}))
		Expect(Candidates(OuterOutside, 0)).To(Equal([]int{0, 16, 17}))
		Expect(Candidates(OuterOutside, 15)).To(Equal([]int{14, 15, 30, 31}))
	})

	DescribeTable("candidate set sizes",
		func(t BoardType, first, second, middle, secondLast, last int) {
			sizes := make([]int, NumSegments)
			for seg := range sizes {
				sizes[seg] = len(Candidates(t, seg))
			}

			want := make([]int, NumSegments)
			for seg := range want {
				want[seg] = middle
			}
			want[0], want[1] = first, second
			want[NumSegments-2], want[NumSegments-1] = secondLast, last

			Expect(sizes).To(Equal(want))
		},
		Entry("InnerInside", InnerInside, 4, 6, 6, 6, 5),
		Entry("InnerOutside", InnerOutside, 5, 7, 9, 8, 6),
		Entry("OuterInside", OuterInside, 4, 6, 6, 6, 5),
		Entry("OuterOutside", OuterOutside, 3, 5, 5, 5, 4),
	)

	It("should keep every candidate on the board", func() {
		for t := BoardType(0); t < NumBoardTypes; t++ {
			for seg := 0; seg < NumSegments; seg++ {
				for _, w := range Candidates(t, seg) {
					Expect(w).To(BeNumerically(">=", 0))
					Expect(w).To(BeNumerically("<", t.NumWires()))
				}
			}
		}
	})

	It("should put the priority wire first on inside boards", func() {
		for seg := 0; seg < NumSegments; seg++ {
			Expect(Candidates(InnerInside, seg)[0]).
				To(Equal(PriorityWire(InnerInside, seg)))
			Expect(Candidates(OuterInside, seg)[0]).
				To(Equal(PriorityWire(OuterInside, seg)))
		}

		Expect(PriorityWire(OuterOutside, 3)).To(Equal(-1))
	})

	It("should parse board type names", func() {
		t, err := ParseBoardType("outeroutside")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(OuterOutside))

		_, err = ParseBoardType("middle")
		Expect(err).To(MatchError(ErrUnknownBoardType))
	})
})
