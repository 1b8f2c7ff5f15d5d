package frontend

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cdctrg/signal"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

var _ = Describe("Sampler", func() {
	var (
		native  *timing.ClockDomain
		board   *timing.ClockDomain
		sampler *Sampler
		wires   []*wire.Wire
	)

	fireAt := func(w *wire.Wire, tick timing.Tick) {
		t := native.AbsoluteTimeOf(tick) + native.Period()/2
		_, err := w.Fire(t, wire.DefaultDrift(), 8)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		clocks := timing.Belle2Clocks()
		native = clocks.MustDomain(timing.CDCFETriggerClock)
		board = clocks.MustDomain(timing.CDCTriggerClock)

		var err error
		sampler, err = NewSampler(native, board, DefaultWindow)
		Expect(err).NotTo(HaveOccurred())

		wires = make([]*wire.Wire, 48)
		for i := range wires {
			wires[i] = wire.New(wire.Spec{ID: i, Local: i % 16, Layer: i / 16, Domain: native})
		}
	})

	It("should validate the window against the sentinel", func() {
		Expect(sampler.Ratio()).To(Equal(uint64(8)))
		Expect(sampler.Window()).To(Equal(3))

		_, err := NewSampler(native, board, 4)
		Expect(err).To(MatchError(ErrBadWindow))

		_, err = NewSampler(native, board, 0)
		Expect(err).To(MatchError(ErrBadWindow))

		_, err = NewSampler(board, native, 1)
		Expect(err).To(MatchError(timing.ErrInexactDerivation))
	})

	It("should time a hit from the start of the window", func() {
		fireAt(wires[3], 17)

		in, err := sampler.Collect(InnerInside, wires, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Vector().Bit(3)).To(BeTrue())
		Expect(in.MustGet(FieldName(FieldTiming, 3))).To(Equal(uint64(17)))
		Expect(in.MustGet(FieldName(FieldTiming, 4))).To(Equal(uint64(NotHit)))

		in, err = sampler.Collect(InnerInside, wires, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Vector().Bit(3)).To(BeTrue())
		Expect(in.MustGet(FieldName(FieldTiming, 3))).To(Equal(uint64(1)))

		in, err = sampler.Collect(InnerInside, wires, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Vector().Bit(3)).To(BeFalse())
		Expect(in.MustGet(FieldName(FieldTiming, 3))).To(Equal(uint64(NotHit)))

		in, err = sampler.Collect(InnerInside, wires, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(in.Vector().Bit(3)).To(BeFalse())
	})

	It("should reject the wrong wire count", func() {
		_, err := sampler.Collect(InnerOutside, wires, 0)
		Expect(err).To(MatchError(ErrWireCountMismatch))
	})

	It("should reject wires on another clock", func() {
		wires[7] = wire.New(wire.Spec{Domain: board})

		_, err := sampler.Collect(InnerInside, wires, 0)

		Expect(err).To(MatchError(signal.ErrDomainMismatch))
	})
})

var _ = Describe("Board", func() {
	var (
		native  *timing.ClockDomain
		sampler *Sampler
		wires   []*wire.Wire
		b       *Board
	)

	BeforeEach(func() {
		clocks := timing.Belle2Clocks()
		native = clocks.MustDomain(timing.CDCFETriggerClock)
		board := clocks.MustDomain(timing.CDCTriggerClock)

		var err error
		sampler, err = NewSampler(native, board, DefaultWindow)
		Expect(err).NotTo(HaveOccurred())

		wires = make([]*wire.Wire, 48)
		for i := range wires {
			wires[i] = wire.New(wire.Spec{ID: i, Domain: native})
		}

		b, err = MakeBuilder().
			WithID(4).
			WithType(InnerInside).
			WithMergerID(1).
			WithWires(wires).
			WithSampler(sampler).
			Build("CDCFrontEnd_4")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should keep its configuration", func() {
		Expect(b.Name()).To(Equal("CDCFrontEnd_4"))
		Expect(b.ID()).To(Equal(4))
		Expect(b.Type()).To(Equal(InnerInside))
		Expect(b.MergerID()).To(Equal(1))
		Expect(b.Wires()).To(HaveLen(48))
		Expect(b.Active()).To(BeFalse())
	})

	It("should refuse to pack before collecting", func() {
		_, err := b.Pack()
		Expect(err).To(MatchError(ErrNotCollected))
	})

	It("should collect and pack", func() {
		_, err := wires[16].Fire(native.AbsoluteTimeOf(1)+0.1, wire.DefaultDrift(), 8)
		Expect(err).NotTo(HaveOccurred())

		out, err := b.Step(0)

		Expect(err).NotTo(HaveOccurred())
		Expect(b.Active()).To(BeTrue())
		Expect(b.Tick()).To(Equal(timing.Tick(0)))
		Expect(b.Output()).To(BeIdenticalTo(out))
		Expect(out.MustGet(FieldName(FieldSecondPriority, 0))).To(Equal(uint64(17)))
		Expect(out.MustGet(FieldName(FieldSecondPrioritySide, 0))).To(Equal(uint64(1)))

		b.Clear()
		Expect(b.Input()).To(BeNil())
		Expect(b.Output()).To(BeNil())
		_, err = b.Pack()
		Expect(err).To(MatchError(ErrNotCollected))
	})

	It("should reject a population of the wrong size", func() {
		_, err := MakeBuilder().
			WithType(InnerOutside).
			WithWires(wires).
			WithSampler(sampler).
			Build("bad")
		Expect(err).To(MatchError(ErrWireCountMismatch))

		_, err = MakeBuilder().
			WithType(BoardType(7)).
			WithWires(wires).
			WithSampler(sampler).
			Build("bad")
		Expect(err).To(MatchError(ErrUnknownBoardType))

		_, err = MakeBuilder().
			WithType(InnerInside).
			WithWires(wires).
			Build("bad")
		Expect(err).To(HaveOccurred())
	})
})
