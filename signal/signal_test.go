package signal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cdctrg/signal"
	"github.com/sarchlab/cdctrg/timing"
)

var _ = Describe("Signal", func() {
	var (
		native *timing.ClockDomain
		board  *timing.ClockDomain
	)

	BeforeEach(func() {
		clocks := timing.Belle2Clocks()
		native = clocks.MustDomain(timing.CDCFETriggerClock)
		board = clocks.MustDomain(timing.CDCTriggerClock)
	})

	ticks := func(ts ...int) []timing.Tick {
		out := make([]timing.Tick, len(ts))
		for i, t := range ts {
			out[i] = timing.Tick(t)
		}
		return out
	}

	It("should start inactive", func() {
		s := signal.New(native)

		Expect(s.Active()).To(BeFalse())
		Expect(s.IsActiveAt(0)).To(BeFalse())
		Expect(s.TransitionTicks()).To(BeEmpty())
		_, ok := s.FirstRise()
		Expect(ok).To(BeFalse())
		Expect(s.String()).To(Equal("CDCFETriggerClock : no signal"))
	})

	It("should be active on a half-open interval", func() {
		s := signal.Pulse(native, 3, 8)

		Expect(s.TransitionTicks()).To(Equal(ticks(3, 11)))
		Expect(s.IsActiveAt(2)).To(BeFalse())
		Expect(s.IsActiveAt(3)).To(BeTrue())
		Expect(s.IsActiveAt(10)).To(BeTrue())
		Expect(s.IsActiveAt(11)).To(BeFalse())
	})

	It("should ignore empty intervals", func() {
		s := signal.New(native)
		s.SetActive(5, 5)
		s.SetActive(7, 2)

		Expect(s.Active()).To(BeFalse())
		saturated := signal.Pulse(native, timing.MaxTick, 8)
		Expect(saturated.Active()).To(BeFalse())
		zeroWidth := signal.Pulse(native, 4, 0)
		Expect(zeroWidth.Active()).To(BeFalse())
	})

	It("should merge overlapping and adjacent intervals", func() {
		s := signal.New(native)
		s.SetActive(10, 20)
		s.SetActive(30, 40)
		s.SetActive(15, 25)
		Expect(s.TransitionTicks()).To(Equal(ticks(10, 25, 30, 40)))

		s.SetActive(25, 30)
		Expect(s.TransitionTicks()).To(Equal(ticks(10, 40)))
	})

	It("should OR signals of the same domain", func() {
		a := signal.Pulse(native, 0, 4)
		b := signal.Pulse(native, 2, 4)
		c := signal.Pulse(native, 10, 2)

		Expect(a.OrWith(b)).To(Succeed())
		Expect(a.OrWith(c)).To(Succeed())

		Expect(a.TransitionTicks()).To(Equal(ticks(0, 6, 10, 12)))
		Expect(a.Rises()).To(Equal(ticks(0, 10)))
		Expect(a.String()).To(Equal("CDCFETriggerClock : 0-6 10-12"))
	})

	It("should make OR commutative, associative and idempotent", func() {
		a := signal.Pulse(native, 1, 3)
		b := signal.Pulse(native, 3, 5)
		c := signal.Pulse(native, 20, 1)

		ab, err := signal.Or(a, b)
		Expect(err).NotTo(HaveOccurred())
		ba, err := signal.Or(b, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(ab.Equal(ba)).To(BeTrue())

		abc1, _ := signal.Or(ab, c)
		bc, _ := signal.Or(b, c)
		abc2, _ := signal.Or(a, bc)
		Expect(abc1.Equal(abc2)).To(BeTrue())

		aa, _ := signal.Or(a, a)
		Expect(aa.Equal(a)).To(BeTrue())

		Expect(a.TransitionTicks()).To(Equal(ticks(1, 4)))
	})

	It("should reject OR across domains even when empty", func() {
		a := signal.New(native)
		b := signal.New(board)

		err := a.OrWith(b)

		Expect(err).To(MatchError(signal.ErrDomainMismatch))
		_, err = signal.Or(signal.Pulse(native, 1, 1), signal.Pulse(board, 1, 1))
		Expect(err).To(MatchError(signal.ErrDomainMismatch))
	})

	It("should find the first rise in a window", func() {
		s := signal.New(native)
		s.SetActive(4, 8)
		s.SetActive(12, 14)

		t, ok := s.FirstRiseIn(0, 10)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(timing.Tick(4)))

		t, ok = s.FirstRiseIn(5, 20)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(timing.Tick(12)))

		_, ok = s.FirstRiseIn(5, 12)
		Expect(ok).To(BeFalse())
	})

	It("should shift and clear", func() {
		s := signal.Pulse(native, 4, 4)
		clone := s.Clone()

		s.Shift(-6)
		Expect(s.TransitionTicks()).To(Equal(ticks(-2, 2)))
		Expect(clone.TransitionTicks()).To(Equal(ticks(4, 8)))

		s.Clear()
		Expect(s.Active()).To(BeFalse())
		Expect(s.Domain()).To(BeIdenticalTo(native))
	})

	It("should list intervals", func() {
		s := signal.New(native)
		s.SetActive(1, 2)
		s.SetActive(5, 9)

		Expect(s.Intervals()).To(Equal([]signal.Interval{
			{Rise: 1, Fall: 2},
			{Rise: 5, Fall: 9},
		}))
	})
})
