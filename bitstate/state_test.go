package bitstate

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Layout", func() {
	It("should assign consecutive offsets", func() {
		fields := append([]Field{{Name: "hitPattern", Width: 8}},
			Array("timing", 3, 5)...)
		l := MustNewLayout("test", fields...)

		Expect(l.Width()).To(Equal(23))
		Expect(l.Fields()).To(HaveLen(4))

		off, w, err := l.Offset("timing[2]")
		Expect(err).NotTo(HaveOccurred())
		Expect(off).To(Equal(18))
		Expect(w).To(Equal(5))
		Expect(l.Has("timing[3]")).To(BeFalse())
	})

	It("should reject duplicate fields", func() {
		_, err := NewLayout("dup", Field{"a", 1}, Field{"a", 2})
		Expect(err).To(MatchError(ErrDuplicateField))
	})

	It("should reject bad widths", func() {
		_, err := NewLayout("bad", Field{"a", 0})
		Expect(err).To(MatchError(ErrBadField))

		_, err = NewLayout("bad", Field{"a", 65})
		Expect(err).To(MatchError(ErrBadField))

		Expect(func() { MustNewLayout("bad", Field{"", 1}) }).To(Panic())
	})
})

var _ = Describe("State", func() {
	var (
		layout *Layout
		state  *State
	)

	BeforeEach(func() {
		layout = MustNewLayout("test",
			Field{Name: "flag", Width: 1},
			Field{Name: "value", Width: 5},
			Field{Name: "wide", Width: 64},
		)
		state = NewState(layout)
	})

	It("should start at zero", func() {
		Expect(state.Width()).To(Equal(70))
		Expect(state.MustGet("value")).To(BeZero())
		Expect(state.String()).To(Equal(
			"0000000000000000000000000000000000000000000000000000000000000000000000"))
	})

	It("should set and get fields", func() {
		Expect(state.Set("flag", 1)).To(Succeed())
		Expect(state.Set("value", 31)).To(Succeed())
		Expect(state.Set("wide", 1<<63|1)).To(Succeed())

		Expect(state.MustGet("flag")).To(Equal(uint64(1)))
		Expect(state.MustGet("value")).To(Equal(uint64(31)))
		Expect(state.MustGet("wide")).To(Equal(uint64(1<<63 | 1)))

		Expect(state.Vector().Bit(0)).To(BeTrue())
		Expect(state.Vector().Bit(6)).To(BeTrue())
		Expect(state.Vector().Bit(69)).To(BeTrue())
		Expect(state.Vector().Bit(68)).To(BeFalse())
	})

	It("should reject values that do not fit", func() {
		err := state.Set("value", 32)
		Expect(err).To(MatchError(ErrValueOverflow))
	})

	It("should reject unknown fields", func() {
		_, err := state.Get("nope")
		Expect(err).To(MatchError(ErrUnknownField))
		Expect(state.Set("nope", 1)).To(MatchError(ErrUnknownField))
	})

	It("should compare and clone", func() {
		state.MustSet("value", 7)
		clone := state.Clone()
		Expect(clone.Equal(state)).To(BeTrue())

		clone.MustSet("value", 6)
		Expect(clone.Equal(state)).To(BeFalse())
		Expect(state.MustGet("value")).To(Equal(uint64(7)))

		other := NewState(MustNewLayout("test",
			Field{Name: "flag", Width: 1},
			Field{Name: "value", Width: 5},
			Field{Name: "wide", Width: 64},
		))
		Expect(other.Equal(NewState(layout))).To(BeFalse())
	})

	It("should access array elements", func() {
		l := MustNewLayout("arr", Array("t", 4, 5)...)
		s := NewState(l)

		Expect(s.SetAt("t", 2, 17)).To(Succeed())
		v, err := s.GetAt("t", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(17)))
		Expect(s.Dump()).To(ContainSubstring("t[2]"))
		Expect(s.Dump()).To(ContainSubstring("10001"))
	})
})
