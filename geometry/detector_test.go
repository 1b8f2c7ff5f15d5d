package geometry

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/segment"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

var _ = Describe("Detector", func() {
	var (
		native *timing.ClockDomain
		d      *Detector
	)

	BeforeEach(func() {
		native = timing.Belle2Clocks().MustDomain(timing.CDCFETriggerClock)

		var err error
		d, err = Build(Small(), native)
		Expect(err).NotTo(HaveOccurred())
	})

	segmentAt := func(sl, local int) *segment.Segment {
		for _, s := range d.Segments() {
			c := s.Center()
			if c.SuperLayer() == sl && c.Local() == local {
				return s
			}
		}
		return nil
	}

	It("should build every wire, segment and board", func() {
		Expect(d.Wires()).To(HaveLen(5*32 + 6*32))
		Expect(d.NumLayers()).To(Equal(11))
		Expect(d.Segments()).To(HaveLen(64))
		Expect(d.Boards()).To(HaveLen(8))

		types := []frontend.BoardType{}
		mergers := []int{}
		for _, b := range d.Boards() {
			types = append(types, b.Type)
			mergers = append(mergers, b.MergerID)
		}
		Expect(types).To(Equal([]frontend.BoardType{
			frontend.InnerInside, frontend.InnerOutside,
			frontend.InnerInside, frontend.InnerOutside,
			frontend.OuterInside, frontend.OuterOutside,
			frontend.OuterInside, frontend.OuterOutside,
		}))
		Expect(mergers).To(Equal([]int{0, 0, 1, 1, 2, 2, 3, 3}))
		Expect(d.Boards()[3].Name()).To(Equal("CDCFrontEnd_3"))
		Expect(d.Boards()[3].MergerName()).To(Equal("CDCMerger_1"))
	})

	It("should number wires layer by layer", func() {
		for i, w := range d.Wires() {
			Expect(w.ID()).To(Equal(i))
			Expect(w.Domain()).To(BeIdenticalTo(native))
		}

		w := d.Wire(7, 3)
		Expect(w.SuperLayer()).To(Equal(1))
		Expect(w.LocalLayer()).To(Equal(2))
		Expect(w.Axial()).To(BeFalse())
		Expect(d.Wire(11, 0)).To(BeNil())
		Expect(d.Wire(0, 32)).To(BeNil())
	})

	It("should link in-layer neighbors around the layer", func() {
		w := d.Wire(0, 0)

		Expect(w.Neighbor(wire.Right)).To(BeIdenticalTo(d.Wire(0, 1)))
		Expect(w.Neighbor(wire.Left)).To(BeIdenticalTo(d.Wire(0, 31)))
		Expect(w.Neighbor(wire.InnerLeft)).To(BeNil())
		Expect(w.Neighbor(wire.InnerRight)).To(BeNil())
		Expect(w.Neighbor(wire.OuterLeft)).To(BeIdenticalTo(d.Wire(1, 31)))
		Expect(w.Neighbor(wire.OuterRight)).To(BeIdenticalTo(d.Wire(1, 0)))
	})

	It("should link staggered layer neighbors", func() {
		w := d.Wire(1, 0)
		Expect(w.Neighbor(wire.InnerLeft)).To(BeIdenticalTo(d.Wire(0, 0)))
		Expect(w.Neighbor(wire.InnerRight)).To(BeIdenticalTo(d.Wire(0, 1)))
		Expect(w.Neighbor(wire.InnerInner)).To(BeNil())

		w = d.Wire(2, 5)
		Expect(w.Neighbor(wire.InnerInner)).To(BeIdenticalTo(d.Wire(0, 5)))

		last := d.Wire(4, 7)
		Expect(last.Neighbor(wire.OuterLeft)).To(BeNil())
		Expect(last.Neighbor(wire.OuterRight)).To(BeNil())

		first := d.Wire(5, 7)
		Expect(first.Neighbor(wire.InnerLeft)).To(BeNil())
	})

	It("should link neighbors symmetrically", func() {
		for _, w := range d.Wires() {
			if o := w.Neighbor(wire.OuterLeft); o != nil {
				Expect(o.Neighbor(wire.InnerRight)).To(BeIdenticalTo(w))
			}
			if o := w.Neighbor(wire.OuterRight); o != nil {
				Expect(o.Neighbor(wire.InnerLeft)).To(BeIdenticalTo(w))
			}
			Expect(w.Neighbor(wire.Right).Neighbor(wire.Left)).To(BeIdenticalTo(w))
		}
	})

	It("should shape the segments", func() {
		inner := d.Segments()[0]
		Expect(inner.Shape().Name).To(Equal("inner"))
		ws := inner.Wires()
		Expect(ws[0]).To(BeIdenticalTo(d.Wire(0, 0)))
		Expect(ws[1]).To(BeIdenticalTo(d.Wire(1, 31)))
		Expect(ws[2]).To(BeIdenticalTo(d.Wire(1, 0)))
		Expect(ws[14]).To(BeIdenticalTo(d.Wire(4, 2)))

		outer := segmentAt(1, 4)
		Expect(outer.Shape().Name).To(Equal("outer"))
		Expect(outer.Center()).To(BeIdenticalTo(d.Wire(7, 4)))
		ws = outer.Wires()
		Expect(ws[0]).To(BeIdenticalTo(d.Wire(5, 3)))
		Expect(ws[3]).To(BeIdenticalTo(d.Wire(6, 3)))
		Expect(ws[10]).To(BeIdenticalTo(d.Wire(9, 5)))
	})

	It("should lay board rows out layer by layer", func() {
		b := d.Boards()[2]
		Expect(b.Type).To(Equal(frontend.InnerInside))
		Expect(b.Wires[0]).To(BeIdenticalTo(d.Wire(0, 16)))
		Expect(b.Wires[16]).To(BeIdenticalTo(d.Wire(1, 16)))
		Expect(b.Wires[47]).To(BeIdenticalTo(d.Wire(2, 31)))

		b = d.Boards()[1]
		Expect(b.Wires).To(HaveLen(32))
		Expect(b.Wires[0]).To(BeIdenticalTo(d.Wire(3, 0)))

		owner, err := d.BoardOf(d.Wire(9, 20))
		Expect(err).NotTo(HaveOccurred())
		Expect(owner.ID).To(Equal(7))
	})

	It("should put every fastest candidate inside its segment", func() {
		for _, b := range d.Boards() {
			k := b.Wires[0].Local() / frontend.WiresPerRow
			for seg := 0; seg < frontend.NumSegments; seg++ {
				s := segmentAt(b.SuperLayer, k*frontend.WiresPerRow+seg)
				Expect(s).NotTo(BeNil())

				for _, c := range frontend.Candidates(b.Type, seg) {
					Expect(s.Wires()).To(ContainElement(BeIdenticalTo(b.Wires[c])),
						"%s segment %d wire %d", b.Type, seg, c)
				}
			}
		}
	})

	It("should reject unsupported super layers", func() {
		_, err := Build(Preset{{Inner: true, NumLayers: 4, NumWires: 32}}, native)
		Expect(err).To(MatchError(ErrBadGeometry))

		_, err = Build(Preset{{NumLayers: 6, NumWires: 40}}, native)
		Expect(err).To(MatchError(ErrBadGeometry))
	})

	It("should build the full chamber", func() {
		full, err := Build(Belle2Like(), native)

		Expect(err).NotTo(HaveOccurred())
		Expect(full.SuperLayers()).To(HaveLen(9))
		Expect(full.NumLayers()).To(Equal(5 + 8*6))
		Expect(full.Boards()).To(HaveLen(2 * (160 + 2176) / 16))

		_, err = PresetByName("nope")
		Expect(err).To(MatchError(ErrBadGeometry))
	})
})
