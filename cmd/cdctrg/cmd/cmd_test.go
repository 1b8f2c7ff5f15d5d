package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cdctrg/config"
	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/trgcdc"
)

var _ = Describe("Commands", func() {
	execute := func(args ...string) string {
		buf := &bytes.Buffer{}
		rootCmd.SetOut(buf)
		rootCmd.SetArgs(args)
		DeferCleanup(func() {
			rootCmd.SetOut(nil)
			rootCmd.SetArgs(nil)
		})

		Expect(rootCmd.Execute()).To(Succeed())

		return buf.String()
	}

	It("should print the layouts of a board type", func() {
		out := execute("layout", "inneroutside")

		Expect(out).To(HavePrefix("InnerOutsideInput (192 bits)\n"))
		Expect(out).To(ContainSubstring("InnerOutsideOutput (147 bits)\n"))
		Expect(out).To(ContainSubstring("    32  timing[0]                 5\n"))
	})

	It("should pack a hand-written tick", func() {
		out := execute("pack", "InnerInside", "--hit", "16:3", "--hit", "31:0")

		in, err := frontend.Input(frontend.InnerInside, map[int]uint8{16: 3, 31: 0})
		Expect(err).NotTo(HaveOccurred())
		packed, err := frontend.Pack(frontend.InnerInside, in, frontend.Options{})
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(Equal(packed.Dump()))
	})

	It("should parse hit flags", func() {
		hits, err := parseHits([]string{"0:30", "47:1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(Equal(map[int]uint8{0: 30, 47: 1}))

		for _, bad := range []string{"3", "x:1", "1:y", "1:300"} {
			_, err = parseHits([]string{bad})
			Expect(err).To(MatchError(errBadHitFlag), bad)
		}
	})

	It("should read events", func() {
		events, err := readEvents(strings.NewReader(`[
			{"id": "a", "hits": [{"layer": 1, "wire": 0, "drift_time": 20.5}]},
			{"hits": []}
		]`))

		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(Equal([]trgcdc.Event{
			{ID: "a", Hits: []trgcdc.RawHit{{Layer: 1, Wire: 0, DriftTime: 20.5}}},
			{Hits: []trgcdc.RawHit{}},
		}))

		_, err = readEvents(strings.NewReader(`[{"event": 1}]`))
		Expect(err).To(HaveOccurred())
	})

	It("should run events and summarize them", func() {
		c := config.Default()
		c.Geometry.Preset = "small"

		log := &bytes.Buffer{}
		sim, err := newSimulation(c, log)
		Expect(err).NotTo(HaveOccurred())

		drift := sim.system.NativeClock().AbsoluteTimeOf(17) + 0.1
		Expect(sim.run([]trgcdc.Event{
			{ID: "a", Hits: []trgcdc.RawHit{{Layer: 1, Wire: 0, DriftTime: drift}}},
			{ID: "b"},
		})).To(Succeed())

		out := &bytes.Buffer{}
		sim.summary(out)

		Expect(out.String()).To(Equal(strings.Join([]string{
			"WireHit      1",
			"SegmentHit   2",
			"BoardPacked  3",
			"EventEnd     2",
			"  CDCFrontEnd_0        InnerInside  3",
			"",
		}, "\n")))
		Expect(log.String()).To(ContainSubstring("EventEnd event b: 0 wire hits"))
	})

	It("should inspect a recording", func() {
		c := config.Default()
		c.Geometry.Preset = "small"
		c.Recording.Path = filepath.Join(GinkgoT().TempDir(), "run")

		sim, err := newSimulation(c, nil)
		Expect(err).NotTo(HaveOccurred())

		drift := sim.system.NativeClock().AbsoluteTimeOf(17) + 0.1
		Expect(sim.run([]trgcdc.Event{
			{ID: "a", Hits: []trgcdc.RawHit{{Layer: 1, Wire: 0, DriftTime: drift}}},
			{ID: "b"},
		})).To(Succeed())
		Expect(sim.recorder.Close()).To(Succeed())

		out := execute("inspect", c.Recording.Path)
		for table, n := range map[string]int{
			"board_states": 3,
			"events":       2,
			"segment_hits": 2,
			"wire_hits":    1,
		} {
			Expect(out).To(ContainSubstring(fmt.Sprintf("%-14s %d\n", table, n)))
		}

		out = execute("inspect", c.Recording.Path+".sqlite3",
			"--table", "events", "--where", "Event = ?", "--arg", "a")
		DeferCleanup(func() {
			_ = inspectCmd.Flags().Set("table", "")
			_ = inspectCmd.Flags().Set("where", "")
		})

		Expect(out).To(HavePrefix(`{"Event":"a","NumHits":1,`))
		Expect(out).To(HaveSuffix("1 of 1\n"))
	})

	It("should stop at the first bad event", func() {
		c := config.Default()
		c.Geometry.Preset = "small"

		sim, err := newSimulation(c, nil)
		Expect(err).NotTo(HaveOccurred())

		err = sim.run([]trgcdc.Event{
			{Hits: []trgcdc.RawHit{{Layer: 99}}},
		})

		Expect(err).To(MatchError(trgcdc.ErrUnknownWire))
	})
})
