package tracing

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cdctrg/datarecording"
	"github.com/sarchlab/cdctrg/geometry"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/trgcdc"
)

func newSmallSystem() *trgcdc.System {
	s, err := trgcdc.MakeBuilder().
		WithGeometry(geometry.Small()).
		Build("TRGCDC")
	Expect(err).NotTo(HaveOccurred())

	return s
}

func hitAt(s *trgcdc.System, layer, local int, tick timing.Tick) trgcdc.RawHit {
	return trgcdc.RawHit{
		Layer:     layer,
		Wire:      local,
		DriftTime: s.NativeClock().AbsoluteTimeOf(tick) + 0.1,
	}
}

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		system   *trgcdc.System
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)
		system = newSmallSystem()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should create its tables", func() {
		backend.EXPECT().CreateTable(EventTable, EventEntry{})
		backend.EXPECT().CreateTable(WireHitTable, WireHitEntry{})
		backend.EXPECT().CreateTable(SegmentHitTable, SegmentHitEntry{})
		backend.EXPECT().CreateTable(BoardStateTable, BoardStateEntry{})

		NewDBTracer(backend)
	})

	It("should only record board states inside the tick range", func() {
		backend.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Times(4)
		backend.EXPECT().InsertData(WireHitTable, gomock.Any())
		backend.EXPECT().InsertData(SegmentHitTable, gomock.Any()).Times(2)
		backend.EXPECT().InsertData(EventTable, EventEntry{
			Event: "e", NumHits: 1, NumSegmentHits: 2, NumBoardStates: 3,
		})
		backend.EXPECT().
			InsertData(BoardStateTable, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(BoardStateEntry)
				Expect(e.Event).To(Equal("e"))
				Expect(e.Board).To(Equal("CDCFrontEnd_0"))
				Expect(e.Type).To(Equal("InnerInside"))
				Expect(e.Tick).To(Equal(int64(3)))
				Expect(e.Width).To(Equal(319))
				Expect(e.State).To(HaveLen(319))
			})

		tracer := NewDBTracer(backend)
		tracer.SetTickRange(3, 3)
		CollectTrace(system, tracer)

		_, err := system.Process(trgcdc.Event{ID: "e", Hits: []trgcdc.RawHit{
			hitAt(system, 1, 0, 17),
		}})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not attach twice", func() {
		backend.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Times(4)
		tracer := NewDBTracer(backend)

		CollectTrace(system, tracer)

		Expect(func() { CollectTrace(system, tracer) }).To(Panic())
	})

	It("should write the tables into SQLite", func() {
		db, err := sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		recorder := datarecording.NewWithDB(db)
		defer recorder.Close()

		tracer := NewDBTracer(recorder)
		CollectTrace(system, tracer)

		_, err = system.Process(trgcdc.Event{ID: "e", Hits: []trgcdc.RawHit{
			hitAt(system, 0, 3, 5),
			hitAt(system, 0, 4, 6),
		}})
		Expect(err).NotTo(HaveOccurred())
		tracer.Terminate()

		reader := datarecording.NewReaderWithDB(db)
		MapTables(reader)
		Expect(reader.ListTables()).To(Equal([]string{
			BoardStateTable, EventTable, datarecording.ExecTable,
			SegmentHitTable, WireHitTable,
		}))

		hits, total, err := reader.Query(context.Background(), WireHitTable,
			datarecording.QueryParams{OrderBy: "Wire"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2))
		Expect(hits[0].(*WireHitEntry).Local).To(Equal(3))
		Expect(hits[0].(*WireHitEntry).Rise).To(Equal(int64(5)))
		Expect(hits[1].(*WireHitEntry).Local).To(Equal(4))

		events, _, err := reader.Query(context.Background(), EventTable,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].(*EventEntry).NumHits).To(Equal(2))
	})
})

var _ = Describe("CountTracer", func() {
	It("should count positions and boards", func() {
		system := newSmallSystem()
		tracer := NewCountTracer()
		CollectTrace(system, tracer)

		_, err := system.Process(trgcdc.Event{Hits: []trgcdc.RawHit{
			hitAt(system, 1, 0, 17),
		}})
		Expect(err).NotTo(HaveOccurred())

		Expect(tracer.PosNames()).To(Equal([]string{
			"WireHit", "SegmentHit", "BoardPacked", "EventEnd",
		}))
		Expect(tracer.Count("SegmentHit")).To(Equal(uint64(2)))
		Expect(tracer.Count("BoardPacked")).To(Equal(uint64(3)))
		Expect(tracer.BoardCount("CDCFrontEnd_0")).To(Equal(uint64(3)))
		Expect(tracer.BoardCount("CDCFrontEnd_1")).To(BeZero())
	})
})
