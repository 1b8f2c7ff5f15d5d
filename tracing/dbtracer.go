package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/cdctrg/datarecording"
	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/segment"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/trgcdc"
	"github.com/sarchlab/cdctrg/wire"
)

// Table names.
const (
	EventTable      = "events"
	WireHitTable    = "wire_hits"
	SegmentHitTable = "segment_hits"
	BoardStateTable = "board_states"
)

// EventEntry summarizes one event.
type EventEntry struct {
	Event          string
	NumHits        int
	NumSegmentHits int
	NumBoardStates int
}

// WireHitEntry is one classified wire hit.
type WireHitEntry struct {
	Event      string
	Wire       int
	Layer      int
	Local      int
	DriftTime  float64
	Rise       int64
	State      int64
	Pattern    int
	Isolated   bool
	Continuous bool
	LR         string
}

// SegmentHitEntry is one segment hit.
type SegmentHitEntry struct {
	Event     string
	Segment   int
	Name      string
	FirstTick int64
	FirstWire int
	NumWires  int
}

// BoardStateEntry is the packed state of one board at one tick. State holds
// the bits, most significant first.
type BoardStateEntry struct {
	Event string
	Board string
	Type  string
	Tick  int64
	Width int
	State string
}

// MapTables binds the tables written by a DBTracer, and the execution table
// of the recorder, to their entry types.
func MapTables(r datarecording.DataReader) {
	r.MapTable(EventTable, EventEntry{})
	r.MapTable(WireHitTable, WireHitEntry{})
	r.MapTable(SegmentHitTable, SegmentHitEntry{})
	r.MapTable(BoardStateTable, BoardStateEntry{})
	r.MapTable(datarecording.ExecTable, datarecording.ExecInfo{})
}

// DBTracer writes the hits and packed board states of every event into a
// data recorder.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	startTick, endTick timing.Tick
	tickRange          bool
}

// NewDBTracer creates the tables of the tracer.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	recorder.CreateTable(EventTable, EventEntry{})
	recorder.CreateTable(WireHitTable, WireHitEntry{})
	recorder.CreateTable(SegmentHitTable, SegmentHitEntry{})
	recorder.CreateTable(BoardStateTable, BoardStateEntry{})

	t := &DBTracer{backend: recorder}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTickRange limits the recorded board states to the board ticks in
// [start, end].
func (t *DBTracer) SetTickRange(start, end timing.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTick = start
	t.endTick = end
	t.tickRange = true
}

// Func records the item of the hook invocation.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ctx.Pos {
	case trgcdc.HookPosWireHit:
		t.recordWireHit(eventOf(ctx), ctx.Item.(*wire.Hit))
	case trgcdc.HookPosSegmentHit:
		t.recordSegmentHit(eventOf(ctx), ctx.Item.(*segment.Hit))
	case trgcdc.HookPosBoardPacked:
		t.recordBoardState(eventOf(ctx), ctx.Item.(trgcdc.BoardOutput))
	case trgcdc.HookPosEventEnd:
		t.recordEvent(ctx.Item.(*trgcdc.Result))
	}
}

func (t *DBTracer) recordWireHit(event string, h *wire.Hit) {
	w := h.Wire()

	t.backend.InsertData(WireHitTable, WireHitEntry{
		Event:      event,
		Wire:       w.ID(),
		Layer:      w.Layer(),
		Local:      w.Local(),
		DriftTime:  float64(h.DriftTime()),
		Rise:       int64(h.Rise()),
		State:      int64(h.State()),
		Pattern:    int(h.NeighborPattern()),
		Isolated:   h.Isolated(),
		Continuous: h.Continuous(),
		LR:         h.LR().String(),
	})
}

func (t *DBTracer) recordSegmentHit(event string, h *segment.Hit) {
	s := h.Segment()

	t.backend.InsertData(SegmentHitTable, SegmentHitEntry{
		Event:     event,
		Segment:   s.ID(),
		Name:      s.Name(),
		FirstTick: int64(h.FirstTick()),
		FirstWire: h.FirstWire().ID(),
		NumWires:  len(h.Wires()),
	})
}

func (t *DBTracer) recordBoardState(event string, out trgcdc.BoardOutput) {
	if t.tickRange && (out.Tick < t.startTick || out.Tick > t.endTick) {
		return
	}

	t.backend.InsertData(BoardStateTable, BoardStateEntry{
		Event: event,
		Board: out.Board.Name(),
		Type:  out.Board.Type().String(),
		Tick:  int64(out.Tick),
		Width: out.State.Width(),
		State: out.State.String(),
	})
}

func (t *DBTracer) recordEvent(res *trgcdc.Result) {
	t.backend.InsertData(EventTable, EventEntry{
		Event:          res.EventID,
		NumHits:        len(res.Hits),
		NumSegmentHits: len(res.SegmentHits),
		NumBoardStates: len(res.Boards),
	})
}

// Terminate flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
