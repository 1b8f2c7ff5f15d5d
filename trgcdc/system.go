// Package trgcdc runs events through the drift chamber trigger front end. A
// System owns the clocks, the detector topology and the boards, and is
// processed one event at a time.
package trgcdc

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/bitstate"
	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/geometry"
	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/idgen"
	"github.com/sarchlab/cdctrg/segment"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

var (
	// ErrUnknownWire is returned for hits on wires that do not exist.
	ErrUnknownWire = errors.New("trgcdc: unknown wire")

	// ErrEventSealed is returned for hits delivered after the event was
	// classified.
	ErrEventSealed = errors.New("trgcdc: event already classified")
)

// Hook positions.
var (
	// HookPosWireHit is invoked once per classified wire hit. Item is the
	// *wire.Hit.
	HookPosWireHit = &hooking.HookPos{Name: "WireHit"}

	// HookPosSegmentHit is invoked once per segment hit. Item is the
	// *segment.Hit.
	HookPosSegmentHit = &hooking.HookPos{Name: "SegmentHit"}

	// HookPosBoardPacked is invoked for every packed board state. Item is the
	// BoardOutput.
	HookPosBoardPacked = &hooking.HookPos{Name: "BoardPacked"}

	// HookPosEventEnd is invoked after an event is processed. Item is the
	// *Result.
	HookPosEventEnd = &hooking.HookPos{Name: "EventEnd"}
)

// RawHit is a drift time delivered for one wire.
type RawHit struct {
	Layer     int              `json:"layer" yaml:"layer"`
	Wire      int              `json:"wire" yaml:"wire"`
	DriftTime timing.VTimeInNs `json:"drift_time" yaml:"drift_time"`
}

// Event is the input of one event. An empty ID is filled by the system's id
// generator.
type Event struct {
	ID   string   `json:"id" yaml:"id"`
	Hits []RawHit `json:"hits" yaml:"hits"`
}

// BoardOutput is the packed state of one board at one board tick.
type BoardOutput struct {
	Board *frontend.Board
	Tick  timing.Tick
	State *bitstate.State
}

func (o BoardOutput) String() string {
	return fmt.Sprintf("%s %s", o.Board.Name(), o.State)
}

// Result collects what an event produced. Dropped lists the raw hits lost to
// the inefficiency.
type Result struct {
	EventID     string
	Hits        []*wire.Hit
	SegmentHits []*segment.Hit
	Boards      []BoardOutput
	Dropped     []RawHit
}

// AxialHits returns the hits on axial wires.
func (r *Result) AxialHits() []*wire.Hit {
	return filterHits(r.Hits, true)
}

// StereoHits returns the hits on stereo wires.
func (r *Result) StereoHits() []*wire.Hit {
	return filterHits(r.Hits, false)
}

// SegmentHitsIn returns the segment hits of one super layer.
func (r *Result) SegmentHitsIn(superLayer int) []*segment.Hit {
	return filterSegmentHits(r.SegmentHits, superLayer)
}

func filterHits(hits []*wire.Hit, axial bool) []*wire.Hit {
	var out []*wire.Hit
	for _, h := range hits {
		if h.Wire().Axial() == axial {
			out = append(out, h)
		}
	}

	return out
}

func filterSegmentHits(hits []*segment.Hit, superLayer int) []*segment.Hit {
	var out []*segment.Hit
	for _, h := range hits {
		if h.Segment().Center().SuperLayer() == superLayer {
			out = append(out, h)
		}
	}

	return out
}

func (r *Result) String() string {
	return fmt.Sprintf("event %s: %d wire hits, %d segment hits, %d board states",
		r.EventID, len(r.Hits), len(r.SegmentHits), len(r.Boards))
}

// System is the trigger front end of one detector.
type System struct {
	hooking.HookableBase

	name       string
	clocks     *timing.ClockRegistry
	native     *timing.ClockDomain
	board      *timing.ClockDomain
	detector   *geometry.Detector
	boards     []*frontend.Board
	drift      wire.DriftRelation
	window     int
	pulseWidth int64
	ids        idgen.Generator

	inefficiency float64
	rng          *rand.Rand

	eventID     string
	sealed      bool
	hits        []*wire.Hit
	segmentHits []*segment.Hit
	dropped     []RawHit
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.name
}

// Clocks returns the clock registry.
func (s *System) Clocks() *timing.ClockRegistry {
	return s.clocks
}

// NativeClock returns the clock the wires run on.
func (s *System) NativeClock() *timing.ClockDomain {
	return s.native
}

// BoardClock returns the clock the boards are packed on.
func (s *System) BoardClock() *timing.ClockDomain {
	return s.board
}

// Detector returns the topology.
func (s *System) Detector() *geometry.Detector {
	return s.detector
}

// Boards returns the front-end boards in id order of the board assignment.
func (s *System) Boards() []*frontend.Board {
	return s.boards
}

// EventID returns the id of the current event.
func (s *System) EventID() string {
	return s.eventID
}

// Clear resets every wire, segment and board for a new event.
func (s *System) Clear() {
	for _, w := range s.detector.Wires() {
		w.Clear()
	}

	for _, seg := range s.detector.Segments() {
		seg.Clear()
	}

	for _, b := range s.boards {
		b.Clear()
	}

	s.eventID = ""
	s.sealed = false
	s.hits = nil
	s.segmentHits = nil
	s.dropped = nil
}

// Hits returns the hits of the current event.
func (s *System) Hits() []*wire.Hit {
	return s.hits
}

// AxialHits returns the hits of the current event on axial wires.
func (s *System) AxialHits() []*wire.Hit {
	return filterHits(s.hits, true)
}

// StereoHits returns the hits of the current event on stereo wires.
func (s *System) StereoHits() []*wire.Hit {
	return filterHits(s.hits, false)
}

// SegmentHitsIn returns the segment hits of the current event in one super
// layer.
func (s *System) SegmentHitsIn(superLayer int) []*segment.Hit {
	return filterSegmentHits(s.segmentHits, superLayer)
}

// Ingest fires the wire of a raw hit. A hit lost to the inefficiency returns
// a nil hit and no error.
func (s *System) Ingest(h RawHit) (*wire.Hit, error) {
	if s.sealed {
		return nil, errors.Wrapf(ErrEventSealed, "layer %d wire %d", h.Layer, h.Wire)
	}

	w := s.detector.Wire(h.Layer, h.Wire)
	if w == nil {
		return nil, errors.Wrapf(ErrUnknownWire, "layer %d wire %d", h.Layer, h.Wire)
	}

	if s.rng != nil && s.rng.Float64() < s.inefficiency {
		s.dropped = append(s.dropped, h)
		return nil, nil
	}

	hit, err := w.Fire(h.DriftTime, s.drift, s.pulseWidth)
	if err != nil {
		return nil, err
	}

	s.hits = append(s.hits, hit)

	return hit, nil
}

// Classify classifies every hit of the event. No hits are accepted
// afterwards.
func (s *System) Classify() []*wire.Hit {
	s.sealed = true

	for _, h := range s.hits {
		h.Classify()
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosWireHit,
			Tick:   h.Rise(),
			Item:   h,
		})
	}

	return s.hits
}

// SimulateSegments aggregates the wire signals of every segment and returns
// the segments that fired, in segment order.
func (s *System) SimulateSegments() ([]*segment.Hit, error) {
	s.segmentHits = nil

	for _, seg := range s.detector.Segments() {
		h, err := seg.Simulate()
		if err != nil {
			return nil, err
		}

		if h == nil {
			continue
		}

		s.segmentHits = append(s.segmentHits, h)
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosSegmentHit,
			Tick:   h.FirstTick(),
			Item:   h,
		})
	}

	return s.segmentHits, nil
}

// PackBoards samples and packs every board with a hit wire at a board tick.
// Boards without hits would only produce empty states and are skipped.
func (s *System) PackBoards(tick timing.Tick) ([]BoardOutput, error) {
	var outputs []BoardOutput

	for _, b := range s.boards {
		if !b.Active() {
			continue
		}

		state, err := b.Step(tick)
		if err != nil {
			return nil, err
		}

		out := BoardOutput{Board: b, Tick: tick, State: state.Clone()}
		outputs = append(outputs, out)

		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosBoardPacked,
			Tick:   tick,
			Item:   out,
		})
	}

	return outputs, nil
}

// TickRange returns the board ticks during which a hit of the event is
// visible to the boards. It returns false if no hit has a rising edge at or
// after tick 0.
func (s *System) TickRange() (first, last timing.Tick, ok bool) {
	for _, h := range s.hits {
		rise := h.Rise()
		if rise.Saturated() {
			continue
		}

		t := s.native.Convert(rise, s.board)
		end := t + timing.Tick(s.window-1)
		if end < 0 {
			continue
		}

		if t < 0 {
			t = 0
		}

		if !ok || t < first {
			first = t
		}

		if !ok || end > last {
			last = end
		}

		ok = true
	}

	return first, last, ok
}

// Run packs the boards at every board tick of the tick range.
func (s *System) Run() ([]BoardOutput, error) {
	first, last, ok := s.TickRange()
	if !ok {
		return nil, nil
	}

	var outputs []BoardOutput

	now := s.board.CycleOf(first)
	for {
		tick := s.board.TickAt(now)
		if tick > last {
			break
		}

		out, err := s.PackBoards(tick)
		if err != nil {
			return nil, err
		}

		outputs = append(outputs, out...)

		next := s.board.NextTick(now)
		if next <= now {
			break
		}

		now = next
	}

	return outputs, nil
}

// Process clears the system and runs one event through it.
func (s *System) Process(ev Event) (*Result, error) {
	s.Clear()

	s.eventID = ev.ID
	if s.eventID == "" {
		s.eventID = s.ids.Generate()
	}

	for _, h := range ev.Hits {
		if _, err := s.Ingest(h); err != nil {
			return nil, errors.Wrapf(err, "event %s", s.eventID)
		}
	}

	res := &Result{
		EventID: s.eventID,
		Hits:    s.Classify(),
		Dropped: s.dropped,
	}

	segHits, err := s.SimulateSegments()
	if err != nil {
		return nil, errors.Wrapf(err, "event %s", s.eventID)
	}

	res.SegmentHits = segHits

	res.Boards, err = s.Run()
	if err != nil {
		return nil, errors.Wrapf(err, "event %s", s.eventID)
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosEventEnd,
		Item:   res,
	})

	return res, nil
}
