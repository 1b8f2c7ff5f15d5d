// Package signal provides timed digital signals: ordered rise/fall edges on a
// single clock domain.
package signal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/timing"
)

// ErrDomainMismatch is returned when two signals on different clock domains
// are combined.
var ErrDomainMismatch = errors.New("signal: clock domain mismatch")

// Interval is a half-open active interval [Rise, Fall).
type Interval struct {
	Rise timing.Tick
	Fall timing.Tick
}

// A Signal is a sequence of strictly increasing edge ticks on one clock
// domain. Even positions are rising edges and odd positions are falling
// edges, so the signal is active on [edges[2k], edges[2k+1]).
type Signal struct {
	domain *timing.ClockDomain
	edges  []timing.Tick
}

// New creates an inactive signal on the domain.
func New(domain *timing.ClockDomain) Signal {
	return Signal{domain: domain}
}

// Pulse creates a signal active on [rise, rise+width). A saturated rise or a
// non-positive width gives an inactive signal.
func Pulse(domain *timing.ClockDomain, rise timing.Tick, width int64) Signal {
	s := New(domain)
	if rise.Saturated() || width <= 0 {
		return s
	}

	fall := timing.MaxTick
	if int64(rise) <= math.MaxInt64-width {
		fall = rise + timing.Tick(width)
	}

	s.SetActive(rise, fall)

	return s
}

// Or returns the union of two signals without modifying either of them.
func Or(a, b Signal) (Signal, error) {
	out := a.Clone()
	if err := out.OrWith(b); err != nil {
		return Signal{}, err
	}

	return out, nil
}

// Domain returns the clock domain of the signal.
func (s *Signal) Domain() *timing.ClockDomain {
	return s.domain
}

// Active returns true if the signal has at least one active interval.
func (s *Signal) Active() bool {
	return len(s.edges) > 0
}

// SetActive marks [from, to) active, merging with existing intervals.
func (s *Signal) SetActive(from, to timing.Tick) {
	if to <= from {
		return
	}

	s.merge([]Interval{{Rise: from, Fall: to}})
}

// OrWith replaces s with the union of s and other. Both signals must be on
// the same clock domain, even when either is inactive.
func (s *Signal) OrWith(other Signal) error {
	if s.domain != other.domain {
		return errors.Wrapf(ErrDomainMismatch, "%s vs %s",
			domainName(s.domain), domainName(other.domain))
	}

	s.merge(other.Intervals())

	return nil
}

func (s *Signal) merge(add []Interval) {
	if len(add) == 0 {
		return
	}

	all := append(s.Intervals(), add...)
	sort.Slice(all, func(i, j int) bool {
		return all[i].Rise < all[j].Rise
	})

	edges := make([]timing.Tick, 0, 2*len(all))
	cur := all[0]
	for _, iv := range all[1:] {
		if iv.Rise <= cur.Fall {
			if iv.Fall > cur.Fall {
				cur.Fall = iv.Fall
			}

			continue
		}

		edges = append(edges, cur.Rise, cur.Fall)
		cur = iv
	}
	edges = append(edges, cur.Rise, cur.Fall)

	s.edges = edges
}

// IsActiveAt returns true if the tick lies inside an active interval.
func (s *Signal) IsActiveAt(t timing.Tick) bool {
	n := sort.Search(len(s.edges), func(i int) bool {
		return s.edges[i] > t
	})

	return n%2 == 1
}

// TransitionTicks returns a copy of the edge ticks in order.
func (s *Signal) TransitionTicks() []timing.Tick {
	out := make([]timing.Tick, len(s.edges))
	copy(out, s.edges)

	return out
}

// Rises returns the rising edges in order.
func (s *Signal) Rises() []timing.Tick {
	out := make([]timing.Tick, 0, len(s.edges)/2)
	for i := 0; i < len(s.edges); i += 2 {
		out = append(out, s.edges[i])
	}

	return out
}

// FirstRise returns the earliest rising edge.
func (s *Signal) FirstRise() (timing.Tick, bool) {
	if len(s.edges) == 0 {
		return 0, false
	}

	return s.edges[0], true
}

// FirstRiseIn returns the earliest rising edge in [from, to).
func (s *Signal) FirstRiseIn(from, to timing.Tick) (timing.Tick, bool) {
	i := sort.Search(len(s.edges), func(i int) bool {
		return s.edges[i] >= from
	})
	if i%2 == 1 {
		i++
	}

	if i >= len(s.edges) || s.edges[i] >= to {
		return 0, false
	}

	return s.edges[i], true
}

// Intervals returns the active intervals in order.
func (s *Signal) Intervals() []Interval {
	out := make([]Interval, 0, len(s.edges)/2)
	for i := 0; i+1 < len(s.edges); i += 2 {
		out = append(out, Interval{Rise: s.edges[i], Fall: s.edges[i+1]})
	}

	return out
}

// Equal returns true if both signals are on the same domain with the same
// edges.
func (s *Signal) Equal(other Signal) bool {
	if s.domain != other.domain || len(s.edges) != len(other.edges) {
		return false
	}

	for i := range s.edges {
		if s.edges[i] != other.edges[i] {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (s *Signal) Clone() Signal {
	return Signal{domain: s.domain, edges: s.TransitionTicks()}
}

// Shift moves every edge by n ticks. Edges pushed past the tick range are
// clamped and intervals that collapse are dropped.
func (s *Signal) Shift(n int64) {
	ivs := s.Intervals()
	s.edges = nil

	for _, iv := range ivs {
		s.SetActive(shiftTick(iv.Rise, n), shiftTick(iv.Fall, n))
	}
}

func shiftTick(t timing.Tick, n int64) timing.Tick {
	switch {
	case n > 0 && int64(t) > math.MaxInt64-n:
		return timing.MaxTick
	case n < 0 && int64(t) < math.MinInt64-n:
		return timing.MinTick
	}

	return t + timing.Tick(n)
}

// Clear makes the signal inactive. The domain is kept.
func (s *Signal) Clear() {
	s.edges = s.edges[:0]
}

func (s Signal) String() string {
	var b strings.Builder

	b.WriteString(domainName(s.domain))
	if len(s.edges) == 0 {
		b.WriteString(" : no signal")
		return b.String()
	}

	b.WriteString(" :")
	for _, iv := range s.Intervals() {
		fmt.Fprintf(&b, " %d-%d", iv.Rise, iv.Fall)
	}

	return b.String()
}

func domainName(d *timing.ClockDomain) string {
	if d == nil {
		return "<no clock>"
	}

	return d.Name()
}
