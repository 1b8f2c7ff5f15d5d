package timing

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// ClockDomain is a named periodic tick source. Ticks are counted from the
// domain's phase offset: tick n starts at offset + n*period.
type ClockDomain struct {
	name   string
	freq   FreqInHz
	offset VTimeInNs

	parent   *ClockDomain
	mul, div uint64

	registry *ClockRegistry
}

// Name returns the name the domain was registered with.
func (d *ClockDomain) Name() string {
	return d.name
}

// FrequencyHz returns the frequency associated with the domain.
func (d *ClockDomain) FrequencyHz() FreqInHz {
	if d == nil {
		return 0
	}

	return d.freq
}

// Offset returns the phase offset of tick 0.
func (d *ClockDomain) Offset() VTimeInNs {
	return d.offset
}

// Parent returns the domain this domain was derived from, and the multiplier
// and divisor applied to the parent's frequency. A root domain has no parent.
func (d *ClockDomain) Parent() (parent *ClockDomain, mul, div uint64) {
	return d.parent, d.mul, d.div
}

// Period returns the duration of one tick.
func (d *ClockDomain) Period() VTimeInNs {
	return VTimeInNs(1e9 / float64(d.freq))
}

func (d *ClockDomain) String() string {
	return fmt.Sprintf("%s@%dHz", d.name, d.freq)
}

// TickOf returns the tick that contains the absolute time t, which is
// floor((t - offset) * f). Times that are not finite or that fall outside the
// tick range saturate to MinTick or MaxTick.
func (d *ClockDomain) TickOf(t VTimeInNs) Tick {
	x := d.scaled(t)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return saturate(x)
	}

	return saturate(math.Floor(snap(x)))
}

// PhaseOf returns the position of t inside its tick, in [0, 1).
func (d *ClockDomain) PhaseOf(t VTimeInNs) float64 {
	x := d.scaled(t)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	x = snap(x)
	phase := x - math.Floor(x)
	if phase >= 1 {
		return 0
	}

	return phase
}

// AbsoluteTimeOf returns the time at which the given tick starts. Saturated
// ticks map to negative or positive infinity.
func (d *ClockDomain) AbsoluteTimeOf(tick Tick) VTimeInNs {
	switch tick {
	case MinTick:
		return VTimeInNs(math.Inf(-1))
	case MaxTick:
		return VTimeInNs(math.Inf(1))
	}

	return d.offset + VTimeInNs(float64(tick)*1e9/float64(d.freq))
}

func (d *ClockDomain) scaled(t VTimeInNs) float64 {
	return float64(t-d.offset) * float64(d.freq) / 1e9
}

// Ratio returns how many ticks of d fit into one tick of the slower domain
// to. It fails when the ratio is not an integer.
func (d *ClockDomain) Ratio(to *ClockDomain) (uint64, error) {
	if d.freq == 0 || to.freq == 0 {
		return 0, ErrZeroFrequency
	}

	if d.freq%to.freq != 0 {
		return 0, errors.Wrapf(ErrInexactDerivation,
			"%s is not an integer multiple of %s", d, to)
	}

	return uint64(d.freq / to.freq), nil
}

// Convert maps a tick of d onto the tick of the domain to that contains its
// start time. Domains of the same registry that share a phase offset are
// converted exactly over the global cycle grid; other pairs go through
// absolute time. Saturated ticks stay saturated.
func (d *ClockDomain) Convert(tick Tick, to *ClockDomain) Tick {
	if tick.Saturated() || d == to {
		return tick
	}

	if d.registry != nil && d.registry == to.registry && d.offset == to.offset {
		from, dst := d.Stride(), to.Stride()
		if from != 0 && dst != 0 {
			return scaleTick(tick, uint64(from), uint64(dst))
		}
	}

	return to.TickOf(d.AbsoluteTimeOf(tick))
}

// scaleTick computes floor(tick * num / den).
func scaleTick(tick Tick, num, den uint64) Tick {
	g := gcd64(num, den)
	num, den = num/g, den/g

	neg := tick < 0
	mag := uint64(tick)
	if neg {
		mag = uint64(-(tick + 1)) + 1
	}

	hi, lo := bits.Mul64(mag, num)
	if hi >= den {
		if neg {
			return MinTick
		}

		return MaxTick
	}

	q, r := bits.Div64(hi, lo, den)
	if neg {
		if r != 0 {
			q++
		}

		if q > uint64(math.MaxInt64) {
			return MinTick
		}

		return -Tick(q)
	}

	if q >= uint64(math.MaxInt64) {
		return MaxTick
	}

	return Tick(q)
}

func gcd64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// Stride returns the number of global cycles contained in a single cycle of
// this domain.
func (d *ClockDomain) Stride() VTimeInCycle {
	if d == nil || d.registry == nil {
		return 0
	}

	stride, ok := d.registry.CycleStride(d)
	if !ok {
		return 0
	}

	return stride
}

// ThisTick aligns the provided global cycle to the earliest domain tick that is
// not earlier than the input.
func (d *ClockDomain) ThisTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()
	if stride == 0 {
		return 0
	}

	tick, ok := roundUpToStride(now, stride)
	if !ok {
		return maxCycleValue
	}

	return tick
}

// NextTick advances to the next domain tick strictly after the provided cycle
// count.
func (d *ClockDomain) NextTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()
	if stride == 0 {
		return 0
	}

	tick, ok := roundUpToStride(now, stride)
	if !ok {
		return maxCycleValue
	}

	if tick == now {
		next, ok := addCycles(now, stride)
		if !ok {
			return maxCycleValue
		}

		return next
	}

	return tick
}

// NTicksLater advances the provided cycle count by the specified number of
// domain ticks.
func (d *ClockDomain) NTicksLater(now, ticks VTimeInCycle) VTimeInCycle {
	stride := d.Stride()
	if stride == 0 {
		return 0
	}

	if ticks == 0 {
		return d.ThisTick(now)
	}

	offset, ok := mulCycles(ticks, stride)
	if !ok {
		return maxCycleValue
	}

	future, ok := addCycles(now, offset)
	if !ok {
		return maxCycleValue
	}

	tick, ok := roundUpToStride(future, stride)
	if !ok {
		return maxCycleValue
	}

	return tick
}

// CycleOf returns the global cycle at which the tick starts. Negative ticks
// clamp to cycle 0.
func (d *ClockDomain) CycleOf(tick Tick) VTimeInCycle {
	if tick <= 0 {
		return 0
	}

	cycle, ok := mulCycles(VTimeInCycle(tick), d.Stride())
	if !ok {
		return maxCycleValue
	}

	return cycle
}

// TickAt returns the domain tick that contains the global cycle.
func (d *ClockDomain) TickAt(cycle VTimeInCycle) Tick {
	stride := d.Stride()
	if stride == 0 {
		return 0
	}

	q := uint64(cycle / stride)
	if q >= math.MaxInt64 {
		return MaxTick
	}

	return Tick(q)
}
