// Package timing provides clock domains and the conversions between continuous
// hit times and discrete clock ticks.
package timing

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// FreqInHz defines frequency in the unit of Hertz (cycles per second).
type FreqInHz uint64

// Frequency units.
const (
	Hz  = FreqInHz(1)
	KHz = FreqInHz(1000 * Hz)
	MHz = FreqInHz(1000 * KHz)
	GHz = FreqInHz(1000 * MHz)
)

// VTimeInNs is an absolute, continuous time in nanoseconds.
type VTimeInNs float64

// VTimeInCycle counts cycles of the registry-wide global resolution. All
// registered domains tick on integer multiples of it.
type VTimeInCycle uint64

// Tick is a tick index on one clock domain.
type Tick int64

// Saturation bounds of tick conversions.
const (
	MinTick = Tick(math.MinInt64)
	MaxTick = Tick(math.MaxInt64)
)

// Saturated returns true if the tick is one of the saturation bounds, meaning
// that no real tick corresponds to the converted time.
func (t Tick) Saturated() bool {
	return t == MinTick || t == MaxTick
}

var (
	// ErrZeroFrequency indicates that a domain attempted to register a clock
	// with a zero frequency, which is not meaningful.
	ErrZeroFrequency = errors.New("timing: frequency must be greater than zero")

	// ErrFrequencyOverflow indicates that a derived frequency or the global
	// resolution does not fit in a uint64.
	ErrFrequencyOverflow = errors.New("timing: global frequency overflow")

	// ErrNoFrequencyDomains indicates that no domains have been registered yet
	// so conversions between cycles and time cannot be performed.
	ErrNoFrequencyDomains = errors.New("timing: no frequency domains registered")

	// ErrTickPrecisionLoss indicates that a conversion from time to cycles
	// would require precision beyond the global cycle resolution.
	ErrTickPrecisionLoss = errors.New("timing: duration is not aligned with cycle resolution")

	// ErrTickOverflow indicates that the computed number of cycles exceeds the
	// representable range of VTimeInCycle.
	ErrTickOverflow = errors.New("timing: cycle value overflow")

	// ErrDuplicateDomain is returned when a domain name is registered twice
	// with different parameters.
	ErrDuplicateDomain = errors.New("timing: domain already registered")

	// ErrUnknownDomain is returned when a domain does not belong to the
	// registry it is used with.
	ErrUnknownDomain = errors.New("timing: unknown domain")

	// ErrInexactDerivation is returned when a derived domain or a tick ratio
	// would need a fractional frequency.
	ErrInexactDerivation = errors.New("timing: derived frequency is not integral")
)

const maxCycleValue = VTimeInCycle(math.MaxUint64)

func roundUpToStride(value, stride VTimeInCycle) (VTimeInCycle, bool) {
	if stride == 0 {
		return 0, true
	}

	remainder := value % stride
	if remainder == 0 {
		return value, true
	}

	return addCycles(value, stride-remainder)
}

func addCycles(a, b VTimeInCycle) (VTimeInCycle, bool) {
	if uint64(a) > math.MaxUint64-uint64(b) {
		return maxCycleValue, false
	}

	return a + b, true
}

func mulCycles(a, b VTimeInCycle) (VTimeInCycle, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return maxCycleValue, false
	}

	return VTimeInCycle(lo), true
}

// alignmentTolerance scales with the magnitude of the value to absorb
// floating-point rounding noise.
func alignmentTolerance(value float64) float64 {
	const ulpFactor = 1e-9

	v := math.Abs(value)
	if v < 1 {
		return ulpFactor
	}

	return v * ulpFactor
}

// snap rounds x to the nearest integer when it is within rounding noise of
// it, so that a time produced by AbsoluteTimeOf maps back onto its own tick.
func snap(x float64) float64 {
	r := math.Round(x)
	if math.Abs(x-r) <= alignmentTolerance(x) {
		return r
	}

	return x
}

func saturate(x float64) Tick {
	switch {
	case math.IsNaN(x):
		return MinTick
	case x >= float64(math.MaxInt64):
		return MaxTick
	case x <= float64(math.MinInt64):
		return MinTick
	}

	return Tick(x)
}

func lcmFreq(a, b FreqInHz) (FreqInHz, error) {
	g := gcdFreq(a, b)
	if g == 0 {
		return 0, ErrZeroFrequency
	}

	quotient := uint64(a / g)
	if quotient > math.MaxUint64/uint64(b) {
		return 0, ErrFrequencyOverflow
	}

	return FreqInHz(quotient * uint64(b)), nil
}

func gcdFreq(a, b FreqInHz) FreqInHz {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
