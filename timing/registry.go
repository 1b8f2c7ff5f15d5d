package timing

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// ClockRegistry coordinates multiple clock domains by deriving a single cycle
// resolution that every registered frequency divides.
type ClockRegistry struct {
	global  FreqInHz
	domains map[string]*ClockDomain
	order   []*ClockDomain
}

// NewClockRegistry builds an empty registry ready to accept clock domains.
func NewClockRegistry() *ClockRegistry {
	return &ClockRegistry{
		domains: make(map[string]*ClockDomain),
	}
}

// Register adds a root clock domain and returns its descriptor. Registering
// the same name again with identical parameters returns the existing domain.
func (r *ClockRegistry) Register(
	name string,
	freq FreqInHz,
	offset VTimeInNs,
) (*ClockDomain, error) {
	return r.add(&ClockDomain{
		name:   name,
		freq:   freq,
		offset: offset,
	})
}

// Derive registers a domain running at parent*mul/div and sharing the
// parent's phase offset.
func (r *ClockRegistry) Derive(
	name string,
	parent *ClockDomain,
	mul, div uint64,
) (*ClockDomain, error) {
	if parent == nil || parent.registry != r {
		return nil, errors.Wrapf(ErrUnknownDomain,
			"parent of %q is not registered", name)
	}

	if mul == 0 || div == 0 {
		return nil, ErrZeroFrequency
	}

	hi, lo := bits.Mul64(uint64(parent.freq), mul)
	if hi != 0 {
		return nil, errors.Wrapf(ErrFrequencyOverflow,
			"%s * %d", parent, mul)
	}

	if lo%div != 0 {
		return nil, errors.Wrapf(ErrInexactDerivation,
			"%s * %d / %d", parent, mul, div)
	}

	return r.add(&ClockDomain{
		name:   name,
		freq:   FreqInHz(lo / div),
		offset: parent.offset,
		parent: parent,
		mul:    mul,
		div:    div,
	})
}

func (r *ClockRegistry) add(d *ClockDomain) (*ClockDomain, error) {
	if d.freq == 0 {
		return nil, ErrZeroFrequency
	}

	if existing, exists := r.domains[d.name]; exists {
		if existing.freq == d.freq &&
			existing.offset == d.offset &&
			existing.parent == d.parent {
			return existing, nil
		}

		return nil, errors.Wrapf(ErrDuplicateDomain, "%q", d.name)
	}

	if r.global == 0 {
		r.global = d.freq
	} else {
		newGlobal, err := lcmFreq(r.global, d.freq)
		if err != nil {
			return nil, errors.Wrapf(err, "registering %s", d)
		}

		r.global = newGlobal
	}

	d.registry = r
	r.domains[d.name] = d
	r.order = append(r.order, d)

	return d, nil
}

// Domain looks up a domain by name.
func (r *ClockRegistry) Domain(name string) (*ClockDomain, error) {
	d, ok := r.domains[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDomain, "%q", name)
	}

	return d, nil
}

// MustDomain is Domain that panics if the domain does not exist.
func (r *ClockRegistry) MustDomain(name string) *ClockDomain {
	d, err := r.Domain(name)
	if err != nil {
		panic(err)
	}

	return d
}

// Domains returns all domains in registration order.
func (r *ClockRegistry) Domains() []*ClockDomain {
	out := make([]*ClockDomain, len(r.order))
	copy(out, r.order)

	return out
}

// GlobalFrequency returns the least common multiple of all registered
// frequencies.
func (r *ClockRegistry) GlobalFrequency() FreqInHz {
	return r.global
}

// CycleStride returns the number of global cycles in one tick of d.
func (r *ClockRegistry) CycleStride(d *ClockDomain) (VTimeInCycle, bool) {
	if d == nil || r.domains[d.name] != d {
		return 0, false
	}

	if r.global == 0 || r.global%d.freq != 0 {
		return 0, false
	}

	return VTimeInCycle(r.global / d.freq), true
}

// CyclesToTime converts global cycles into nanoseconds.
func (r *ClockRegistry) CyclesToTime(cycles VTimeInCycle) VTimeInNs {
	if r.global == 0 {
		return 0
	}

	return VTimeInNs(float64(cycles) * 1e9 / float64(r.global))
}

// TimeToCycles converts nanoseconds into global cycles. The time must be
// aligned to the global cycle resolution.
func (r *ClockRegistry) TimeToCycles(t VTimeInNs) (VTimeInCycle, error) {
	if r.global == 0 {
		return 0, ErrNoFrequencyDomains
	}

	if t < 0 {
		return 0, errors.Errorf(
			"timing: negative durations are not supported: %.12g", t)
	}

	scaled := float64(t) * float64(r.global) / 1e9
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > alignmentTolerance(scaled) {
		return 0, errors.Wrapf(ErrTickPrecisionLoss,
			"duration %.12g ns exceeds cycle %.12g ns",
			t, 1e9/float64(r.global))
	}

	if rounded >= float64(math.MaxUint64) {
		return 0, ErrTickOverflow
	}

	return VTimeInCycle(rounded), nil
}
