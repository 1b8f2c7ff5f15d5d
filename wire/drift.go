package wire

import "github.com/sarchlab/cdctrg/timing"

// DriftRelation converts a drift time into a drift distance.
type DriftRelation interface {
	// DriftLength returns the distance in cm from the sense wire.
	DriftLength(driftTime timing.VTimeInNs) float64

	// DriftLengthError returns the uncertainty of DriftLength in cm.
	DriftLengthError(driftTime timing.VTimeInNs) float64
}

// Default linear drift parameters, 40 um/ns with 130 um resolution.
const (
	DefaultDriftVelocity   = 0.004
	DefaultDriftResolution = 0.013
)

// LinearDrift is a constant-velocity drift relation. Negative times give a
// zero distance.
type LinearDrift struct {
	Velocity   float64
	Resolution float64
}

// DefaultDrift returns the linear relation with the default parameters.
func DefaultDrift() LinearDrift {
	return LinearDrift{
		Velocity:   DefaultDriftVelocity,
		Resolution: DefaultDriftResolution,
	}
}

// DriftLength returns Velocity * driftTime.
func (d LinearDrift) DriftLength(driftTime timing.VTimeInNs) float64 {
	if driftTime <= 0 {
		return 0
	}

	return float64(driftTime) * d.Velocity
}

// DriftLengthError returns the constant resolution.
func (d LinearDrift) DriftLengthError(timing.VTimeInNs) float64 {
	return d.Resolution
}
