package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/geometry"
	"github.com/sarchlab/cdctrg/idgen"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/trgcdc"
	"github.com/sarchlab/cdctrg/wire"
)

// Validate checks the settings without building anything. The sampling window
// in native ticks must stay below the timing sentinel.
func (c *Config) Validate() error {
	if c.Clocks.SystemHz == 0 {
		return errors.Wrap(ErrBadConfig, "system clock frequency is zero")
	}

	if c.Clocks.NativeMultiplier == 0 {
		return errors.Wrap(ErrBadConfig, "native clock multiplier is zero")
	}

	w := c.FrontEnd.Window
	if w < 1 || uint64(w)*c.Clocks.NativeMultiplier > frontend.NotHit {
		return errors.Wrapf(ErrBadConfig,
			"window of %d board ticks with %d native ticks each "+
				"does not fit below %d", w, c.Clocks.NativeMultiplier,
			frontend.NotHit)
	}

	if c.FrontEnd.PulseWidth < 0 {
		return errors.Wrapf(ErrBadConfig, "pulse width %d", c.FrontEnd.PulseWidth)
	}

	if len(c.Geometry.SuperLayers) == 0 {
		if _, err := geometry.PresetByName(c.Geometry.Preset); err != nil {
			return errors.Wrapf(ErrBadConfig, "%v", err)
		}
	}

	if c.Drift.Velocity <= 0 || c.Drift.Resolution < 0 {
		return errors.Wrapf(ErrBadConfig, "drift velocity %g resolution %g",
			c.Drift.Velocity, c.Drift.Resolution)
	}

	if c.Hits.Inefficiency < 0 || c.Hits.Inefficiency >= 1 {
		return errors.Wrapf(ErrBadConfig, "inefficiency %g", c.Hits.Inefficiency)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return errors.Wrapf(ErrBadConfig, "monitor port %d", c.Monitor.Port)
	}

	if _, ok := idgen.ByName(c.IDGenerator); !ok {
		return errors.Wrapf(ErrBadConfig, "id generator %q", c.IDGenerator)
	}

	return nil
}

// Provider returns the geometry the config selects.
func (c *Config) Provider() (geometry.Provider, error) {
	if len(c.Geometry.SuperLayers) > 0 {
		return geometry.Preset(c.Geometry.SuperLayers), nil
	}

	return geometry.PresetByName(c.Geometry.Preset)
}

// Builder returns a system builder set up as configured. The board map file,
// if any, is read here.
func (c *Config) Builder() (trgcdc.Builder, error) {
	if err := c.Validate(); err != nil {
		return trgcdc.Builder{}, err
	}

	clocks, err := timing.NewBelle2Clocks(
		timing.FreqInHz(c.Clocks.SystemHz), c.Clocks.NativeMultiplier)
	if err != nil {
		return trgcdc.Builder{}, errors.Wrapf(ErrBadConfig, "%v", err)
	}

	provider, err := c.Provider()
	if err != nil {
		return trgcdc.Builder{}, err
	}

	ids, _ := idgen.ByName(c.IDGenerator)

	b := trgcdc.MakeBuilder().
		WithClocks(clocks).
		WithGeometry(provider).
		WithWindow(c.FrontEnd.Window).
		WithPulseWidth(c.FrontEnd.PulseWidth).
		WithOptions(frontend.Options{
			OuterSecondPriority: c.FrontEnd.OuterSecondPriority,
		}).
		WithDriftRelation(wire.LinearDrift{
			Velocity:   c.Drift.Velocity,
			Resolution: c.Drift.Resolution,
		}).
		WithIDGenerator(ids).
		WithInefficiency(c.Hits.Inefficiency, c.Hits.Seed)

	if c.Geometry.BoardMap != "" {
		f, err := os.Open(c.Geometry.BoardMap)
		if err != nil {
			return trgcdc.Builder{}, errors.Wrapf(err, "config: board map")
		}
		defer f.Close()

		m, err := geometry.ReadBoardMap(f)
		if err != nil {
			return trgcdc.Builder{}, err
		}

		b = b.WithBoardMap(m)
	}

	return b, nil
}
