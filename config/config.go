// Package config loads the settings of a simulation run.
//
// A run is configured by a YAML file. Values from a .env file and from
// CDCTRG_* environment variables override the file. Variables that are
// already set in the environment win over the .env file.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/geometry"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

// ErrBadConfig is returned for configurations that cannot be run.
var ErrBadConfig = errors.New("config: invalid configuration")

// DefaultEnvFile is the dotenv file Load reads.
const DefaultEnvFile = ".env"

// Config holds every setting of a run.
type Config struct {
	Clocks      ClocksConfig    `yaml:"clocks"`
	Geometry    GeometryConfig  `yaml:"geometry"`
	FrontEnd    FrontEndConfig  `yaml:"frontend"`
	Drift       DriftConfig     `yaml:"drift"`
	Hits        HitsConfig      `yaml:"hits"`
	Recording   RecordingConfig `yaml:"recording"`
	Monitor     MonitorConfig   `yaml:"monitor"`
	IDGenerator string          `yaml:"id_generator"`
}

// ClocksConfig sets the trigger clock tree.
type ClocksConfig struct {
	SystemHz         uint64 `yaml:"system_hz"`
	NativeMultiplier uint64 `yaml:"native_multiplier"`
}

// GeometryConfig selects the chamber. SuperLayers, when given, replace the
// preset.
type GeometryConfig struct {
	Preset      string                    `yaml:"preset"`
	SuperLayers []geometry.SuperLayerSpec `yaml:"super_layers"`
	BoardMap    string                    `yaml:"board_map"`
}

// FrontEndConfig sets how the boards sample and pack.
type FrontEndConfig struct {
	Window              int   `yaml:"window"`
	PulseWidth          int64 `yaml:"pulse_width"`
	OuterSecondPriority bool  `yaml:"outer_second_priority"`
}

// DriftConfig is a linear drift relation, in cm/ns and cm.
type DriftConfig struct {
	Velocity   float64 `yaml:"velocity"`
	Resolution float64 `yaml:"resolution"`
}

// HitsConfig sets how delivered hits are lost. Losses are drawn from a
// generator seeded with Seed.
type HitsConfig struct {
	Inefficiency float64 `yaml:"inefficiency"`
	Seed         int64   `yaml:"seed"`
}

// RecordingConfig enables the SQLite trace. An empty path disables it.
type RecordingConfig struct {
	Path string `yaml:"path"`
}

// MonitorConfig enables the HTTP monitor.
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Default returns the Belle II settings.
func Default() *Config {
	drift := wire.DefaultDrift()

	return &Config{
		Clocks: ClocksConfig{
			SystemHz:         uint64(timing.DefaultSystemFrequency),
			NativeMultiplier: timing.DefaultNativeMultiplier,
		},
		Geometry: GeometryConfig{Preset: "belle2"},
		FrontEnd: FrontEndConfig{Window: frontend.DefaultWindow},
		Drift: DriftConfig{
			Velocity:   drift.Velocity,
			Resolution: drift.Resolution,
		},
		IDGenerator: "sequential",
	}
}

// Load reads a configuration file on top of the defaults and applies the
// overrides of DefaultEnvFile and the environment. An empty path keeps the
// defaults.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, DefaultEnvFile)
}

// LoadWithEnv is Load with explicit dotenv files. Missing dotenv files are
// skipped.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "config: reading %s", path)
		}

		if err := c.Decode(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
	}

	for _, f := range envFiles {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "config: loading %s", f)
		}
	}

	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Decode reads YAML into the config. Unknown keys are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(c)
	if err == io.EOF {
		return nil
	}

	if err != nil {
		return errors.Wrapf(ErrBadConfig, "%v", err)
	}

	return nil
}

// ApplyEnv overrides the config with the CDCTRG_* environment variables.
func (c *Config) ApplyEnv() error {
	steps := []func() error{
		envUint("CDCTRG_SYSTEM_HZ", &c.Clocks.SystemHz),
		envUint("CDCTRG_NATIVE_MULTIPLIER", &c.Clocks.NativeMultiplier),
		envString("CDCTRG_GEOMETRY", &c.Geometry.Preset),
		envString("CDCTRG_BOARD_MAP", &c.Geometry.BoardMap),
		envInt("CDCTRG_WINDOW", &c.FrontEnd.Window),
		envBool("CDCTRG_OUTER_SECOND_PRIORITY", &c.FrontEnd.OuterSecondPriority),
		envFloat("CDCTRG_DRIFT_VELOCITY", &c.Drift.Velocity),
		envFloat("CDCTRG_DRIFT_RESOLUTION", &c.Drift.Resolution),
		envFloat("CDCTRG_INEFFICIENCY", &c.Hits.Inefficiency),
		envInt64("CDCTRG_SEED", &c.Hits.Seed),
		envString("CDCTRG_RECORD_PATH", &c.Recording.Path),
		envBool("CDCTRG_MONITOR", &c.Monitor.Enabled),
		envInt("CDCTRG_MONITOR_PORT", &c.Monitor.Port),
		envBool("CDCTRG_OPEN_BROWSER", &c.Monitor.OpenBrowser),
		envString("CDCTRG_ID_GENERATOR", &c.IDGenerator),
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return nil
}

func envString(name string, dst *string) func() error {
	return func() error {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}

		return nil
	}
}

func envUint(name string, dst *uint64) func() error {
	return func() error {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}

		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrBadConfig, "%s=%q", name, v)
		}

		*dst = n

		return nil
	}
}

func envInt(name string, dst *int) func() error {
	return func() error {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(ErrBadConfig, "%s=%q", name, v)
		}

		*dst = n

		return nil
	}
}

func envInt64(name string, dst *int64) func() error {
	return func() error {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}

		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrBadConfig, "%s=%q", name, v)
		}

		*dst = n

		return nil
	}
}

func envFloat(name string, dst *float64) func() error {
	return func() error {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}

		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(ErrBadConfig, "%s=%q", name, v)
		}

		*dst = f

		return nil
	}
}

func envBool(name string, dst *bool) func() error {
	return func() error {
		v, ok := os.LookupEnv(name)
		if !ok {
			return nil
		}

		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(ErrBadConfig, "%s=%q", name, v)
		}

		*dst = b

		return nil
	}
}
