// Package geometry builds the wire topology of the drift chamber: wires,
// neighbor links, track segments and the front-end board assignment.
package geometry

import (
	"github.com/pkg/errors"
)

// ErrBadGeometry is returned for super layers the trigger cannot be built
// on.
var ErrBadGeometry = errors.New("geometry: unsupported super layer")

// Layers per super layer.
const (
	InnerLayers = 5
	OuterLayers = 6
)

// SuperLayerSpec describes one super layer. All its layers have NumWires
// wires.
type SuperLayerSpec struct {
	Inner     bool `yaml:"inner"`
	Axial     bool `yaml:"axial"`
	NumLayers int  `yaml:"layers"`
	NumWires  int  `yaml:"wires"`
}

// A Provider supplies the super layers, innermost first.
type Provider interface {
	SuperLayers() []SuperLayerSpec
}

// Preset is a fixed list of super layers.
type Preset []SuperLayerSpec

// SuperLayers returns the preset itself.
func (p Preset) SuperLayers() []SuperLayerSpec {
	return p
}

// Belle2Like returns nine super layers shaped like the Belle II chamber: a
// five-layer inner super layer and eight six-layer outer ones, alternating
// axial and stereo.
func Belle2Like() Preset {
	p := Preset{
		{Inner: true, Axial: true, NumLayers: InnerLayers, NumWires: 160},
	}

	for i, n := range []int{160, 192, 224, 256, 288, 320, 352, 384} {
		p = append(p, SuperLayerSpec{
			Axial:     i%2 == 1,
			NumLayers: OuterLayers,
			NumWires:  n,
		})
	}

	return p
}

// Small returns a reduced chamber of one inner and one outer super layer of
// 32 wires, enough for one board of every type per 16 wires.
func Small() Preset {
	return Preset{
		{Inner: true, Axial: true, NumLayers: InnerLayers, NumWires: 32},
		{Inner: false, Axial: false, NumLayers: OuterLayers, NumWires: 32},
	}
}

// PresetByName returns a named preset.
func PresetByName(name string) (Preset, error) {
	switch name {
	case "belle2", "":
		return Belle2Like(), nil
	case "small":
		return Small(), nil
	}

	return nil, errors.Wrapf(ErrBadGeometry, "unknown preset %q", name)
}

func (s SuperLayerSpec) validate(id int) error {
	want := OuterLayers
	if s.Inner {
		want = InnerLayers
	}

	if s.NumLayers != want {
		return errors.Wrapf(ErrBadGeometry,
			"super layer %d has %d layers, want %d", id, s.NumLayers, want)
	}

	if s.NumWires < 16 || s.NumWires%16 != 0 {
		return errors.Wrapf(ErrBadGeometry,
			"super layer %d has %d wires per layer, want a multiple of 16",
			id, s.NumWires)
	}

	return nil
}
