package geometry

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/segment"
	"github.com/sarchlab/cdctrg/timing"
	"github.com/sarchlab/cdctrg/wire"
)

// NoMerger marks a front-end board that does not report to a merger.
const NoMerger = 99999

// BoardSpec assigns wires to a front-end board.
type BoardSpec struct {
	ID         int
	Type       frontend.BoardType
	SuperLayer int
	MergerID   int
	Wires      []*wire.Wire
}

// Name returns the board name, "CDCFrontEnd_<id>".
func (b BoardSpec) Name() string {
	return fmt.Sprintf("CDCFrontEnd_%d", b.ID)
}

// MergerName returns the merger name, "CDCMerger_<id>", or "" without a
// merger.
func (b BoardSpec) MergerName() string {
	if b.MergerID < 0 || b.MergerID == NoMerger {
		return ""
	}

	return fmt.Sprintf("CDCMerger_%d", b.MergerID)
}

// Detector is the built topology.
type Detector struct {
	superLayers []SuperLayerSpec
	wires       []*wire.Wire
	layers      [][]*wire.Wire
	slLayers    [][]int
	segments    []*segment.Segment
	boards      []BoardSpec
}

// Build creates the wires, neighbor links, segments and default board
// assignment of the provider's super layers. Every wire runs on native.
func Build(p Provider, native *timing.ClockDomain) (*Detector, error) {
	d := &Detector{superLayers: p.SuperLayers()}

	for sl, spec := range d.superLayers {
		if err := spec.validate(sl); err != nil {
			return nil, err
		}

		d.addSuperLayer(sl, spec, native)
	}

	for sl := range d.superLayers {
		d.linkNeighbors(sl)

		if err := d.addSegments(sl); err != nil {
			return nil, err
		}

		d.addBoards(sl)
	}

	return d, nil
}

func (d *Detector) addSuperLayer(
	sl int,
	spec SuperLayerSpec,
	native *timing.ClockDomain,
) {
	var ids []int

	for l := 0; l < spec.NumLayers; l++ {
		layerID := len(d.layers)
		layer := make([]*wire.Wire, spec.NumWires)

		for j := range layer {
			layer[j] = wire.New(wire.Spec{
				ID:         len(d.wires),
				Layer:      layerID,
				Local:      j,
				SuperLayer: sl,
				LocalLayer: l,
				Axial:      spec.Axial,
				Domain:     native,
			})
			d.wires = append(d.wires, layer[j])
		}

		d.layers = append(d.layers, layer)
		ids = append(ids, layerID)
	}

	d.slLayers = append(d.slLayers, ids)
}

// at returns wire j of local layer l of a super layer, wrapping j around the
// layer.
func (d *Detector) at(sl, l, j int) *wire.Wire {
	layer := d.layers[d.slLayers[sl][l]]
	n := len(layer)

	return layer[((j%n)+n)%n]
}

// adjacent returns the left and right wires of local layer other next to
// wire j of local layer l. Even layers are aligned and odd layers are
// shifted half a cell to the right.
func adjacent(l, j int) (left, right int) {
	if l%2 == 1 {
		return j, j + 1
	}

	return j - 1, j
}

func (d *Detector) linkNeighbors(sl int) {
	nLayers := len(d.slLayers[sl])

	for l := 0; l < nLayers; l++ {
		for _, w := range d.layers[d.slLayers[sl][l]] {
			j := w.Local()
			left, right := adjacent(l, j)

			w.SetNeighbor(wire.Right, d.at(sl, l, j+1))
			w.SetNeighbor(wire.Left, d.at(sl, l, j-1))

			if l > 0 {
				w.SetNeighbor(wire.InnerLeft, d.at(sl, l-1, left))
				w.SetNeighbor(wire.InnerRight, d.at(sl, l-1, right))
			}

			if l < nLayers-1 {
				w.SetNeighbor(wire.OuterLeft, d.at(sl, l+1, left))
				w.SetNeighbor(wire.OuterRight, d.at(sl, l+1, right))
			}

			if l > 1 {
				w.SetNeighbor(wire.InnerInner, d.at(sl, l-2, j))
			}
		}
	}
}

func (d *Detector) addSegments(sl int) error {
	shape, priority := segment.OuterShape, 2
	if d.superLayers[sl].Inner {
		shape, priority = segment.InnerShape, 0
	}

	for _, center := range d.layers[d.slLayers[sl][priority]] {
		ws := make([]*wire.Wire, 0, shape.Size())
		for _, o := range shape.Offsets {
			ws = append(ws, d.at(sl, priority+o.DLayer, center.Local()+o.DLocal))
		}

		s, err := segment.New(len(d.segments), shape, ws)
		if err != nil {
			return err
		}

		d.segments = append(d.segments, s)
	}

	return nil
}

func (d *Detector) addBoards(sl int) {
	type group struct {
		typ  frontend.BoardType
		rows []int
	}

	groups := []group{
		{frontend.OuterInside, []int{0, 1, 2}},
		{frontend.OuterOutside, []int{3, 4, 5}},
	}
	if d.superLayers[sl].Inner {
		groups = []group{
			{frontend.InnerInside, []int{0, 1, 2}},
			{frontend.InnerOutside, []int{3, 4}},
		}
	}

	nBoards := d.superLayers[sl].NumWires / frontend.WiresPerRow
	for k := 0; k < nBoards; k++ {
		merger := d.nextMergerID()

		for _, g := range groups {
			var ws []*wire.Wire
			for _, row := range g.rows {
				for i := 0; i < frontend.WiresPerRow; i++ {
					ws = append(ws, d.at(sl, row, k*frontend.WiresPerRow+i))
				}
			}

			d.boards = append(d.boards, BoardSpec{
				ID:         len(d.boards),
				Type:       g.typ,
				SuperLayer: sl,
				MergerID:   merger,
				Wires:      ws,
			})
		}
	}
}

func (d *Detector) nextMergerID() int {
	m := 0
	for _, b := range d.boards {
		if b.MergerID >= m {
			m = b.MergerID + 1
		}
	}

	return m
}

// SuperLayers returns the super layer specs.
func (d *Detector) SuperLayers() []SuperLayerSpec {
	return d.superLayers
}

// Wires returns all wires ordered by id.
func (d *Detector) Wires() []*wire.Wire {
	return d.wires
}

// NumLayers returns the number of layers.
func (d *Detector) NumLayers() int {
	return len(d.layers)
}

// Layer returns the wires of a layer.
func (d *Detector) Layer(id int) []*wire.Wire {
	return d.layers[id]
}

// Wire returns wire local of layer, or nil if it does not exist.
func (d *Detector) Wire(layer, local int) *wire.Wire {
	if layer < 0 || layer >= len(d.layers) {
		return nil
	}

	if local < 0 || local >= len(d.layers[layer]) {
		return nil
	}

	return d.layers[layer][local]
}

// Segments returns all segments, super layer by super layer.
func (d *Detector) Segments() []*segment.Segment {
	return d.segments
}

// Boards returns the board assignment.
func (d *Detector) Boards() []BoardSpec {
	return d.boards
}

// SetBoards replaces the board assignment, for example with one read from a
// board map.
func (d *Detector) SetBoards(boards []BoardSpec) {
	d.boards = boards
}

// BoardOf returns the board that a wire is assigned to.
func (d *Detector) BoardOf(w *wire.Wire) (BoardSpec, error) {
	for _, b := range d.boards {
		for _, bw := range b.Wires {
			if bw == w {
				return b, nil
			}
		}
	}

	return BoardSpec{}, errors.Errorf("geometry: %s has no board", w.Name())
}
