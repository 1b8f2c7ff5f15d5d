package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/cdctrg/frontend"
	"github.com/sarchlab/cdctrg/wire"
)

// ErrBadBoardMap is returned for board map files that cannot be applied.
var ErrBadBoardMap = errors.New("geometry: bad board map")

// Header line prefixes of a board map file.
const (
	WireConfigHeader = "CDC Wire Config Version"
	TRGConfigHeader  = "CDC TRG Config Version"
)

// BoardMapEntry assigns one wire to a front-end board and a merger.
type BoardMapEntry struct {
	Wire     int
	Layer    int
	FrontEnd int
	Merger   int
	TSF      int
}

// BoardMap is the content of a board map file. Entries are ordered by wire
// id.
type BoardMap struct {
	WireVersion string
	TRGVersion  string
	Entries     []BoardMapEntry
}

// ReadBoardMap parses a board map. Each data line holds five integers: wire
// id, layer id, front-end id, merger id and segment finder id. Lines starting
// with # are comments and lines starting with CDC carry versions. A data
// line whose wire id is not the next one in sequence is ignored.
func ReadBoardMap(r io.Reader) (*BoardMap, error) {
	m := &BoardMap{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		fields := strings.Fields(line)

		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if fields[0] == "CDC" {
			switch {
			case strings.Contains(line, WireConfigHeader):
				m.WireVersion = strings.TrimSpace(line)
			case strings.Contains(line, TRGConfigHeader):
				m.TRGVersion = strings.TrimSpace(line)
			}

			continue
		}

		if len(fields) < 5 {
			return nil, errors.Wrapf(ErrBadBoardMap,
				"line %d: want 5 fields, got %d", lineNo, len(fields))
		}

		var v [5]int
		for i := range v {
			n, err := strconv.Atoi(fields[i])
			if err != nil || n < 0 {
				return nil, errors.Wrapf(ErrBadBoardMap,
					"line %d: field %d %q", lineNo, i, fields[i])
			}

			v[i] = n
		}

		if v[0] != len(m.Entries) {
			continue
		}

		m.Entries = append(m.Entries, BoardMapEntry{
			Wire:     v[0],
			Layer:    v[1],
			FrontEnd: v[2],
			Merger:   v[3],
			TSF:      v[4],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "geometry: reading board map")
	}

	return m, nil
}

// WriteBoardMap writes a board map in the format ReadBoardMap reads.
func WriteBoardMap(w io.Writer, m *BoardMap) error {
	bw := bufio.NewWriter(w)

	if m.WireVersion != "" {
		fmt.Fprintln(bw, m.WireVersion)
	}

	if m.TRGVersion != "" {
		fmt.Fprintln(bw, m.TRGVersion)
	}

	fmt.Fprintln(bw, "# wire layer frontend merger tsf")
	for _, e := range m.Entries {
		fmt.Fprintf(bw, "%d %d %d %d %d\n",
			e.Wire, e.Layer, e.FrontEnd, e.Merger, e.TSF)
	}

	return bw.Flush()
}

// BoardMap describes the current board assignment. Wires without a board are
// left out, which makes the map stop at the first of them.
func (d *Detector) BoardMap() *BoardMap {
	m := &BoardMap{
		WireVersion: WireConfigHeader + " 1",
		TRGVersion:  TRGConfigHeader + " 1",
	}

	owner := make(map[*wire.Wire]*BoardSpec, len(d.wires))
	for i := range d.boards {
		for _, w := range d.boards[i].Wires {
			owner[w] = &d.boards[i]
		}
	}

	for _, w := range d.wires {
		b, ok := owner[w]
		if !ok {
			break
		}

		merger := b.MergerID
		if merger < 0 {
			merger = NoMerger
		}

		m.Entries = append(m.Entries, BoardMapEntry{
			Wire:     w.ID(),
			Layer:    w.Layer(),
			FrontEnd: b.ID,
			Merger:   merger,
			TSF:      b.SuperLayer,
		})
	}

	return m
}

// BoardsFromMap groups the detector's wires by front-end id and infers each
// board's type from the layers it covers. Every row of a board must be 16
// consecutive wires of one layer, wrapping around the layer, and all rows must
// start at the same local index. The wires of a board are returned in board
// index order, row*16 + k.
func (d *Detector) BoardsFromMap(m *BoardMap) ([]BoardSpec, error) {
	var boards []BoardSpec
	index := map[int]int{}

	for _, e := range m.Entries {
		if e.Wire >= len(d.wires) {
			return nil, errors.Wrapf(ErrBadBoardMap, "wire %d does not exist", e.Wire)
		}

		w := d.wires[e.Wire]
		if w.Layer() != e.Layer {
			return nil, errors.Wrapf(ErrBadBoardMap,
				"wire %d is on layer %d, not %d", e.Wire, w.Layer(), e.Layer)
		}

		i, ok := index[e.FrontEnd]
		if !ok {
			i = len(boards)
			index[e.FrontEnd] = i
			merger := e.Merger
			if merger == NoMerger {
				merger = -1
			}

			boards = append(boards, BoardSpec{
				ID:         e.FrontEnd,
				SuperLayer: w.SuperLayer(),
				MergerID:   merger,
			})
		}

		boards[i].Wires = append(boards[i].Wires, w)
	}

	for i := range boards {
		t, err := d.inferType(boards[i])
		if err != nil {
			return nil, err
		}

		wires, err := d.arrangeRows(boards[i], t)
		if err != nil {
			return nil, err
		}

		boards[i].Type = t
		boards[i].Wires = wires
	}

	return boards, nil
}

func (d *Detector) inferType(b BoardSpec) (frontend.BoardType, error) {
	minLayer, maxLayer := -1, -1
	for _, w := range b.Wires {
		if w.SuperLayer() != b.SuperLayer {
			return 0, errors.Wrapf(ErrBadBoardMap,
				"%s spans super layers", b.Name())
		}

		l := w.LocalLayer()
		if minLayer < 0 || l < minLayer {
			minLayer = l
		}
		if l > maxLayer {
			maxLayer = l
		}
	}

	inner := d.superLayers[b.SuperLayer].Inner

	var t frontend.BoardType
	switch {
	case inner && minLayer == 0 && maxLayer == 2:
		t = frontend.InnerInside
	case inner && minLayer == 3 && maxLayer == 4:
		t = frontend.InnerOutside
	case !inner && minLayer == 0 && maxLayer == 2:
		t = frontend.OuterInside
	case !inner && minLayer == 3 && maxLayer == 5:
		t = frontend.OuterOutside
	default:
		return 0, errors.Wrapf(ErrBadBoardMap,
			"%s covers local layers %d..%d", b.Name(), minLayer, maxLayer)
	}

	if len(b.Wires) != t.NumWires() {
		return 0, errors.Wrapf(frontend.ErrWireCountMismatch,
			"%s: %s with %d wires", b.Name(), t, len(b.Wires))
	}

	return t, nil
}

// arrangeRows orders the wires of a board row by row, each row starting at the
// common first local index.
func (d *Detector) arrangeRows(
	b BoardSpec,
	t frontend.BoardType,
) ([]*wire.Wire, error) {
	size := d.superLayers[b.SuperLayer].NumWires
	nRows := t.NumWires() / frontend.WiresPerRow
	firstLayer := 0
	if t == frontend.InnerOutside || t == frontend.OuterOutside {
		firstLayer = 3
	}

	rows := make([][]*wire.Wire, nRows)
	for _, w := range b.Wires {
		r := w.LocalLayer() - firstLayer
		rows[r] = append(rows[r], w)
	}

	out := make([]*wire.Wire, 0, len(b.Wires))
	start := -1

	for r, row := range rows {
		if len(row) != frontend.WiresPerRow {
			return nil, errors.Wrapf(ErrBadBoardMap,
				"%s row %d has %d wires", b.Name(), r, len(row))
		}

		ordered, first, ok := consecutiveRow(row, size)
		if !ok {
			return nil, errors.Wrapf(ErrBadBoardMap,
				"%s row %d is not a run of neighboring wires", b.Name(), r)
		}

		if start >= 0 && first != start {
			return nil, errors.Wrapf(ErrBadBoardMap,
				"%s row %d starts at wire %d, row 0 at %d",
				b.Name(), r, first, start)
		}

		start = first
		out = append(out, ordered...)
	}

	return out, nil
}

// consecutiveRow sorts the wires of one layer into a run of consecutive local
// indices modulo size and returns the local index the run starts at.
func consecutiveRow(row []*wire.Wire, size int) ([]*wire.Wire, int, bool) {
	byLocal := make(map[int]*wire.Wire, len(row))
	for _, w := range row {
		byLocal[w.Local()] = w
	}

	first := -1
	for _, w := range row {
		prev := (w.Local() - 1 + size) % size
		if _, ok := byLocal[prev]; ok {
			continue
		}

		if first >= 0 {
			return nil, 0, false
		}

		first = w.Local()
	}

	if first < 0 {
		if len(byLocal) != size {
			return nil, 0, false
		}

		first = 0
	}

	ordered := make([]*wire.Wire, len(row))
	for k := range ordered {
		w, ok := byLocal[(first+k)%size]
		if !ok {
			return nil, 0, false
		}

		ordered[k] = w
	}

	return ordered, first, true
}
