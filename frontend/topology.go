package frontend

import (
	"fmt"

	"github.com/sarchlab/cdctrg/bitstate"
)

// Options selects optional packing stages.
type Options struct {
	// OuterSecondPriority adds the second priority stage to OuterInside
	// boards.
	OuterSecondPriority bool
}

type topology struct {
	// priorityBase is the board wire index of the priority wire of segment 0,
	// or -1 for boards without a priority row.
	priorityBase int
	candidates   func(seg int) []int
	edges        []int
}

var topologies = [NumBoardTypes]topology{
	InnerInside: {
		priorityBase: 0,
		candidates:   innerInsideCandidates,
		edges:        []int{31, 32, 47},
	},
	InnerOutside: {
		priorityBase: -1,
		candidates:   innerOutsideCandidates,
		edges:        []int{0, 14, 15, 16, 17, 30, 31},
	},
	OuterInside: {
		priorityBase: 32,
		candidates:   outerInsideCandidates,
		edges:        []int{0, 15, 31},
	},
	OuterOutside: {
		priorityBase: -1,
		candidates:   outerOutsideCandidates,
		edges:        []int{15, 16, 31},
	},
}

func innerInsideCandidates(i int) []int {
	switch i {
	case 0:
		return []int{0, 16, 32, 33}
	case 15:
		return []int{15, 30, 31, 46, 47}
	}

	return []int{i, 15 + i, 16 + i, 31 + i, 32 + i, 33 + i}
}

func innerOutsideCandidates(i int) []int {
	switch i {
	case 0:
		return []int{0, 1, 16, 17, 18}
	case 1:
		return []int{0, 1, 2, 16, 17, 18, 19}
	case 14:
		return []int{12, 13, 14, 15, 28, 29, 30, 31}
	case 15:
		return []int{13, 14, 15, 29, 30, 31}
	}

	return []int{
		i - 2, i - 1, i, i + 1,
		14 + i, 15 + i, 16 + i, 17 + i, 18 + i,
	}
}

func outerInsideCandidates(i int) []int {
	switch i {
	case 0:
		return []int{32, 16, 0, 1}
	case 15:
		return []int{47, 30, 31, 14, 15}
	}

	return []int{32 + i, 15 + i, 16 + i, i - 1, i, i + 1}
}

func outerOutsideCandidates(i int) []int {
	switch i {
	case 0:
		return []int{0, 16, 17}
	case 15:
		return []int{14, 15, 30, 31}
	}

	return []int{i - 1, i, 15 + i, 16 + i, 17 + i}
}

// Candidates returns the board wires competing in the fastest-of-N stage of
// segment seg, in comparator tree order.
func Candidates(t BoardType, seg int) []int {
	return topologies[t].candidates(seg)
}

// EdgeWires returns the wires whose timing is appended verbatim for the
// neighboring boards.
func EdgeWires(t BoardType) []int {
	out := make([]int, len(topologies[t].edges))
	copy(out, topologies[t].edges)

	return out
}

// PriorityWire returns the board wire index of the priority wire of a
// segment, or -1 if the board type has no priority row.
func PriorityWire(t BoardType, seg int) int {
	base := topologies[t].priorityBase
	if base < 0 {
		return -1
	}

	return base + seg
}

// secondPriorityCandidates returns the left and right candidates of the row
// next to the priority row. Segment 0 has no left candidate.
func secondPriorityCandidates(seg int) (left, right int) {
	if seg == 0 {
		return -1, 16
	}

	return 15 + seg, 16 + seg
}

// Field names.
const (
	FieldHitPattern         = "hitPattern"
	FieldTiming             = "timing"
	FieldPriority           = "priority"
	FieldSecondPriority     = "secondPriority"
	FieldSecondPrioritySide = "secondPrioritySide"
	FieldFastest            = "fastest"
	FieldEdge               = "edge"
)

// FieldName returns the name of element i of an array field.
func FieldName(array string, i int) string {
	return fmt.Sprintf("%s[%d]", array, i)
}

var (
	inputLayouts  [NumBoardTypes]*bitstate.Layout
	outputLayouts [NumBoardTypes]*bitstate.Layout

	outerInsideSecondPriorityLayout *bitstate.Layout
)

func init() {
	for t := BoardType(0); t < NumBoardTypes; t++ {
		inputLayouts[t] = buildInputLayout(t)
		outputLayouts[t] = buildOutputLayout(t, false)
	}

	outerInsideSecondPriorityLayout = buildOutputLayout(OuterInside, true)
}

func buildInputLayout(t BoardType) *bitstate.Layout {
	n := t.NumWires()
	fields := []bitstate.Field{{Name: FieldHitPattern, Width: n}}
	fields = append(fields, bitstate.Array(FieldTiming, n, TimingWidth)...)

	return bitstate.MustNewLayout(t.String()+"Input", fields...)
}

func buildOutputLayout(t BoardType, secondPriority bool) *bitstate.Layout {
	name := t.String() + "Output"
	fields := []bitstate.Field{{Name: FieldHitPattern, Width: t.NumWires()}}

	if topologies[t].priorityBase >= 0 {
		fields = append(fields,
			bitstate.Array(FieldPriority, NumSegments, TimingWidth)...)
	}

	if t == InnerInside || secondPriority {
		if t != InnerInside {
			name += "SecondPriority"
		}

		fields = append(fields,
			bitstate.Array(FieldSecondPriority, NumSegments, TimingWidth)...)
		fields = append(fields,
			bitstate.Array(FieldSecondPrioritySide, NumSegments, 1)...)
	}

	fields = append(fields,
		bitstate.Array(FieldFastest, NumSegments, TimingWidth)...)
	fields = append(fields,
		bitstate.Array(FieldEdge, len(topologies[t].edges), TimingWidth)...)

	return bitstate.MustNewLayout(name, fields...)
}

// InputLayout returns the layout of the packer input of a board type.
func InputLayout(t BoardType) *bitstate.Layout {
	return inputLayouts[t]
}

// OutputLayout returns the layout of the packed output of a board type.
func OutputLayout(t BoardType, opts Options) *bitstate.Layout {
	if t == OuterInside && opts.OuterSecondPriority {
		return outerInsideSecondPriorityLayout
	}

	return outputLayouts[t]
}

func hasSecondPriority(t BoardType, opts Options) bool {
	return t == InnerInside || (t == OuterInside && opts.OuterSecondPriority)
}
