// Package segment groups wires into track segments and aggregates their
// signals.
package segment

// Offset locates a wire relative to the priority wire of a segment. DLayer
// counts layers outward; DLocal counts wires to the right, in the half-cell
// stagger where layers at an even distance from the priority layer are
// aligned with it and the others are shifted by half a cell to the right.
type Offset struct {
	DLayer int
	DLocal int
}

// Shape is the fixed wire pattern of a segment class.
type Shape struct {
	Name    string
	Offsets []Offset

	// Priority is the index of the priority wire in Offsets.
	Priority int
}

// Size returns the number of wires in the shape.
func (s Shape) Size() int {
	return len(s.Offsets)
}

// MinLayer returns the lowest layer offset.
func (s Shape) MinLayer() int {
	m := 0
	for _, o := range s.Offsets {
		if o.DLayer < m {
			m = o.DLayer
		}
	}

	return m
}

// MaxLayer returns the highest layer offset.
func (s Shape) MaxLayer() int {
	m := 0
	for _, o := range s.Offsets {
		if o.DLayer > m {
			m = o.DLayer
		}
	}

	return m
}

// InnerShape is the 15-wire pyramid of the innermost super layer. The
// priority wire is the apex in the first layer.
var InnerShape = Shape{
	Name: "inner",
	Offsets: []Offset{
		{0, 0},
		{1, -1}, {1, 0},
		{2, -1}, {2, 0}, {2, 1},
		{3, -2}, {3, -1}, {3, 0}, {3, 1},
		{4, -2}, {4, -1}, {4, 0}, {4, 1}, {4, 2},
	},
	Priority: 0,
}

// OuterShape is the 11-wire hourglass of the outer super layers, centered on
// the priority wire in the third layer.
var OuterShape = Shape{
	Name: "outer",
	Offsets: []Offset{
		{-2, -1}, {-2, 0}, {-2, 1},
		{-1, -1}, {-1, 0},
		{0, 0},
		{1, -1}, {1, 0},
		{2, -1}, {2, 0}, {2, 1},
	},
	Priority: 5,
}
