package wire

// NeighborSlot names one of the fixed neighbor positions of a wire. Layers
// are counted outward, and local wire indices grow to the right.
type NeighborSlot int

// Neighbor slots.
const (
	InnerLeft NeighborSlot = iota
	InnerRight
	Right
	Left
	OuterLeft
	OuterRight
	InnerInner
	NumNeighborSlots
)

var neighborSlotNames = [NumNeighborSlots]string{
	"InnerLeft",
	"InnerRight",
	"Right",
	"Left",
	"OuterLeft",
	"OuterRight",
	"InnerInner",
}

func (s NeighborSlot) String() string {
	if s < 0 || s >= NumNeighborSlots {
		return "Unknown"
	}

	return neighborSlotNames[s]
}
