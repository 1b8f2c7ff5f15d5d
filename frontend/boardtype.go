package frontend

import (
	"strings"

	"github.com/pkg/errors"
)

// BoardType is one of the four front-end board topologies.
type BoardType int

// Board types.
const (
	InnerInside BoardType = iota
	InnerOutside
	OuterInside
	OuterOutside
	NumBoardTypes
)

// Word geometry.
const (
	NumSegments  = 16
	TimingWidth  = 5
	NotHit       = 1<<TimingWidth - 1
	MaxTiming    = NotHit - 1
	WiresPerRow  = NumSegments
	MaxBoardWire = 3 * WiresPerRow
)

// ErrUnknownBoardType is returned for names and values that are not a board
// type.
var ErrUnknownBoardType = errors.New("frontend: unknown board type")

var boardTypeNames = [NumBoardTypes]string{
	"InnerInside",
	"InnerOutside",
	"OuterInside",
	"OuterOutside",
}

func (t BoardType) String() string {
	if !t.Valid() {
		return "Unknown"
	}

	return boardTypeNames[t]
}

// Valid returns true for the four board types.
func (t BoardType) Valid() bool {
	return t >= 0 && t < NumBoardTypes
}

// ParseBoardType converts a name, case-insensitively, into a board type.
func ParseBoardType(name string) (BoardType, error) {
	for t, n := range boardTypeNames {
		if strings.EqualFold(n, name) {
			return BoardType(t), nil
		}
	}

	return 0, errors.Wrapf(ErrUnknownBoardType, "%q", name)
}

// NumWires returns the wire population of the board type.
func (t BoardType) NumWires() int {
	if t == InnerOutside {
		return 2 * WiresPerRow
	}

	return 3 * WiresPerRow
}

// Inner returns true for the boards of the innermost super layer.
func (t BoardType) Inner() bool {
	return t == InnerInside || t == InnerOutside
}
