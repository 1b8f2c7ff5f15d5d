package bitstate

import (
	"strings"
)

// Vector is a fixed-width bit vector. Bit 0 is the least significant bit of
// the first word.
type Vector struct {
	width int
	words []uint64
}

// NewVector creates an all-zero vector.
func NewVector(width int) Vector {
	return Vector{
		width: width,
		words: make([]uint64, (width+63)/64),
	}
}

// Width returns the number of bits.
func (v *Vector) Width() int {
	return v.width
}

// Bit returns bit i.
func (v *Vector) Bit(i int) bool {
	v.checkRange(i, 1)
	return v.words[i/64]>>(uint(i)%64)&1 == 1
}

// SetBit sets bit i.
func (v *Vector) SetBit(i int, b bool) {
	v.checkRange(i, 1)

	mask := uint64(1) << (uint(i) % 64)
	if b {
		v.words[i/64] |= mask
	} else {
		v.words[i/64] &^= mask
	}
}

// Uint reads width bits starting at offset as an unsigned integer.
func (v *Vector) Uint(offset, width int) uint64 {
	v.checkRange(offset, width)

	var out uint64
	for i := 0; i < width; i++ {
		if v.Bit(offset + i) {
			out |= 1 << uint(i)
		}
	}

	return out
}

// SetUint writes the low width bits of x starting at offset.
func (v *Vector) SetUint(offset, width int, x uint64) {
	v.checkRange(offset, width)

	for i := 0; i < width; i++ {
		v.SetBit(offset+i, x>>uint(i)&1 == 1)
	}
}

// Reset clears all bits.
func (v *Vector) Reset() {
	for i := range v.words {
		v.words[i] = 0
	}
}

// Equal returns true if both vectors have the same width and bits.
func (v *Vector) Equal(o Vector) bool {
	if v.width != o.width {
		return false
	}

	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (v *Vector) Clone() Vector {
	words := make([]uint64, len(v.words))
	copy(words, v.words)

	return Vector{width: v.width, words: words}
}

// String prints the bits most significant first.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(v.width)

	for i := v.width - 1; i >= 0; i-- {
		if v.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}

	return b.String()
}

func (v *Vector) checkRange(offset, width int) {
	if offset < 0 || width < 0 || offset+width > v.width {
		panic("bitstate: bit range out of vector")
	}
}
