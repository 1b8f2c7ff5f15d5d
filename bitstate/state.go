package bitstate

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// State is a vector interpreted through a layout.
type State struct {
	layout *Layout
	vec    Vector
}

// NewState creates an all-zero state of the layout.
func NewState(layout *Layout) *State {
	return &State{
		layout: layout,
		vec:    NewVector(layout.Width()),
	}
}

// Layout returns the layout the state is interpreted with.
func (s *State) Layout() *Layout {
	return s.layout
}

// Vector returns the raw bits.
func (s *State) Vector() *Vector {
	return &s.vec
}

// Width returns the number of bits in the state.
func (s *State) Width() int {
	return s.vec.Width()
}

// Get reads a field.
func (s *State) Get(name string) (uint64, error) {
	offset, width, err := s.layout.Offset(name)
	if err != nil {
		return 0, err
	}

	return s.vec.Uint(offset, width), nil
}

// Set writes a field. The value must fit the field width.
func (s *State) Set(name string, value uint64) error {
	offset, width, err := s.layout.Offset(name)
	if err != nil {
		return err
	}

	if width < 64 && value>>uint(width) != 0 {
		return errors.Wrapf(ErrValueOverflow, "%s=%d (%d bits)",
			name, value, width)
	}

	s.vec.SetUint(offset, width, value)

	return nil
}

// MustGet is Get that panics on an unknown field.
func (s *State) MustGet(name string) uint64 {
	v, err := s.Get(name)
	if err != nil {
		panic(err)
	}

	return v
}

// MustSet is Set that panics on error.
func (s *State) MustSet(name string, value uint64) {
	if err := s.Set(name, value); err != nil {
		panic(err)
	}
}

// GetAt reads element i of an array field.
func (s *State) GetAt(name string, i int) (uint64, error) {
	return s.Get(fmt.Sprintf("%s[%d]", name, i))
}

// SetAt writes element i of an array field.
func (s *State) SetAt(name string, i int, value uint64) error {
	return s.Set(fmt.Sprintf("%s[%d]", name, i), value)
}

// Equal returns true if both states share a layout and bits.
func (s *State) Equal(o *State) bool {
	return s.layout == o.layout && s.vec.Equal(o.vec)
}

// Clone returns a deep copy sharing the layout.
func (s *State) Clone() *State {
	return &State{layout: s.layout, vec: s.vec.Clone()}
}

// Dump lists every field with its value, one per line.
func (s *State) Dump() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%d bits)\n", s.layout.Name(), s.layout.Width())
	for i, f := range s.layout.fields {
		v := s.vec.Uint(s.layout.offsets[i], f.Width)
		fmt.Fprintf(&b, "  %-24s %0*b\n", f.Name, f.Width, v)
	}

	return b.String()
}

func (s *State) String() string {
	return s.vec.String()
}
