// Package bitstate describes fixed-width bit vectors through named field
// layouts.
package bitstate

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrBadField is returned for fields without a name or with a width
	// outside 1..64.
	ErrBadField = errors.New("bitstate: invalid field")

	// ErrDuplicateField is returned when a layout names a field twice.
	ErrDuplicateField = errors.New("bitstate: duplicate field")

	// ErrUnknownField is returned when a field is not part of a layout.
	ErrUnknownField = errors.New("bitstate: unknown field")

	// ErrValueOverflow is returned when a value does not fit its field.
	ErrValueOverflow = errors.New("bitstate: value does not fit field")
)

// Field is a named run of bits.
type Field struct {
	Name  string
	Width int
}

// Array expands to count fields of the same width named name[0] ..
// name[count-1].
func Array(name string, count, width int) []Field {
	fields := make([]Field, count)
	for i := range fields {
		fields[i] = Field{Name: fmt.Sprintf("%s[%d]", name, i), Width: width}
	}

	return fields
}

// A Layout assigns consecutive bit offsets to an ordered list of fields. The
// first field starts at bit 0.
type Layout struct {
	name    string
	fields  []Field
	offsets []int
	index   map[string]int
	width   int
}

// NewLayout creates a layout from the fields in order.
func NewLayout(name string, fields ...Field) (*Layout, error) {
	l := &Layout{
		name:  name,
		index: make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		if f.Name == "" || f.Width <= 0 || f.Width > 64 {
			return nil, errors.Wrapf(ErrBadField, "%s: %q width %d",
				name, f.Name, f.Width)
		}

		if _, dup := l.index[f.Name]; dup {
			return nil, errors.Wrapf(ErrDuplicateField, "%s: %q", name, f.Name)
		}

		l.index[f.Name] = len(l.fields)
		l.fields = append(l.fields, f)
		l.offsets = append(l.offsets, l.width)
		l.width += f.Width
	}

	return l, nil
}

// MustNewLayout is NewLayout that panics on error.
func MustNewLayout(name string, fields ...Field) *Layout {
	l, err := NewLayout(name, fields...)
	if err != nil {
		panic(err)
	}

	return l
}

// Name returns the name of the layout.
func (l *Layout) Name() string {
	return l.name
}

// Width returns the total number of bits.
func (l *Layout) Width() int {
	return l.width
}

// Fields returns the fields in order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)

	return out
}

// Offset returns the bit offset and the width of the named field.
func (l *Layout) Offset(name string) (offset, width int, err error) {
	i, ok := l.index[name]
	if !ok {
		return 0, 0, errors.Wrapf(ErrUnknownField, "%s: %q", l.name, name)
	}

	return l.offsets[i], l.fields[i].Width, nil
}

// Has returns true if the layout contains the named field.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}
