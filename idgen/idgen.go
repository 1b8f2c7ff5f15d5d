// Package idgen generates event identifiers.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator generates IDs.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator of "1", "2", ... Safe for concurrent use.
func NewSequential() Generator {
	return &sequential{}
}

// NewParallel returns a generator of globally unique IDs. The IDs are not
// deterministic.
func NewParallel() Generator {
	return parallel{}
}

// ByName returns the generator called "sequential" or "parallel".
func ByName(name string) (Generator, bool) {
	switch name {
	case "", "sequential":
		return NewSequential(), true
	case "parallel":
		return NewParallel(), true
	}

	return nil, false
}

type sequential struct {
	nextID uint64
}

func (g *sequential) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.nextID, 1), 10)
}

type parallel struct{}

func (parallel) Generate() string {
	return xid.New().String()
}
