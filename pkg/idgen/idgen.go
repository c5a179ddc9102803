// Package idgen issues predictable 32-character identifiers.
//
// The data API accepts caller-chosen IDs of exactly 32 characters, so a
// test can create an entity under a known ID and look it up afterwards.
package idgen

import (
	"fmt"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Length of every generated ID.
const Length = 32

// Generator yields "000...0", "000...1", ... in order. It is not safe for
// concurrent use.
type Generator struct {
	next uint64
}

// New returns a generator starting at zero.
func New() *Generator {
	return &Generator{}
}

// Next returns the next ID.
func (g *Generator) Next() string {
	id := fmt.Sprintf("%032d", g.next)
	g.next++
	logger.Debug("Generated id: %s", id)
	return id
}

// Reset restarts the sequence at zero.
func (g *Generator) Reset() {
	g.next = 0
}
