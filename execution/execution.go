package execution

import (
	"github.com/cube2222/vtable/access"
)

// SequentialNode is a live node of the sequential runtime.
//
// Nodes are created uncreated, become usable after Create and unusable after Close.
// Outputs are available right after construction, but only read valid values
// after a successful Forward.
type SequentialNode interface {
	// Create initializes all predecessors and then wires this node's outputs.
	Create() error
	// Forward advances to the next row, returning false once exhausted.
	Forward() (bool, error)
	// CanForward reports whether a subsequent Forward would succeed, without changing what it returns.
	// Only valid if SupportsLookahead is true.
	CanForward() (bool, error)
	SupportsLookahead() bool
	Outputs() []access.ReadAccess
	// Close closes this node and all its predecessors.
	Close() error
}

// RandomAccessNode is a live node of the random access runtime.
type RandomAccessNode interface {
	Create() error
	// MoveTo positions the node on the given row, which must be in [0, Size()).
	MoveTo(row int64) error
	Size() int64
	Outputs() []access.ReadAccess
	Close() error
}
