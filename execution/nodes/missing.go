package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// Missing provides columns which are always missing. It isn't driven by anyone.
type Missing struct {
	outputs []access.ReadAccess
}

func NewMissing(schema vtable.Schema) *Missing {
	return &Missing{
		outputs: access.NewMissingAccesses(schema),
	}
}

func (m *Missing) Create() error {
	return nil
}

func (m *Missing) Forward() (bool, error) {
	return false, errors.Wrap(vtable.ErrIllegalState, "missing columns can't be forwarded")
}

func (m *Missing) CanForward() (bool, error) {
	return false, errors.Wrap(vtable.ErrIllegalState, "missing columns can't be forwarded")
}

func (m *Missing) SupportsLookahead() bool {
	return true
}

func (m *Missing) Outputs() []access.ReadAccess {
	return m.outputs
}

func (m *Missing) Close() error {
	return nil
}
