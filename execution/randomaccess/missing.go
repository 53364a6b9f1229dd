package randomaccess

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

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

// MoveTo is a no-op, every row of missing columns is the same.
func (m *Missing) MoveTo(row int64) error {
	return nil
}

// Size is -1, missing columns don't determine a row count.
func (m *Missing) Size() int64 {
	return -1
}

func (m *Missing) Outputs() []access.ReadAccess {
	return m.outputs
}

func (m *Missing) Close() error {
	return nil
}
