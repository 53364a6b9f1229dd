package randomaccess

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

func checkRow(node string, row, size int64) error {
	if row < 0 || row >= size {
		return errors.Wrapf(vtable.ErrIllegalState, "%s: row %d out of range [0, %d)", node, row, size)
	}
	return nil
}
