package virtual

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/execution/nodes"
	"github.com/cube2222/vtable/logs"
	"github.com/cube2222/vtable/vtable"
)

// Cursor reads a table row by row. Accessors are valid after Forward returned true,
// and always reflect the current row.
type Cursor struct {
	root    execution.SequentialNode
	outputs []access.ReadAccess
	schema  vtable.Schema
}

func newCursor(root execution.SequentialNode, schema vtable.Schema) (*Cursor, error) {
	if err := create("cursor", root.Create, root.Close); err != nil {
		return nil, err
	}
	return &Cursor{
		root:    root,
		outputs: root.Outputs(),
		schema:  schema,
	}, nil
}

func (c *Cursor) Forward() (bool, error) {
	return c.root.Forward()
}

// CanForward reports whether the next Forward will return true, without advancing.
func (c *Cursor) CanForward() (bool, error) {
	if !c.root.SupportsLookahead() {
		return false, errors.Wrap(vtable.ErrIllegalState, "cursor doesn't support lookahead")
	}
	return c.root.CanForward()
}

func (c *Cursor) SupportsLookahead() bool {
	return c.root.SupportsLookahead()
}

func (c *Cursor) Access(column int) access.ReadAccess {
	return c.outputs[column]
}

func (c *Cursor) NumColumns() int {
	return len(c.outputs)
}

func (c *Cursor) Schema() vtable.Schema {
	return c.schema
}

// Values returns the current row.
func (c *Cursor) Values() []vtable.Value {
	return access.Values(c.outputs)
}

func (c *Cursor) Close() error {
	return c.root.Close()
}

// RandomAccessCursor reads a table by seeking to arbitrary rows.
type RandomAccessCursor struct {
	root    execution.RandomAccessNode
	outputs []access.ReadAccess
	schema  vtable.Schema
}

func newRandomAccessCursor(root execution.RandomAccessNode, schema vtable.Schema) (*RandomAccessCursor, error) {
	if err := create("random access cursor", root.Create, root.Close); err != nil {
		return nil, err
	}
	return &RandomAccessCursor{
		root:    root,
		outputs: root.Outputs(),
		schema:  schema,
	}, nil
}

// MoveTo positions the cursor on the given row, which must be in [0, Size()).
func (c *RandomAccessCursor) MoveTo(row int64) error {
	return c.root.MoveTo(row)
}

func (c *RandomAccessCursor) Size() int64 {
	return c.root.Size()
}

func (c *RandomAccessCursor) Access(column int) access.ReadAccess {
	return c.outputs[column]
}

func (c *RandomAccessCursor) NumColumns() int {
	return len(c.outputs)
}

func (c *RandomAccessCursor) Schema() vtable.Schema {
	return c.schema
}

func (c *RandomAccessCursor) Values() []vtable.Value {
	return access.Values(c.outputs)
}

func (c *RandomAccessCursor) Close() error {
	return c.root.Close()
}

// create runs createFn, closing the partially created nodes if it fails.
func create(what string, createFn, closeFn func() error) error {
	if err := createFn(); err != nil {
		if closeErr := closeFn(); closeErr != nil {
			logs.Logger().Warn("couldn't close after failed creation", zap.String("what", what), zap.Error(closeErr))
		}
		return errors.Wrapf(err, "couldn't create %s", what)
	}
	return nil
}

func runMaterialization(root execution.SequentialNode) (int64, error) {
	if err := create("materialization", root.Create, root.Close); err != nil {
		return 0, err
	}
	if _, err := root.Forward(); err != nil {
		if closeErr := root.Close(); closeErr != nil {
			logs.Logger().Warn("couldn't close failed materialization", zap.Error(closeErr))
		}
		return 0, errors.Wrap(err, "couldn't materialize table")
	}
	if err := root.Close(); err != nil {
		return 0, errors.Wrap(err, "couldn't close materialization")
	}
	materialize, ok := root.(*nodes.Materialize)
	if !ok {
		return -1, nil
	}
	return materialize.Rows(), nil
}
