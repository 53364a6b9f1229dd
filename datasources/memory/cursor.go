package memory

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

type cursorBase struct {
	table    *Table
	columns  []int
	from, to int64
	buffers  []*access.Buffer
	closed   bool
}

func newCursorBase(table *Table, columns []int, from, to int64) (*cursorBase, error) {
	buffers := make([]*access.Buffer, len(columns))
	for i, column := range columns {
		buffer, err := access.NewBuffer(table.schema.Type(column))
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't create accessor for column %d", column)
		}
		buffers[i] = buffer
	}
	return &cursorBase{
		table:   table,
		columns: columns,
		from:    from,
		to:      to,
		buffers: buffers,
	}, nil
}

// load reads the absolute row into the accessors.
func (c *cursorBase) load(row int64) error {
	values := c.table.rows[row]
	for i, column := range c.columns {
		if err := c.buffers[i].SetValue(values[column]); err != nil {
			return errors.Wrapf(err, "couldn't load row %d column %d", row, column)
		}
	}
	return nil
}

func (c *cursorBase) Access(column int) access.ReadAccess {
	return c.buffers[column]
}

func (c *cursorBase) NumColumns() int {
	return len(c.buffers)
}

func (c *cursorBase) Close() error {
	if c.closed {
		return errors.Wrap(vtable.ErrIllegalState, "cursor closed twice")
	}
	c.closed = true
	c.table.cursorClosed()
	return nil
}

// Cursor is a sequential cursor with lookahead.
type Cursor struct {
	*cursorBase
	// position is the relative index of the current row, -1 before the first Forward.
	position int64
}

func (c *Cursor) Forward() (bool, error) {
	if c.closed {
		return false, errors.Wrap(vtable.ErrIllegalState, "cursor used after being closed")
	}
	if c.from+c.position+1 >= c.to {
		c.position = c.to - c.from
		return false, nil
	}
	c.position++
	if err := c.load(c.from + c.position); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cursor) CanForward() (bool, error) {
	if c.closed {
		return false, errors.Wrap(vtable.ErrIllegalState, "cursor used after being closed")
	}
	return c.from+c.position+1 < c.to, nil
}

// plainCursor hides the lookahead capability of a Cursor.
type plainCursor struct {
	cursor *Cursor
}

func (c *plainCursor) Forward() (bool, error) {
	return c.cursor.Forward()
}

func (c *plainCursor) Access(column int) access.ReadAccess {
	return c.cursor.Access(column)
}

func (c *plainCursor) NumColumns() int {
	return c.cursor.NumColumns()
}

func (c *plainCursor) Close() error {
	return c.cursor.Close()
}

type RandomAccessCursor struct {
	*cursorBase
	position int64
}

func (c *RandomAccessCursor) MoveTo(row int64) error {
	if c.closed {
		return errors.Wrap(vtable.ErrIllegalState, "cursor used after being closed")
	}
	if row < 0 || row >= c.Size() {
		return errors.Wrapf(vtable.ErrIllegalState, "row %d out of range [0, %d)", row, c.Size())
	}
	if row == c.position {
		return nil
	}
	c.position = row
	return c.load(c.from + row)
}

func (c *RandomAccessCursor) Size() int64 {
	return c.to - c.from
}
