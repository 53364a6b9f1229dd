package arrowtable

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Table serves the rows of an Arrow record.
// It retains the record until it's closed.
type Table struct {
	record arrow.Record
	schema vtable.Schema

	openCursors int64
}

func NewTable(record arrow.Record) (*Table, error) {
	schema, err := FromArrowSchema(record.Schema())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't convert arrow schema")
	}
	record.Retain()
	return &Table{
		record: record,
		schema: schema,
	}, nil
}

func (t *Table) Schema() vtable.Schema {
	return t.schema
}

// Names returns the field names of the record.
func (t *Table) Names() []string {
	fields := t.record.Schema().Fields()
	out := make([]string, len(fields))
	for i := range fields {
		out[i] = fields[i].Name
	}
	return out
}

func (t *Table) Size() int64 {
	return t.record.NumRows()
}

func (t *Table) Cursor(selection vtable.Selection) (execution.Cursor, error) {
	base, err := t.newCursorBase(selection)
	if err != nil {
		return nil, err
	}
	return &Cursor{cursorBase: base, position: -1}, nil
}

func (t *Table) RandomAccessCursor(selection vtable.Selection) (execution.RandomAccessCursor, error) {
	base, err := t.newCursorBase(selection)
	if err != nil {
		return nil, err
	}
	return &RandomAccessCursor{cursorBase: base, position: -1}, nil
}

// OpenCursors returns the number of cursors which have been opened and not yet closed.
func (t *Table) OpenCursors() int {
	return int(atomic.LoadInt64(&t.openCursors))
}

func (t *Table) Close() error {
	t.record.Release()
	return nil
}

func (t *Table) newCursorBase(selection vtable.Selection) (*cursorBase, error) {
	if err := selection.Validate(t.schema.NumColumns()); err != nil {
		return nil, errors.Wrap(err, "invalid selection")
	}
	columns := selection.Resolve(t.schema.NumColumns())
	from, to := int64(0), t.record.NumRows()
	if selection.Rows.Bounded {
		from = selection.Rows.From
		to = from + selection.Rows.Clamp(t.record.NumRows())
	}

	buffers := make([]*access.Buffer, len(columns))
	for i, column := range columns {
		buffer, err := access.NewBuffer(t.schema.Type(column))
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't create accessor for column %d", column)
		}
		buffers[i] = buffer
	}
	atomic.AddInt64(&t.openCursors, 1)
	return &cursorBase{
		table:   t,
		columns: columns,
		from:    from,
		to:      to,
		buffers: buffers,
	}, nil
}

type cursorBase struct {
	table    *Table
	columns  []int
	from, to int64
	buffers  []*access.Buffer
	closed   bool
}

// load decodes the absolute row into the accessors.
func (c *cursorBase) load(row int64) error {
	for i, column := range c.columns {
		value, err := valueAt(c.table.record.Column(column), c.table.schema.Type(column), int(row))
		if err != nil {
			return errors.Wrapf(err, "couldn't read row %d column %d", row, column)
		}
		if err := c.buffers[i].SetValue(value); err != nil {
			return err
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
	atomic.AddInt64(&c.table.openCursors, -1)
	return nil
}

type Cursor struct {
	*cursorBase
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
