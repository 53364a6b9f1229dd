package memory

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Table is a row table held in memory.
// It supports sequential, lookahead and random access cursors.
type Table struct {
	schema vtable.Schema
	rows   [][]vtable.Value

	lookahead   bool
	unknownSize bool

	openCursors   int64
	openedCursors int64
}

type Option func(table *Table)

// WithoutLookahead makes the table's sequential cursors plain cursors.
func WithoutLookahead() Option {
	return func(table *Table) {
		table.lookahead = false
	}
}

// WithUnknownSize makes Size report -1, as a streaming source would.
func WithUnknownSize() Option {
	return func(table *Table) {
		table.unknownSize = true
	}
}

// NewTable creates a table, checking that every value has the type of its column.
// Missing values are allowed in every column.
func NewTable(schema vtable.Schema, rows [][]vtable.Value, options ...Option) (*Table, error) {
	for i, row := range rows {
		if len(row) != schema.NumColumns() {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "row %d has %d values, schema has %d columns", i, len(row), schema.NumColumns())
		}
		for j, value := range row {
			if !value.Type.Equal(schema.Type(j)) {
				return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "row %d column %d has type %s, expected %s", i, j, value.Type, schema.Type(j))
			}
		}
	}
	out := &Table{
		schema:    schema,
		rows:      rows,
		lookahead: true,
	}
	for _, opt := range options {
		opt(out)
	}
	return out, nil
}

func (t *Table) Schema() vtable.Schema {
	return t.schema
}

func (t *Table) Size() int64 {
	if t.unknownSize {
		return -1
	}
	return int64(len(t.rows))
}

func (t *Table) Rows() [][]vtable.Value {
	return t.rows
}

func (t *Table) Cursor(selection vtable.Selection) (execution.Cursor, error) {
	base, err := t.newCursorBase(selection)
	if err != nil {
		return nil, err
	}
	cursor := &Cursor{cursorBase: base, position: -1}
	if !t.lookahead {
		return &plainCursor{cursor: cursor}, nil
	}
	return cursor, nil
}

func (t *Table) RandomAccessCursor(selection vtable.Selection) (execution.RandomAccessCursor, error) {
	base, err := t.newCursorBase(selection)
	if err != nil {
		return nil, err
	}
	return &RandomAccessCursor{cursorBase: base, position: -1}, nil
}

func (t *Table) newCursorBase(selection vtable.Selection) (*cursorBase, error) {
	if err := selection.Validate(t.schema.NumColumns()); err != nil {
		return nil, errors.Wrap(err, "invalid selection")
	}
	columns := selection.Resolve(t.schema.NumColumns())
	from, to := int64(0), int64(len(t.rows))
	if selection.Rows.Bounded {
		from = selection.Rows.From
		to = from + selection.Rows.Clamp(int64(len(t.rows)))
	}
	base, err := newCursorBase(t, columns, from, to)
	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&t.openCursors, 1)
	atomic.AddInt64(&t.openedCursors, 1)
	return base, nil
}

// OpenCursors returns the number of cursors which have been opened and not yet closed.
func (t *Table) OpenCursors() int {
	return int(atomic.LoadInt64(&t.openCursors))
}

// OpenedCursors returns the number of cursors opened over the table's lifetime.
func (t *Table) OpenedCursors() int {
	return int(atomic.LoadInt64(&t.openedCursors))
}

func (t *Table) Close() error {
	return nil
}

func (t *Table) cursorClosed() {
	atomic.AddInt64(&t.openCursors, -1)
}
