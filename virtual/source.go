package virtual

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// tableSource lets a virtual table be bound as the source of another pipeline.
type tableSource struct {
	table *Table
}

func (s *tableSource) Schema() vtable.Schema {
	return s.table.Schema()
}

func (s *tableSource) Cursor(selection vtable.Selection) (execution.Cursor, error) {
	cursor, err := s.table.Cursor(selection)
	if err != nil {
		return nil, err
	}
	if !cursor.SupportsLookahead() {
		return &forwardOnlyCursor{cursor: cursor}, nil
	}
	return cursor, nil
}

func (s *tableSource) RandomAccessCursor(selection vtable.Selection) (execution.RandomAccessCursor, error) {
	cursor, err := s.table.RandomAccessCursor(selection)
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

func (s *tableSource) Size() int64 {
	size, err := s.table.Size()
	if err != nil {
		return -1
	}
	return size
}

func (s *tableSource) Close() error {
	return nil
}

// forwardOnlyCursor exposes only the plain cursor methods, so that the engine doesn't treat it as a lookahead cursor.
type forwardOnlyCursor struct {
	cursor *Cursor
}

func (c *forwardOnlyCursor) Forward() (bool, error) {
	return c.cursor.Forward()
}

func (c *forwardOnlyCursor) Access(column int) access.ReadAccess {
	return c.cursor.Access(column)
}

func (c *forwardOnlyCursor) NumColumns() int {
	return c.cursor.NumColumns()
}

func (c *forwardOnlyCursor) Close() error {
	return c.cursor.Close()
}
