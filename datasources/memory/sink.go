package memory

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// Sink collects written rows in memory.
type Sink struct {
	schema  vtable.Schema
	rows    [][]vtable.Value
	flushed bool
}

func NewSink(schema vtable.Schema) *Sink {
	return &Sink{
		schema: schema,
	}
}

func (s *Sink) Schema() vtable.Schema {
	return s.schema
}

func (s *Sink) Write(row []access.ReadAccess) error {
	if len(row) != s.schema.NumColumns() {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "row has %d columns, sink has %d", len(row), s.schema.NumColumns())
	}
	s.rows = append(s.rows, access.Values(row))
	return nil
}

func (s *Sink) Flush() error {
	s.flushed = true
	return nil
}

func (s *Sink) Flushed() bool {
	return s.flushed
}

func (s *Sink) Rows() [][]vtable.Value {
	return s.rows
}

// Table returns the collected rows as a new table.
func (s *Sink) Table() (*Table, error) {
	return NewTable(s.schema, s.rows)
}
