package arrowtable

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// Sink builds Arrow records from the rows written to it, one record per Flush.
type Sink struct {
	schema  vtable.Schema
	mem     memory.Allocator
	builder *array.RecordBuilder
	records []arrow.Record
}

// NewSink creates a sink for the schema, see ToArrowSchema for the column naming.
// A nil allocator uses the Go allocator.
func NewSink(schema vtable.Schema, names []string, mem memory.Allocator) (*Sink, error) {
	arrowSchema, err := ToArrowSchema(schema, names)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't convert schema")
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Sink{
		schema:  schema,
		mem:     mem,
		builder: array.NewRecordBuilder(mem, arrowSchema),
	}, nil
}

func (s *Sink) Schema() vtable.Schema {
	return s.schema
}

func (s *Sink) Write(row []access.ReadAccess) error {
	if len(row) != s.schema.NumColumns() {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "row has %d columns, sink has %d", len(row), s.schema.NumColumns())
	}
	for i := range row {
		if err := appendValue(s.builder.Field(i), row[i].Value()); err != nil {
			return errors.Wrapf(err, "couldn't append column %d", i)
		}
	}
	return nil
}

func (s *Sink) Flush() error {
	s.records = append(s.records, s.builder.NewRecord())
	return nil
}

// Records returns the flushed records. They stay owned by the sink.
func (s *Sink) Records() []arrow.Record {
	return s.records
}

// Table returns a table over the last flushed record.
func (s *Sink) Table() (*Table, error) {
	if len(s.records) == 0 {
		return nil, errors.Wrap(vtable.ErrIllegalState, "sink hasn't been flushed")
	}
	return NewTable(s.records[len(s.records)-1])
}

// Release frees the builder and all flushed records.
func (s *Sink) Release() {
	for _, record := range s.records {
		record.Release()
	}
	s.records = nil
	s.builder.Release()
}
