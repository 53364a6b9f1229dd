package formats

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// CSVSink writes a header row followed by one record per row. Missing values are empty fields.
type CSVSink struct {
	schema        vtable.Schema
	writer        *csv.Writer
	header        []string
	headerWritten bool
	row           []string
}

func NewCSVSink(w io.Writer, schema vtable.Schema, names []string) *CSVSink {
	return &CSVSink{
		schema: schema,
		writer: csv.NewWriter(w),
		header: ColumnNames(schema.NumColumns(), names),
		row:    make([]string, schema.NumColumns()),
	}
}

func (t *CSVSink) Schema() vtable.Schema {
	return t.schema
}

func (t *CSVSink) writeHeader() error {
	if t.headerWritten {
		return nil
	}
	t.headerWritten = true
	return errors.Wrap(t.writer.Write(t.header), "couldn't write header")
}

func (t *CSVSink) Write(values []access.ReadAccess) error {
	if len(values) != t.schema.NumColumns() {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "got %d columns, table has %d", len(values), t.schema.NumColumns())
	}
	if err := t.writeHeader(); err != nil {
		return err
	}
	for i := range values {
		if values[i].IsMissing() {
			t.row[i] = ""
		} else {
			t.row[i] = values[i].Value().String()
		}
	}
	return t.writer.Write(t.row)
}

func (t *CSVSink) Flush() error {
	if err := t.writeHeader(); err != nil {
		return err
	}
	t.writer.Flush()
	return errors.Wrap(t.writer.Error(), "couldn't flush csv writer")
}
