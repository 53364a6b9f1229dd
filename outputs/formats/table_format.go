package formats

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// TableSink renders the rows written since the last flush as a text table on each Flush.
type TableSink struct {
	schema vtable.Schema
	table  *tablewriter.Table
}

func NewTableSink(w io.Writer, schema vtable.Schema, names []string) *TableSink {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(24)
	table.SetRowLine(false)
	table.SetHeader(ColumnNames(schema.NumColumns(), names))
	table.SetAutoFormatHeaders(false)

	return &TableSink{
		schema: schema,
		table:  table,
	}
}

func (t *TableSink) Schema() vtable.Schema {
	return t.schema
}

func (t *TableSink) Write(values []access.ReadAccess) error {
	if len(values) != t.schema.NumColumns() {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "got %d columns, table has %d", len(values), t.schema.NumColumns())
	}
	row := make([]string, len(values))
	for i := range values {
		row[i] = values[i].Value().String()
	}
	t.table.Append(row)
	return nil
}

func (t *TableSink) Flush() error {
	t.table.Render()
	t.table.ClearRows()
	return nil
}
