// Package formats implements sinks which print materialized rows.
package formats

import (
	"io"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// NewSink creates a sink printing rows in the named format to w.
func NewSink(format string, w io.Writer, schema vtable.Schema, names []string) (execution.Sink, error) {
	switch format {
	case FormatTable:
		return NewTableSink(w, schema, names), nil
	case FormatCSV:
		return NewCSVSink(w, schema, names), nil
	case FormatJSON:
		return NewJSONSink(w, schema, names), nil
	}
	return nil, errors.Wrapf(vtable.ErrInvalidSpec, "unknown output format '%s'", format)
}
