// Package csv loads CSV files into in-memory tables.
package csv

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/datasources/memory"
	"github.com/cube2222/vtable/vtable"
)

type options struct {
	separator rune
	headerRow bool
	table     []memory.Option
}

type Option func(*options)

// WithSeparator sets the field separator, a comma by default.
func WithSeparator(separator rune) Option {
	return func(o *options) {
		o.separator = separator
	}
}

// WithoutHeaderRow treats the first line as data.
func WithoutHeaderRow() Option {
	return func(o *options) {
		o.headerRow = false
	}
}

// WithTableOptions passes options through to the created memory table.
func WithTableOptions(opts ...memory.Option) Option {
	return func(o *options) {
		o.table = append(o.table, opts...)
	}
}

// ParseSeparator decodes a single character separator, as found in config files.
func ParseSeparator(text string) (rune, error) {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || size != len(text) {
		return 0, errors.Wrapf(vtable.ErrInvalidSpec, "couldn't decode separator '%s' to a single rune", text)
	}
	return r, nil
}

func newOptions(opts []Option) *options {
	out := &options{
		separator: ',',
		headerRow: true,
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

func newReader(r io.Reader, o *options) *csv.Reader {
	decoder := csv.NewReader(bufio.NewReaderSize(r, 4096*1024))
	decoder.Comma = o.separator
	decoder.TrimLeadingSpace = true
	decoder.ReuseRecord = true
	return decoder
}

// Open loads the file at path, see Load.
func Open(path string, schema vtable.Schema, opts ...Option) (*memory.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	table, err := Load(f, schema, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load %s", path)
	}
	return table, nil
}

// Load reads all records into a table with the given schema.
// Every record must have exactly one field per column. Empty fields of non-string columns are missing.
func Load(r io.Reader, schema vtable.Schema, opts ...Option) (*memory.Table, error) {
	o := newOptions(opts)
	decoder := newReader(r, o)
	decoder.FieldsPerRecord = schema.NumColumns()

	if o.headerRow {
		if _, err := decoder.Read(); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "couldn't decode csv header row")
		}
	}

	var rows [][]vtable.Value
	for {
		record, err := decoder.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "couldn't decode record %d: %s", len(rows), err)
		}

		row := make([]vtable.Value, len(record))
		for i := range record {
			value, err := ParseValue(schema.Type(i), record[i])
			if err != nil {
				return nil, errors.Wrapf(err, "record %d column %d", len(rows), i)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}

	return memory.NewTable(schema, rows, o.table...)
}

// ParseValue parses a single field as a value of type t.
func ParseValue(t vtable.Type, text string) (vtable.Value, error) {
	if text == "" && t.TypeID != vtable.TypeIDString {
		return vtable.NewMissing(t), nil
	}
	switch t.TypeID {
	case vtable.TypeIDBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid boolean '%s'", text)
		}
		return vtable.NewBoolean(b), nil
	case vtable.TypeIDByte:
		integer, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid byte '%s'", text)
		}
		return vtable.NewByte(int8(integer)), nil
	case vtable.TypeIDInt:
		integer, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid int '%s'", text)
		}
		return vtable.NewInt(int32(integer)), nil
	case vtable.TypeIDLong:
		integer, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid long '%s'", text)
		}
		return vtable.NewLong(integer), nil
	case vtable.TypeIDFloat:
		float, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid float '%s'", text)
		}
		return vtable.NewFloat(float32(float)), nil
	case vtable.TypeIDDouble:
		float, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "invalid double '%s'", text)
		}
		return vtable.NewDouble(float), nil
	case vtable.TypeIDString:
		return vtable.NewString(text), nil
	case vtable.TypeIDVarBinary:
		return vtable.NewVarBinary([]byte(text)), nil
	}
	return vtable.Value{}, errors.Wrapf(vtable.ErrNotImplemented, "reading %s columns from csv", t)
}
