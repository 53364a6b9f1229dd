package csv

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// sampleRows is the number of records looked at when inferring a schema.
const sampleRows = 10

// InferSchema reads the header row and up to sampleRows records of the file at path
// and returns the column names with the narrowest types all sampled fields parse as.
// Columns are long, double, boolean or string. Empty fields don't constrain the type.
func InferSchema(path string, opts ...Option) ([]string, vtable.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vtable.Schema{}, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	return Infer(f, opts...)
}

// Infer is InferSchema for an open reader.
func Infer(r io.Reader, opts ...Option) ([]string, vtable.Schema, error) {
	o := newOptions(opts)
	decoder := newReader(r, o)

	row, err := decoder.Read()
	if err != nil {
		return nil, vtable.Schema{}, errors.Wrap(err, "couldn't decode csv header row")
	}
	names := make([]string, len(row))
	if o.headerRow {
		copy(names, row)
	} else {
		for i := range names {
			names[i] = "column_" + strconv.Itoa(i)
		}
	}

	fields := make([]vtable.Type, len(names))
	filled := make([]bool, len(names))
	observe := func(row []string) {
		for i := range row {
			if i >= len(fields) || row[i] == "" {
				continue
			}
			t := fieldType(row[i])
			if !filled[i] {
				fields[i] = t
				filled[i] = true
			} else {
				fields[i] = typeSum(fields[i], t)
			}
		}
	}
	if !o.headerRow {
		observe(row)
	}
	for i := 0; i < sampleRows; i++ {
		row, err = decoder.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, vtable.Schema{}, errors.Wrap(err, "couldn't decode record")
		}
		observe(row)
	}

	for i := range fields {
		if !filled[i] {
			fields[i] = vtable.String
		}
	}
	return names, vtable.NewSchema(fields...), nil
}

func fieldType(text string) vtable.Type {
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return vtable.Long
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return vtable.Double
	}
	if _, err := strconv.ParseBool(text); err == nil {
		return vtable.Boolean
	}
	return vtable.String
}

// typeSum returns the narrowest type both types' fields parse as.
func typeSum(left, right vtable.Type) vtable.Type {
	switch {
	case left.Equal(right):
		return left
	case isNumeric(left) && isNumeric(right):
		return vtable.Double
	}
	return vtable.String
}

func isNumeric(t vtable.Type) bool {
	return t.TypeID == vtable.TypeIDLong || t.TypeID == vtable.TypeIDDouble
}
