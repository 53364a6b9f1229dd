// Package json loads JSON lines files, one object per line, into in-memory tables.
package json

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/cube2222/vtable/datasources/memory"
	"github.com/cube2222/vtable/vtable"
)

// Field maps a top-level object key to a column.
type Field struct {
	Name string
	Type vtable.Type
}

// Schema returns the table schema of the fields.
func Schema(fields []Field) vtable.Schema {
	types := make([]vtable.Type, len(fields))
	for i := range fields {
		types[i] = fields[i].Type
	}
	return vtable.NewSchema(types...)
}

// Open loads the file at path, see Load.
func Open(path string, fields []Field, opts ...memory.Option) (*memory.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	table, err := Load(f, fields, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load %s", path)
	}
	return table, nil
}

// Load reads one object per line. Absent keys and nulls are missing.
// A value not matching its column type is an error, except that any value can be read into a
// string column as its JSON text.
func Load(r io.Reader, fields []Field, opts ...memory.Option) (*memory.Table, error) {
	sc := bufio.NewScanner(bufio.NewReaderSize(r, 4096*1024))
	sc.Buffer(nil, 1024*1024)

	var p fastjson.Parser
	var rows [][]vtable.Value
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		v, err := p.ParseBytes(sc.Bytes())
		if err != nil {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "couldn't parse json on line %d: %s", line, err)
		}
		o, err := v.Object()
		if err != nil {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "expected JSON object on line %d, got '%s'", line, sc.Text())
		}

		row := make([]vtable.Value, len(fields))
		for i := range fields {
			value, err := getValue(fields[i].Type, o.Get(fields[i].Name))
			if err != nil {
				return nil, errors.Wrapf(err, "line %d field %s", line, fields[i].Name)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't scan lines")
	}

	return memory.NewTable(Schema(fields), rows, opts...)
}

func getValue(t vtable.Type, value *fastjson.Value) (vtable.Value, error) {
	if value == nil || value.Type() == fastjson.TypeNull {
		return vtable.NewMissing(t), nil
	}

	switch t.TypeID {
	case vtable.TypeIDBoolean:
		switch value.Type() {
		case fastjson.TypeTrue:
			return vtable.NewBoolean(true), nil
		case fastjson.TypeFalse:
			return vtable.NewBoolean(false), nil
		}
	case vtable.TypeIDByte:
		if v, err := value.Int(); err == nil && v >= -128 && v <= 127 {
			return vtable.NewByte(int8(v)), nil
		}
	case vtable.TypeIDInt:
		if v, err := value.Int(); err == nil && int(int32(v)) == v {
			return vtable.NewInt(int32(v)), nil
		}
	case vtable.TypeIDLong:
		if v, err := value.Int64(); err == nil {
			return vtable.NewLong(v), nil
		}
	case vtable.TypeIDFloat:
		if v, err := value.Float64(); err == nil {
			return vtable.NewFloat(float32(v)), nil
		}
	case vtable.TypeIDDouble:
		if v, err := value.Float64(); err == nil {
			return vtable.NewDouble(v), nil
		}
	case vtable.TypeIDString:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			return vtable.NewString(string(v)), nil
		}
		return vtable.NewString(value.String()), nil
	case vtable.TypeIDVarBinary:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			return vtable.NewVarBinary(append([]byte(nil), v...)), nil
		}
	case vtable.TypeIDList:
		if value.Type() == fastjson.TypeArray {
			arr, _ := value.Array()
			values := make([]vtable.Value, len(arr))
			for i := range arr {
				element, err := getValue(*t.List.Element, arr[i])
				if err != nil {
					return vtable.Value{}, errors.Wrapf(err, "element %d", i)
				}
				values[i] = element
			}
			return vtable.NewList(*t.List.Element, values), nil
		}
	case vtable.TypeIDStruct:
		// Struct fields are positional, so they're read from arrays.
		if value.Type() == fastjson.TypeArray {
			arr, _ := value.Array()
			if len(arr) != len(t.Struct.Fields) {
				break
			}
			values := make([]vtable.Value, len(arr))
			for i := range arr {
				field, err := getValue(t.Struct.Fields[i], arr[i])
				if err != nil {
					return vtable.Value{}, errors.Wrapf(err, "struct field %d", i)
				}
				values[i] = field
			}
			return vtable.NewStruct(t, values), nil
		}
	default:
		return vtable.Value{}, errors.Wrapf(vtable.ErrNotImplemented, "reading %s columns from json", t)
	}

	return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "can't read %s as %s", value.Type(), t)
}
