package formats

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// JSONSink writes one object per row, keyed by column name. Missing values are nulls.
type JSONSink struct {
	schema vtable.Schema
	buf    []byte
	arena  *fastjson.Arena
	w      io.Writer
	names  []string
}

func NewJSONSink(w io.Writer, schema vtable.Schema, names []string) *JSONSink {
	return &JSONSink{
		schema: schema,
		buf:    make([]byte, 0, 1024),
		arena:  new(fastjson.Arena),
		w:      w,
		names:  ColumnNames(schema.NumColumns(), names),
	}
}

func (t *JSONSink) Schema() vtable.Schema {
	return t.schema
}

func (t *JSONSink) Write(values []access.ReadAccess) error {
	if len(values) != t.schema.NumColumns() {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "got %d columns, table has %d", len(values), t.schema.NumColumns())
	}
	obj := t.arena.NewObject()
	for i := range t.names {
		obj.Set(t.names[i], ValueToJson(t.arena, values[i].Value()))
	}

	t.buf = obj.MarshalTo(t.buf)
	t.buf = append(t.buf, '\n')
	_, err := t.w.Write(t.buf)
	t.buf = t.buf[:0]
	t.arena.Reset()
	return errors.Wrap(err, "couldn't write row")
}

func (t *JSONSink) Flush() error {
	return nil
}

// ValueToJson encodes lists and structs as arrays and binary values as strings.
func ValueToJson(arena *fastjson.Arena, value vtable.Value) *fastjson.Value {
	if value.Missing {
		return arena.NewNull()
	}

	switch value.Type.TypeID {
	case vtable.TypeIDBoolean:
		if value.Boolean {
			return arena.NewTrue()
		} else {
			return arena.NewFalse()
		}
	case vtable.TypeIDByte:
		return arena.NewNumberInt(int(value.Byte))
	case vtable.TypeIDInt:
		return arena.NewNumberInt(int(value.Int))
	case vtable.TypeIDLong:
		return arena.NewNumberInt(int(value.Long))
	case vtable.TypeIDFloat:
		return arena.NewNumberFloat64(float64(value.Float))
	case vtable.TypeIDDouble:
		return arena.NewNumberFloat64(value.Double)
	case vtable.TypeIDString:
		return arena.NewString(value.Str)
	case vtable.TypeIDVarBinary:
		return arena.NewStringBytes(value.Binary)
	case vtable.TypeIDList:
		arr := arena.NewArray()
		for i := range value.List {
			arr.SetArrayItem(i, ValueToJson(arena, value.List[i]))
		}
		return arr
	case vtable.TypeIDStruct:
		arr := arena.NewArray()
		for i := range value.FieldValues {
			arr.SetArrayItem(i, ValueToJson(arena, value.FieldValues[i]))
		}
		return arr
	default:
		panic(fmt.Sprintf("invalid value type to print: %s", value.Type))
	}
}
