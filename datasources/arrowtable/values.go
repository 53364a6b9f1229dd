package arrowtable

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// valueAt reads row i of arr, which must have been converted to t.
func valueAt(arr arrow.Array, t vtable.Type, i int) (vtable.Value, error) {
	if arr.IsNull(i) {
		return vtable.NewMissing(t), nil
	}
	switch arr := arr.(type) {
	case *array.Boolean:
		return vtable.NewBoolean(arr.Value(i)), nil
	case *array.Int8:
		return vtable.NewByte(arr.Value(i)), nil
	case *array.Int32:
		return vtable.NewInt(arr.Value(i)), nil
	case *array.Int64:
		return vtable.NewLong(arr.Value(i)), nil
	case *array.Float32:
		return vtable.NewFloat(arr.Value(i)), nil
	case *array.Float64:
		return vtable.NewDouble(arr.Value(i)), nil
	case *array.String:
		return vtable.NewString(arr.Value(i)), nil
	case *array.Binary:
		value := arr.Value(i)
		return vtable.NewVarBinary(append([]byte(nil), value...)), nil
	case *array.Dictionary:
		return valueAt(arr.Dictionary(), t, arr.GetValueIndex(i))
	case *array.List:
		start, end := arr.ValueOffsets(i)
		values := make([]vtable.Value, 0, end-start)
		for j := start; j < end; j++ {
			value, err := valueAt(arr.ListValues(), *t.List.Element, int(j))
			if err != nil {
				return vtable.Value{}, err
			}
			values = append(values, value)
		}
		return vtable.NewList(*t.List.Element, values), nil
	case *array.Struct:
		fields := make([]vtable.Value, arr.NumField())
		for j := range fields {
			value, err := valueAt(arr.Field(j), t.Struct.Fields[j], i)
			if err != nil {
				return vtable.Value{}, err
			}
			fields[j] = value
		}
		return vtable.NewStruct(t, fields), nil
	}
	return vtable.Value{}, errors.Wrapf(vtable.ErrNotImplemented, "reading arrow array %T", arr)
}

// appendValue appends value to a builder created for the value's type.
func appendValue(builder array.Builder, value vtable.Value) error {
	if value.Missing {
		builder.AppendNull()
		return nil
	}
	switch builder := builder.(type) {
	case *array.BooleanBuilder:
		builder.Append(value.Boolean)
	case *array.Int8Builder:
		builder.Append(value.Byte)
	case *array.Int32Builder:
		builder.Append(value.Int)
	case *array.Int64Builder:
		builder.Append(value.Long)
	case *array.Float32Builder:
		builder.Append(value.Float)
	case *array.Float64Builder:
		builder.Append(value.Double)
	case *array.StringBuilder:
		builder.Append(value.Str)
	case *array.BinaryBuilder:
		builder.Append(value.Binary)
	case *array.ListBuilder:
		builder.Append(true)
		for i := range value.List {
			if err := appendValue(builder.ValueBuilder(), value.List[i]); err != nil {
				return err
			}
		}
	case *array.StructBuilder:
		builder.Append(true)
		for i := range value.FieldValues {
			if err := appendValue(builder.FieldBuilder(i), value.FieldValues[i]); err != nil {
				return err
			}
		}
	default:
		return errors.Wrapf(vtable.ErrNotImplemented, "writing %s values with %T", value.Type, builder)
	}
	return nil
}
