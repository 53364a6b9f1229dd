package vtable

import (
	"bytes"
	"fmt"
	"strings"
)

// Value is a single, self-describing cell value.
// A Value with Missing set carries no data, regardless of its Type.
type Value struct {
	Type        Type
	Missing     bool
	Boolean     bool
	Byte        int8
	Int         int32
	Long        int64
	Float       float32
	Double      float64
	Str         string
	Binary      []byte
	List        []Value
	FieldValues []Value
}

func NewMissing(t Type) Value {
	return Value{Type: t, Missing: true}
}

func NewBoolean(value bool) Value {
	return Value{Type: Boolean, Boolean: value}
}

func NewByte(value int8) Value {
	return Value{Type: Byte, Byte: value}
}

func NewInt(value int32) Value {
	return Value{Type: Int, Int: value}
}

func NewLong(value int64) Value {
	return Value{Type: Long, Long: value}
}

func NewFloat(value float32) Value {
	return Value{Type: Float, Float: value}
}

func NewDouble(value float64) Value {
	return Value{Type: Double, Double: value}
}

func NewString(value string) Value {
	return Value{Type: String, Str: value}
}

func NewVarBinary(value []byte) Value {
	return Value{Type: VarBinary, Binary: value}
}

func NewList(element Type, values []Value) Value {
	return Value{Type: ListOf(element), List: values}
}

func NewStruct(t Type, fields []Value) Value {
	return Value{Type: t, FieldValues: fields}
}

// Equal compares type, missingness and payload. Two missing values of equal type are equal.
func (value Value) Equal(other Value) bool {
	if !value.Type.Equal(other.Type) || value.Missing != other.Missing {
		return false
	}
	if value.Missing {
		return true
	}

	switch value.Type.TypeID {
	case TypeIDBoolean:
		return value.Boolean == other.Boolean
	case TypeIDByte:
		return value.Byte == other.Byte
	case TypeIDInt:
		return value.Int == other.Int
	case TypeIDLong:
		return value.Long == other.Long
	case TypeIDFloat:
		return value.Float == other.Float
	case TypeIDDouble:
		return value.Double == other.Double
	case TypeIDString:
		return value.Str == other.Str
	case TypeIDVarBinary:
		return bytes.Equal(value.Binary, other.Binary)
	case TypeIDList:
		return valuesEqual(value.List, other.List)
	case TypeIDStruct:
		return valuesEqual(value.FieldValues, other.FieldValues)
	}
	return false
}

func valuesEqual(left, right []Value) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if !left[i].Equal(right[i]) {
			return false
		}
	}
	return true
}

func (value Value) String() string {
	builder := &strings.Builder{}
	value.append(builder)
	return builder.String()
}

func (value Value) append(builder *strings.Builder) {
	if value.Missing {
		builder.WriteString("?")
		return
	}
	switch value.Type.TypeID {
	case TypeIDBoolean:
		fmt.Fprintf(builder, "%t", value.Boolean)
	case TypeIDByte:
		fmt.Fprintf(builder, "%d", value.Byte)
	case TypeIDInt:
		fmt.Fprintf(builder, "%d", value.Int)
	case TypeIDLong:
		fmt.Fprintf(builder, "%d", value.Long)
	case TypeIDFloat:
		fmt.Fprintf(builder, "%v", value.Float)
	case TypeIDDouble:
		fmt.Fprintf(builder, "%v", value.Double)
	case TypeIDString:
		builder.WriteString(value.Str)
	case TypeIDVarBinary:
		fmt.Fprintf(builder, "%x", value.Binary)
	case TypeIDList:
		builder.WriteString("[")
		for i, element := range value.List {
			if i != 0 {
				builder.WriteString(", ")
			}
			element.append(builder)
		}
		builder.WriteString("]")
	case TypeIDStruct:
		builder.WriteString("{")
		for i, field := range value.FieldValues {
			if i != 0 {
				builder.WriteString(", ")
			}
			field.append(builder)
		}
		builder.WriteString("}")
	default:
		builder.WriteString("<unsupported>")
	}
}
