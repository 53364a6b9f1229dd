// Package access contains the typed column accessors every runtime component is built from.
//
// A ReadAccess exposes the value of one column at the current row of whatever produces it.
// Accessors are never copied by the engine: nodes hand out the same accessor for the lifetime
// of a cursor and update the value behind it when they advance.
package access

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// ReadAccess reads a single column of the current row.
// The typed getters panic when called for a different kind than Type reports.
// Their result is undefined if IsMissing is true.
type ReadAccess interface {
	Type() vtable.Type
	IsMissing() bool

	BooleanValue() bool
	ByteValue() int8
	IntValue() int32
	LongValue() int64
	FloatValue() float32
	DoubleValue() float64
	StringValue() string
	BinaryValue() []byte
	ListValue() []vtable.Value
	StructValue() []vtable.Value

	// Value returns the current value in its self-describing form.
	Value() vtable.Value
}

// WriteAccess writes a single column of the current row.
type WriteAccess interface {
	Type() vtable.Type
	SetMissing()

	SetBoolean(value bool)
	SetByte(value int8)
	SetInt(value int32)
	SetLong(value int64)
	SetFloat(value float32)
	SetDouble(value float64)
	SetString(value string)
	SetBinary(value []byte)
	SetList(values []vtable.Value)
	SetStruct(fields []vtable.Value)

	// SetValue writes a self-describing value, which must be of the accessor's type.
	SetValue(value vtable.Value) error
}

// ReadWriteAccess is implemented by accessors which can be both written and read, like Buffer.
type ReadWriteAccess interface {
	ReadAccess
	WriteAccess
}

// Copy writes the current value of src into dst.
func Copy(dst WriteAccess, src ReadAccess) error {
	if src.IsMissing() {
		dst.SetMissing()
		return nil
	}
	if !dst.Type().Equal(src.Type()) {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "can't copy %s into %s", src.Type(), dst.Type())
	}
	switch src.Type().TypeID {
	case vtable.TypeIDBoolean:
		dst.SetBoolean(src.BooleanValue())
	case vtable.TypeIDByte:
		dst.SetByte(src.ByteValue())
	case vtable.TypeIDInt:
		dst.SetInt(src.IntValue())
	case vtable.TypeIDLong:
		dst.SetLong(src.LongValue())
	case vtable.TypeIDFloat:
		dst.SetFloat(src.FloatValue())
	case vtable.TypeIDDouble:
		dst.SetDouble(src.DoubleValue())
	case vtable.TypeIDString:
		dst.SetString(src.StringValue())
	case vtable.TypeIDVarBinary:
		dst.SetBinary(src.BinaryValue())
	case vtable.TypeIDList:
		dst.SetList(src.ListValue())
	case vtable.TypeIDStruct:
		dst.SetStruct(src.StructValue())
	default:
		return errors.Wrapf(vtable.ErrNotImplemented, "copying values of type %s", src.Type())
	}
	return nil
}

// Values reads the current row of the given accessors.
func Values(accesses []ReadAccess) []vtable.Value {
	out := make([]vtable.Value, len(accesses))
	for i := range accesses {
		out[i] = accesses[i].Value()
	}
	return out
}

func checkKind(t vtable.Type, want vtable.TypeID) {
	if t.TypeID != want {
		panic(fmt.Sprintf("can't access %s column as %s", t, want))
	}
}
