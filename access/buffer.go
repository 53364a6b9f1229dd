package access

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// Buffer is a single writable and readable value slot.
type Buffer struct {
	value vtable.Value
}

// NewBuffer creates a missing buffer of the given type.
// Types without accessor support are rejected with vtable.ErrNotImplemented.
func NewBuffer(t vtable.Type) (*Buffer, error) {
	if !t.Supported() {
		return nil, errors.Wrapf(vtable.ErrNotImplemented, "accessors for type %s", t)
	}
	return &Buffer{value: vtable.NewMissing(t)}, nil
}

// NewBuffers creates one buffer per column of the schema.
func NewBuffers(schema vtable.Schema) ([]*Buffer, error) {
	out := make([]*Buffer, schema.NumColumns())
	for i := range out {
		buffer, err := NewBuffer(schema.Type(i))
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't create buffer for column %d", i)
		}
		out[i] = buffer
	}
	return out, nil
}

func (b *Buffer) Type() vtable.Type {
	return b.value.Type
}

func (b *Buffer) IsMissing() bool {
	return b.value.Missing
}

func (b *Buffer) BooleanValue() bool {
	checkKind(b.value.Type, vtable.TypeIDBoolean)
	return b.value.Boolean
}

func (b *Buffer) ByteValue() int8 {
	checkKind(b.value.Type, vtable.TypeIDByte)
	return b.value.Byte
}

func (b *Buffer) IntValue() int32 {
	checkKind(b.value.Type, vtable.TypeIDInt)
	return b.value.Int
}

func (b *Buffer) LongValue() int64 {
	checkKind(b.value.Type, vtable.TypeIDLong)
	return b.value.Long
}

func (b *Buffer) FloatValue() float32 {
	checkKind(b.value.Type, vtable.TypeIDFloat)
	return b.value.Float
}

func (b *Buffer) DoubleValue() float64 {
	checkKind(b.value.Type, vtable.TypeIDDouble)
	return b.value.Double
}

func (b *Buffer) StringValue() string {
	checkKind(b.value.Type, vtable.TypeIDString)
	return b.value.Str
}

func (b *Buffer) BinaryValue() []byte {
	checkKind(b.value.Type, vtable.TypeIDVarBinary)
	return b.value.Binary
}

func (b *Buffer) ListValue() []vtable.Value {
	checkKind(b.value.Type, vtable.TypeIDList)
	return b.value.List
}

func (b *Buffer) StructValue() []vtable.Value {
	checkKind(b.value.Type, vtable.TypeIDStruct)
	return b.value.FieldValues
}

func (b *Buffer) Value() vtable.Value {
	return b.value
}

// reset clears the payload, keeping only the type.
func (b *Buffer) reset() {
	b.value = vtable.Value{Type: b.value.Type}
}

func (b *Buffer) SetMissing() {
	b.value = vtable.NewMissing(b.value.Type)
}

func (b *Buffer) SetBoolean(value bool) {
	checkKind(b.value.Type, vtable.TypeIDBoolean)
	b.reset()
	b.value.Boolean = value
}

func (b *Buffer) SetByte(value int8) {
	checkKind(b.value.Type, vtable.TypeIDByte)
	b.reset()
	b.value.Byte = value
}

func (b *Buffer) SetInt(value int32) {
	checkKind(b.value.Type, vtable.TypeIDInt)
	b.reset()
	b.value.Int = value
}

func (b *Buffer) SetLong(value int64) {
	checkKind(b.value.Type, vtable.TypeIDLong)
	b.reset()
	b.value.Long = value
}

func (b *Buffer) SetFloat(value float32) {
	checkKind(b.value.Type, vtable.TypeIDFloat)
	b.reset()
	b.value.Float = value
}

func (b *Buffer) SetDouble(value float64) {
	checkKind(b.value.Type, vtable.TypeIDDouble)
	b.reset()
	b.value.Double = value
}

func (b *Buffer) SetString(value string) {
	checkKind(b.value.Type, vtable.TypeIDString)
	b.reset()
	b.value.Str = value
}

func (b *Buffer) SetBinary(value []byte) {
	checkKind(b.value.Type, vtable.TypeIDVarBinary)
	b.reset()
	b.value.Binary = value
}

func (b *Buffer) SetList(values []vtable.Value) {
	checkKind(b.value.Type, vtable.TypeIDList)
	b.reset()
	b.value.List = values
}

func (b *Buffer) SetStruct(fields []vtable.Value) {
	checkKind(b.value.Type, vtable.TypeIDStruct)
	b.reset()
	b.value.FieldValues = fields
}

func (b *Buffer) SetValue(value vtable.Value) error {
	if !value.Type.Equal(b.value.Type) {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "can't write %s value into %s column", value.Type, b.value.Type)
	}
	b.value = value
	return nil
}
