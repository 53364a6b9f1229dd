package access

import (
	"github.com/cube2222/vtable/vtable"
)

// Missing is a read-only accessor which is always missing.
type Missing struct {
	t vtable.Type
}

func NewMissing(t vtable.Type) *Missing {
	return &Missing{t: t}
}

// NewMissingAccesses creates one missing accessor per column of the schema.
func NewMissingAccesses(schema vtable.Schema) []ReadAccess {
	out := make([]ReadAccess, schema.NumColumns())
	for i := range out {
		out[i] = NewMissing(schema.Type(i))
	}
	return out
}

func (m *Missing) Type() vtable.Type {
	return m.t
}

func (m *Missing) IsMissing() bool {
	return true
}

func (m *Missing) BooleanValue() bool {
	checkKind(m.t, vtable.TypeIDBoolean)
	return false
}

func (m *Missing) ByteValue() int8 {
	checkKind(m.t, vtable.TypeIDByte)
	return 0
}

func (m *Missing) IntValue() int32 {
	checkKind(m.t, vtable.TypeIDInt)
	return 0
}

func (m *Missing) LongValue() int64 {
	checkKind(m.t, vtable.TypeIDLong)
	return 0
}

func (m *Missing) FloatValue() float32 {
	checkKind(m.t, vtable.TypeIDFloat)
	return 0
}

func (m *Missing) DoubleValue() float64 {
	checkKind(m.t, vtable.TypeIDDouble)
	return 0
}

func (m *Missing) StringValue() string {
	checkKind(m.t, vtable.TypeIDString)
	return ""
}

func (m *Missing) BinaryValue() []byte {
	checkKind(m.t, vtable.TypeIDVarBinary)
	return nil
}

func (m *Missing) ListValue() []vtable.Value {
	checkKind(m.t, vtable.TypeIDList)
	return nil
}

func (m *Missing) StructValue() []vtable.Value {
	checkKind(m.t, vtable.TypeIDStruct)
	return nil
}

func (m *Missing) Value() vtable.Value {
	return vtable.NewMissing(m.t)
}
