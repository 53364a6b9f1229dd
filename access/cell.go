package access

import (
	"github.com/cube2222/vtable/vtable"
)

// Cell is a read accessor whose backing accessor can be swapped.
//
// Nodes hand out Cells as their outputs when the accessor actually serving a column changes
// during execution, e.g. an append switching an exhausted input to missing, or a source
// whose cursor accessors only exist after it has been opened. A Cell belongs to exactly one node.
type Cell struct {
	t        vtable.Type
	delegate ReadAccess
	missing  *Missing
}

// NewCell creates a cell which reads as missing until Set is called.
func NewCell(t vtable.Type) *Cell {
	missing := NewMissing(t)
	return &Cell{
		t:        t,
		delegate: missing,
		missing:  missing,
	}
}

func NewCells(schema vtable.Schema) []*Cell {
	out := make([]*Cell, schema.NumColumns())
	for i := range out {
		out[i] = NewCell(schema.Type(i))
	}
	return out
}

// Set repoints the cell. Setting nil makes the cell missing.
func (c *Cell) Set(delegate ReadAccess) {
	if delegate == nil {
		c.delegate = c.missing
		return
	}
	c.delegate = delegate
}

func (c *Cell) SetMissing() {
	c.delegate = c.missing
}

func (c *Cell) Delegate() ReadAccess {
	return c.delegate
}

func (c *Cell) Type() vtable.Type {
	return c.t
}

func (c *Cell) IsMissing() bool {
	return c.delegate.IsMissing()
}

func (c *Cell) BooleanValue() bool {
	return c.delegate.BooleanValue()
}

func (c *Cell) ByteValue() int8 {
	return c.delegate.ByteValue()
}

func (c *Cell) IntValue() int32 {
	return c.delegate.IntValue()
}

func (c *Cell) LongValue() int64 {
	return c.delegate.LongValue()
}

func (c *Cell) FloatValue() float32 {
	return c.delegate.FloatValue()
}

func (c *Cell) DoubleValue() float64 {
	return c.delegate.DoubleValue()
}

func (c *Cell) StringValue() string {
	return c.delegate.StringValue()
}

func (c *Cell) BinaryValue() []byte {
	return c.delegate.BinaryValue()
}

func (c *Cell) ListValue() []vtable.Value {
	return c.delegate.ListValue()
}

func (c *Cell) StructValue() []vtable.Value {
	return c.delegate.StructValue()
}

func (c *Cell) Value() vtable.Value {
	if c.delegate.IsMissing() {
		return vtable.NewMissing(c.t)
	}
	return c.delegate.Value()
}
