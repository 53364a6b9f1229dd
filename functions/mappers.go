package functions

import (
	"strings"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type upper struct{}

// Upper maps a string column to its upper case version.
func Upper() execution.MapperFactory {
	return upper{}
}

func (upper) Name() string {
	return "upper"
}

func (upper) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.String)
}

func (upper) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	if err := expectKind(inputs, vtable.TypeIDString); err != nil {
		return nil, err
	}
	return execution.MapperFunc(func() error {
		if !inputs[0].IsMissing() {
			outputs[0].SetString(strings.ToUpper(inputs[0].StringValue()))
		}
		return nil
	}), nil
}

type length struct{}

// Length maps a string column to its length in bytes.
func Length() execution.MapperFactory {
	return length{}
}

func (length) Name() string {
	return "length"
}

func (length) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.Long)
}

func (length) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	if err := expectKind(inputs, vtable.TypeIDString); err != nil {
		return nil, err
	}
	return execution.MapperFunc(func() error {
		if !inputs[0].IsMissing() {
			outputs[0].SetLong(int64(len(inputs[0].StringValue())))
		}
		return nil
	}), nil
}

type add struct{}

// Add sums any number of numeric columns into a double. The sum is missing if any input is.
func Add() execution.MapperFactory {
	return add{}
}

func (add) Name() string {
	return "add"
}

func (add) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.Double)
}

func (add) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	if err := expectNumeric(inputs); err != nil {
		return nil, err
	}
	return execution.MapperFunc(func() error {
		var sum float64
		for i := range inputs {
			if inputs[i].IsMissing() {
				return nil
			}
			sum += numeric(inputs[i])
		}
		outputs[0].SetDouble(sum)
		return nil
	}), nil
}
