// Package functions contains the builtin named factories pipelines can refer to.
package functions

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/logical"
	"github.com/cube2222/vtable/vtable"
)

// Register adds all builtin factories to the registry.
func Register(registry *logical.Registry) {
	registry.RegisterMapper("upper", func(parameters []string) (execution.MapperFactory, error) {
		return Upper(), expectParameters(parameters, 0)
	})
	registry.RegisterMapper("length", func(parameters []string) (execution.MapperFactory, error) {
		return Length(), expectParameters(parameters, 0)
	})
	registry.RegisterMapper("add", func(parameters []string) (execution.MapperFactory, error) {
		return Add(), expectParameters(parameters, 0)
	})
	registry.RegisterPredicate("not_missing", func(parameters []string) (execution.PredicateFactory, error) {
		return NotMissing(), expectParameters(parameters, 0)
	})
	registry.RegisterPredicate("greater_than", newGreaterThan)
	registry.RegisterObserver("progress", newProgress)
}

func expectParameters(parameters []string, count int) error {
	if len(parameters) != count {
		return errors.Wrapf(vtable.ErrInvalidSpec, "expected %d parameters, got %d", count, len(parameters))
	}
	return nil
}

func expectInputs(inputs []access.ReadAccess, count int) error {
	if len(inputs) != count {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "expected %d input columns, got %d", count, len(inputs))
	}
	return nil
}

func expectKind(inputs []access.ReadAccess, kind vtable.TypeID) error {
	for i := range inputs {
		if inputs[i].Type().TypeID != kind {
			return errors.Wrapf(vtable.ErrSchemaMismatch, "input column %d is %s, expected %s", i, inputs[i].Type(), kind)
		}
	}
	return nil
}

func isNumeric(id vtable.TypeID) bool {
	switch id {
	case vtable.TypeIDByte, vtable.TypeIDInt, vtable.TypeIDLong, vtable.TypeIDFloat, vtable.TypeIDDouble:
		return true
	}
	return false
}

func expectNumeric(inputs []access.ReadAccess) error {
	for i := range inputs {
		if !isNumeric(inputs[i].Type().TypeID) {
			return errors.Wrapf(vtable.ErrSchemaMismatch, "input column %d is %s, expected a number", i, inputs[i].Type())
		}
	}
	return nil
}

// numeric reads any numeric column as a double. The input must not be missing.
func numeric(input access.ReadAccess) float64 {
	switch input.Type().TypeID {
	case vtable.TypeIDByte:
		return float64(input.ByteValue())
	case vtable.TypeIDInt:
		return float64(input.IntValue())
	case vtable.TypeIDLong:
		return float64(input.LongValue())
	case vtable.TypeIDFloat:
		return float64(input.FloatValue())
	default:
		return input.DoubleValue()
	}
}
