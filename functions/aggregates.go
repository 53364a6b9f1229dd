package functions

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Aggregate returns the named builtin aggregator: count, sum, min or max.
func Aggregate(name string) (execution.AggregatorFactory, error) {
	switch name {
	case "count":
		return Count(), nil
	case "sum":
		return Sum(), nil
	case "min":
		return Min(), nil
	case "max":
		return Max(), nil
	}
	return nil, errors.Wrapf(vtable.ErrInvalidSpec, "unknown aggregate: %s", name)
}

type count struct{}

// Count counts rows in which no input column is missing. Without inputs it counts all rows.
func Count() execution.AggregatorFactory {
	return count{}
}

func (count) OutputType() vtable.Type {
	return vtable.Long
}

func (count) CreateAggregator(inputs []access.ReadAccess) (execution.Aggregator, error) {
	return &countAggregator{inputs: inputs}, nil
}

type countAggregator struct {
	inputs []access.ReadAccess
	count  int64
}

func (a *countAggregator) Update() error {
	for i := range a.inputs {
		if a.inputs[i].IsMissing() {
			return nil
		}
	}
	a.count++
	return nil
}

func (a *countAggregator) Result() (vtable.Value, error) {
	return vtable.NewLong(a.count), nil
}

type sum struct{}

// Sum adds up a numeric column, skipping missing values.
func Sum() execution.AggregatorFactory {
	return sum{}
}

func (sum) OutputType() vtable.Type {
	return vtable.Double
}

func (sum) CreateAggregator(inputs []access.ReadAccess) (execution.Aggregator, error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	if err := expectNumeric(inputs); err != nil {
		return nil, err
	}
	return &sumAggregator{input: inputs[0]}, nil
}

type sumAggregator struct {
	input access.ReadAccess
	sum   float64
}

func (a *sumAggregator) Update() error {
	if !a.input.IsMissing() {
		a.sum += numeric(a.input)
	}
	return nil
}

func (a *sumAggregator) Result() (vtable.Value, error) {
	return vtable.NewDouble(a.sum), nil
}

type extremum struct {
	max bool
}

// Min is the smallest value of a numeric column, missing if there are no values.
func Min() execution.AggregatorFactory {
	return extremum{max: false}
}

// Max is the largest value of a numeric column, missing if there are no values.
func Max() execution.AggregatorFactory {
	return extremum{max: true}
}

func (extremum) OutputType() vtable.Type {
	return vtable.Double
}

func (f extremum) CreateAggregator(inputs []access.ReadAccess) (execution.Aggregator, error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	if err := expectNumeric(inputs); err != nil {
		return nil, err
	}
	return &extremumAggregator{input: inputs[0], max: f.max}, nil
}

type extremumAggregator struct {
	input access.ReadAccess
	max   bool
	set   bool
	value float64
}

func (a *extremumAggregator) Update() error {
	if a.input.IsMissing() {
		return nil
	}
	value := numeric(a.input)
	if !a.set || (a.max && value > a.value) || (!a.max && value < a.value) {
		a.value = value
		a.set = true
	}
	return nil
}

func (a *extremumAggregator) Result() (vtable.Value, error) {
	if !a.set {
		return vtable.NewMissing(vtable.Double), nil
	}
	return vtable.NewDouble(a.value), nil
}
