package functions

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type notMissing struct{}

// NotMissing keeps rows in which none of the input columns is missing.
func NotMissing() execution.PredicateFactory {
	return notMissing{}
}

func (notMissing) Name() string {
	return "not_missing"
}

func (notMissing) CreatePredicate(inputs []access.ReadAccess) (execution.Predicate, error) {
	return execution.PredicateFunc(func() (bool, error) {
		for i := range inputs {
			if inputs[i].IsMissing() {
				return false, nil
			}
		}
		return true, nil
	}), nil
}

type greaterThan struct {
	threshold float64
}

// GreaterThan keeps rows whose numeric input column is present and greater than the threshold.
func GreaterThan(threshold float64) execution.PredicateFactory {
	return greaterThan{threshold: threshold}
}

func newGreaterThan(parameters []string) (execution.PredicateFactory, error) {
	if err := expectParameters(parameters, 1); err != nil {
		return nil, err
	}
	threshold, err := strconv.ParseFloat(parameters[0], 64)
	if err != nil {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "invalid threshold '%s'", parameters[0])
	}
	return GreaterThan(threshold), nil
}

func (f greaterThan) Name() string {
	return "greater_than"
}

func (f greaterThan) Parameters() []string {
	return []string{strconv.FormatFloat(f.threshold, 'g', -1, 64)}
}

func (f greaterThan) CreatePredicate(inputs []access.ReadAccess) (execution.Predicate, error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	if err := expectNumeric(inputs); err != nil {
		return nil, err
	}
	return execution.PredicateFunc(func() (bool, error) {
		return !inputs[0].IsMissing() && numeric(inputs[0]) > f.threshold, nil
	}), nil
}
